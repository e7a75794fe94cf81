package interp

import (
	"strconv"

	"github.com/akashmaji946/workerscript/ast"
)

// frameKind distinguishes a plain statement sequence (a top-level line, an
// IF branch) from a looping body, which needs extra state to decide
// whether to run another iteration once its statements are exhausted.
type frameKind int

const (
	frameSeq frameKind = iota
	frameFor
	frameWhile
)

// execFrame is one entry on the interpreter's explicit execution stack
// (spec.md §4.3, §5): a statement list plus a cursor into it. Nested
// IF/FOR/WHILE bodies push a new frame instead of being walked by
// recursive Go calls, so Step can return to the caller after any single
// leaf statement — including one buried inside a loop — rather than
// running a whole loop to completion in one call (see tickFrame's doc comment).
type execFrame struct {
	kind  frameKind
	stmts []ast.Statement
	idx   int

	// frameFor only.
	forVar  byte
	forEnd  int16
	forStep int16

	// frameWhile only.
	whileCond ast.Expression
}

func (it *Interpreter) pushSeq(stmts []ast.Statement) {
	if len(stmts) == 0 {
		return
	}
	it.frames = append(it.frames, &execFrame{kind: frameSeq, stmts: stmts})
}

func (it *Interpreter) popFrame() {
	it.frames = it.frames[:len(it.frames)-1]
}

// forContinues reports whether the FOR loop variable's current value still
// satisfies the loop test, checked both before the first iteration and
// after each increment (spec.md §4.3).
func forContinues(cur, end, step int16) bool {
	if step > 0 {
		return cur <= end
	}
	return cur >= end
}

// tickFrame performs one unit of work against a non-empty frame stack
// (callers must not invoke this when it.frames is empty). It either runs
// exactly one leaf statement (leafRan=true) or resolves the exhausted top
// frame: popping a finished plain sequence costs nothing (leafRan=false,
// loopBoundary=false — the caller keeps searching in the same Step call),
// but testing a FOR/WHILE loop's next-iteration condition is reported as
// loopBoundary=true, which the caller must treat as ending that Step call.
// That distinction is what makes an empty-bodied `while(1){}` yield once
// per call forever instead of spinning inside a single call: its loop
// frame's body is immediately "exhausted" (zero statements), so every
// visit re-tests the condition and returns rather than looping internally
// (spec.md §4.3, §5, §8 — the one-statement-per-turn guarantee must hold
// no matter how deeply nested or how small the loop body is).
func (it *Interpreter) tickFrame() (leafRan, loopBoundary, halted, jumped bool, err error) {
	top := it.frames[len(it.frames)-1]

	if top.idx >= len(top.stmts) {
		switch top.kind {
		case frameFor:
			next := it.getVar(top.forVar) + top.forStep
			it.setVar(top.forVar, next)
			if forContinues(next, top.forEnd, top.forStep) {
				top.idx = 0
			} else {
				it.popFrame()
			}
			return false, true, false, false, nil

		case frameWhile:
			cond, cerr := it.eval(top.whileCond)
			if cerr != nil {
				return false, true, false, false, cerr
			}
			if cond != 0 {
				top.idx = 0
			} else {
				it.popFrame()
			}
			return false, true, false, false, nil

		default:
			it.popFrame()
			return false, false, false, false, nil
		}
	}

	stmt := top.stmts[top.idx]
	h, j, lerr := it.execLeaf(stmt)
	if lerr != nil {
		// Leave idx unchanged: a real error halts the worker anyway, and
		// errAwaitingInput retries this exact statement next tick instead
		// of the enclosing line/loop from scratch.
		return false, false, false, false, lerr
	}
	top.idx++
	return true, false, h, j, nil
}

// execLeaf executes one statement that is not itself a block opener's
// sub-body — it may be an IF/FOR/WHILE header, but running one of those
// means evaluating its header and pushing a new frame, never recursing
// into the body here.
func (it *Interpreter) execLeaf(stmt ast.Statement) (halted bool, jumped bool, err error) {
	switch s := stmt.(type) {

	case *ast.AssignmentStatement:
		v, err := it.eval(s.Expr)
		if err != nil {
			return false, false, err
		}
		it.setVar(s.Var, v)
		return false, false, nil

	case *ast.OutputStatement:
		if lit, ok := s.Expr.(*ast.StringLiteral); ok {
			it.host.Log(lit.Value)
			return false, false, nil
		}
		v, err := it.eval(s.Expr)
		if err != nil {
			return false, false, err
		}
		it.host.Log(strconv.Itoa(int(v)))
		return false, false, nil

	case *ast.NewlineStatement:
		it.host.Log("\n")
		return false, false, nil

	case *ast.IfBlockStatement:
		cond, err := it.eval(s.Cond)
		if err != nil {
			return false, false, err
		}
		if cond != 0 {
			it.pushSeq(s.Then)
		} else {
			it.pushSeq(s.Else)
		}
		return false, false, nil

	case *ast.ForBlockStatement:
		start, err := it.eval(s.Start)
		if err != nil {
			return false, false, err
		}
		end, err := it.eval(s.End)
		if err != nil {
			return false, false, err
		}
		step := int16(1)
		if s.Step != nil {
			step, err = it.eval(s.Step)
			if err != nil {
				return false, false, err
			}
		}
		if step == 0 {
			return false, false, rtErr(s.Line(), "FOR step cannot be 0")
		}
		it.setVar(s.Var, start)
		if forContinues(start, end, step) {
			it.frames = append(it.frames, &execFrame{
				kind: frameFor, stmts: s.Body,
				forVar: s.Var, forEnd: end, forStep: step,
			})
		}
		return false, false, nil

	case *ast.WhileBlockStatement:
		cond, err := it.eval(s.Cond)
		if err != nil {
			return false, false, err
		}
		if cond != 0 {
			it.frames = append(it.frames, &execFrame{
				kind: frameWhile, stmts: s.Body, whileCond: s.Cond,
			})
		}
		return false, false, nil

	case *ast.GotoStatement:
		target, ok := 0, false
		if it.program != nil {
			target, ok = it.program.Labels[s.Label]
		}
		if !ok {
			return false, false, rtErr(s.Line(), "undefined label ^%s", s.Label)
		}
		it.lineIdx = target
		return false, true, nil

	case *ast.GosubStatement:
		target, ok := 0, false
		if it.program != nil {
			target, ok = it.program.Labels[s.Label]
		}
		if !ok {
			return false, false, rtErr(s.Line(), "undefined label ^%s", s.Label)
		}
		it.callStack = append(it.callStack, it.lineIdx+1)
		it.lineIdx = target
		return false, true, nil

	case *ast.ReturnStatement:
		if len(it.callStack) == 0 {
			return false, false, rtErr(s.Line(), "RETURN with empty call stack")
		}
		top := len(it.callStack) - 1
		it.lineIdx = it.callStack[top]
		it.callStack = it.callStack[:top]
		return false, true, nil

	case *ast.HaltStatement:
		return true, false, nil

	case *ast.WaitForNextFrameStatement:
		it.state = StateWaiting
		return false, false, nil

	case *ast.PokeStatement:
		v, err := it.eval(s.Expr)
		if err != nil {
			return false, false, err
		}
		it.host.Poke(int(it.getVar('X')), int(it.getVar('Y')), v)
		return false, false, nil

	case *ast.IoPutStatement:
		v, err := it.eval(s.Expr)
		if err != nil {
			return false, false, err
		}
		it.host.PutByte(v)
		return false, false, nil

	case *ast.ArrayAssignmentStatement:
		v, err := it.eval(s.Expr)
		if err != nil {
			return false, false, err
		}
		if s.IsLiteralMinusOne {
			it.mem.Push(v)
			return false, false, nil
		}
		idx, err := it.eval(s.Index)
		if err != nil {
			return false, false, err
		}
		it.mem.WriteArray(int(idx), v)
		return false, false, nil

	case *ast.ArrayInitializationStatement:
		// Parser already rejects [-1] here (spec.md Open Questions), so
		// Index always denotes a real memory address.
		idx, err := it.eval(s.Index)
		if err != nil {
			return false, false, err
		}
		base := int(idx)
		for i, e := range s.Exprs {
			v, err := it.eval(e)
			if err != nil {
				return false, false, err
			}
			it.mem.WriteArray(base+i, v)
		}
		return false, false, nil
	}

	return false, false, rtErr(stmt.Line(), "unhandled statement type %T", stmt)
}
