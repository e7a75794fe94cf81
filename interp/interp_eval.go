package interp

import (
	"strconv"

	"github.com/akashmaji946/workerscript/ast"
	"github.com/akashmaji946/workerscript/token"
)

// eval recursively evaluates expr to an int16 (spec.md §4.3 "Expression
// evaluation"). A StringLiteral reaching here (anywhere but directly inside
// an OutputStatement, which special-cases it before calling eval) is a
// type violation — WorkerScript strings exist only at the statement level.
func (it *Interpreter) eval(expr ast.Expression) (int16, error) {
	switch e := expr.(type) {

	case *ast.NumericLiteral:
		return e.Value, nil

	case *ast.CharLiteral:
		return e.Value, nil

	case *ast.StringLiteral:
		return 0, rtErr(e.Line(), "a string cannot appear where a number is required")

	case *ast.Identifier:
		return it.getVar(e.Name), nil

	case *ast.BinaryExpression:
		return it.evalBinary(e)

	case *ast.UnaryExpression:
		return it.evalUnary(e)

	case *ast.PeekExpression:
		x, y := int(it.getVar('X')), int(it.getVar('Y'))
		return it.host.Peek(wrapGrid(y)*100+wrapGrid(x)), nil

	case *ast.RandomExpression:
		return int16(it.rng.Intn(1 << 16)), nil

	case *ast.IoGetExpression:
		return it.host.GetChar(), nil

	case *ast.InputNumberExpression:
		return it.evalInputNumber()

	case *ast.ArrayAccessExpression:
		if e.IsLiteralMinusOne {
			return it.mem.Pop(), nil
		}
		idx, err := it.eval(e.Index)
		if err != nil {
			return 0, err
		}
		return it.mem.ReadArray(int(idx)), nil

	case *ast.CompareAndSwapExpression:
		return it.evalCAS(e)
	}

	return 0, rtErr(expr.Line(), "unhandled expression type %T", expr)
}

func wrapGrid(v int) int {
	m := v % 100
	if m < 0 {
		m += 100
	}
	return m
}

func (it *Interpreter) evalBinary(e *ast.BinaryExpression) (int16, error) {
	l, err := it.eval(e.Left)
	if err != nil {
		return 0, err
	}
	r, err := it.eval(e.Right)
	if err != nil {
		return 0, err
	}
	switch e.Op {
	case token.PLUS:
		return l + r, nil
	case token.MINUS:
		return l - r, nil
	case token.STAR:
		return l * r, nil
	case token.SLASH:
		if r == 0 {
			return 0, rtErr(e.Line(), "division by zero")
		}
		return l / r, nil
	case token.PERCENT:
		if r == 0 {
			return 0, rtErr(e.Line(), "modulo by zero")
		}
		return l % r, nil
	case token.GT:
		return boolInt(l > r), nil
	case token.LT:
		return boolInt(l < r), nil
	case token.GE:
		return boolInt(l >= r), nil
	case token.LE:
		return boolInt(l <= r), nil
	case token.ASSIGN:
		return boolInt(l == r), nil
	case token.NE:
		return boolInt(l != r), nil
	case token.AMP:
		return boolInt(l != 0 && r != 0), nil
	case token.PIPE:
		return boolInt(l != 0 || r != 0), nil
	}
	return 0, rtErr(e.Line(), "unhandled binary operator %q", e.Op)
}

func boolInt(b bool) int16 {
	if b {
		return 1
	}
	return 0
}

func (it *Interpreter) evalUnary(e *ast.UnaryExpression) (int16, error) {
	v, err := it.eval(e.Operand)
	if err != nil {
		return 0, err
	}
	switch e.Op {
	case token.MINUS:
		return -v, nil
	case token.PLUS:
		return v, nil
	case token.BANG:
		return boolInt(v == 0), nil
	}
	return 0, rtErr(e.Line(), "unhandled unary operator %q", e.Op)
}

// evalInputNumber implements the blocking-from-the-script,
// polling-from-the-host line input contract (spec.md §4.3, §9). An
// incomplete line aborts the in-flight statement via errAwaitingInput, so
// tick leaves it unconsumed and Step retries exactly that statement next
// tick; only a just-completed line is consumed.
func (it *Interpreter) evalInputNumber() (int16, error) {
	complete, value := it.host.GetLine()
	if !complete {
		if len(value) > len(it.lastEchoed) {
			it.host.Log(value[len(it.lastEchoed):])
			it.lastEchoed = value
		}
		return 0, errAwaitingInput
	}
	it.lastEchoed = ""
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, nil
	}
	return int16(uint16(n)), nil
}

// evalCAS performs the grid-cell compare-and-swap (spec.md §4.3). The
// single-threaded cooperative model makes this trivially atomic: nothing
// else can run between the read and the write.
func (it *Interpreter) evalCAS(e *ast.CompareAndSwapExpression) (int16, error) {
	expected, err := it.eval(e.Expected)
	if err != nil {
		return 0, err
	}
	newVal, err := it.eval(e.New)
	if err != nil {
		return 0, err
	}
	x, y := int(it.getVar('X')), int(it.getVar('Y'))
	gx, gy := wrapGrid(x), wrapGrid(y)
	current := it.host.Peek(gy*100 + gx)
	if current != expected {
		return 0, nil
	}
	it.host.Poke(gx, gy, newVal)
	return 1, nil
}
