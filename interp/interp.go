/*
File    : workerscript/interp/interp.go

Package interp is the per-worker coroutine that walks a parsed Program,
evaluates expressions, and exposes the running/waiting/halted state machine
described in spec.md §4.3. It never touches the outside world directly —
every externally visible effect (grid access, log output, character and
line input) goes through the Host interface injected at construction, per
spec.md §6.
*/
package interp

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/akashmaji946/workerscript/ast"
	"github.com/akashmaji946/workerscript/memory"
)

// Host is the full set of collaborator callbacks spec.md §6 names. An
// Interpreter is otherwise self-contained: variables, call stack, and
// program counter all live on the Interpreter itself.
type Host interface {
	// Peek reads one grid cell at a linear index, wrapped mod 10,000.
	Peek(index int) int16
	// Poke writes one grid cell at (x, y), each wrapped mod 100.
	Poke(x, y int, value int16)
	// Log emits text to the host's transcript verbatim, no implicit newline.
	Log(text string)
	// GetChar is a non-blocking single-character read; 0 means no input.
	GetChar() int16
	// GetLine reports line-buffered text input. complete=false means a
	// partial line is pending (value holds it, possibly empty); complete=true
	// means a line just finished and value holds it without a newline.
	GetLine() (complete bool, value string)
	// PutByte emits one byte (the low 8 bits of value) to the output channel.
	PutByte(value int16)
}

// State is a worker's coarse execution state (spec.md §4.3).
type State int

const (
	StateRunning State = iota
	StateWaiting
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	case StateHalted:
		return "halted"
	}
	return "unknown"
}

// DebugMode records what a driving debugger asked for; the Interpreter
// itself never blocks on it — ShouldBreak tells the caller whether to stop
// the step loop (spec.md §4.3 debugger contract).
type DebugMode int

const (
	ModeRun DebugMode = iota
	ModeStepIn
	ModeStepOver
	ModeStepOut
	ModeBreak
)

// RuntimeError is a fatal evaluator/executor failure (spec.md §7 kind 3):
// it carries the originating source line and halts the worker that hit it.
type RuntimeError struct {
	Line int
	Msg  string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error at line %d: %s", e.Line, e.Msg)
}

func rtErr(line int, format string, args ...any) error {
	return &RuntimeError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

// errAwaitingInput is a sentinel, not a failure: it abandons the in-flight
// statement without advancing its frame's cursor, so that same statement is
// retried on the next Step (spec.md §4.3 "InputNumberExpression").
var errAwaitingInput = errors.New("awaiting line input")

// Interpreter is one worker's coroutine state.
type Interpreter struct {
	host Host
	mem  *memory.Space
	rng  *rand.Rand

	program *ast.Program

	vars      [26]int16
	callStack []int
	lineIdx   int
	state     State
	frames    []*execFrame // explicit execution stack; see interp_exec.go

	lastEchoed string

	lastErr error

	breakpoints map[int]bool
	debugMode   DebugMode
	debugDepth  int
}

// New creates an Interpreter with no program loaded; call LoadProgram
// before Step/Run. rng may be shared across workers or per-worker
// depending on the desired reproducibility (spec.md §5).
func New(host Host, mem *memory.Space, rng *rand.Rand) *Interpreter {
	return &Interpreter{
		host:        host,
		mem:         mem,
		rng:         rng,
		breakpoints: make(map[int]bool),
	}
}

// LoadProgram injects a parsed Program and resets all execution state.
func (it *Interpreter) LoadProgram(program *ast.Program) {
	it.program = program
	it.vars = [26]int16{}
	it.callStack = nil
	it.lineIdx = 0
	it.state = StateRunning
	it.frames = nil
	it.lastEchoed = ""
	it.lastErr = nil
}

// GetState reports the coarse execution state.
func (it *Interpreter) GetState() State { return it.state }

// CanExecute reports whether the next Step call would actually advance the
// program (used by WorkerManager to decide whether to call Step at all).
func (it *Interpreter) CanExecute() bool { return it.state == StateRunning }

// ResumeFromFrameWait transitions a waiting worker back to running, called
// by WorkerManager at each frame boundary.
func (it *Interpreter) ResumeFromFrameWait() {
	if it.state == StateWaiting {
		it.state = StateRunning
	}
}

// GetVariable returns the current value of variable name (A-Z).
func (it *Interpreter) GetVariable(name byte) int16 { return it.vars[name-'A'] }

// GetLine returns the index of the Program.Lines entry about to execute.
func (it *Interpreter) GetLine() int { return it.lineIdx }

// Err returns the fatal error that halted this worker, if any.
func (it *Interpreter) Err() error { return it.lastErr }

func (it *Interpreter) getVar(name byte) int16    { return it.vars[name-'A'] }
func (it *Interpreter) setVar(name byte, v int16) { it.vars[name-'A'] = v }

// Step advances the worker by exactly one statement — spec.md §4.3's
// execution unit — no matter how deeply that statement is nested inside
// IF/FOR/WHILE bodies. A block loop does not run to completion inside one
// Step call: each iteration's body statements, and the loop-test/increment
// between iterations, are each their own Step, via the explicit execFrame
// stack in interp_exec.go. This is what makes WorkerManager.ExecuteFrame's
// statement budget (spec.md §5, §8) meaningful even when a worker is deep
// inside a tight loop — it yields back to the scheduler after every single
// statement, not after every top-level line.
//
// Popping a frame whose body is already exhausted (a finished sequence, or
// the line it belongs to) costs nothing extra: Step keeps searching within
// the same call until it finds an actual statement to run, so a plain
// single-statement line still takes exactly one Step call, matching the
// pre-loop-fix accounting. Only a FOR/WHILE loop boundary (the test between
// iterations) forces Step to return without having run a statement — which
// is what stops an empty-bodied `while(1){}` from spinning inside one call
// forever instead of yielding every time.
//
// It returns true once the worker is halted or has run off the end of the
// program.
func (it *Interpreter) Step() bool {
	if it.state == StateHalted {
		return true
	}
	if it.state == StateWaiting {
		return false
	}

	for {
		if len(it.frames) == 0 {
			if it.program == nil || it.lineIdx >= len(it.program.Lines) {
				it.state = StateHalted
				return true
			}
			it.pushSeq(it.program.Lines[it.lineIdx].Statements)
			if len(it.frames) == 0 {
				// An empty line (e.g. a bare label): nothing to tick, keep
				// searching at the next line within this same Step call.
				it.lineIdx++
				if it.lineIdx >= len(it.program.Lines) {
					it.state = StateHalted
					return true
				}
				continue
			}
		}

		leafRan, loopBoundary, halted, jumped, err := it.tickFrame()
		if errors.Is(err, errAwaitingInput) {
			// The in-flight statement (wherever it is in the frame stack)
			// retries next tick; nothing else advances.
			return false
		}
		if err != nil {
			it.lastErr = err
			it.state = StateHalted
			it.host.Log(err.Error() + "\n")
			return true
		}
		if halted {
			it.state = StateHalted
			return true
		}
		if jumped {
			// GOTO/GOSUB/RETURN abandons every pending nested frame and
			// resumes fresh at the new lineIdx on the next Step call.
			it.frames = nil
			return false
		}
		if leafRan || loopBoundary {
			return false
		}
		// A finished sequence frame was popped for free. If that drained
		// every frame belonging to the current line, advance to the next
		// one and keep searching; otherwise loop back into the parent
		// frame that's still on the stack.
		if len(it.frames) == 0 {
			it.lineIdx++
			if it.lineIdx >= len(it.program.Lines) {
				it.state = StateHalted
				return true
			}
		}
	}
}

// ExecuteLine runs one already-parsed line's statements to completion
// against the interpreter's live state (variables, call stack, memory,
// grid) without loading them as a continuing Program. The REPL uses this:
// each entered line is its own ephemeral parse, but they all share one
// worker's state (SPEC_FULL.md §A.3). Unlike Step, ExecuteLine drains the
// line fully in one call — the REPL is not time-sharing this worker with
// any sibling, so there is no scheduler to yield back to. A GOTO/GOSUB
// inside such a line is resolved against the label table of the Program
// loaded with LoadProgram, not against the entered line's own labels; with
// no Program loaded (as in the REPL) it fails with "undefined label" — the
// REPL is a flat, line-at-a-time session, not a continuing program, so
// cross-line control flow is out of scope for it.
func (it *Interpreter) ExecuteLine(stmts []ast.Statement) (halted bool, err error) {
	it.pushSeq(stmts)
	base := len(it.frames) - 1
	if base < 0 {
		return false, nil // empty line, nothing to run
	}
	for len(it.frames) > base {
		_, _, halted, jumped, terr := it.tickFrame()
		if terr != nil {
			it.lastErr = terr
			it.frames = it.frames[:base]
			return true, terr
		}
		if halted {
			it.state = StateHalted
			it.frames = it.frames[:base]
			return true, nil
		}
		if jumped {
			it.frames = it.frames[:base]
			return false, nil
		}
	}
	return false, nil
}

// Run drives Step in a loop until the worker halts. It is the
// single-worker convenience form; WorkerManager drives Step directly so it
// can interleave multiple workers instead.
func (it *Interpreter) Run() {
	for !it.Step() {
	}
}

// --- debugger contract (spec.md §4.3, supplemented — see SPEC_FULL.md §C) --

func (it *Interpreter) SetBreakpoint(line int)   { it.breakpoints[line] = true }
func (it *Interpreter) ClearBreakpoint(line int) { delete(it.breakpoints, line) }

func (it *Interpreter) StepIn() { it.debugMode = ModeStepIn }

func (it *Interpreter) StepOver() {
	it.debugMode = ModeStepOver
	it.debugDepth = len(it.callStack)
}

func (it *Interpreter) StepOut() {
	it.debugMode = ModeStepOut
	it.debugDepth = len(it.callStack)
}

func (it *Interpreter) Continue() { it.debugMode = ModeRun }

// ShouldBreak reports whether a driving debugger should stop the step loop
// after the most recent Step call, given the current breakpoint set and
// debug mode. The Interpreter never consults this itself — a debugger
// calls Step in a loop and checks ShouldBreak after each.
func (it *Interpreter) ShouldBreak() bool {
	if it.breakpoints[it.lineIdx] {
		return true
	}
	switch it.debugMode {
	case ModeStepIn:
		return true
	case ModeStepOver:
		return len(it.callStack) <= it.debugDepth
	case ModeStepOut:
		return len(it.callStack) < it.debugDepth
	}
	return false
}
