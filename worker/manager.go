/*
File    : workerscript/worker/manager.go
*/
package worker

import (
	"github.com/akashmaji946/workerscript/ast"
	"github.com/akashmaji946/workerscript/interp"
)

// Record is one worker slot: its identity, its coroutine, and the source
// it was loaded from (spec.md §4.5 "{ id, interpreter, coroutine, script }").
// WorkerScript's Interpreter already models the coroutine as a step()/done
// state machine, so Record doesn't need a separate coroutine handle.
type Record struct {
	ID          string
	Interpreter *interp.Interpreter
	Script      string
}

// Manager holds an ordered collection of workers sharing one Grid and one
// MemorySpace, driving them frame-by-frame in a fixed, deterministic order
// (spec.md §4.5).
type Manager struct {
	workers []*Record
	cursor  int // next worker index due for a turn, persists across frames
}

// NewManager returns an empty Manager. Workers are added with Add.
func NewManager() *Manager {
	return &Manager{}
}

// Add registers a worker, loading program into the given Interpreter (which
// resets its execution state). Insertion order is the round-robin order for every subsequent
// frame (spec.md §4.5 "Ordering guarantee").
func (m *Manager) Add(id string, it *interp.Interpreter, program *ast.Program, script string) {
	it.LoadProgram(program)
	m.workers = append(m.workers, &Record{ID: id, Interpreter: it, Script: script})
}

// Workers returns the registered records in insertion order.
func (m *Manager) Workers() []*Record { return m.workers }

// ExecuteFrame implements spec.md §4.5's frame algorithm under the
// "frame-wide step budget" reading of §5: stepsPerFrame is the TOTAL
// statement budget for the frame, spent one statement at a time in strict
// round-robin order across workers (not a per-worker allowance) — the
// reading that actually produces §8's quantified property ("at most n
// statements execute across all workers; each runnable worker executes at
// most ceil(n/k)"). The cursor persists across calls so ordering stays
// fixed across the whole session, not just within one frame.
//
// It returns true if any worker remains running or waiting (the session
// should continue), false once every worker is permanently halted.
func (m *Manager) ExecuteFrame(stepsPerFrame int) bool {
	for _, w := range m.workers {
		w.Interpreter.ResumeFromFrameWait()
	}

	k := len(m.workers)
	for executed := 0; executed < stepsPerFrame && k > 0; {
		advanced := false
		for tries := 0; tries < k; tries++ {
			w := m.workers[m.cursor]
			m.cursor = (m.cursor + 1) % k
			if w.Interpreter.CanExecute() {
				w.Interpreter.Step()
				executed++
				advanced = true
				break
			}
		}
		if !advanced {
			break
		}
	}

	for _, w := range m.workers {
		if w.Interpreter.GetState() != interp.StateHalted {
			return true
		}
	}
	return false
}
