/*
File    : workerscript/host/fake.go

Package host provides three concrete implementations of the interp.Host
contract named in spec.md §6: Fake, an in-memory double for tests and the
REPL; Console, the non-interactive batch host (console.go); and Terminal,
the real terminal-facing adapter (terminal.go).
*/
package host

import "github.com/akashmaji946/workerscript/worker"

// Fake is a deterministic, in-memory Host for tests: it backs Peek/Poke
// with a real *worker.Grid (so CAS and cross-worker sharing behave exactly
// as the real thing would) and queues characters/lines/output bytes the
// test can inspect afterward.
type Fake struct {
	Grid *worker.Grid

	Transcript string  // everything passed to Log, accumulated
	Chars      []int16 // consumed front-to-back by GetChar
	Lines      []string
	lineIdx    int
	PutBytes   []int16
}

// NewFake returns a Fake backed by a fresh Grid, unless g is non-nil — pass
// a shared Grid to let multiple Fakes (one per worker) see each other's
// POKEs, matching how worker.Manager wires real Hosts.
func NewFake(g *worker.Grid) *Fake {
	if g == nil {
		g = worker.NewGrid()
	}
	return &Fake{Grid: g}
}

func (f *Fake) Peek(index int) int16       { return f.Grid.Peek(index) }
func (f *Fake) Poke(x, y int, value int16) { f.Grid.Poke(x, y, value) }
func (f *Fake) Log(text string)            { f.Transcript += text }

func (f *Fake) GetChar() int16 {
	if len(f.Chars) == 0 {
		return 0
	}
	c := f.Chars[0]
	f.Chars = f.Chars[1:]
	return c
}

// GetLine reports each queued line, in order, as a complete line. Once the
// queue is drained it reports (false, ""); Fake never reports a non-empty
// partial line, so it does not exercise the incremental-echo path.
func (f *Fake) GetLine() (bool, string) {
	if f.lineIdx >= len(f.Lines) {
		return false, ""
	}
	line := f.Lines[f.lineIdx]
	f.lineIdx++
	return true, line
}

func (f *Fake) PutByte(value int16) { f.PutBytes = append(f.PutBytes, value) }
