/*
File    : workerscript/host/terminal.go

Terminal is the real, interactive implementation of the Host contract: it
puts stdin in raw mode (golang.org/x/term) so `$` (GetChar) and `?`
(GetLine) can both be served from one byte-at-a-time reader goroutine
without stepping on each other, and writes program output and input echo
through fatih/color for the same red/yellow/cyan palette go-mix's repl and
main packages use.
*/
package host

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/akashmaji946/workerscript/worker"
)

var (
	outputColor = color.New(color.FgYellow)
	echoColor   = color.New(color.FgCyan)
)

// Terminal implements interp.Host against the process's real stdin/stdout.
type Terminal struct {
	grid *worker.Grid
	out  *os.File

	oldState *term.State // nil if stdin was never put in raw mode

	bytesCh chan byte
	closeCh chan struct{}
	once    sync.Once

	mu      sync.Mutex
	lineBuf []byte
}

// NewTerminal wires a Terminal to the given shared grid and starts its
// background stdin reader. If stdin is not a terminal (e.g. input is
// piped), it falls back to cooked-mode buffered reads — GetChar/GetLine
// still work, just without raw single-keystroke delivery.
func NewTerminal(grid *worker.Grid) (*Terminal, error) {
	t := &Terminal{
		grid:    grid,
		out:     os.Stdout,
		bytesCh: make(chan byte, 256),
		closeCh: make(chan struct{}),
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, fmt.Errorf("host: failed to enter raw mode: %w", err)
		}
		t.oldState = state
	}

	go t.readLoop()
	return t, nil
}

// readLoop is the single goroutine allowed to Read from stdin; GetChar and
// GetLine both drain from the channel it feeds, so raw mode's byte-by-byte
// delivery serves both callbacks without racing on the fd.
func (t *Terminal) readLoop() {
	r := bufio.NewReader(os.Stdin)
	buf := make([]byte, 1)
	for {
		select {
		case <-t.closeCh:
			return
		default:
		}
		n, err := r.Read(buf)
		if err != nil {
			close(t.bytesCh)
			return
		}
		if n > 0 {
			select {
			case t.bytesCh <- buf[0]:
			case <-t.closeCh:
				return
			}
		}
	}
}

// Close restores the terminal to cooked mode, if it was ever put in raw
// mode, and stops the reader goroutine.
func (t *Terminal) Close() error {
	var err error
	t.once.Do(func() {
		close(t.closeCh)
		if t.oldState != nil {
			err = term.Restore(int(os.Stdin.Fd()), t.oldState)
		}
	})
	return err
}

func (t *Terminal) Peek(index int) int16       { return t.grid.Peek(index) }
func (t *Terminal) Poke(x, y int, value int16) { t.grid.Poke(x, y, value) }

// Log writes program output verbatim, uncolored in substance but styled in
// its own palette entry, matching go-mix's evaluator-output-in-yellow
// convention.
func (t *Terminal) Log(text string) { outputColor.Fprint(t.out, text) }

// GetChar is a non-blocking single-byte read: 0 means nothing is waiting.
func (t *Terminal) GetChar() int16 {
	select {
	case b, ok := <-t.bytesCh:
		if !ok {
			return 0
		}
		return int16(b)
	default:
		return 0
	}
}

// GetLine drains whatever bytes have arrived since the last call, echoing
// newly typed characters (raw mode disables the kernel's own echo) and
// reporting a complete line once '\n' or '\r' is seen. The accumulated
// buffer is reset on completion.
func (t *Terminal) GetLine() (bool, string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		select {
		case b, ok := <-t.bytesCh:
			if !ok {
				return false, string(t.lineBuf)
			}
			if b == '\n' || b == '\r' {
				line := string(t.lineBuf)
				t.lineBuf = nil
				echoColor.Fprint(t.out, "\r\n")
				return true, line
			}
			if b == 0x7f || b == 0x08 { // backspace/delete
				if len(t.lineBuf) > 0 {
					t.lineBuf = t.lineBuf[:len(t.lineBuf)-1]
					echoColor.Fprint(t.out, "\b \b")
				}
				continue
			}
			t.lineBuf = append(t.lineBuf, b)
			echoColor.Fprintf(t.out, "%c", b)
		default:
			return false, string(t.lineBuf)
		}
	}
}

// PutByte emits the low 8 bits of value as a raw output byte.
func (t *Terminal) PutByte(value int16) {
	t.out.Write([]byte{byte(value)})
}
