package host

import (
	"io"

	"github.com/akashmaji946/workerscript/worker"
)

// Console is a non-interactive Host: it streams Log/PutByte output to a
// writer as it happens and reports no input ever available. It's what
// `workerscript run` wires up for batch execution, where scripts are not
// expected to block on `$`/`?` — one Console per worker, all sharing one
// Grid, so POKE/CAS visibility across workers matches the real thing.
type Console struct {
	grid *worker.Grid
	out  io.Writer
}

// NewConsole returns a Console writing to out and reading/writing the
// given shared grid.
func NewConsole(grid *worker.Grid, out io.Writer) *Console {
	return &Console{grid: grid, out: out}
}

func (c *Console) Peek(index int) int16       { return c.grid.Peek(index) }
func (c *Console) Poke(x, y int, value int16) { c.grid.Poke(x, y, value) }
func (c *Console) Log(text string)            { io.WriteString(c.out, text) }
func (c *Console) GetChar() int16             { return 0 }
func (c *Console) GetLine() (bool, string)    { return false, "" }
func (c *Console) PutByte(value int16)        { c.out.Write([]byte{byte(value)}) }
