package worker

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashmaji946/workerscript/interp"
	"github.com/akashmaji946/workerscript/memory"
	"github.com/akashmaji946/workerscript/parser"
)

// recordingHost is a minimal interp.Host that appends every log write to a
// buffer and has no real grid/memory backing of its own — tests that need
// the shared grid construct one directly.
type recordingHost struct {
	grid *Grid
	mem  *memory.Space
	log  string
}

func newRecordingHost(g *Grid, mem *memory.Space) *recordingHost {
	return &recordingHost{grid: g, mem: mem}
}

func (h *recordingHost) Peek(index int) int16       { return h.grid.Peek(index) }
func (h *recordingHost) Poke(x, y int, value int16) { h.grid.Poke(x, y, value) }
func (h *recordingHost) Log(text string)            { h.log += text }
func (h *recordingHost) GetChar() int16             { return 0 }
func (h *recordingHost) GetLine() (bool, string)    { return false, "" }
func (h *recordingHost) PutByte(value int16)        {}

func TestExecuteFrame_RespectsTotalStepBudget(t *testing.T) {
	grid := NewGrid()
	mem := memory.New()
	host := newRecordingHost(grid, mem)

	src := "^L A=A+1\n#=^L\n"
	prog, err := parser.Parse(src)
	require.NoError(t, err)

	m := NewManager()
	it1 := interp.New(host, mem, rand.New(rand.NewSource(1)))
	m.Add("w1", it1, prog, src)

	cont := m.ExecuteFrame(5)
	assert.True(t, cont)
	assert.Equal(t, int16(3), it1.GetVariable('A'))
}

func TestExecuteFrame_FrameWaitLimitsToOnePerFrame(t *testing.T) {
	grid := NewGrid()
	mem := memory.New()
	host := newRecordingHost(grid, mem)

	src := "C=0\n^L\nC=C+1\n#=`\n#=^L\n"
	prog, err := parser.Parse(src)
	require.NoError(t, err)

	m := NewManager()
	it1 := interp.New(host, mem, rand.New(rand.NewSource(1)))
	m.Add("w1", it1, prog, src)

	for f := 1; f <= 4; f++ {
		m.ExecuteFrame(1000)
		assert.Equal(t, int16(f), it1.GetVariable('C'))
	}
}

// TestExecuteFrame_BlockForDoesNotStarveSibling guards against a worker deep
// inside a long block FOR loop hogging an entire ExecuteFrame call: each
// loop iteration must cost its own turn in the round-robin, not run to
// completion inside a single Step, or a sibling worker would never get a
// turn until the loop finished (spec.md §4.3, §5, §8).
func TestExecuteFrame_BlockForDoesNotStarveSibling(t *testing.T) {
	grid := NewGrid()
	mem := memory.New()
	hostLoop := newRecordingHost(grid, mem)
	hostOther := newRecordingHost(grid, mem)

	// A million-iteration FOR loop that would run to completion inside one
	// Step call under the old recursive execFor, starving any sibling for
	// the loop's entire duration.
	srcLoop := "S=0\n@=I,1,1000000\nS=S+I\n#=@\n?=S /\n"
	srcOther := "B=1\nB=2\nB=3\n?=B /\n"

	progLoop, err := parser.Parse(srcLoop)
	require.NoError(t, err)
	progOther, err := parser.Parse(srcOther)
	require.NoError(t, err)

	m := NewManager()
	itLoop := interp.New(hostLoop, mem, rand.New(rand.NewSource(1)))
	itOther := interp.New(hostOther, mem, rand.New(rand.NewSource(2)))
	m.Add("loop", itLoop, progLoop, srcLoop)
	m.Add("other", itOther, progOther, srcOther)

	cont := m.ExecuteFrame(10)

	assert.True(t, cont, "neither worker should have finished yet")
	assert.Equal(t, int16(3), itOther.GetVariable('B'),
		"sibling worker must progress through all 3 of its assignments, not be starved by the FOR loop")
	assert.Equal(t, int16(3), itLoop.GetVariable('S'),
		"the FOR loop must yield after each iteration (1+2=3), not run all 1,000,000 iterations in one go")
}

func TestExecuteFrame_TwoWorkersSharedCAS(t *testing.T) {
	grid := NewGrid()
	mem := memory.New()
	hostA := newRecordingHost(grid, mem)
	hostB := newRecordingHost(grid, mem)

	srcA := "X=0\nY=0\n`=0\n^L\nA=<&0,1>\n;=A=0 #=^L\n?=\"won\" /\n"
	srcB := "X=0\nY=0\n`=0\n^L\nA=<&0,2>\n;=A=0 #=^L\n?=\"won\" /\n"

	progA, err := parser.Parse(srcA)
	require.NoError(t, err)
	progB, err := parser.Parse(srcB)
	require.NoError(t, err)

	m := NewManager()
	itA := interp.New(hostA, mem, rand.New(rand.NewSource(1)))
	itB := interp.New(hostB, mem, rand.New(rand.NewSource(2)))
	m.Add("A", itA, progA, srcA)
	m.Add("B", itB, progB, srcB)

	for i := 0; i < 50; i++ {
		m.ExecuteFrame(20)
	}

	cell := grid.Peek(0)
	aWon := cell == 1
	bWon := cell == 2
	assert.True(t, aWon || bWon)

	if aWon {
		assert.Contains(t, hostA.log, "won")
	} else {
		assert.Contains(t, hostB.log, "won")
	}
}
