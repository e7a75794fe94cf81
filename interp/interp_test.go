package interp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akashmaji946/workerscript/memory"
	"github.com/akashmaji946/workerscript/parser"
)

// fakeHost is a minimal in-process Host for interpreter-level tests; it
// needs no concurrency story since these tests drive a single Interpreter
// directly, never through WorkerManager.
type fakeHost struct {
	grid      [10000]int16
	log       string
	chars     []int16
	lineQueue []string
	linePos   int
	putBytes  []int16
}

func (h *fakeHost) Peek(index int) int16 {
	i := index % 10000
	if i < 0 {
		i += 10000
	}
	return h.grid[i]
}

func (h *fakeHost) Poke(x, y int, value int16) {
	wx, wy := ((x%100)+100)%100, ((y%100)+100)%100
	h.grid[wy*100+wx] = value & 0xFF
}

func (h *fakeHost) Log(text string) { h.log += text }

func (h *fakeHost) GetChar() int16 {
	if len(h.chars) == 0 {
		return 0
	}
	c := h.chars[0]
	h.chars = h.chars[1:]
	return c
}

func (h *fakeHost) GetLine() (bool, string) {
	if h.linePos >= len(h.lineQueue) {
		return false, ""
	}
	line := h.lineQueue[h.linePos]
	h.linePos++
	return true, line
}

func (h *fakeHost) PutByte(value int16) { h.putBytes = append(h.putBytes, value) }

func newTestInterp(host Host) *Interpreter {
	return New(host, memory.New(), rand.New(rand.NewSource(1)))
}

func TestInterp_CanonicalCase1_InlineIfSkip(t *testing.T) {
	prog, err := parser.Parse("A=3\n;=A>5 ?=A\n?=\"done\" /\n")
	require.NoError(t, err)

	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()

	assert.Equal(t, "done\n", host.log)
	assert.Equal(t, StateHalted, it.GetState())
}

func TestInterp_CanonicalCase2_NestedForSum(t *testing.T) {
	prog, err := parser.Parse("S=0\n@=I,1,10\nS=S+I\n#=@\n?=S /\n")
	require.NoError(t, err)

	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()

	assert.Equal(t, "55\n", host.log)
}

// TestInterp_BlockForYieldsOneStatementPerStep confirms Step never runs a
// whole FOR body to completion inside a single call: a worker parked deep
// inside a many-iteration loop must still make only one leaf statement's
// worth of visible progress per call, so WorkerManager's per-frame step
// budget stays meaningful (spec.md §4.3, §5, §8).
func TestInterp_BlockForYieldsOneStatementPerStep(t *testing.T) {
	prog, err := parser.Parse("S=0\n@=I,1,1000000\nS=S+I\n#=@\n?=S /\n")
	require.NoError(t, err)

	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)

	it.Step() // S=0
	it.Step() // FOR header: I=1, pushes the loop body frame
	it.Step() // body: S=0+1=1
	assert.Equal(t, int16(1), it.GetVariable('S'),
		"one Step should advance the loop by exactly one iteration's body statement")
	assert.Equal(t, StateRunning, it.GetState())

	it.Step() // loop-boundary: I=2, condition still true
	assert.Equal(t, int16(1), it.GetVariable('S'),
		"the increment/test between iterations must not also run the body")

	it.Step() // body: S=1+2=3
	assert.Equal(t, int16(3), it.GetVariable('S'))
	assert.Equal(t, StateRunning, it.GetState(),
		"the worker must still be far from done after a handful of Step calls into a million-iteration loop")
}

func TestInterp_CanonicalCase3_BlockIfElse(t *testing.T) {
	prog, err := parser.Parse("A=5\n;=A>10\n?=\"big\"\n;\n?=\"small\"\n#=;\n/\n")
	require.NoError(t, err)

	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()

	assert.Equal(t, "small\n", host.log)
}

func TestInterp_CanonicalCase4_GosubReturn(t *testing.T) {
	prog, err := parser.Parse("!=^SUB\n?=\"after\" /\n#=-1\n^SUB\n?=\"in\" /\n#=!\n")
	require.NoError(t, err)

	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()

	assert.Equal(t, "in\nafter\n", host.log)
}

func TestInterp_CanonicalCase6_FrameWaitOncePerFrame(t *testing.T) {
	prog, err := parser.Parse("C=0\n^L\nC=C+1\n#=`\n#=^L\n")
	require.NoError(t, err)

	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)

	for f := 1; f <= 5; f++ {
		it.ResumeFromFrameWait()
		for !it.Step() {
			if it.GetState() == StateWaiting {
				break
			}
		}
		assert.Equal(t, int16(f), it.GetVariable('C'))
	}
}

func TestInterp_ArithmeticWrapsToInt16(t *testing.T) {
	prog, err := parser.Parse("A=32767\nA=A+1\n")
	require.NoError(t, err)
	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()
	assert.Equal(t, int16(-32768), it.GetVariable('A'))
}

func TestInterp_DivisionByZeroHalts(t *testing.T) {
	prog, err := parser.Parse("A=1/0\n")
	require.NoError(t, err)
	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()
	assert.Equal(t, StateHalted, it.GetState())
	require.Error(t, it.Err())
	assert.Contains(t, it.Err().Error(), "division by zero")
}

func TestInterp_ForStepZeroIsRuntimeError(t *testing.T) {
	prog, err := parser.Parse("@=I,1,10,0\nA=1\n#=@\n")
	require.NoError(t, err)
	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()
	assert.Equal(t, StateHalted, it.GetState())
	require.Error(t, it.Err())
	assert.Contains(t, it.Err().Error(), "FOR step cannot be 0")
}

func TestInterp_ReturnWithEmptyCallStackIsRuntimeError(t *testing.T) {
	prog, err := parser.Parse("#=!\n")
	require.NoError(t, err)
	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()
	assert.Equal(t, StateHalted, it.GetState())
	require.Error(t, it.Err())
	assert.Contains(t, it.Err().Error(), "RETURN with empty call stack")
}

func TestInterp_UndefinedLabelIsRuntimeError(t *testing.T) {
	prog, err := parser.Parse("#=^NOPE\n")
	require.NoError(t, err)
	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()
	assert.Equal(t, StateHalted, it.GetState())
	require.Error(t, it.Err())
	assert.Contains(t, it.Err().Error(), "undefined label")
}

func TestInterp_PeekPokeWrapCoordinates(t *testing.T) {
	prog, err := parser.Parse("X=105\nY=-3\n`=9\nA=`\n")
	require.NoError(t, err)
	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()
	assert.Equal(t, int16(9), it.GetVariable('A'))
	// (105 mod 100, -3 mod 100) = (5, 97)
	assert.Equal(t, int16(9), host.grid[97*100+5])
}

func TestInterp_CompareAndSwap_SuccessThenFailure(t *testing.T) {
	prog, err := parser.Parse("X=0\nY=0\nA=<&0,9>\nB=<&0,9>\n")
	require.NoError(t, err)
	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()
	assert.Equal(t, int16(1), it.GetVariable('A'))
	assert.Equal(t, int16(0), it.GetVariable('B'))
	assert.Equal(t, int16(9), host.grid[0])
}

func TestInterp_StackPushPop(t *testing.T) {
	prog, err := parser.Parse("[-1]=1\n[-1]=2\n[-1]=3\nA=[-1]\nB=[-1]\nC=[-1]\n")
	require.NoError(t, err)
	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()
	assert.Equal(t, int16(3), it.GetVariable('A'))
	assert.Equal(t, int16(2), it.GetVariable('B'))
	assert.Equal(t, int16(1), it.GetVariable('C'))
}

func TestInterp_InputNumberRetriesUntilLineComplete(t *testing.T) {
	prog, err := parser.Parse("A=?\n?=A /\n")
	require.NoError(t, err)
	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)

	// First couple of ticks: no line yet, worker stays running but idle,
	// retrying the same input statement each time.
	for i := 0; i < 3; i++ {
		done := it.Step()
		assert.False(t, done)
		assert.Equal(t, StateRunning, it.GetState())
	}
	host.lineQueue = []string{"42"}
	it.Run()
	assert.Equal(t, "42\n", host.log)
}

func TestInterp_UnassignedVariableReadsZero(t *testing.T) {
	prog, err := parser.Parse("?=Z /\n")
	require.NoError(t, err)
	host := &fakeHost{}
	it := newTestInterp(host)
	it.LoadProgram(prog)
	it.Run()
	assert.Equal(t, "0\n", host.log)
}
