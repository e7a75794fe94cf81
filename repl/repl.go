/*
File    : workerscript/repl/repl.go

Package repl implements an interactive, line-at-a-time WorkerScript session:
type a line, see its effect immediately, with variables, the shared grid,
and the stack/memory space persisting across lines within the session.
*/
package repl

import (
	"io"
	"math/rand"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/akashmaji946/workerscript/host"
	"github.com/akashmaji946/workerscript/interp"
	"github.com/akashmaji946/workerscript/memory"
	"github.com/akashmaji946/workerscript/parser"
	"github.com/akashmaji946/workerscript/worker"
)

// Color definitions for REPL output, matching go-mix's repl palette: blue
// for decoration, yellow for results, red for errors, green for the
// banner, cyan for informational text.
var (
	blueColor   = color.New(color.FgBlue)
	yellowColor = color.New(color.FgYellow)
	redColor    = color.New(color.FgRed)
	greenColor  = color.New(color.FgGreen)
	cyanColor   = color.New(color.FgCyan)
)

// Repl is a single-worker interactive session.
type Repl struct {
	Banner  string
	Version string
	Author  string
	Line    string
	License string
	Prompt  string
}

// NewRepl builds a Repl with the given banner/version/author/separator/
// license/prompt text.
func NewRepl(banner, version, author, line, license, prompt string) *Repl {
	return &Repl{Banner: banner, Version: version, Author: author, Line: line, License: license, Prompt: prompt}
}

// PrintBannerInfo writes the startup banner and usage hints to writer.
func (r *Repl) PrintBannerInfo(writer io.Writer) {
	blueColor.Fprintf(writer, "%s\n", r.Line)
	greenColor.Fprintf(writer, "%s\n", r.Banner)
	blueColor.Fprintf(writer, "%s\n", r.Line)
	yellowColor.Fprintln(writer, "Version: "+r.Version+" | Author: "+r.Author+" | License: "+r.License)
	blueColor.Fprintf(writer, "%s\n", r.Line)
	cyanColor.Fprintf(writer, "%s\n", "Welcome to WorkerScript!")
	cyanColor.Fprintf(writer, "%s\n", "Type a line of WorkerScript and press enter")
	cyanColor.Fprintf(writer, "%s\n", "Type '.exit' to quit")
	cyanColor.Fprintf(writer, "%s\n", "Use up/down arrows to navigate command history")
	blueColor.Fprintf(writer, "%s\n", r.Line)
}

// Start runs the REPL main loop against stdin/stdout via chzyer/readline,
// driving one persistent Interpreter whose grid/memory/variables survive
// across entered lines.
func (r *Repl) Start(writer io.Writer) {
	r.PrintBannerInfo(writer)

	rl, err := readline.New(r.Prompt)
	if err != nil {
		panic(err)
	}
	defer rl.Close()

	grid := worker.NewGrid()
	mem := memory.New()
	fake := host.NewFake(grid)
	it := interp.New(fake, mem, rand.New(rand.NewSource(1)))

	for {
		line, err := rl.Readline()
		if err != nil {
			writer.Write([]byte("Good Bye!\n"))
			break
		}

		line = strings.Trim(line, " \n\t\r")
		if line == "" {
			continue
		}
		if line == ".exit" {
			writer.Write([]byte("Good Bye!\n"))
			break
		}
		rl.SaveHistory(line)

		r.executeWithRecovery(writer, line, it, fake)
	}
}

// executeWithRecovery parses and runs one line, printing its accumulated
// log output (if any) in yellow, parse errors in red, and recovering from
// any panic the way go-mix's REPL does so one bad line never kills the
// session.
func (r *Repl) executeWithRecovery(writer io.Writer, line string, it *interp.Interpreter, fake *host.Fake) {
	defer func() {
		if recovered := recover(); recovered != nil {
			redColor.Fprintf(writer, "[RUNTIME ERROR] %v\n", recovered)
		}
	}()

	prog, err := parser.Parse(line + "\n")
	if err != nil {
		redColor.Fprintf(writer, "%s\n", err)
		return
	}

	before := len(fake.Transcript)
	for _, l := range prog.Lines {
		halted, err := it.ExecuteLine(l.Statements)
		if err != nil {
			redColor.Fprintf(writer, "%s\n", err)
			return
		}
		if halted {
			cyanColor.Fprintf(writer, "%s\n", "(worker halted)")
			break
		}
	}
	if out := fake.Transcript[before:]; out != "" {
		yellowColor.Fprint(writer, out)
	}
}
