/*
File    : workerscript/cmd/workerscript/main.go

Package main is the WorkerScript CLI entrypoint: `run` drives one or more
scripts to completion through a worker.Manager, `repl` starts a single
interactive session. Flag handling is intentionally minimal (the standard
`flag` package, no subcommand framework), matching go-mix's main.go.
*/
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/akashmaji946/workerscript/host"
	"github.com/akashmaji946/workerscript/interp"
	"github.com/akashmaji946/workerscript/memory"
	"github.com/akashmaji946/workerscript/parser"
	"github.com/akashmaji946/workerscript/repl"
	"github.com/akashmaji946/workerscript/worker"
)

const (
	version = "v1.0.0"
	author  = "akashmaji(@iisc.ac.in)"
	license = "MIT"
	prompt  = "ws >>> "
)

var banner = `
 ██     ██  ██████  ██████  ██   ██ ███████ ██████  ███████  ██████ ██████  ██ ██████  ████████
 ██     ██ ██    ██ ██   ██ ██  ██  ██      ██   ██ ██      ██      ██   ██ ██ ██   ██    ██
 ██  █  ██ ██    ██ ██████  █████   █████   ██████  ███████ ██      ██████  ██ ██████     ██
 ██ ███ ██ ██    ██ ██   ██ ██  ██  ██      ██   ██      ██ ██      ██   ██ ██ ██         ██
  ███ ███   ██████  ██   ██ ██   ██ ███████ ██   ██ ███████  ██████ ██   ██ ██ ██         ██
`

var line = "----------------------------------------------------------------"

var (
	redColor    = color.New(color.FgRed)
	yellowColor = color.New(color.FgYellow)
	cyanColor   = color.New(color.FgCyan)
)

// coloredWriter adapts a *color.Color into an io.Writer so it can be
// handed to host.NewConsole, which only knows about plain writers.
type coloredWriter struct{ c *color.Color }

func (w coloredWriter) Write(p []byte) (int, error) {
	w.c.Fprint(os.Stdout, string(p))
	return len(p), nil
}

func main() {
	if len(os.Args) < 2 {
		showHelp()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "--help", "-h":
		showHelp()
	case "--version", "-v":
		showVersion()
	case "repl":
		runRepl()
	case "run":
		runScripts(os.Args[2:])
	default:
		redColor.Fprintf(os.Stderr, "[USAGE ERROR] unknown command %q\n", os.Args[1])
		showHelp()
		os.Exit(1)
	}
}

func showHelp() {
	cyanColor.Println("WorkerScript - a cooperative multi-worker scripting language")
	cyanColor.Println("")
	cyanColor.Println("USAGE:")
	yellowColor.Println("  workerscript run <script...>    Run one or more scripts, one worker each")
	yellowColor.Println("  workerscript repl                Start an interactive session")
	yellowColor.Println("  workerscript --help              Display this help message")
	yellowColor.Println("  workerscript --version           Display version information")
}

func showVersion() {
	cyanColor.Println("WorkerScript")
	cyanColor.Printf("Version: %s\n", version)
	cyanColor.Printf("License: %s\n", license)
	cyanColor.Printf("Author : %s\n", author)
}

func runRepl() {
	r := repl.NewRepl(banner, version, author, line, license, prompt)
	r.Start(os.Stdout)
}

// runScripts loads every named file as its own worker sharing one grid and
// memory space, then pumps frames with a fixed per-frame step budget until
// every worker halts (spec.md §4.5, §5).
func runScripts(paths []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	stepsPerFrame := fs.Int("steps", 1000, "total statement budget spent per frame across all workers")
	frameHz := fs.Int("hz", 60, "frames per second")
	fs.Parse(paths)
	scripts := fs.Args()

	if len(scripts) == 0 {
		redColor.Fprintln(os.Stderr, "[USAGE ERROR] workerscript run requires at least one script path")
		os.Exit(1)
	}

	grid := worker.NewGrid()
	mem := memory.New()
	manager := worker.NewManager()

	for i, path := range scripts {
		src, err := os.ReadFile(path)
		if err != nil {
			redColor.Fprintf(os.Stderr, "[FILE ERROR] could not read %q: %v\n", path, err)
			os.Exit(1)
		}
		prog, err := parser.Parse(string(src))
		if err != nil {
			redColor.Fprintf(os.Stderr, "[PARSE ERROR] %s: %s\n", path, err)
			os.Exit(1)
		}
		id := fmt.Sprintf("w%d:%s", i, path)
		console := host.NewConsole(grid, coloredWriter{yellowColor})
		it := interp.New(console, mem, rand.New(rand.NewSource(int64(i)+1)))
		manager.Add(id, it, prog, string(src))
	}

	tick := time.Second / time.Duration(*frameHz)
	for manager.ExecuteFrame(*stepsPerFrame) {
		time.Sleep(tick)
	}

	for _, w := range manager.Workers() {
		if err := w.Interpreter.Err(); err != nil {
			redColor.Fprintf(os.Stderr, "[%s] %v\n", w.ID, err)
		}
	}
}
