package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/knotlang/knot/internal/config"
	"github.com/knotlang/knot/internal/heap"
	"github.com/knotlang/knot/internal/machine"
	"github.com/knotlang/knot/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args))
}

func usage() int {
	fmt.Println("usage: knot [filename | -c source]")
	return 2
}

func run(args []string) int {
	cfg := config.LoadDefault()

	in := pipeline.New()
	pipeline.BindParameters(in, args)
	if err := pipeline.Boot(in); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, path := range cfg.Preload {
		st, err := pipeline.RunFile(in, path)
		if code := report(in, st, err); code != 0 {
			return code
		}
	}

	switch {
	case len(args) == 1:
		return repl(in, cfg)
	case len(args) == 3 && args[1] == "-c":
		st, err := pipeline.RunSource(in, args[2])
		return report(in, st, err)
	case len(args) == 2 && !strings.HasPrefix(args[1], "-"):
		st, err := pipeline.RunFile(in, args[1])
		return report(in, st, err)
	}
	return usage()
}

// report renders a batch run's outcome: parse/read errors and raised
// statuses both go to stderr and exit non-zero.
func report(in *machine.Interpreter, status heap.Status, err error) int {
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	if status != nil {
		fmt.Fprintln(os.Stderr, pipeline.ErrorMessage(in, status))
		in.Status = nil
		return 1
	}
	return 0
}

func repl(in *machine.Interpreter, cfg config.Config) int {
	tty := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	traceID := uuid.NewString()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		if tty {
			fmt.Print(cfg.Prompt)
		}
		if !scanner.Scan() {
			if tty {
				fmt.Println()
			}
			return 0
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		status, err := pipeline.RunSource(in, line)
		if err != nil {
			fmt.Printf("ERROR: %v\n", err)
			continue
		}
		if status != nil {
			fmt.Println(pipeline.ErrorMessage(in, status))
			in.Status = nil
		}
		if cfg.GCTrace {
			fmt.Fprintf(os.Stderr, "[gc %s] cells=%d cycles=%d\n",
				traceID, in.Mem.CellsInUse(), in.Mem.GCCycles())
		}
	}
}
