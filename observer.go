package cargoweb

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// ConsoleObserver prints build progress to a writer.
//
// Rendered compiler messages and stderr lines are printed as they arrive.
// Other stdout events are printed as raw JSON only when Verbose is set.
// Output is colored when the process writes to a terminal, following
// fatih/color's detection.
type ConsoleObserver struct {
	Out     io.Writer
	Verbose bool

	mu     sync.Mutex
	stderr *color.Color
	stdout *color.Color
}

// NewConsoleObserver creates an observer writing to out.
func NewConsoleObserver(out io.Writer, verbose bool) *ConsoleObserver {
	return &ConsoleObserver{
		Out:     out,
		Verbose: verbose,
		stderr:  color.New(color.FgYellow),
		stdout:  color.New(color.FgHiBlack),
	}
}

// ObserveBuild implements BuildObserver.
func (o *ConsoleObserver) ObserveBuild(rec Record) {
	line := rec.Line
	if rec.Stream == StreamStdout && !o.Verbose {
		ev := rec.Event
		if ev == nil || ev.Kind != EventMessage || ev.Rendered == "" {
			return
		}
		line = strings.TrimRight(ev.Rendered, "\n")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	c := o.stdout
	if rec.Stream == StreamStderr {
		c = o.stderr
	}
	if c == nil {
		fmt.Fprintf(o.Out, "[%s] %s\n", rec.Stream, line)
		return
	}
	fmt.Fprintf(o.Out, "%s %s\n", c.Sprintf("[%s]", rec.Stream), line)
}
