package cargoweb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Stream names reported to observers.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

const readChunkSize = 32 * 1024

// processWaitDelay bounds how long Wait keeps the pipes open after the
// process exits or is canceled.
const processWaitDelay = 5 * time.Second

// Command describes the build subprocess. Stdin is always closed.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string // nil inherits the current environment
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Process is a started build subprocess.
//
// Stdout and Stderr must be read to EOF before Wait is called.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	// Wait blocks until the process exits. A process that ran and exited
	// reports its exit code with a nil error; -1 means killed by a signal.
	Wait() (int, error)
	Kill() error
}

// Spawner starts build subprocesses.
type Spawner interface {
	Start(ctx context.Context, cmd Command) (Process, error)
}

// ExecSpawner starts real processes with os/exec.
type ExecSpawner struct{}

// Start launches cmd with piped stdout and stderr.
func (ExecSpawner) Start(ctx context.Context, c Command) (Process, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = nil
	// The helper runs cargo and rustc, which inherit the output pipes.
	// Cancellation must take down the whole tree or the pipes never close.
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd.Process) }
	cmd.WaitDelay = processWaitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }

func (p *execProcess) Wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// Kill stops the process and everything it started.
func (p *execProcess) Kill() error {
	return killProcessGroup(p.cmd.Process)
}

// Record is a single line of build output as it arrives.
type Record struct {
	Timestamp time.Time
	Stream    string
	Line      string

	// Event is the decoded stdout event; nil for stderr and for lines that
	// did not decode.
	Event *BuildEvent
}

// BuildObserver receives build output lines while the build runs.
//
// ObserveBuild is called from the stdout and stderr goroutines concurrently.
// Implementations must be safe for concurrent use and should return quickly.
type BuildObserver interface {
	ObserveBuild(Record)
}

// BuildSession runs one build subprocess and reduces its output to a
// BuildResult.
//
// Standard output is framed into lines and decoded as build events; standard
// error is framed into lines and appended verbatim to the diagnostic text.
// Both are consumed concurrently. Within each stream, lines keep their
// arrival order; the relative order of the two streams is not defined.
//
// A BuildSession runs once. The process and its pipes are released when Run
// returns, whatever the outcome.
type BuildSession struct {
	Command    Command
	SourcePath string // Asset path, excluded from watched dependencies
	Spawner    Spawner
	Observer   BuildObserver
	Logger     logr.Logger
}

// Run starts the build, consumes both output streams and waits for exit.
//
// The returned error is the cause of failure (see ReduceBuild) and is also
// stored in the result. A malformed stdout line kills the process and fails
// the session with KindMalformedEvent.
func (s *BuildSession) Run(ctx context.Context) (*BuildResult, error) {
	log := s.logger()
	spawner := s.Spawner
	if spawner == nil {
		spawner = ExecSpawner{}
	}

	log.V(1).Info("starting build", "command", s.Command.String(), "dir", s.Command.Dir)
	proc, err := spawner.Start(ctx, s.Command)
	if err != nil {
		startErr := newError(KindBuildStartFailed, fmt.Sprintf("failed to start %s", s.Command.Name), err)
		return &BuildResult{ExitCode: -1, Error: startErr}, startErr
	}

	diag := &diagnosticBuffer{}
	collector := newEventCollector(s.SourcePath, diag)

	var g errgroup.Group
	g.Go(func() error {
		return s.consumeStdout(proc, collector)
	})
	g.Go(func() error {
		return s.consumeStderr(proc.Stderr(), diag)
	})
	streamErr := g.Wait()

	exitCode, waitErr := proc.Wait()
	log.V(1).Info("build exited", "command", s.Command.Name, "exitCode", exitCode)

	if streamErr != nil {
		if KindOf(streamErr) == KindUnknown {
			streamErr = newError(KindCompilationFailed, "Compilation failed!\n"+diag.String(), streamErr)
		}
		result := &BuildResult{
			Artifacts:      collector.artifacts,
			DiagnosticText: diag.String(),
			Dependencies:   collector.deps.List(),
			ExitCode:       exitCode,
			Error:          streamErr,
		}
		return result, streamErr
	}

	if waitErr != nil {
		diag.AppendLine(fmt.Sprintf("waiting for %s: %v", s.Command.Name, waitErr))
		if exitCode == 0 {
			exitCode = -1
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && exitCode != 0 {
		diag.AppendLine(fmt.Sprintf("build aborted: %v", ctxErr))
	}

	return ReduceBuild(exitCode, collector.artifacts, diag.String(), collector.deps.List())
}

func (s *BuildSession) consumeStdout(proc Process, c *eventCollector) error {
	var framer LineFramer
	err := readChunks(proc.Stdout(), func(chunk []byte) error {
		for line := range framer.Feed(chunk) {
			ev, err := ClassifyEvent(line)
			if err != nil {
				s.observe(StreamStdout, line, nil)
				return err
			}
			s.observe(StreamStdout, line, &ev)
			c.Dispatch(ev)
		}
		return nil
	})

	if err != nil {
		if killErr := proc.Kill(); killErr != nil {
			s.logger().V(1).Info("failed to kill build", "error", killErr.Error())
		}
		// Keep draining so the process is never blocked on a full pipe.
		_, _ = io.Copy(io.Discard, proc.Stdout())
		return err
	}

	// A last line without terminator: keep it if it decodes, otherwise keep
	// it as diagnostic text. The process is gone; there is nothing to abort.
	if rest, ok := framer.Flush(); ok && strings.TrimSpace(rest) != "" {
		if ev, classifyErr := ClassifyEvent(rest); classifyErr == nil {
			s.observe(StreamStdout, rest, &ev)
			c.Dispatch(ev)
		} else {
			s.observe(StreamStdout, rest, nil)
			c.diag.AppendLine(rest)
		}
	}
	return nil
}

func (s *BuildSession) consumeStderr(r io.Reader, diag *diagnosticBuffer) error {
	var framer LineFramer
	err := readChunks(r, func(chunk []byte) error {
		for line := range framer.Feed(chunk) {
			s.observe(StreamStderr, line, nil)
			diag.AppendLine(line)
		}
		return nil
	})
	if rest, ok := framer.Flush(); ok {
		s.observe(StreamStderr, rest, nil)
		diag.AppendLine(rest)
	}
	return err
}

func (s *BuildSession) observe(stream, line string, ev *BuildEvent) {
	s.logger().V(2).Info("build output", "stream", stream, "line", line)
	if s.Observer != nil {
		s.Observer.ObserveBuild(Record{Timestamp: time.Now(), Stream: stream, Line: line, Event: ev})
	}
}

func (s *BuildSession) logger() logr.Logger {
	if s.Logger.GetSink() == nil {
		return logr.Discard()
	}
	return s.Logger
}

// readChunks calls fn with each chunk read from r until EOF.
func readChunks(r io.Reader, fn func([]byte) error) error {
	buf := make([]byte, readChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if fnErr := fn(buf[:n]); fnErr != nil {
				return fnErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading build output: %w", err)
		}
	}
}
