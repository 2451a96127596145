package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes shell command lines on the local host.
type Runner interface {
	Run(ctx context.Context, cmd string) (*CommandResult, error)
	Start(ctx context.Context, cmd string, onLine func(string)) (*Process, error)
}

type Executor struct {
	Shell string
}

func NewExecutor() *Executor {
	return &Executor{Shell: "/bin/sh"}
}

func (e *Executor) command(ctx context.Context, cmd string) *exec.Cmd {
	return exec.CommandContext(ctx, e.Shell, "-c", cmd)
}

func (e *Executor) Run(ctx context.Context, cmd string) (*CommandResult, error) {
	c := e.command(ctx, cmd)

	var stdoutBuf, stderrBuf strings.Builder
	c.Stdout = &stdoutBuf
	c.Stderr = &stderrBuf

	err := c.Run()

	result := &CommandResult{
		Stdout: strings.TrimSpace(stdoutBuf.String()),
		Stderr: strings.TrimSpace(stderrBuf.String()),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		return result, fmt.Errorf("command failed: %w", err)
	}
	return result, nil
}

// Process is a command started in the background.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Start launches cmd and calls onLine for every line it writes to stdout or
// stderr. onLine may be called from two goroutines at once.
func (e *Executor) Start(ctx context.Context, cmd string, onLine func(string)) (*Process, error) {
	c := e.command(ctx, cmd)

	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	p := &Process{cmd: c, done: make(chan struct{})}

	var wg sync.WaitGroup
	for _, r := range []io.Reader{stdout, stderr} {
		wg.Add(1)
		go func(r io.Reader) {
			defer wg.Done()
			scanner := bufio.NewScanner(r)
			scanner.Buffer(make([]byte, 64*1024), 1024*1024)
			for scanner.Scan() {
				if onLine != nil {
					onLine(scanner.Text())
				}
			}
		}(r)
	}

	go func() {
		wg.Wait()
		p.err = c.Wait()
		close(p.done)
	}()

	return p, nil
}

// Wait blocks until the process exits and returns its error.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

func (p *Process) Done() <-chan struct{} {
	return p.done
}

func (p *Process) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
