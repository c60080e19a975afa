package system

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"sync"
	"time"
)

// terminateGrace is how long a terminated process may take to exit and
// flush its output before it is killed outright.
const terminateGrace = 10 * time.Second

// osExecutor implements CommandExecutor using real OS operations.
type osExecutor struct{}

func (e *osExecutor) Run(ctx context.Context, c Command) (*Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitStatus = exitErr.ExitCode()
		} else {
			result.ExitStatus = -1
		}
		return result, err
	}

	return result, nil
}

func (e *osExecutor) Start(ctx context.Context, c Command) (Process, error) {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = terminateGrace
	setProcGroup(cmd)

	pr, pw := io.Pipe()
	stderr := &syncBuffer{}
	cmd.Stdout = pw
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		_ = pw.Close()
		return nil, err
	}

	p := &osProcess{
		stdout: pr,
		stderr: stderr,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		err := cmd.Wait()
		_ = pw.Close()
		cancel()

		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		close(p.done)
	}()

	return p, nil
}

// osProcess implements Process for a spawned *exec.Cmd.
type osProcess struct {
	stdout *io.PipeReader
	stderr *syncBuffer
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (p *osProcess) Stdout() io.Reader     { return p.stdout }
func (p *osProcess) Done() <-chan struct{} { return p.done }
func (p *osProcess) Stderr() string        { return p.stderr.String() }

func (p *osProcess) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Terminate cancels the command's context, which runs the platform's
// Cancel hook (SIGTERM to the process group on unix).
func (p *osProcess) Terminate() error {
	p.cancel()
	return nil
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
