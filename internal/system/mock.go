package system

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"
)

// ErrTerminated is the exit error of a MockProcess stopped via Terminate.
var ErrTerminated = errors.New("mock: process terminated")

// ExitError is the error a MockExecutor returns for a non-zero exit.
type ExitError struct {
	Status int
}

func (e *ExitError) Error() string {
	return "exit status " + strconv.Itoa(e.Status)
}

// ExitCode mirrors (*exec.ExitError).ExitCode.
func (e *ExitError) ExitCode() int {
	return e.Status
}

// MockExecutor implements CommandExecutor for testing.
type MockExecutor struct {
	mu sync.Mutex

	// Commands records all executed and started commands for verification.
	Commands []MockCommand

	// Responses maps command patterns to responses. A pattern is either the
	// full command line, "command arg1" or just "command"; the most specific
	// match wins.
	Responses map[string]MockResponse

	// Handlers map patterns (same format as Responses) to functions that
	// may create side effects such as writing package.json.
	Handlers map[string]func(Command) (*Result, error)

	// DefaultResponse is used when no matching response is found.
	DefaultResponse MockResponse

	// Processes are handed out by Start in order. When exhausted, Start
	// returns a fresh MockProcess.
	Processes []*MockProcess

	// StartErr is returned by Start if set.
	StartErr error

	started []*MockProcess
}

// MockCommand records an executed command.
type MockCommand struct {
	Name  string
	Args  []string
	Dir   string
	Start bool
}

// Line renders the recorded command as "name arg1 arg2...".
func (c MockCommand) Line() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// MockResponse defines the response for a command.
type MockResponse struct {
	Stdout     string
	Stderr     string
	ExitStatus int
	Err        error
}

// NewMockExecutor creates a new MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Commands:  make([]MockCommand, 0),
		Responses: make(map[string]MockResponse),
		Handlers:  make(map[string]func(Command) (*Result, error)),
	}
}

// AddResponse adds a response for a specific command pattern.
func (m *MockExecutor) AddResponse(pattern string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[pattern] = resp
}

// AddFailure makes a command pattern exit with the given status.
func (m *MockExecutor) AddFailure(pattern string, status int, stderr string) {
	m.AddResponse(pattern, MockResponse{
		ExitStatus: status,
		Stderr:     stderr,
		Err:        &ExitError{Status: status},
	})
}

// AddHandler registers a function run for a command pattern.
func (m *MockExecutor) AddHandler(pattern string, fn func(Command) (*Result, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Handlers[pattern] = fn
}

func patterns(c Command) []string {
	keys := []string{strings.Join(append([]string{c.Name}, c.Args...), " ")}
	if len(c.Args) > 0 {
		keys = append(keys, c.Name+" "+c.Args[0])
	}
	return append(keys, c.Name)
}

func (m *MockExecutor) Run(ctx context.Context, c Command) (*Result, error) {
	m.mu.Lock()
	m.Commands = append(m.Commands, MockCommand{Name: c.Name, Args: c.Args, Dir: c.Dir})

	var handler func(Command) (*Result, error)
	resp, found := MockResponse{}, false
	for _, key := range patterns(c) {
		if h, ok := m.Handlers[key]; ok {
			handler = h
			break
		}
		if r, ok := m.Responses[key]; ok {
			resp, found = r, true
			break
		}
	}
	if handler == nil && !found {
		resp = m.DefaultResponse
	}
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return &Result{ExitStatus: -1}, err
	}

	if handler != nil {
		return handler(c)
	}

	return &Result{
		ExitStatus: resp.ExitStatus,
		Stdout:     resp.Stdout,
		Stderr:     resp.Stderr,
	}, resp.Err
}

func (m *MockExecutor) Start(ctx context.Context, c Command) (Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Commands = append(m.Commands, MockCommand{Name: c.Name, Args: c.Args, Dir: c.Dir, Start: true})

	if m.StartErr != nil {
		return nil, m.StartErr
	}

	var p *MockProcess
	if len(m.Processes) > 0 {
		p = m.Processes[0]
		m.Processes = m.Processes[1:]
	} else {
		p = NewMockProcess()
	}
	m.started = append(m.started, p)
	return p, nil
}

// Started returns the processes handed out by Start so far.
func (m *MockExecutor) Started() []*MockProcess {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockProcess(nil), m.started...)
}

// LastCommand returns the most recently executed command.
func (m *MockExecutor) LastCommand() (MockCommand, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Commands) == 0 {
		return MockCommand{}, false
	}
	return m.Commands[len(m.Commands)-1], true
}

// CommandLines returns every recorded command rendered with Line.
func (m *MockExecutor) CommandLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.Commands))
	for i, c := range m.Commands {
		lines[i] = c.Line()
	}
	return lines
}

// Reset clears all recorded commands.
func (m *MockExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Commands = make([]MockCommand, 0)
	m.started = nil
}

// MockProcess implements Process for testing. Tests drive it with Emit and
// Exit; Terminate makes it exit with ErrTerminated.
type MockProcess struct {
	// IgnoreTerminate keeps the process running after Terminate, like a
	// server that is slow to shut down. Exit still ends it.
	IgnoreTerminate bool

	pr *io.PipeReader
	pw *io.PipeWriter

	mu         sync.Mutex
	done       chan struct{}
	exited     bool
	err        error
	stderr     string
	terminated bool
}

// NewMockProcess creates a running MockProcess.
func NewMockProcess() *MockProcess {
	pr, pw := io.Pipe()
	return &MockProcess{
		pr:   pr,
		pw:   pw,
		done: make(chan struct{}),
	}
}

// Emit writes a line to the process's stdout. It blocks until the line is
// read, and is a no-op once the process has exited.
func (p *MockProcess) Emit(line string) {
	_, _ = p.pw.Write([]byte(line + "\n"))
}

// WriteStderr records output on the process's stderr.
func (p *MockProcess) WriteStderr(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stderr += s
}

// Exit ends the process with the given exit error (nil for success).
func (p *MockProcess) Exit(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return
	}
	p.exited = true
	p.err = err
	_ = p.pw.Close()
	close(p.done)
}

// Terminated reports whether Terminate was called.
func (p *MockProcess) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

func (p *MockProcess) Stdout() io.Reader     { return p.pr }
func (p *MockProcess) Done() <-chan struct{} { return p.done }

func (p *MockProcess) Stderr() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stderr
}

func (p *MockProcess) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *MockProcess) Terminate() error {
	p.mu.Lock()
	p.terminated = true
	p.mu.Unlock()
	if !p.IgnoreTerminate {
		p.Exit(ErrTerminated)
	}
	return nil
}
