package system

import (
	"bufio"
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	shellquote "github.com/kballard/go-shellquote"
)

func TestCommand_String(t *testing.T) {
	tests := []Command{
		{Name: "yarn", Args: []string{"install"}},
		{Name: "yarn", Args: []string{"add", "link:../../packages-under-test/foo bar"}},
		{Name: "ember", Args: []string{"serve", "--live-reload-port", "49153"}},
		{Name: "ember"},
	}

	for _, cmd := range tests {
		t.Run(cmd.Name, func(t *testing.T) {
			words, err := shellquote.Split(cmd.String())
			if err != nil {
				t.Fatalf("Split(%q) error: %v", cmd.String(), err)
			}
			want := append([]string{cmd.Name}, cmd.Args...)
			if !reflect.DeepEqual(words, want) {
				t.Errorf("String() = %q does not round-trip: got %v, want %v", cmd.String(), words, want)
			}
		})
	}

	if got := (Command{Name: "yarn", Args: []string{"install"}}).String(); got != "yarn install" {
		t.Errorf("String() = %q, want %q", got, "yarn install")
	}
}

func TestMockExecutor_Run(t *testing.T) {
	mock := NewMockExecutor()
	mock.AddResponse("yarn --silent workspaces info", MockResponse{Stdout: "{}"})

	result, err := mock.Run(context.Background(), Command{Name: "yarn", Args: []string{"--silent", "workspaces", "info"}, Dir: "/repo"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.Stdout != "{}" {
		t.Errorf("Stdout = %q, want {}", result.Stdout)
	}

	cmd, ok := mock.LastCommand()
	if !ok {
		t.Fatal("LastCommand should return the command")
	}
	if cmd.Dir != "/repo" {
		t.Errorf("Dir = %q, want /repo", cmd.Dir)
	}
	if cmd.Line() != "yarn --silent workspaces info" {
		t.Errorf("Line() = %q", cmd.Line())
	}
}

func TestMockExecutor_PatternPrecedence(t *testing.T) {
	mock := NewMockExecutor()
	mock.AddResponse("yarn", MockResponse{Stdout: "name"})
	mock.AddResponse("yarn add", MockResponse{Stdout: "first-arg"})
	mock.AddResponse("yarn add --dev x@latest", MockResponse{Stdout: "full"})

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"add", "--dev", "x@latest"}, "full"},
		{[]string{"add", "y@latest"}, "first-arg"},
		{[]string{"install"}, "name"},
	}

	for _, tt := range tests {
		result, _ := mock.Run(context.Background(), Command{Name: "yarn", Args: tt.args})
		if result.Stdout != tt.want {
			t.Errorf("Run(%v) Stdout = %q, want %q", tt.args, result.Stdout, tt.want)
		}
	}
}

func TestMockExecutor_Failure(t *testing.T) {
	mock := NewMockExecutor()
	mock.AddFailure("yarn install", 1, "boom")

	result, err := mock.Run(context.Background(), Command{Name: "yarn", Args: []string{"install"}})
	if err == nil {
		t.Fatal("expected error")
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Errorf("err = %v, want ExitError with status 1", err)
	}
	if result.ExitStatus != 1 || result.Stderr != "boom" {
		t.Errorf("result = %+v", result)
	}
}

func TestMockExecutor_Handler(t *testing.T) {
	mock := NewMockExecutor()
	called := false
	mock.AddHandler("yarn init", func(c Command) (*Result, error) {
		called = true
		return &Result{Stdout: "success Saved package.json"}, nil
	})

	result, err := mock.Run(context.Background(), Command{Name: "yarn", Args: []string{"init", "--yes"}})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
	if result.Stdout != "success Saved package.json" {
		t.Errorf("Stdout = %q", result.Stdout)
	}
}

func TestMockExecutor_CancelledContext(t *testing.T) {
	mock := NewMockExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mock.Run(ctx, Command{Name: "yarn"}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestMockExecutor_Reset(t *testing.T) {
	mock := NewMockExecutor()
	_, _ = mock.Run(context.Background(), Command{Name: "yarn"})
	_, _ = mock.Start(context.Background(), Command{Name: "ember", Args: []string{"serve"}})

	mock.Reset()

	if len(mock.Commands) != 0 {
		t.Errorf("Commands = %v, want empty", mock.Commands)
	}
	if len(mock.Started()) != 0 {
		t.Errorf("Started() = %v, want empty", mock.Started())
	}
	if _, ok := mock.LastCommand(); ok {
		t.Error("LastCommand should report no commands after Reset")
	}
}

func TestMockExecutor_Start(t *testing.T) {
	mock := NewMockExecutor()
	proc := NewMockProcess()
	mock.Processes = []*MockProcess{proc}

	p, err := mock.Start(context.Background(), Command{Name: "ember", Args: []string{"serve"}, Dir: "/p"})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if p != proc {
		t.Error("Start should hand out the queued process")
	}

	cmd, _ := mock.LastCommand()
	if !cmd.Start {
		t.Error("recorded command should be marked as started")
	}

	// Queue exhausted: a fresh process is created
	p2, err := mock.Start(context.Background(), Command{Name: "ember", Args: []string{"serve"}})
	if err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if p2 == nil || p2 == proc {
		t.Error("expected a fresh process")
	}
	if len(mock.Started()) != 2 {
		t.Errorf("Started() len = %d, want 2", len(mock.Started()))
	}
}

func TestMockExecutor_StartErr(t *testing.T) {
	mock := NewMockExecutor()
	mock.StartErr = errors.New("exec: \"ember\": executable file not found in $PATH")

	if _, err := mock.Start(context.Background(), Command{Name: "ember"}); err == nil {
		t.Error("expected StartErr")
	}
}

func TestMockProcess_EmitAndExit(t *testing.T) {
	p := NewMockProcess()

	lines := make(chan string, 4)
	go func() {
		scanner := bufio.NewScanner(p.Stdout())
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	p.Emit("Serving on http://localhost:4200/")
	p.Emit("Build successful (1234ms)")
	p.Exit(nil)

	var got []string
	for line := range lines {
		got = append(got, line)
	}
	if len(got) != 2 || got[1] != "Build successful (1234ms)" {
		t.Errorf("lines = %v", got)
	}

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("Done should be closed after Exit")
	}
	if err := p.Wait(); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}

	// Emit after exit is a no-op
	p.Emit("ignored")
}

func TestMockProcess_Terminate(t *testing.T) {
	p := NewMockProcess()
	p.WriteStderr("warning: something\n")

	if err := p.Terminate(); err != nil {
		t.Fatalf("Terminate error: %v", err)
	}
	if !p.Terminated() {
		t.Error("Terminated() should be true")
	}
	if err := p.Wait(); !errors.Is(err, ErrTerminated) {
		t.Errorf("Wait() = %v, want ErrTerminated", err)
	}
	if p.Stderr() != "warning: something\n" {
		t.Errorf("Stderr() = %q", p.Stderr())
	}

	// A second exit keeps the first error
	p.Exit(nil)
	if err := p.Wait(); !errors.Is(err, ErrTerminated) {
		t.Errorf("Wait() after second Exit = %v, want ErrTerminated", err)
	}
}
