package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
}

func TestRunWithSpinner_Plain(t *testing.T) {
	var out bytes.Buffer
	ran := false

	err := RunWithSpinner(context.Background(), &out, "Installing dependencies", func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("RunWithSpinner error: %v", err)
	}
	if !ran {
		t.Error("task should run")
	}
	if out.String() != "Installing dependencies...\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunWithSpinner_PlainError(t *testing.T) {
	want := errors.New("yarn install failed")
	err := RunWithSpinner(context.Background(), &bytes.Buffer{}, "Installing", func(context.Context) error {
		return want
	})
	if err != want {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestSpinnerModel(t *testing.T) {
	t.Run("init ticks", func(t *testing.T) {
		if newSpinnerModel("Creating").Init() == nil {
			t.Error("Init should start the spinner")
		}
	})

	t.Run("running view", func(t *testing.T) {
		m := newSpinnerModel("Creating ember app")
		if !strings.Contains(m.View(), "Creating ember app") {
			t.Errorf("View() = %q", m.View())
		}
	})

	t.Run("tick", func(t *testing.T) {
		m := newSpinnerModel("Creating")
		_, cmd := m.Update(spinner.TickMsg{ID: m.spinner.ID(), Time: time.Now()})
		if cmd == nil {
			t.Error("tick should schedule the next frame")
		}
	})

	t.Run("done", func(t *testing.T) {
		m := newSpinnerModel("Creating ember app")
		newModel, cmd := m.Update(taskDoneMsg{})
		model := newModel.(spinnerModel)
		if !model.done || cmd == nil {
			t.Error("task completion should quit")
		}
		if !strings.Contains(model.View(), "✓") {
			t.Errorf("View() = %q, want success mark", model.View())
		}
	})

	t.Run("failed", func(t *testing.T) {
		m := newSpinnerModel("Creating ember app")
		newModel, _ := m.Update(taskDoneMsg{err: errors.New("boom")})
		if !strings.Contains(newModel.View(), "✗") {
			t.Errorf("View() = %q, want failure mark", newModel.View())
		}
	})

	t.Run("interrupted", func(t *testing.T) {
		m := newSpinnerModel("Creating ember app")
		newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		model := newModel.(spinnerModel)
		if !model.interrupted || cmd == nil {
			t.Error("ctrl+c should interrupt and quit")
		}
		if !strings.Contains(model.View(), "interrupted") {
			t.Errorf("View() = %q", model.View())
		}
	})

	t.Run("other keys ignored", func(t *testing.T) {
		m := newSpinnerModel("Creating")
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
		if cmd != nil {
			t.Error("other keys should be ignored")
		}
	})
}
