// Package audit records what happened to each test project as JSON Lines,
// so a project left on disk can be inspected after a failed run.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Dir is the directory inside a workspace root that holds event logs. It is
// not covered by the workspace globs, so yarn ignores it.
const Dir = ".events"

// EventType classifies a project event.
type EventType string

const (
	EventCreate   EventType = "create"
	EventGenerate EventType = "generate"
	EventLink     EventType = "link"
	EventExec     EventType = "exec"
	EventStart    EventType = "start"
	EventStop     EventType = "stop"
	EventHealth   EventType = "health"
	EventError    EventType = "error"
)

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Project   string    `json:"project"`
	Details   string    `json:"details,omitempty"`
}

// Logger writes and reads the events of the projects in one workspace.
// Events are stored in {workspaceRoot}/.events/{project}.jsonl.
type Logger struct {
	dir string
}

// NewLogger creates a logger for the workspace at workspaceRoot.
func NewLogger(workspaceRoot string) *Logger {
	return &Logger{dir: filepath.Join(workspaceRoot, Dir)}
}

func (l *Logger) eventPath(project string) string {
	return filepath.Join(l.dir, project+".jsonl")
}

// Log appends an event to the project's log.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return fmt.Errorf("failed to create event log directory: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	f, err := os.OpenFile(l.eventPath(event.Project), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// LogEvent creates and logs an event.
func (l *Logger) LogEvent(eventType EventType, project, details string) error {
	return l.Log(Event{Type: eventType, Project: project, Details: details})
}

// Events reads the events of a project in the order they were logged.
// A project without events yields none; malformed lines are skipped.
func (l *Logger) Events(project string) ([]Event, error) {
	f, err := os.Open(l.eventPath(project))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading event log: %w", err)
	}
	return events, nil
}

// Remove deletes the log of a project.
func (l *Logger) Remove(project string) error {
	if err := os.Remove(l.eventPath(project)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
