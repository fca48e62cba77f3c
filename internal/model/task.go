package model

import (
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
)

// TaskStatus is a backgrounded resolution's lifecycle state.
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// taskRank orders statuses along the queued → processing → terminal path.
func taskRank(s TaskStatus) int {
	switch s {
	case TaskStatusQueued:
		return 0
	case TaskStatusProcessing:
		return 1
	default:
		return 2
	}
}

// CanTransition reports whether moving from s to next respects the
// one-directional lifecycle. Terminal states accept nothing.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	if s.Terminal() {
		return false
	}
	return taskRank(next) == taskRank(s)+1
}

// Task tracks one backgrounded resolution. Output is non-empty only once
// the status is terminal: the serialized outcome sequence on completion,
// or a serialized fault description on failure.
type Task struct {
	ID        string     `json:"task_id"`
	Status    TaskStatus `json:"status"`
	Output    string     `json:"output,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TaskOutput is the payload serialized into a completed task.
type TaskOutput struct {
	Query    string    `json:"query"`
	Kind     Kind      `json:"kind"`
	Outcomes []Outcome `json:"outcomes"`
}

// TaskFault is the payload serialized into a failed task.
type TaskFault struct {
	Error string `json:"error"`
}

// DecodeTaskOutput parses a completed task's output payload.
func DecodeTaskOutput(output string) (*TaskOutput, error) {
	var out TaskOutput
	if err := json.Unmarshal([]byte(output), &out); err != nil {
		return nil, eris.Wrap(err, "model: decode task output")
	}
	return &out, nil
}
