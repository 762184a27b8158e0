package entity

import "time"

type EventType string

const (
	EventJobCreated       EventType = "job.created"
	EventJobReplaced      EventType = "job.replaced"
	EventJobStatusChanged EventType = "job.status_changed"
	EventJobDeleted       EventType = "job.deleted"
	EventTaskAppended     EventType = "task.appended"
	EventStepAppended     EventType = "step.appended"
	EventStepPatched      EventType = "step.patched"
)

type Event struct {
	Type   EventType      `json:"type"`
	JobID  string         `json:"jobId"`
	TaskID string         `json:"taskId,omitempty"`
	StepID string         `json:"stepId,omitempty"`
	At     time.Time      `json:"at"`
	Data   map[string]any `json:"data,omitempty"`
}
