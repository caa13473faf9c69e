package model

import "time"

// EventType names a pipeline notification.
type EventType string

const (
	EventRunCompleted  EventType = "run.completed"
	EventStatusChanged EventType = "application.status_changed"
)

// Event is a notification emitted by the pipeline for downstream consumers.
type Event struct {
	ID      string         `json:"id"`
	Type    EventType      `json:"type"`
	TS      time.Time      `json:"ts"`
	Payload map[string]any `json:"payload"`
}
