package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventTypeProductImport marks an import-started event.
const EventTypeProductImport = "product_import"

// ImportEvent is the payload carried over the message channel. The job id is
// the only field consumed downstream.
type ImportEvent struct {
	JobID     string `json:"history_id"`
	EventType string `json:"event_type"`
	Timestamp string `json:"timestamp"`
}

// NewImportEvent builds an import-started event for the given job.
func NewImportEvent(jobID uuid.UUID) ImportEvent {
	return ImportEvent{
		JobID:     jobID.String(),
		EventType: EventTypeProductImport,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Publisher is the capability interface for emitting import events.
type Publisher interface {
	Publish(ctx context.Context, event ImportEvent) (string, error)
}

// Handler consumes one delivered event. Delivery is at-least-once; handlers
// must tolerate duplicate invocations for the same job id.
type Handler func(ctx context.Context, event ImportEvent) error
