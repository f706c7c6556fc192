package notify

import (
	"context"
	"time"
)

const (
	EventQuotaThreshold = "quota_threshold"
	EventQuotaExhausted = "quota_exhausted"
	EventBatchCompleted = "batch_completed"
)

// Event is a fire-and-forget message for operators. Senders must treat
// delivery as best effort; a failed notification never fails a sync.
type Event struct {
	Type       string         `json:"type"`
	Message    string         `json:"message"`
	OccurredAt time.Time      `json:"occurred_at"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// Notifier delivers events to an external sink.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NopNotifier drops every event. Used when no sink is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) error {
	return nil
}
