// Package work provides a unified system for async work processing.
// All async operations (fetching, topic inference, embedding, scoring) flow
// through a central work pool, making batch runs observable and debuggable.
//
// Logging: All state changes are logged via internal/logging for debugging
// since the progress UI may not be visible during development.
package work

import (
	"fmt"
	"time"

	"github.com/abelbrown/baitline/internal/logging"
)

// LogEvent logs a work event for debugging.
func LogEvent(event Event) {
	item := event.Item
	switch event.Change {
	case "created":
		logging.Debug("Work created",
			"id", item.ID,
			"type", item.Type,
			"desc", item.Description)
	case "started":
		logging.Debug("Work started",
			"id", item.ID,
			"type", item.Type,
			"desc", item.Description)
	case "progress":
		logging.Debug("Work progress",
			"id", item.ID,
			"pct", fmt.Sprintf("%.0f%%", item.Progress*100),
			"msg", item.ProgressMsg)
	case "completed":
		logging.Info("Work completed",
			"id", item.ID,
			"type", item.Type,
			"desc", item.Description,
			"result", item.Result,
			"duration", item.Duration())
	case "failed":
		logging.Error("Work failed",
			"id", item.ID,
			"type", item.Type,
			"desc", item.Description,
			"error", item.Error,
			"duration", item.Duration())
	}
}

// Type categorizes work items for filtering and display.
type Type string

const (
	TypeFetch Type = "fetch" // Fetching article URLs and feeds
	TypeTopic Type = "topic" // Topic model inference
	TypeEmbed Type = "embed" // Embedding generation
	TypeScore Type = "score" // Full pipeline evaluation
	TypeOther Type = "other" // Catch-all
)

// Icon returns a display icon for the work type.
func (t Type) Icon() string {
	switch t {
	case TypeFetch:
		return "↓"
	case TypeTopic:
		return "◇"
	case TypeEmbed:
		return "◈"
	case TypeScore:
		return "◉"
	default:
		return "○"
	}
}

// Priority levels for work items. Higher dispatches first.
const (
	PriorityLow      = -10
	PriorityNormal   = 0
	PriorityHigh     = 10
	PriorityCritical = 100
)

// Status represents the lifecycle state of a work item.
type Status string

const (
	StatusPending  Status = "pending"  // Queued, waiting for worker
	StatusActive   Status = "active"   // Currently being processed
	StatusComplete Status = "complete" // Finished successfully
	StatusFailed   Status = "failed"   // Finished with error
)

// Item represents a unit of async work.
type Item struct {
	ID          string
	Type        Type
	Status      Status
	Description string // Human-readable: "Scoring example.com/article"

	// Timing
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	// Progress (for long-running work)
	Progress    float64 // 0.0 to 1.0
	ProgressMsg string  // "12 of 40"

	// Result
	Result string // "clickbait p=0.87", "32 articles"
	Error  error
	Data   any // Arbitrary result data (e.g., a verdict for score work)

	// Context
	Source   string // Article URL, feed URL, or other context
	Priority int    // Higher = more urgent (default 0)

	// Internal: the work function to execute
	workFn func() (string, error)

	// Internal: position in the pending heap, -1 when not queued
	heapIndex int
}

// Duration returns how long the work took (or has been running).
func (i *Item) Duration() time.Duration {
	if i.FinishedAt.IsZero() {
		if i.StartedAt.IsZero() {
			return 0
		}
		return time.Since(i.StartedAt)
	}
	return i.FinishedAt.Sub(i.StartedAt)
}

// Age returns how long since the work completed.
func (i *Item) Age() time.Duration {
	if i.FinishedAt.IsZero() {
		return 0
	}
	return time.Since(i.FinishedAt)
}

// StatusIcon returns a display icon for the current status.
func (i *Item) StatusIcon() string {
	switch i.Status {
	case StatusPending:
		return "○"
	case StatusActive:
		return "●"
	case StatusComplete:
		return "✓"
	case StatusFailed:
		return "✗"
	default:
		return "?"
	}
}

// Event is sent to subscribers when work state changes.
type Event struct {
	Item   *Item
	Change string // "created", "started", "progress", "completed", "failed"
}

// Snapshot represents the current state of the work pool.
type Snapshot struct {
	Pending   []*Item
	Active    []*Item
	Completed []*Item // Recent completed (success + failure), newest first
	Stats     Stats
}

// Stats tracks work pool metrics.
type Stats struct {
	TotalCreated   int64
	TotalCompleted int64
	TotalFailed    int64
	WorkersActive  int
	WorkersTotal   int
	PendingCount   int
}

// String returns a summary string for stats.
func (s Stats) String() string {
	return fmt.Sprintf("Active: %d  Pending: %d  Done: %d  Failed: %d",
		s.WorkersActive, s.PendingCount, s.TotalCompleted, s.TotalFailed)
}
