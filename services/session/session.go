package session

import (
	"context"
	"time"
)

// Step names a pending wizard step for a chat
type Step string

const (
	// StepNone means no wizard is running
	StepNone Step = ""
	// StepAwaitProductLink waits for a product link after a bare /p
	StepAwaitProductLink Step = "await_product_link"
	// StepAwaitCategoryLink waits for a category link after a bare /cat
	StepAwaitCategoryLink Step = "await_category_link"
)

// State is the per-chat wizard state
type State struct {
	Step      Step      `json:"step"`
	Limit     int       `json:"limit,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps wizard state per chat
type Store interface {
	// Get returns the state for a chat; ok is false when none is stored
	Get(ctx context.Context, chatID int64) (State, bool, error)

	// Set stores the state for a chat
	Set(ctx context.Context, chatID int64, state State) error

	// Delete clears the state for a chat
	Delete(ctx context.Context, chatID int64) error

	// Close releases the backend
	Close() error
}
