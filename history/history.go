// Package history keeps the ordered conversation between the user and the
// assistant for the current dataset.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultWindow is how many recent turns are shown to the language model.
const DefaultWindow = 10

// Turn is one message in the conversation.
type Turn struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTurn stamps a message with a fresh ID and the current time.
func NewTurn(role, content string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Store is an append-only log of turns that can be wiped when the dataset
// changes. Implementations must return turns in insertion order.
type Store interface {
	Append(ctx context.Context, t Turn) error
	// LastN returns the most recent min(n, Len) turns, oldest first.
	LastN(ctx context.Context, n int) ([]Turn, error)
	All(ctx context.Context) ([]Turn, error)
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// tail returns the last n elements of turns.
func tail(turns []Turn, n int) []Turn {
	if n <= 0 {
		return []Turn{}
	}
	if n > len(turns) {
		n = len(turns)
	}
	out := make([]Turn, n)
	copy(out, turns[len(turns)-n:])
	return out
}
