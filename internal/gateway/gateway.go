package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

// Operation names, shared by errors, metrics and the in-memory fake.
const (
	OpCurrentDrop     = "current_drop"
	OpThreads         = "threads"
	OpSubmit          = "submit"
	OpUpdateReactions = "update_reactions"
)

// ErrNotFound reports a record the remote store does not know.
var ErrNotFound = errors.New("gateway: record not found")

// Gateway is the fetch/submit/update contract of the remote record store.
type Gateway interface {
	// CurrentDrop returns the live drop, or nil when none is live.
	CurrentDrop(ctx context.Context) (*thread.Drop, error)
	// Threads returns the accepted threads of a drop in display order.
	Threads(ctx context.Context, dropID string) ([]thread.Thread, error)
	// SubmitThread files a new thread for moderation.
	SubmitThread(ctx context.Context, sub Submission) (SubmitResult, error)
	// UpdateReactions adds one reaction of kind to the stored thread.
	UpdateReactions(ctx context.Context, threadID string, kind thread.ReactionKind) error
}

// Submission is a validated thread submission.
type Submission struct {
	Message string         `json:"message"`
	Emotion thread.Emotion `json:"emotion"`
	Email   string         `json:"email,omitempty"`
	Name    string         `json:"name,omitempty"`
	DropID  string         `json:"dropId,omitempty"`
}

// SubmitResult carries the identifier assigned by the remote store.
type SubmitResult struct {
	ThreadID string `json:"threadId"`
}

// GatewayError wraps transport failures and non-success HTTP statuses.
type GatewayError struct {
	Op     string
	Status int
	Err    error
}

func (e *GatewayError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("gateway %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// IsGatewayError reports whether err carries a *GatewayError.
func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}
