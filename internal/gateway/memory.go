package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

// Memory is an in-process record store. It backs offline mode when no remote
// credentials are configured and doubles as a controllable fake in tests.
type Memory struct {
	mu      sync.Mutex
	drop    *thread.Drop
	threads []thread.Thread
	pending []Submission
	errs    map[string]error
	calls   map[string]int
}

// NewMemory seeds the store. A nil drop means no drop is live.
func NewMemory(drop *thread.Drop, threads []thread.Thread) *Memory {
	m := &Memory{
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
	if drop != nil {
		d := *drop
		m.drop = &d
	}
	for _, t := range threads {
		m.threads = append(m.threads, t.Clone())
	}
	return m
}

// Fail makes every later call of op return err. A nil err clears it.
func (m *Memory) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errs, op)
		return
	}
	m.errs[op] = err
}

// Calls reports how many times op was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// Pending lists submissions awaiting moderation.
func (m *Memory) Pending() []Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Submission(nil), m.pending...)
}

// SetThreads replaces the accepted thread set.
func (m *Memory) SetThreads(threads []thread.Thread) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threads = m.threads[:0]
	for _, t := range threads {
		m.threads = append(m.threads, t.Clone())
	}
}

func (m *Memory) enter(op string) error {
	m.calls[op]++
	if err := m.errs[op]; err != nil {
		return &GatewayError{Op: op, Err: err}
	}
	return nil
}

func (m *Memory) CurrentDrop(ctx context.Context) (*thread.Drop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpCurrentDrop); err != nil {
		return nil, err
	}
	if m.drop == nil {
		return nil, nil
	}
	d := *m.drop
	return &d, nil
}

func (m *Memory) Threads(ctx context.Context, dropID string) ([]thread.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpThreads); err != nil {
		return nil, err
	}
	out := make([]thread.Thread, len(m.threads))
	for i, t := range m.threads {
		out[i] = t.Clone()
	}
	return out, nil
}

func (m *Memory) SubmitThread(ctx context.Context, sub Submission) (SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpSubmit); err != nil {
		return SubmitResult{}, err
	}
	m.pending = append(m.pending, sub)
	return SubmitResult{ThreadID: "rec" + uuid.NewString()[:8]}, nil
}

func (m *Memory) UpdateReactions(ctx context.Context, threadID string, kind thread.ReactionKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter(OpUpdateReactions); err != nil {
		return err
	}
	for i := range m.threads {
		if m.threads[i].ID != threadID {
			continue
		}
		next := m.threads[i].Reactions.Normalized()
		next[kind] = next.Get(kind) + 1
		m.threads[i].Reactions = next
		return nil
	}
	return &GatewayError{Op: OpUpdateReactions, Status: 404, Err: ErrNotFound}
}

var _ Gateway = (*Memory)(nil)
var _ Gateway = (*Airtable)(nil)
