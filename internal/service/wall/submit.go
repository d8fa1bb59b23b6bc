package wall

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/uninspired/inspire-wall/backend/internal/gateway"
	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

const (
	minMessageRunes = 5
	maxMessageRunes = 500
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	dropIDPattern = regexp.MustCompile(`^drop_\d{3}$`)
)

// ValidationError names the submission field that was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate normalizes sub in place and checks it. An empty drop id is filled
// with currentDropID.
func Validate(sub *gateway.Submission, currentDropID string) error {
	sub.Message = strings.TrimSpace(sub.Message)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Name = strings.TrimSpace(sub.Name)
	sub.DropID = strings.TrimSpace(sub.DropID)

	switch n := utf8.RuneCountInString(sub.Message); {
	case n < minMessageRunes:
		return &ValidationError{Field: "message", Reason: fmt.Sprintf("must be at least %d characters", minMessageRunes)}
	case n > maxMessageRunes:
		return &ValidationError{Field: "message", Reason: fmt.Sprintf("must be at most %d characters", maxMessageRunes)}
	}

	emotion, ok := thread.ParseEmotion(string(sub.Emotion))
	if !ok {
		return &ValidationError{Field: "emotion", Reason: fmt.Sprintf("unknown emotion %q", sub.Emotion)}
	}
	sub.Emotion = emotion

	if sub.Email != "" && !emailPattern.MatchString(sub.Email) {
		return &ValidationError{Field: "email", Reason: "not a valid email address"}
	}

	if sub.DropID == "" {
		sub.DropID = currentDropID
	}
	if !dropIDPattern.MatchString(sub.DropID) {
		return &ValidationError{Field: "dropId", Reason: fmt.Sprintf("malformed drop id %q", sub.DropID)}
	}
	return nil
}

// Submit validates and forwards a submission. Gateway failures are returned
// as-is; on success a reload is scheduled.
func (s *Service) Submit(ctx context.Context, sub gateway.Submission) (gateway.SubmitResult, error) {
	if err := Validate(&sub, s.store.Drop().ID); err != nil {
		s.metrics.ObserveSubmission("invalid")
		return gateway.SubmitResult{}, err
	}

	res, err := s.remote.SubmitThread(ctx, sub)
	if err != nil {
		s.metrics.ObserveSubmission("failed")
		s.logger.Warn("submission failed", zap.Error(err))
		return gateway.SubmitResult{}, fmt.Errorf("submit thread: %w", err)
	}

	s.metrics.ObserveSubmission("accepted")
	s.logger.Info("submission accepted", zap.String("thread", res.ThreadID), zap.String("drop", sub.DropID))
	s.scheduleReload()
	return res, nil
}
