package mediator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mediator/core/lane"
	"github.com/dmitrymomot/mediator/core/logger"
)

// DeadLetter is a terminal handler failure that no caller was waiting for.
type DeadLetter struct {
	ID        uuid.UUID
	MessageID string
	Lane      lane.Kind
	Message   string
	Payload   any
	Err       error
	Attempts  int
	FailedAt  time.Time
}

// DeadLetterFunc receives dead letters. It runs on the failing worker's
// goroutine and should return quickly.
type DeadLetterFunc func(ctx context.Context, dl DeadLetter)

// report converts a lane report into a dead letter.
func (m *Mediator) report(ctx context.Context, r lane.Report) {
	dl := DeadLetter{
		ID:        uuid.New(),
		MessageID: MessageID(ctx),
		Lane:      r.Lane,
		Message:   r.Message,
		Payload:   r.Payload,
		Err:       r.Err,
		FailedAt:  m.clock.Now(),
	}

	var herr *lane.HandlerError
	if errors.As(r.Err, &herr) {
		dl.Attempts = herr.Attempts
	}

	m.deadLetter(ctx, dl)
}

func (m *Mediator) logDeadLetter(ctx context.Context, dl DeadLetter) {
	m.logger.ErrorContext(ctx, "message dead-lettered",
		logger.Lane(string(dl.Lane)),
		logger.Message(dl.Message),
		logger.MessageID(dl.MessageID),
		logger.Attempts(dl.Attempts),
		logger.Error(dl.Err))
}
