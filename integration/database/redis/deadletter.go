package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/mediator/core/lane"
	"github.com/dmitrymomot/mediator/core/logger"
	"github.com/dmitrymomot/mediator/core/mediator"
)

// StoredDeadLetter is the JSON form of a mediator.DeadLetter kept in Redis.
type StoredDeadLetter struct {
	ID        string          `json:"id"`
	MessageID string          `json:"message_id,omitempty"`
	Lane      lane.Kind       `json:"lane"`
	Message   string          `json:"message"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error"`
	Attempts  int             `json:"attempts"`
	FailedAt  time.Time       `json:"failed_at"`
}

// DeadLetterStore appends dead letters to a Redis list, newest last, keeping
// at most maxLen entries when maxLen is positive.
type DeadLetterStore struct {
	client  redis.Cmdable
	key     string
	maxLen  int64
	timeout time.Duration
	logger  *slog.Logger
}

// DeadLetterOption configures a DeadLetterStore.
type DeadLetterOption func(*DeadLetterStore)

// WithMaxLen caps the list length. Older entries are trimmed first.
func WithMaxLen(n int64) DeadLetterOption {
	return func(s *DeadLetterStore) {
		if n > 0 {
			s.maxLen = n
		}
	}
}

// WithLogger sets the logger used when a dead letter cannot be stored.
func WithLogger(l *slog.Logger) DeadLetterOption {
	return func(s *DeadLetterStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWriteTimeout bounds each write. Defaults to 5s.
func WithWriteTimeout(d time.Duration) DeadLetterOption {
	return func(s *DeadLetterStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewDeadLetterStore creates a store writing to the list at key.
func NewDeadLetterStore(client redis.Cmdable, key string, opts ...DeadLetterOption) *DeadLetterStore {
	s := &DeadLetterStore{
		client:  client,
		key:     key,
		timeout: 5 * time.Second,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewDeadLetterStoreFromConfig creates a store from Config.
func NewDeadLetterStoreFromConfig(client redis.Cmdable, cfg Config, opts ...DeadLetterOption) *DeadLetterStore {
	return NewDeadLetterStore(client, cfg.DeadLetterKey, append([]DeadLetterOption{WithMaxLen(cfg.DeadLetterMax)}, opts...)...)
}

// Sink returns a callback for mediator.WithDeadLetter. Storage failures are logged.
func (s *DeadLetterStore) Sink() mediator.DeadLetterFunc {
	return func(ctx context.Context, dl mediator.DeadLetter) {
		if err := s.Store(ctx, dl); err != nil {
			s.logger.ErrorContext(ctx, "dead letter lost",
				logger.Lane(string(dl.Lane)),
				logger.Message(dl.Message),
				logger.MessageID(dl.MessageID),
				logger.Error(err))
		}
	}
}

// Store appends dl to the list. The payload is stored as JSON, or as a JSON
// string of its %+v form when it cannot be marshalled.
func (s *DeadLetterStore) Store(ctx context.Context, dl mediator.DeadLetter) error {
	rec := StoredDeadLetter{
		ID:        dl.ID.String(),
		MessageID: dl.MessageID,
		Lane:      dl.Lane,
		Message:   dl.Message,
		Attempts:  dl.Attempts,
		FailedAt:  dl.FailedAt.UTC(),
	}
	if dl.Err != nil {
		rec.Error = dl.Err.Error()
	}

	payload, err := json.Marshal(dl.Payload)
	if err != nil {
		payload, _ = json.Marshal(fmt.Sprintf("%+v", dl.Payload))
	}
	rec.Payload = payload

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(ErrFailedToStoreDeadLetter, err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.key, data)
		if s.maxLen > 0 {
			pipe.LTrim(ctx, s.key, -s.maxLen, -1)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrFailedToStoreDeadLetter, err)
	}
	return nil
}

// List returns up to n stored dead letters, oldest first. n <= 0 returns all.
func (s *DeadLetterStore) List(ctx context.Context, n int64) ([]StoredDeadLetter, error) {
	stop := int64(-1)
	if n > 0 {
		stop = n - 1
	}

	raw, err := s.client.LRange(ctx, s.key, 0, stop).Result()
	if err != nil {
		return nil, err
	}

	out := make([]StoredDeadLetter, 0, len(raw))
	for _, r := range raw {
		var rec StoredDeadLetter
		if err := json.Unmarshal([]byte(r), &rec); err != nil {
			return nil, fmt.Errorf("decode dead letter: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Len returns the number of stored dead letters.
func (s *DeadLetterStore) Len(ctx context.Context) (int64, error) {
	return s.client.LLen(ctx, s.key).Result()
}
