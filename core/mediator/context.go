package mediator

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Envelope is the metadata attached to the context of every published message.
type Envelope struct {
	ID          string
	Name        string
	PublishedAt time.Time
}

type envelopeCtx struct{}

// WithEnvelope attaches message metadata to the context.
func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, envelopeCtx{}, env)
}

// EnvelopeFromContext returns the metadata of the message being handled.
func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(envelopeCtx{}).(Envelope)
	return env, ok
}

// MessageID returns the ID of the message being handled, or "" outside a handler.
func MessageID(ctx context.Context) string {
	env, _ := EnvelopeFromContext(ctx)
	return env.ID
}

// MessageName returns the name of the message type being handled.
func MessageName(ctx context.Context) string {
	env, _ := EnvelopeFromContext(ctx)
	return env.Name
}

type messageIDCtx struct{}

// WithMessageID presets the ID assigned to the next published message.
// Without it every publish gets a fresh UUID.
func WithMessageID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, messageIDCtx{}, id)
}

func newEnvelope(ctx context.Context, name string, now time.Time) Envelope {
	id, _ := ctx.Value(messageIDCtx{}).(string)
	if id == "" {
		id = uuid.NewString()
	}
	return Envelope{ID: id, Name: name, PublishedAt: now}
}
