// Package contact models contact-form submissions and the sinks that accept
// them.
package contact

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Field limits.
const (
	MaxNameLen    = 200
	MaxEmailLen   = 320
	MaxMessageLen = 5000
)

// Message is one contact-form submission.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Normalize trims surrounding whitespace from every field.
func (m Message) Normalize() Message {
	return Message{
		Name:    strings.TrimSpace(m.Name),
		Email:   strings.TrimSpace(m.Email),
		Message: strings.TrimSpace(m.Message),
	}
}

// Validate checks required fields and limits.
func (m Message) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required, validation.RuneLength(1, MaxNameLen)),
		validation.Field(&m.Email, validation.Required, validation.Length(3, MaxEmailLen), is.EmailFormat),
		validation.Field(&m.Message, validation.Required, validation.RuneLength(1, MaxMessageLen)),
	)
}

// Receipt identifies an accepted submission.
type Receipt struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink is an insert-only store for submissions.
type Sink interface {
	Insert(ctx context.Context, m Message) (Receipt, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, m Message) (Receipt, error)

// Insert calls f.
func (f SinkFunc) Insert(ctx context.Context, m Message) (Receipt, error) {
	return f(ctx, m)
}
