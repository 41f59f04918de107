package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/apperr"
)

// Status is the form's submission state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DefaultSuccessWindow is how long the success state is shown before the
// form returns to idle.
const DefaultSuccessWindow = 4 * time.Second

// Form is the contact form's state machine:
//
//	idle → sending → success → (window elapses) → idle
//	           └──→ error → sending (retry)
//
// Success clears the fields. Error keeps them so the visitor can retry.
type Form struct {
	Fields Message

	status    Status
	err       error
	receipt   Receipt
	successAt time.Time
	window    time.Duration
	now       func() time.Time
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithSuccessWindow overrides DefaultSuccessWindow.
func WithSuccessWindow(d time.Duration) FormOption {
	return func(f *Form) {
		if d > 0 {
			f.window = d
		}
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) FormOption {
	return func(f *Form) {
		f.now = now
	}
}

// NewForm returns an idle form holding fields.
func NewForm(fields Message, opts ...FormOption) *Form {
	f := &Form{
		Fields: fields,
		status: StatusIdle,
		window: DefaultSuccessWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Status returns the current state, resetting an expired success to idle.
func (f *Form) Status() Status {
	if f.status == StatusSuccess && !f.now().Before(f.successAt.Add(f.window)) {
		f.status = StatusIdle
	}
	return f.status
}

// Err returns the last submission error, if the form is in the error state.
func (f *Form) Err() error {
	if f.Status() != StatusError {
		return nil
	}
	return f.err
}

// Receipt returns the last successful receipt.
func (f *Form) Receipt() Receipt {
	return f.receipt
}

// ResetAfter returns the time left in the success window.
func (f *Form) ResetAfter() time.Duration {
	if f.Status() != StatusSuccess {
		return 0
	}
	return f.successAt.Add(f.window).Sub(f.now())
}

// Retryable reports whether submitting again may succeed.
func (f *Form) Retryable() bool {
	return f.Status() == StatusError && errors.Is(f.err, apperr.ErrSubmission)
}

// Submit validates the fields and inserts them into sink. While sending or
// inside the success window it refuses to submit again.
func (f *Form) Submit(ctx context.Context, sink Sink) error {
	switch f.Status() {
	case StatusSending, StatusSuccess:
		return fmt.Errorf("contact: submit while %s: %w", f.status, apperr.ErrInvalid)
	}

	msg := f.Fields.Normalize()
	if err := msg.Validate(); err != nil {
		f.status, f.err = StatusError, fmt.Errorf("contact: %w: %w", apperr.ErrInvalid, err)
		return f.err
	}

	f.status = StatusSending
	receipt, err := sink.Insert(ctx, msg)
	if err != nil {
		if !errors.Is(err, apperr.ErrSubmission) {
			err = fmt.Errorf("%w: %w", apperr.ErrSubmission, err)
		}
		f.status, f.err = StatusError, err
		return err
	}

	f.status, f.err = StatusSuccess, nil
	f.receipt = receipt
	f.successAt = f.now()
	f.Fields = Message{}
	return nil
}

// FieldErrors returns per-field validation messages for the last failed
// submit, keyed by JSON field name.
func (f *Form) FieldErrors() map[string]string {
	var verrs validation.Errors
	if !errors.As(f.err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for k, v := range verrs {
		out[k] = v.Error()
	}
	return out
}
