package errs

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds surfaced by the chat pipeline. Match them with errors.Is.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrEmbeddingService  = errors.New("embedding service error")
	ErrRetrievalService  = errors.New("retrieval service error")
	ErrGenerationService = errors.New("generation service error")
	ErrPipelineExecution = errors.New("pipeline execution error")
	ErrTimeout           = errors.New("request deadline exceeded")
)

// Error classifies a failure by Kind and keeps the underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap returns err classified as kind. An error that is already classified is
// returned unchanged so the innermost classification wins.
func Wrap(kind error, op string, err error) error {
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ErrTimeout
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// New builds a classified error from a formatted message.
func New(kind error, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf reports the classification of err, or nil when err is not classified.
func KindOf(err error) error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return nil
}
