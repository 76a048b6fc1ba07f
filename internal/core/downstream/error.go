package downstream

import (
	"errors"
	"log/slog"
	"maps"
)

// Context is the free-form metadata bag attached to an Error.
type Context map[string]any

// Error is a classified downstream failure. It is immutable once built.
type Error struct {
	kind      Kind
	message   string
	cause     error
	context   Context
	status    int
	hasStatus bool
	retryable bool
}

// Option customises an Error built by New.
type Option func(*options)

type options struct {
	message      string
	cause        error
	context      Context
	status       int
	hasStatus    bool
	retryable    bool
	hasRetryable bool
}

// WithMessage overrides the kind's default message.
func WithMessage(msg string) Option {
	return func(o *options) { o.message = msg }
}

// WithCause records the original failure.
func WithCause(err error) Option {
	return func(o *options) { o.cause = err }
}

// WithContext attaches metadata. The map is copied.
func WithContext(ctx Context) Option {
	return func(o *options) { o.context = ctx }
}

// WithStatus attaches an upstream status code.
func WithStatus(status int) Option {
	return func(o *options) {
		o.status = status
		o.hasStatus = true
	}
}

// WithRetryable sets the retry flag explicitly.
func WithRetryable(retryable bool) Option {
	return func(o *options) {
		o.retryable = retryable
		o.hasRetryable = true
	}
}

// New builds an Error of the given kind. Unless WithRetryable is passed,
// the error is retryable only when a status of 500 or above is attached.
// Kinds outside the closed set are coerced to KindUnexpected.
func New(kind Kind, opts ...Option) *Error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if !kind.Valid() {
		kind = KindUnexpected
	}

	e := &Error{
		kind:      kind,
		message:   o.message,
		cause:     o.cause,
		status:    o.status,
		hasStatus: o.hasStatus,
	}
	if e.message == "" {
		e.message = kind.DefaultMessage()
	}
	if o.context != nil {
		e.context = maps.Clone(o.context)
	}
	if o.hasRetryable {
		e.retryable = o.retryable
	} else {
		e.retryable = o.hasStatus && o.status >= 500
	}
	return e
}

func (e *Error) Error() string {
	s := string(e.kind) + ": " + e.message
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// Kind returns the failure class.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the default or overridden message.
func (e *Error) Message() string { return e.message }

// Unwrap returns the original failure, if any.
func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether retrying the operation may succeed.
func (e *Error) Retryable() bool { return e.retryable }

// Status returns the attached status code.
func (e *Error) Status() (int, bool) { return e.status, e.hasStatus }

// Context returns a copy of the metadata bag, or nil when none was attached.
func (e *Error) Context() Context {
	if e.context == nil {
		return nil
	}
	return maps.Clone(e.context)
}

// Field returns the "field" entry of the context bag, used by payload
// validation failures.
func (e *Error) Field() string {
	f, _ := e.context["field"].(string)
	return f
}

// LogValue renders the error as a structured slog group.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", string(e.kind)),
		slog.String("message", e.message),
		slog.Bool("retryable", e.retryable),
	}
	if e.hasStatus {
		attrs = append(attrs, slog.Int("status", e.status))
	}
	if len(e.context) > 0 {
		attrs = append(attrs, slog.Any("context", map[string]any(e.context)))
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	return slog.GroupValue(attrs...)
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) && de != nil {
		return de, true
	}
	return nil, false
}

// Is reports whether err is, or wraps, a taxonomy error.
func Is(err error) bool {
	_, ok := As(err)
	return ok
}

// HasKind reports whether err wraps a taxonomy error of the given kind.
func HasKind(err error, kind Kind) bool {
	de, ok := As(err)
	return ok && de.kind == kind
}
