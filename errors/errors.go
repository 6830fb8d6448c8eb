package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode   Phase = "encode"   // Value to wire text
	PhaseDecode   Phase = "decode"   // wire text to Value
	PhaseLiteral  Phase = "literal"  // Value to Julia source text
	PhaseDiscover Phase = "discover" // worker discovery
	PhaseLaunch   Phase = "launch"   // worker process startup
	PhaseCall     Phase = "call"     // the synchronous call handshake
	PhaseServe    Phase = "serve"    // worker-side serve loop
)

// Kind categorizes the error
type Kind string

const (
	KindBadTag        Kind = "bad_tag"
	KindStringTooLong Kind = "string_too_long"
	KindZeroDim       Kind = "zero_dim"
	KindBadDims       Kind = "bad_dims"
	KindNesting       Kind = "nesting"
	KindUnsupported   Kind = "unsupported"
	KindInvalidData   Kind = "invalid_data"
	KindNotFound      Kind = "not_found"
	KindWorkerDead    Kind = "worker_dead"
	KindStartupFailed Kind = "startup_failed"
	KindIO            Kind = "io"
)

// Error is the structured error type used throughout the library.
// Ops accumulates operation context as the error climbs the stack:
// each layer prefixes its own operation name rather than replacing
// the message.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Input  string
	Detail string
	Ops    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Ops) > 0 {
		b.WriteString(" in ")
		b.WriteString(strings.Join(e.Ops, "/"))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Input != "" {
		b.WriteString(" (input ")
		b.WriteString(fmt.Sprintf("%.64q", e.Input))
		b.WriteByte(')')
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Annotate prefixes an operation name onto err's context chain if err is
// a structured Error, otherwise wraps it in one. Layers call this on the
// way up so the final message reads outermost-first.
func Annotate(err error, phase Phase, op string) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		e.Ops = append([]string{op}, e.Ops...)
		return e
	}
	return &Error{
		Phase: phase,
		Kind:  KindInvalidData,
		Ops:   []string{op},
		Cause: err,
	}
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the originating operation name(s)
func (b *Builder) Op(ops ...string) *Builder {
	b.err.Ops = ops
	return b
}

// Input records the malformed input context
func (b *Builder) Input(s string) *Builder {
	b.err.Input = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// BadTag creates an unrecognized-tag error with the offending character
// reported verbatim.
func BadTag(phase Phase, op string, tag rune, input string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadTag,
		Ops:    []string{op},
		Input:  input,
		Detail: fmt.Sprintf("unrecognized type tag %q", tag),
		Value:  tag,
	}
}

// StringTooLong reports a string meeting or exceeding the injected
// capability ceiling. Both the offending length and the limit appear in
// the message.
func StringTooLong(op string, length, limit int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindStringTooLong,
		Ops:    []string{op},
		Detail: fmt.Sprintf("string of length %d meets or exceeds the limit of %d characters", length, limit),
		Value:  length,
	}
}

// ZeroDim creates a zero-length-dimension error
func ZeroDim(phase Phase, op string, dims []int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindZeroDim,
		Ops:    []string{op},
		Detail: fmt.Sprintf("array has a zero-length dimension: %v", dims),
		Value:  dims,
	}
}

// BadDims creates a dimensionality error for anything other than 1 or 2 dims
func BadDims(phase Phase, op string, ndims int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadDims,
		Ops:    []string{op},
		Detail: fmt.Sprintf("%d dimensions not handled, only 1 or 2", ndims),
		Value:  ndims,
	}
}

// NestingNotAllowed reports a nested array met without the caller's permission
func NestingNotAllowed(op string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindNesting,
		Ops:    []string{op},
		Detail: "nested array encountered but nesting was not allowed by the caller",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, op, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Ops:    []string{op},
		Detail: what,
	}
}

// InvalidData creates an invalid data error carrying the malformed input
func InvalidData(phase Phase, op, detail, input string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Ops:    []string{op},
		Input:  input,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// WorkerDead reports the worker process vanishing while a call was pending
func WorkerDead(op string, pid int) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindWorkerDead,
		Ops:    []string{op},
		Detail: fmt.Sprintf("worker process %d terminated mid-call", pid),
		Value:  pid,
	}
}

// StartupFailed surfaces the bootstrap failure text left by the worker
func StartupFailed(text string) *Error {
	return &Error{
		Phase:  PhaseLaunch,
		Kind:   KindStartupFailed,
		Detail: fmt.Sprintf("worker bootstrap failed: %s", strings.TrimSpace(text)),
	}
}

// IO wraps a filesystem failure with the artifact path
func IO(phase Phase, op, path string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Ops:    []string{op},
		Detail: path,
		Cause:  cause,
	}
}
