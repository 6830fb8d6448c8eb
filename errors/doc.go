// Package errors provides structured error types for the juliabridge library.
//
// Errors are categorized by Phase (where the error occurred) and Kind
// (error category). The Error type carries the originating operation
// names, the malformed input context, and a cause chain. As an error
// climbs the stack each layer prefixes its own operation name with
// Annotate rather than replacing the message.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDecode, errors.KindInvalidData).
//		Op("decodeArray").
//		Input(text).
//		Detail("dimension list has %d entries", n).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.BadTag(errors.PhaseDecode, "decodeScalar", 'Z', text)
//	err := errors.StringTooLong("decodeString", 40000, 32767)
//
// All errors implement the standard error interface and support
// errors.Is/As. None of them is fatal to the host process: callers at
// the boundary convert them to error values and continue.
package errors
