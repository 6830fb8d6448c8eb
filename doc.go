// Package juliabridge lets a host application drive a long-running Julia
// worker process as if it were a local function library: expression text
// goes out, a typed value comes back, synchronously, entirely over
// filesystem artifacts. No sockets, no pipes, no RPC layer.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	juliabridge/         Root package with the Value tagged union
//	├── codec/           Wire text codec between Value and the worker's encoding
//	├── literal/         Value to Julia source-literal conversion
//	├── protocol/        PID-scoped artifact names, flag-file semaphore, doorbell
//	├── supervisor/      Worker discovery, launch and readiness
//	├── channel/         The synchronous call state machine
//	├── bridge/          High-level API: Launch, Eval, Call, Config
//	├── worker/          Worker-side serve loop (powers the in-repo test worker)
//	└── errors/          Structured error types for debugging
//
// # Quick Start
//
//	b := bridge.New(bridge.DefaultConfig(), logger)
//
//	status, err := b.Launch(ctx)
//	fmt.Println(status) // "launched: JuliaBridge worker serving host 12345"
//
//	v, err := b.Eval(ctx, "1 + 1")
//	fmt.Println(v) // int64(2)
//
//	v, err = b.Call(ctx, "sum", args...)
//
// # Call Protocol
//
// One call is one pass through a file-based handshake, namespaced by the
// host's PID so independent hosts sharing a temp directory never collide:
//
//  1. Host writes JuliaBridgeExpression_<PID>.txt
//  2. Host creates JuliaBridgeFlag_<PID>.txt (the pending-request marker)
//  3. Host rings the doorbell (a signal to the worker process)
//  4. Worker evaluates, writes JuliaBridgeResult_<PID>.txt, deletes the flag
//  5. Host observes the flag vanish, decodes the result file
//
// The flag file acts as a binary semaphore with exactly one producer and
// one consumer per direction. There is exactly one outstanding call at a
// time per host process; the calling goroutine blocks for the duration.
//
// # Value Model
//
// Value is a closed sum type over the kinds both sides understand:
// double, single, int16/32/64, currency, decimal, bool, date (numeric day
// serial), string, empty, null, error-code, and 1-D/2-D arrays stored in
// column-major order.
//
// # Error Handling
//
// Internal failures are structured errors (see the errors package) that
// accumulate operation context as they climb the stack. At the host-facing
// boundary every failure is converted to a data value whose text begins
// with "#", because a formula evaluation context has no channel for a
// raised failure.
package juliabridge
