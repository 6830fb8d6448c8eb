// Package bridge is the host-facing surface: a configured facade over
// the supervisor and the call channel, plus a boundary tier that turns
// every failure into data a formula grid can display.
//
// Two tiers of API:
//
//   - Launch / Eval / Call return ordinary Go errors and are what Go
//     programs should use.
//   - LaunchResult / EvalResult / CallResult never fail: any error is
//     folded into Result.ErrText as a "#...!" sentinel string, the form
//     a spreadsheet cell can hold. Worker-side evaluation failures
//     arrive in the same sentinel form and are recognized on sight.
//
// Configuration comes from DefaultConfig, optionally overlaid by a YAML
// file via LoadConfig, with the JULIABRIDGE_EXE environment variable
// taking final say over the executable path.
package bridge
