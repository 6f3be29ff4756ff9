// Package core defines the canonical value shapes shared by the executor
// and its callers:
//
//   - InvocationResult (output, actions, raw) returned by every invoke
//   - StreamEvent emitted by the streaming operation
//   - Outcome, the closed Success / Failure result of one backend call
//
// The shapes are independent of any particular backend. Whatever the engine
// returns is folded into them, so downstream code never needs to special-case
// a backend or its errors.
package core
