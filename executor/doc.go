// Package executor adapts a resolved engine to the agent-executor contract:
// a synchronous text call (Run), a structured invocation (Invoke), a direct
// call with positional or keyword input (Call) and an event stream
// (StreamEvents).
//
// Backend failures never escape an Executor. A controller that returns an
// error or panics produces a core.Failure, which Invoke folds into a result
// whose output starts with core.ErrorMarker and StreamEvents reports as a
// single on_error event. Only construction can fail, with the resolver's
// *backend.ResolutionError or *backend.InitError.
//
// An Executor does not serialize calls. It is as safe for concurrent use as
// the engine it wraps.
package executor
