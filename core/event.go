package core

import (
	"time"

	"github.com/google/uuid"
)

// Stream event tags.
const (
	EventChatModelStream = "on_chat_model_stream"
	EventError           = "on_error"
)

// DefaultStreamVersion is the event protocol version used when the caller
// does not request one.
const DefaultStreamVersion = "v2"

// StreamEvent is one element of an executor event stream. Data holds
// {"chunk": {"content": string}} for chat model stream events and
// {"error": string} for error events.
type StreamEvent struct {
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	RunID     string         `json:"run_id"`
	Name      string         `json:"name,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewChunkEvent wraps content as the first and only chunk of a model stream.
func NewChunkEvent(runID, name, content string) StreamEvent {
	return StreamEvent{
		Event:     EventChatModelStream,
		Data:      map[string]any{"chunk": map[string]any{"content": content}},
		RunID:     runID,
		Name:      name,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorEvent reports a failed invocation.
func NewErrorEvent(runID, name, message string) StreamEvent {
	return StreamEvent{
		Event:     EventError,
		Data:      map[string]any{"error": message},
		RunID:     runID,
		Name:      name,
		Timestamp: time.Now().UTC(),
	}
}

// StreamEventFor converts an outcome into the single event reported for it.
func StreamEventFor(o Outcome, runID, name string) StreamEvent {
	if f, ok := o.(Failure); ok {
		return NewErrorEvent(runID, name, f.Message)
	}
	return NewChunkEvent(runID, name, Result(o).Output)
}

// Content returns the chunk content of a chat model stream event, or "".
func (e StreamEvent) Content() string {
	chunk, _ := e.Data["chunk"].(map[string]any)
	s, _ := chunk["content"].(string)
	return s
}

// Err returns the error message of an error event, or "".
func (e StreamEvent) Err() string {
	s, _ := e.Data["error"].(string)
	return s
}

// NewID generates a new unique identifier for stream runs.
func NewID() string { return uuid.NewString() }
