package models

// EventType discriminates the events a chat turn produces.
type EventType string

const (
	// EventTokenDelta carries an incremental piece of the answer text.
	EventTokenDelta EventType = "delta"
	// EventErrorNote carries a user-visible note appended after a failure
	// mid-stream, so a partial answer is distinguishable from a finished one.
	EventErrorNote EventType = "error"
	// EventDone terminates the stream. It carries no text.
	EventDone EventType = "done"
)

// StreamEvent is the transport-agnostic unit the orchestration yields.
// The HTTP layer translates these into SSE frames.
type StreamEvent struct {
	Type EventType
	Text string
}
