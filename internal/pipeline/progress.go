package pipeline

// Level distinguishes informational progress from error reports.
type Level string

const (
	// LevelInfo marks ordinary step progress.
	LevelInfo Level = "info"
	// LevelError marks a fault surfaced to the invoking agent.
	LevelError Level = "error"
)

// Event is one progress notification. Events are emitted synchronously, in
// order, at most once per step, and are never retried.
type Event struct {
	Level   Level  `json:"level"`
	Step    int    `json:"step,omitempty"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message"`
}

// Sink receives progress events. Implementations must not block for long;
// the orchestrator calls them inline at state transitions.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) {
	f(e)
}

// discardSink swallows events when no sink is configured.
type discardSink struct{}

func (discardSink) Emit(Event) {}
