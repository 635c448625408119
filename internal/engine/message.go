package engine

import (
	"time"

	"github.com/google/uuid"
)

// Message origins.
const (
	SourceCLI   = "cli"
	SourceStdin = "stdin"
	SourceWatch = "watch"
)

// TypeText is the default message type: the payload is a plain string,
// usually a filesystem path.
const TypeText = "text"

// Message is the unit being routed: a payload plus metadata about where
// it came from. Data is what the rules match against; it is not
// modified during a pass (the variable scope carries derived values).
type Message struct {
	// ID identifies the message in logs and inspect output.
	ID string
	// Data is the payload, typically a filesystem path.
	Data string
	// OriginalData is the payload as received, before any rewriting.
	OriginalData string
	// Source names the origin: cli, stdin or watch.
	Source string
	// Dest names an intended destination, when the origin knows one.
	Dest string
	// Type classifies the payload. Defaults to text.
	Type string
	// Dir is the working directory relative paths resolve against.
	// Empty means the process working directory.
	Dir string
	// Attrs carries free-form metadata attached by the origin.
	Attrs map[string]string
	// ReceivedAt is when the message entered the router.
	ReceivedAt time.Time
}

// NewMessage creates a text message carrying data as its payload.
func NewMessage(data string) *Message {
	return &Message{
		ID:           uuid.NewString(),
		Data:         data,
		OriginalData: data,
		Type:         TypeText,
		Attrs:        make(map[string]string),
		ReceivedAt:   time.Now(),
	}
}
