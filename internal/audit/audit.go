package audit

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId"`
	Tool      string    `json:"tool"`
	Toolset   string    `json:"toolset"`
	Regions   []string  `json:"regions,omitempty"`
	Resources []string  `json:"resources,omitempty"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
}

var jsonMarshal = json.Marshal

type Logger struct {
	out io.Writer
	mu  sync.Mutex
}

func NewLogger(out io.Writer) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{out: out}
}

// Diagnostic records an out-of-band message from a toolset, such as a
// polling warning, on the same stream as tool call events.
func (l *Logger) Diagnostic(toolset, level, msg string) {
	l.Log(Event{Timestamp: time.Now().UTC(), Toolset: toolset, Outcome: level, Message: msg})
}

func (l *Logger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	data, err := jsonMarshal(event)
	if err != nil {
		return
	}
	_, _ = l.out.Write(append(data, '\n'))
}
