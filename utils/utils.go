package utils

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
)

// RequestLog accumulates one handler's log fragments and writes them as a
// single entry on Flush.
type RequestLog struct {
	builder strings.Builder
	id      string
}

// NewRequestLog starts a log for the named operation with a fresh request id.
func NewRequestLog(name string) *RequestLog {
	l := &RequestLog{id: uuid.NewString()}
	l.Add(fmt.Sprintf("[%s] request_id=%s", name, l.id))
	return l
}

// ID returns the request id.
func (l *RequestLog) ID() string {
	return l.id
}

// Add appends one fragment.
func (l *RequestLog) Add(msg string) {
	if l.builder.Len() == l.builder.Cap() {
		l.builder.Grow(len(msg) + 2)
	}
	l.builder.WriteString(msg)
	l.builder.WriteString(";")
	l.builder.WriteString("\n")
}

// Addf appends a formatted fragment.
func (l *RequestLog) Addf(format string, args ...any) {
	l.Add(fmt.Sprintf(format, args...))
}

// String returns the accumulated entry.
func (l *RequestLog) String() string {
	return l.builder.String()
}

// Flush writes the entry to the standard logger.
func (l *RequestLog) Flush() {
	log.Print(l.builder.String())
}
