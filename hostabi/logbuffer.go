package hostabi

import "strings"

// LogBuffer is the per-call ordered sequence of UTF-8 strings populated
// exclusively by the guest through the host `log` import. It is created
// fresh per invocation, owned by the call's store, and consumed once at
// completion; it is never shared across calls.
type LogBuffer struct {
	lines []string
}

// NewLogBuffer returns an empty buffer ready for one call.
func NewLogBuffer() *LogBuffer {
	return &LogBuffer{}
}

// Append records one guest log line.
func (b *LogBuffer) Append(line string) {
	b.lines = append(b.lines, line)
}

// Join renders the buffer as the ExecutionResult.output value: every
// recorded line joined with a single "\n" separator, no trailing newline.
func (b *LogBuffer) Join() string {
	return strings.Join(b.lines, "\n")
}
