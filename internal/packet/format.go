// internal/packet/format.go
package packet

import (
	"fmt"
	"strings"
)

// Format renders raw bytes as space-separated uppercase hex pairs.
// Empty input renders as the empty string.
func Format(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return fmt.Sprintf("% X", b)
}

// FormatAll renders one line per frame, in order.
func FormatAll(frames []Frame) string {
	lines := make([]string, 0, len(frames))
	for _, f := range frames {
		lines = append(lines, Format(f))
	}
	return strings.Join(lines, "\n")
}
