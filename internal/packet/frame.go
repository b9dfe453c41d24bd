// internal/packet/frame.go
package packet

import "time"

// Frame is the exact byte sequence of one wire-level send or receive.
// Frames are never mutated after capture.
type Frame []byte

// NewFrame copies b so later writes to the caller's buffer cannot leak in.
func NewFrame(b []byte) Frame {
	if len(b) == 0 {
		return nil
	}
	out := make(Frame, len(b))
	copy(out, b)
	return out
}

// String implements fmt.Stringer.
func (f Frame) String() string { return Format(f) }

// Exchange is one request/response round trip as seen on the wire.
// Received is empty when the device never answered.
type Exchange struct {
	Op       string
	At       time.Time
	Sent     Frame
	Received Frame
	Err      string
}

// Sent and Received collect the frames of a multi-exchange operation in order.
func Sent(ex []Exchange) []Frame {
	out := make([]Frame, 0, len(ex))
	for _, e := range ex {
		out = append(out, e.Sent)
	}
	return out
}

func Received(ex []Exchange) []Frame {
	out := make([]Frame, 0, len(ex))
	for _, e := range ex {
		out = append(out, e.Received)
	}
	return out
}
