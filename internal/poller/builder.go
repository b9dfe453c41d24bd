// internal/poller/builder.go
package poller

import (
	"fmt"
	"time"

	cfg "github.com/tamzrod/modbus-debugger/internal/config"
)

// Build constructs a Poller from the poll section of the config file.
// The reader is shared with the caller; the poller never opens or closes
// connections itself. Reconnects are the session's business.
func Build(name string, pc cfg.PollConfig, reader Reader) (*Poller, error) {
	reads := make([]ReadBlock, 0, len(pc.Reads))
	for _, r := range pc.Reads {
		b, err := r.Resolve()
		if err != nil {
			return nil, fmt.Errorf("poller: read %s: %w", r.Name, err)
		}
		reads = append(reads, ReadBlock{
			Name:      b.Name,
			Area:      b.Area,
			Start:     b.Start,
			End:       b.End,
			Type:      b.Type,
			ByteOrder: b.ByteOrder,
			WordOrder: b.WordOrder,
		})
	}

	return New(
		Config{
			Name:     name,
			Interval: time.Duration(pc.IntervalMs) * time.Millisecond,
			Reads:    reads,
		},
		reader,
	)
}
