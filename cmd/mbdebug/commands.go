// cmd/mbdebug/commands.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/tamzrod/modbus-debugger/internal/codec"
	"github.com/tamzrod/modbus-debugger/internal/config"
	"github.com/tamzrod/modbus-debugger/internal/input"
	"github.com/tamzrod/modbus-debugger/internal/poller"
	"github.com/tamzrod/modbus-debugger/internal/session"
	"github.com/tamzrod/modbus-debugger/internal/status"
)

// usageError marks bad command-line arguments.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

type app struct {
	cfg  *config.Config
	sess *session.Session
	out  *printer
	log  *slog.Logger
}

func (a *app) dispatch(args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "read":
		return a.read(rest)
	case "write":
		return a.write(rest)
	case "rw":
		return a.readWrite(rest)
	case "identity":
		return a.identity(rest)
	case "poll":
		return a.poll(rest)
	default:
		return usagef("unknown command %q", cmd)
	}
}

// ---- read ----

func (a *app) read(args []string) error {
	if len(args) < 3 || len(args) > 6 {
		return usagef("read: want <area> <start> <end> [type] [byte-order] [word-order]")
	}
	area, err := session.ParseArea(args[0])
	if err != nil {
		return usagef("read: %v", err)
	}
	start, end, err := parseRange(args[1], args[2])
	if err != nil {
		return usagef("read: %v", err)
	}
	t, bo, wo, err := parseLayout(args[3:])
	if err != nil {
		return usagef("read: %v", err)
	}

	res, err := a.sess.Read(area, start, end, t, bo, wo)
	return a.out.result("read", start, t, res, err)
}

// ---- write ----

func (a *app) write(args []string) error {
	if len(args) < 1 {
		return usagef("write: want <holding|coil> ...")
	}
	area, err := session.ParseArea(args[0])
	if err != nil {
		return usagef("write: %v", err)
	}

	switch area {
	case session.AreaCoil:
		if len(args) != 4 {
			return usagef("write coil: want <start> <end> <literal>")
		}
		start, end, err := parseRange(args[1], args[2])
		if err != nil {
			return usagef("write: %v", err)
		}
		bits, err := input.ParseBools(args[3])
		if err != nil {
			return usagef("write: %v", err)
		}
		res, err := a.sess.WriteCoils(start, end, bits)
		return a.out.result("write", start, codec.TypeBool, res, err)

	case session.AreaHolding:
		if len(args) < 5 || len(args) > 7 {
			return usagef("write holding: want <start> <end> <type> <literal> [byte-order] [word-order]")
		}
		start, end, err := parseRange(args[1], args[2])
		if err != nil {
			return usagef("write: %v", err)
		}
		t, bo, wo, err := parseLayout(append([]string{args[3]}, args[5:]...))
		if err != nil {
			return usagef("write: %v", err)
		}
		values, err := input.Parse(args[4], t)
		if err != nil {
			return usagef("write: %v", err)
		}
		res, err := a.sess.WriteRegisters(start, end, values, t, bo, wo)
		return a.out.result("write", start, t, res, err)

	default:
		return usagef("write: area %s is read-only", area)
	}
}

// ---- read/write multiple (FC23) ----

func (a *app) readWrite(args []string) error {
	if len(args) < 5 || len(args) > 7 {
		return usagef("rw: want <read-start> <read-end> <write-start> <type> <literal> [byte-order] [word-order]")
	}
	rs, re, err := parseRange(args[0], args[1])
	if err != nil {
		return usagef("rw: %v", err)
	}
	ws, err := parseAddress(args[2])
	if err != nil {
		return usagef("rw: %v", err)
	}
	t, bo, wo, err := parseLayout(append([]string{args[3]}, args[5:]...))
	if err != nil {
		return usagef("rw: %v", err)
	}
	values, err := input.Parse(args[4], t)
	if err != nil {
		return usagef("rw: %v", err)
	}

	res, err := a.sess.ReadWriteRegisters(rs, re, ws, values, t, bo, wo)
	return a.out.result("rw", rs, t, res, err)
}

// ---- identity (FC17) ----

func (a *app) identity(args []string) error {
	if len(args) > 1 {
		return usagef("identity: want [unit]")
	}
	unit := a.cfg.Connection.Unit()
	if len(args) == 1 {
		n, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			return usagef("identity: bad unit %q", args[0])
		}
		unit = uint8(n)
	}

	res, err := a.sess.ReportIdentity(unit)
	return a.out.identity(res, err)
}

// ---- poll ----

func (a *app) poll(args []string) error {
	if len(args) != 0 {
		return usagef("poll: takes no arguments")
	}
	params, _ := a.sess.Params()
	p, err := poller.Build(params.String(), a.cfg.Poll, a.sess)
	if err != nil {
		return usagef("poll: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := make(chan poller.PollResult)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx, results)
	}()

	tracker := status.NewTracker()
	for {
		select {
		case <-done:
			a.log.Info("poll stopped", "health", status.HealthName(tracker.Snapshot().Health))
			return nil
		case res := <-results:
			if tracker.Apply(res.Err, res.At) {
				snap := tracker.Snapshot()
				a.log.Info("health changed",
					"health", status.HealthName(snap.Health),
					"code", snap.LastErrorCode,
				)
			}
			a.out.poll(res, tracker.Snapshot())
		}
	}
}

// ---- argument helpers ----

func parseAddress(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("bad address %q", s)
	}
	return uint16(n), nil
}

func parseRange(start, end string) (uint16, uint16, error) {
	s, err := parseAddress(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := parseAddress(end)
	if err != nil {
		return 0, 0, err
	}
	return s, e, nil
}

// parseLayout reads the optional [type] [byte-order] [word-order] tail.
func parseLayout(args []string) (codec.Type, codec.ByteOrder, codec.WordOrder, error) {
	t := codec.TypeUint16
	bo, wo := codec.ByteOrderBig, codec.WordOrderBig
	var err error

	if len(args) > 0 {
		if t, err = codec.ParseType(args[0]); err != nil {
			return 0, 0, 0, err
		}
	}
	if len(args) > 1 {
		if bo, err = codec.ParseByteOrder(args[1]); err != nil {
			return 0, 0, 0, err
		}
	}
	if len(args) > 2 {
		if wo, err = codec.ParseWordOrder(args[2]); err != nil {
			return 0, 0, 0, err
		}
	}
	return t, bo, wo, nil
}
