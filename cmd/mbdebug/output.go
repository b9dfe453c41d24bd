// cmd/mbdebug/output.go
package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/tamzrod/modbus-debugger/internal/codec"
	"github.com/tamzrod/modbus-debugger/internal/packet"
	"github.com/tamzrod/modbus-debugger/internal/poller"
	"github.com/tamzrod/modbus-debugger/internal/session"
	"github.com/tamzrod/modbus-debugger/internal/status"
)

var (
	txColor  = color.New(color.FgYellow).SprintFunc()
	rxColor  = color.New(color.FgGreen).SprintFunc()
	errColor = color.New(color.FgRed, color.Bold).SprintFunc()
	dimColor = color.New(color.Faint).SprintFunc()
)

// report is the structured form of one command outcome.
type report struct {
	Op       string    `yaml:"op"`
	Start    uint16    `yaml:"start"`
	Type     string    `yaml:"type,omitempty"`
	Values   []any     `yaml:"values,omitempty"`
	Bits     []bool    `yaml:"bits,omitempty"`
	Words    []uint16  `yaml:"registers,omitempty"`
	Identity *identity `yaml:"identity,omitempty"`
	Frames   []frame   `yaml:"frames"`
	Retried  bool      `yaml:"retried,omitempty"`
	Error    string    `yaml:"error,omitempty"`
	Kind     string    `yaml:"kind,omitempty"`
}

type frame struct {
	Op    string `yaml:"op"`
	Tx    string `yaml:"tx"`
	Rx    string `yaml:"rx,omitempty"`
	Error string `yaml:"error,omitempty"`
}

type identity struct {
	SlaveID   uint8    `yaml:"slave_id"`
	Running   bool     `yaml:"running"`
	Data      string   `yaml:"data,omitempty"`
	Strings   []string `yaml:"strings,omitempty"`
	Decimal   string   `yaml:"decimal"`
	ASCII     string   `yaml:"ascii"`
	ByteCount int      `yaml:"byte_count"`
}

type printer struct {
	w      io.Writer
	errW   io.Writer
	format string
}

func newPrinter(w, errW io.Writer, format string) *printer {
	return &printer{w: w, errW: errW, format: format}
}

func frames(ex []packet.Exchange) []frame {
	out := make([]frame, 0, len(ex))
	for _, e := range ex {
		out = append(out, frame{
			Op:    e.Op,
			Tx:    packet.Format(e.Sent),
			Rx:    packet.Format(e.Received),
			Error: e.Err,
		})
	}
	return out
}

// result prints a read/write outcome and passes err through.
func (p *printer) result(op string, start uint16, t codec.Type, res session.Result, err error) error {
	r := report{
		Op:      op,
		Start:   start,
		Values:  res.Values,
		Bits:    res.Bits,
		Words:   res.Registers,
		Frames:  frames(res.Exchanges),
		Retried: res.Retried,
	}
	if len(res.Bits) == 0 {
		r.Type = t.String()
	}
	p.emit(r, err, func() { p.values(start, t, res) })
	return err
}

func (p *printer) identity(res session.IdentityResult, err error) error {
	r := report{
		Op:      "identity",
		Frames:  frames(res.Exchanges),
		Retried: res.Retried,
	}
	if err == nil {
		id := res.Identity
		r.Identity = &identity{
			SlaveID:   id.SlaveID,
			Running:   id.Running(),
			Data:      packet.Format(id.Data),
			Strings:   id.Strings(),
			Decimal:   id.Decimal(),
			ASCII:     id.ASCII(),
			ByteCount: id.ByteCount,
		}
	}
	p.emit(r, err, func() {
		for _, l := range res.Identity.Lines() {
			fmt.Fprintln(p.w, "  "+l)
		}
	})
	return err
}

func (p *printer) emit(r report, err error, body func()) {
	if err != nil {
		r.Error = err.Error()
		r.Kind = session.KindOf(err).String()
	}

	if p.format == "yaml" {
		b, merr := yaml.Marshal(r)
		if merr != nil {
			fmt.Fprintf(p.errW, "yaml: %v\n", merr)
			return
		}
		p.w.Write(b)
		return
	}

	for _, f := range r.Frames {
		fmt.Fprintf(p.w, "%s %s\n", txColor("TX"), f.Tx)
		if f.Rx != "" {
			fmt.Fprintf(p.w, "%s %s\n", rxColor("RX"), f.Rx)
		}
	}
	if r.Retried {
		fmt.Fprintln(p.w, dimColor("(retried after reconnect)"))
	}
	if err != nil {
		fmt.Fprintf(p.errW, "%s %s: %v\n", errColor("ERROR"), r.Kind, err)
		return
	}
	body()
}

// values lists decoded values against their first register address.
func (p *printer) values(start uint16, t codec.Type, res session.Result) {
	if len(res.Bits) == 0 && len(res.Values) == 0 {
		fmt.Fprintln(p.w, "  ok")
		return
	}
	if len(res.Bits) > 0 {
		for i, b := range res.Bits {
			fmt.Fprintf(p.w, "  %5d  %v\n", int(start)+i, b)
		}
		return
	}

	width, fixed := codec.WordsPerValue(t)
	perWord := codec.ValuesPerWord(t)
	for i, v := range res.Values {
		switch {
		case perWord > 1:
			fmt.Fprintf(p.w, "  %5d  %v\n", int(start)+i/perWord, v)
		case fixed:
			fmt.Fprintf(p.w, "  %5d  %v\n", int(start)+i*width, v)
		default:
			fmt.Fprintf(p.w, "  %5s  %v\n", "", v)
		}
	}
}

func (p *printer) poll(res poller.PollResult, snap status.Snapshot) {
	if p.format == "yaml" {
		doc := struct {
			Seq    uint64   `yaml:"seq"`
			At     string   `yaml:"at"`
			Health string   `yaml:"health"`
			Blocks []report `yaml:"blocks,omitempty"`
			Error  string   `yaml:"error,omitempty"`
		}{
			Seq:    res.Seq,
			At:     res.At.Format(codec.TimestampLayout),
			Health: status.HealthName(snap.Health),
		}
		if res.Err != nil {
			doc.Error = res.Err.Error()
		}
		for _, b := range res.Blocks {
			doc.Blocks = append(doc.Blocks, report{
				Op:      b.Block.Name,
				Start:   b.Block.Start,
				Values:  b.Values,
				Bits:    b.Bits,
				Words:   b.Registers,
				Retried: b.Retried,
			})
		}
		b, err := yaml.Marshal([]any{doc})
		if err != nil {
			fmt.Fprintf(p.errW, "yaml: %v\n", err)
			return
		}
		p.w.Write(b)
		return
	}

	fmt.Fprintf(p.w, "#%d %s %s\n", res.Seq, res.At.Format(codec.TimestampLayout), snap)
	if res.Err != nil {
		fmt.Fprintf(p.errW, "%s %v\n", errColor("ERROR"), res.Err)
		return
	}
	for _, b := range res.Blocks {
		fmt.Fprintf(p.w, "  %s %s\n", dimColor("["+b.Block.Name+"]"), b.Block.Area)
		if b.Sent != "" {
			fmt.Fprintf(p.w, "  %s %s\n", txColor("TX"), b.Sent)
			fmt.Fprintf(p.w, "  %s %s\n", rxColor("RX"), b.Received)
		}
		p.values(b.Block.Start, b.Block.Type, session.Result{
			Values: b.Values,
			Bits:   b.Bits,
		})
	}
}
