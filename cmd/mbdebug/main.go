// cmd/mbdebug/main.go
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/tamzrod/modbus-debugger/internal/config"
	"github.com/tamzrod/modbus-debugger/internal/session"
	tmodbus "github.com/tamzrod/modbus-debugger/internal/transport/modbus"
)

const usage = `usage: mbdebug [flags] <command> [args]

commands:
  read     <holding|input|coil|discrete> <start> <end> [type] [byte-order] [word-order]
  write    holding <start> <end> <type> <literal> [byte-order] [word-order]
  write    coil <start> <end> <literal>
  rw       <read-start> <read-end> <write-start> <type> <literal> [byte-order] [word-order]
  identity [unit]
  poll

flags:
`

type options struct {
	configPath string
	kind       string
	host       string
	port       int
	device     string
	baud       int
	parity     string
	unit       int
	timeout    time.Duration
	output     string
	noColor    bool
	logLevel   string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opt options

	flags := pflag.NewFlagSet("mbdebug", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opt.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&opt.kind, "kind", "", "link kind: tcp or rtu")
	flags.StringVar(&opt.host, "host", "", "TCP host")
	flags.IntVarP(&opt.port, "port", "p", 0, "TCP port")
	flags.StringVar(&opt.device, "device", "", "serial device (implies --kind rtu)")
	flags.IntVar(&opt.baud, "baud", 0, "serial baud rate")
	flags.StringVar(&opt.parity, "parity", "", "serial parity: N, E or O")
	flags.IntVarP(&opt.unit, "unit", "u", 0, "unit / slave id (0-247)")
	flags.DurationVar(&opt.timeout, "timeout", 0, "per-request timeout")
	flags.StringVarP(&opt.output, "output", "o", "text", "output format: text or yaml")
	flags.BoolVar(&opt.noColor, "no-color", false, "disable coloured frames")
	flags.StringVar(&opt.logLevel, "log-level", "", "override log level")
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return 2
	}
	if opt.output != "text" && opt.output != "yaml" {
		fmt.Fprintf(stderr, "unknown output format %q\n", opt.output)
		return 2
	}
	if opt.noColor {
		color.NoColor = true
	}

	// --------------------
	// Load + override config
	// --------------------

	cfg := config.Default()
	if opt.configPath != "" {
		var err error
		if cfg, err = config.Load(opt.configPath); err != nil {
			fmt.Fprintf(stderr, "config load failed: %v\n", err)
			return 1
		}
	}
	applyFlags(cfg, flags, opt)
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "invalid flags: %v\n", err)
		return 2
	}
	config.Normalize(cfg)

	logger, closeLog := setupLogger(cfg.Log, stderr)
	defer closeLog()

	// --------------------
	// Connect
	// --------------------

	params, err := cfg.Connection.Params()
	if err != nil {
		fmt.Fprintf(stderr, "connection config: %v\n", err)
		return 1
	}

	sess := session.New(
		tmodbus.Dial,
		session.WithLogger(logger),
		session.WithMaxRegisters(uint16(cfg.Limits.MaxRegistersPerCall)),
		session.WithMaxBits(uint16(cfg.Limits.MaxBitsPerCall)),
		session.WithHistory(cfg.History),
	)
	if err := sess.Connect(params, cfg.Connection.Unit()); err != nil {
		fmt.Fprintf(stderr, "%s\n", color.RedString("%v", err))
		return 1
	}
	defer sess.Disconnect()

	app := &app{
		cfg:  cfg,
		sess: sess,
		out:  newPrinter(stdout, stderr, opt.output),
		log:  logger,
	}

	if err := app.dispatch(flags.Args()); err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintf(stderr, "%v\n\n", err)
			flags.Usage()
			return 2
		}
		return 1
	}
	return 0
}

// applyFlags lets explicit flags win over the file.
func applyFlags(cfg *config.Config, flags *pflag.FlagSet, opt options) {
	c := &cfg.Connection
	if flags.Changed("kind") {
		c.Kind = opt.kind
	}
	if flags.Changed("device") {
		c.Kind = "rtu"
		c.Device = opt.device
	}
	if flags.Changed("host") {
		c.Host = opt.host
	}
	if flags.Changed("port") {
		c.Port = opt.port
	}
	if flags.Changed("baud") {
		c.BaudRate = opt.baud
	}
	if flags.Changed("parity") {
		c.Parity = strings.ToUpper(opt.parity)
	}
	if flags.Changed("unit") {
		u := opt.unit
		c.UnitID = &u
	}
	if flags.Changed("timeout") {
		c.TimeoutMs = int(opt.timeout / time.Millisecond)
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opt.logLevel
	}
}

func setupLogger(cfg config.LogConfig, fallback io.Writer) (*slog.Logger, func()) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	closeFn := func() {}
	var handler slog.Handler
	if cfg.File != "" && cfg.File != "-" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(fallback, "Failed to open log file, using stderr: %v\n", err)
			handler = slog.NewTextHandler(fallback, opts)
		} else {
			handler = slog.NewTextHandler(f, opts)
			closeFn = func() { f.Close() }
		}
	} else {
		handler = slog.NewTextHandler(fallback, opts)
	}
	return slog.New(handler), closeFn
}
