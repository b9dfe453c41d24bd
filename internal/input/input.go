// internal/input/input.go
package input

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/tamzrod/modbus-debugger/internal/codec"
)

// ErrInvalidLiteral is the cause of every parse failure.
var ErrInvalidLiteral = errors.New("input: invalid literal")

// Now is the literal that stands for the current time in timestamp writes.
const Now = "now"

// Parser turns operator text into values for codec.Encode.
type Parser struct {
	// Clock supplies the time for "now". Nil means time.Now.
	Clock func() time.Time
}

// Parse is Parser{}.Parse.
func Parse(text string, t codec.Type) ([]any, error) {
	return Parser{}.Parse(text, t)
}

// Parse splits text into literals for t.
//
// Numbers are separated by commas or whitespace and accept 0x/0o/0b
// prefixes. ASCII takes the text verbatim. Timestamps are comma separated
// and accept "now", integer seconds, or "2006-01-02 15:04:05" (UTC).
func (p Parser) Parse(text string, t codec.Type) ([]any, error) {
	if t == codec.TypeASCII {
		return []any{text}, nil
	}

	var fields []string
	if t == codec.TypeUnixTimestamp {
		fields = splitComma(text)
	} else {
		fields = splitList(text)
	}
	if len(fields) == 0 {
		return nil, errors.Wrap(ErrInvalidLiteral, "no values")
	}

	out := make([]any, 0, len(fields))
	for _, f := range fields {
		v, err := p.parseOne(f, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (p Parser) parseOne(f string, t codec.Type) (any, error) {
	switch t {
	case codec.TypeBool:
		return parseBool(f)

	case codec.TypeFloat32, codec.TypeFloat64:
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidLiteral, "%q is not a number", f)
		}
		return v, nil

	case codec.TypeUnixTimestamp:
		if strings.EqualFold(f, Now) {
			return p.now().UTC(), nil
		}
		if n, err := strconv.ParseInt(f, 10, 64); err == nil {
			return n, nil
		}
		tm, err := time.ParseInLocation(codec.TimestampLayout, f, time.UTC)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidLiteral, "%q is not a timestamp", f)
		}
		return tm, nil
	}

	// integers; out-of-range values are left to the codec
	if strings.HasPrefix(f, "-") {
		n, err := strconv.ParseInt(f, 0, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidLiteral, "%q is not an integer", f)
		}
		return n, nil
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(f, "+"), 0, 64)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidLiteral, "%q is not an integer", f)
	}
	return n, nil
}

// ParseBools parses coil values.
func ParseBools(text string) ([]bool, error) {
	fields := splitList(text)
	if len(fields) == 0 {
		return nil, errors.Wrap(ErrInvalidLiteral, "no values")
	}
	out := make([]bool, 0, len(fields))
	for _, f := range fields {
		b, err := parseBool(f)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func parseBool(f string) (bool, error) {
	switch strings.ToLower(f) {
	case "1", "true", "on", "t":
		return true, nil
	case "0", "false", "off", "f":
		return false, nil
	}
	return false, errors.Wrapf(ErrInvalidLiteral, "%q is not a boolean", f)
}

func (p Parser) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now()
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
}

func splitComma(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
