package mpd

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

const (
	responseOK     = "OK"
	responseListOK = "list_OK"
	ackPrefix      = "ACK "
	greetingPrefix = "OK MPD "

	cmdListBegin   = "command_list_begin"
	cmdListOKBegin = "command_list_ok_begin"
	cmdListEnd     = "command_list_end"
)

// Command is one protocol request: a command name and its arguments
type Command struct {
	Name string
	Args []string
}

// Cmd builds a Command, formatting ints and other simple values as arguments
func Cmd(name string, args ...any) Command {
	c := Command{Name: name, Args: make([]string, 0, len(args))}
	for _, a := range args {
		switch v := a.(type) {
		case string:
			c.Args = append(c.Args, v)
		case int:
			c.Args = append(c.Args, strconv.Itoa(v))
		case bool:
			c.Args = append(c.Args, boolArg(v))
		case float64:
			c.Args = append(c.Args, strconv.FormatFloat(v, 'f', -1, 64))
		case Range:
			c.Args = append(c.Args, v.String())
		default:
			panic(errors.Errorf("mpd: unsupported argument type %T", a))
		}
	}
	return c
}

func boolArg(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Range is a half-open position range argument ("start:end")
type Range struct {
	Start, End int
}

func (r Range) String() string {
	if r.End < 0 {
		return strconv.Itoa(r.Start) + ":"
	}
	return strconv.Itoa(r.Start) + ":" + strconv.Itoa(r.End)
}

// String renders the command without the trailing newline
func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	for _, a := range c.Args {
		b.WriteByte(' ')
		b.WriteString(Quote(a))
	}
	return b.String()
}

// Encode renders the command as a request line
func (c Command) Encode() string {
	return c.String() + "\n"
}

// Quote returns arg unchanged when it is safe bare, otherwise wrapped in double
// quotes with '"' and '\' escaped.
func Quote(arg string) string {
	if arg != "" && !strings.ContainsFunc(arg, needsQuote) {
		return arg
	}
	var b strings.Builder
	b.Grow(len(arg) + 2)
	b.WriteByte('"')
	for _, r := range arg {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func needsQuote(r rune) bool {
	return unicode.IsSpace(r) || r == '"' || r == '\\' || r == '\''
}

// EncodeList renders commands wrapped in a command list. With ok set each
// command's response is terminated by list_OK.
func EncodeList(cmds []Command, ok bool) string {
	var b strings.Builder
	if ok {
		b.WriteString(cmdListOKBegin)
	} else {
		b.WriteString(cmdListBegin)
	}
	b.WriteByte('\n')
	for _, c := range cmds {
		b.WriteString(c.Encode())
	}
	b.WriteString(cmdListEnd)
	b.WriteByte('\n')
	return b.String()
}

// Field is one "Key: Value" response line
type Field struct {
	Key   string
	Value string
}

// Block is the ordered set of fields of one response
type Block []Field

// Get returns the first value for key, compared case-insensitively
func (b Block) Get(key string) (string, bool) {
	for _, f := range b {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value for key in response order
func (b Block) Values(key string) []string {
	var out []string
	for _, f := range b {
		if strings.EqualFold(f.Key, key) {
			out = append(out, f.Value)
		}
	}
	return out
}

// ParseLine splits a "Key: Value" response line
func ParseLine(line string) (Field, error) {
	key, value, ok := strings.Cut(line, ": ")
	if !ok || key == "" {
		return Field{}, newError(KindMalformedResponse, "parse line", errors.Errorf("unexpected line %q", line))
	}
	return Field{Key: key, Value: value}, nil
}

// ParseGreeting extracts the protocol version from the connection banner
func ParseGreeting(line string) (string, error) {
	version, ok := strings.CutPrefix(line, greetingPrefix)
	if !ok {
		return "", newError(KindMalformedResponse, "greeting", errors.Errorf("unexpected greeting %q", line))
	}
	return strings.TrimSpace(version), nil
}
