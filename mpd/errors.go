package mpd

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// ErrorKind is the closed set of failure categories surfaced to callers
type ErrorKind int

const (
	KindSuccess ErrorKind = iota
	KindDisconnected
	KindOutOfMemory
	KindInvalidArgument
	KindInvalidState
	KindTimeout
	KindSystemError
	KindHostResolutionFailure
	KindMalformedResponse
	KindConnectionClosed
	KindServerRejected
	KindOther
)

var kindNames = [...]string{
	KindSuccess:               "success",
	KindDisconnected:          "disconnected",
	KindOutOfMemory:           "out of memory",
	KindInvalidArgument:       "invalid argument",
	KindInvalidState:          "invalid state",
	KindTimeout:               "timeout",
	KindSystemError:           "system error",
	KindHostResolutionFailure: "host resolution failure",
	KindMalformedResponse:     "malformed response",
	KindConnectionClosed:      "connection closed",
	KindServerRejected:        "server rejected",
	KindOther:                 "other",
}

func (k ErrorKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// AckCode is the numeric error code of an ACK line
type AckCode int

const (
	AckNotList       AckCode = 1
	AckArg           AckCode = 2
	AckPassword      AckCode = 3
	AckPermission    AckCode = 4
	AckUnknown       AckCode = 5
	AckNoExist       AckCode = 50
	AckPlaylistMax   AckCode = 51
	AckSystem        AckCode = 52
	AckPlaylistLoad  AckCode = 53
	AckUpdateAlready AckCode = 54
	AckPlayerSync    AckCode = 55
	AckExist         AckCode = 56
)

// Ack is a parsed "ACK [code@index] {command} message" line
type Ack struct {
	Code      AckCode
	ListIndex int
	Command   string
	Message   string
}

func (a *Ack) Error() string {
	return fmt.Sprintf("[%d@%d] {%s} %s", a.Code, a.ListIndex, a.Command, a.Message)
}

// ParseAck parses an ACK response line
func ParseAck(line string) (*Ack, error) {
	rest, ok := strings.CutPrefix(line, "ACK ")
	if !ok {
		return nil, newError(KindMalformedResponse, "parse ack", errors.Errorf("not an ack line: %q", line))
	}
	malformed := newError(KindMalformedResponse, "parse ack", errors.Errorf("bad ack line: %q", line))

	if !strings.HasPrefix(rest, "[") {
		return nil, malformed
	}
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return nil, malformed
	}
	codeStr, idxStr, ok := strings.Cut(rest[1:end], "@")
	if !ok {
		return nil, malformed
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, malformed
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return nil, malformed
	}

	ack := &Ack{Code: AckCode(code), ListIndex: idx}
	rest = strings.TrimLeft(rest[end+1:], " ")
	if strings.HasPrefix(rest, "{") {
		if brace := strings.IndexByte(rest, '}'); brace >= 0 {
			ack.Command = rest[1:brace]
			rest = rest[brace+1:]
		}
	}
	ack.Message = strings.TrimSpace(rest)
	return ack, nil
}

// Error is the error type returned by every client operation
type Error struct {
	Kind ErrorKind
	Op   string
	Ack  *Ack
	Err  error
}

func newError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	switch {
	case e.Ack != nil:
		b.WriteString(": ")
		b.WriteString(e.Ack.Error())
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e.Ack != nil {
		return e.Ack
	}
	return e.Err
}

// Is matches errors of the same kind, so errors.Is(err, ErrDisconnected) works
// for any disconnected error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Ack == nil && t.Err == nil && t.Kind == e.Kind
}

// ErrDisconnected is returned when an operation needs a live command connection
var ErrDisconnected = &Error{Kind: KindDisconnected}

func errDisconnected(op string) *Error {
	return &Error{Kind: KindDisconnected, Op: op}
}

// ErrInvalidArgument matches any invalidArgument error with errors.Is
var ErrInvalidArgument = &Error{Kind: KindInvalidArgument}

// InvalidArgument builds an invalidArgument error for op
func InvalidArgument(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Err: errors.Errorf(format, args...)}
}

// Classify maps any error produced while talking to the server onto an ErrorKind
func Classify(err error) ErrorKind {
	if err == nil {
		return KindSuccess
	}

	var mpdErr *Error
	if errors.As(err, &mpdErr) {
		return mpdErr.Kind
	}
	var ack *Ack
	if errors.As(err, &ack) {
		return KindServerRejected
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindHostResolutionFailure
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return KindConnectionClosed
	}
	if errors.Is(err, syscall.ENOMEM) {
		return KindOutOfMemory
	}
	if errors.Is(err, context.Canceled) {
		return KindOther
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindSystemError
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return KindSystemError
	}
	return KindOther
}

// KindOf is Classify under the name callers usually look for
func KindOf(err error) ErrorKind {
	return Classify(err)
}

// wrap turns a transport error into an *Error carrying the classified kind
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var mpdErr *Error
	if errors.As(err, &mpdErr) {
		return err
	}
	return &Error{Kind: Classify(err), Op: op, Err: err}
}
