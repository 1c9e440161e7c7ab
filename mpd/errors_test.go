package mpd

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindSuccess},
		{"disconnected", errDisconnected("status"), KindDisconnected},
		{"ack", &Ack{Code: AckArg}, KindServerRejected},
		{"wrapped error", errors.Wrap(&Error{Kind: KindInvalidArgument}, "ctx"), KindInvalidArgument},
		{"dns", &net.DNSError{Err: "no such host", Name: "nowhere"}, KindHostResolutionFailure},
		{"dns in op error", &net.OpError{Op: "dial", Err: &net.DNSError{Name: "x"}}, KindHostResolutionFailure},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"os deadline", os.ErrDeadlineExceeded, KindTimeout},
		{"net timeout", &net.OpError{Op: "read", Err: timeoutErr{}}, KindTimeout},
		{"eof", io.EOF, KindConnectionClosed},
		{"unexpected eof", fmt.Errorf("read: %w", io.ErrUnexpectedEOF), KindConnectionClosed},
		{"closed", net.ErrClosed, KindConnectionClosed},
		{"reset", &net.OpError{Op: "read", Err: os.NewSyscallError("read", syscall.ECONNRESET)}, KindConnectionClosed},
		{"pipe", syscall.EPIPE, KindConnectionClosed},
		{"nomem", syscall.ENOMEM, KindOutOfMemory},
		{"refused", &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}, KindSystemError},
		{"errno", syscall.EACCES, KindSystemError},
		{"canceled", context.Canceled, KindOther},
		{"plain", errors.New("boom"), KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := errors.Wrap(errDisconnected("play"), "queue")
	assert.True(t, errors.Is(err, ErrDisconnected))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
	assert.True(t, errors.Is(InvalidArgument("move", "bad %d", 1), ErrInvalidArgument))
}

func TestErrorMessage(t *testing.T) {
	ack := &Ack{Code: AckNoExist, ListIndex: 1, Command: "deleteid", Message: "No such song"}
	err := &Error{Kind: KindServerRejected, Op: "deleteid", Ack: ack}
	assert.Equal(t, "deleteid: server rejected: [50@1] {deleteid} No such song", err.Error())
	assert.Equal(t, ack, errors.Unwrap(err))

	assert.Equal(t, "read: connection closed: EOF", wrap("read", io.EOF).Error())
	assert.Nil(t, wrap("read", nil))
}
