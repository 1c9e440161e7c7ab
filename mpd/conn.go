package mpd

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

// Dialer opens the raw transport; net.Dialer satisfies it
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// responseMode tells the reader how to consume a response
type responseMode int

const (
	modeNone responseMode = iota // expect only OK
	modeBody                     // fields up to OK
	modeList                     // list_OK separated fields up to OK
)

// Conn is one protocol connection: a socket plus line framing
type Conn struct {
	raw     net.Conn
	reader  *bufio.Reader
	writeMu sync.Mutex
	timeout time.Duration
	version string
	closed  *atomic.Bool
}

// Dial connects to address, reads the greeting and returns the ready connection
func Dial(ctx context.Context, d Dialer, address string, timeout time.Duration) (*Conn, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	raw, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, wrap("dial", errors.Wrapf(err, "dial %s", address))
	}

	c := &Conn{
		raw:     raw,
		reader:  bufio.NewReader(raw),
		timeout: timeout,
		closed:  atomic.NewBool(false),
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = raw.SetReadDeadline(deadline)
	}
	line, err := c.ReadLine()
	if err != nil {
		raw.Close()
		return nil, wrap("greeting", err)
	}
	_ = raw.SetReadDeadline(time.Time{})
	if c.version, err = ParseGreeting(line); err != nil {
		raw.Close()
		return nil, err
	}
	return c, nil
}

// Address joins host and port the way Dial expects
func Address(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Version is the protocol version announced by the server
func (c *Conn) Version() string {
	return c.version
}

// WriteLine sends one request line; a missing newline is added
func (c *Conn) WriteLine(line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	return c.write(line)
}

func (c *Conn) write(data string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.timeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.timeout))
	}
	if _, err := c.raw.Write([]byte(data)); err != nil {
		return wrap("write", err)
	}
	return nil
}

// ReadLine reads one response line without its terminator
func (c *Conn) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", wrap("read", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// roundtrip writes request and reads the response according to mode. An ACK
// terminates the response with a serverRejected error. Timeouts apply when
// bounded is set; the idle connection reads without a deadline.
func (c *Conn) roundtrip(request string, mode responseMode, bounded bool) ([]Block, error) {
	if bounded && c.timeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.timeout))
		defer c.raw.SetReadDeadline(time.Time{})
	}
	if err := c.write(request); err != nil {
		return nil, err
	}
	return c.readResponse(mode)
}

func (c *Conn) readResponse(mode responseMode) ([]Block, error) {
	var blocks []Block
	var cur Block
	for {
		line, err := c.ReadLine()
		if err != nil {
			return nil, err
		}
		switch {
		case line == responseOK:
			if mode != modeList || len(cur) > 0 {
				blocks = append(blocks, cur)
			}
			return blocks, nil
		case line == responseListOK:
			if mode != modeList {
				return nil, newError(KindMalformedResponse, "read", errors.New("unexpected list_OK"))
			}
			blocks = append(blocks, cur)
			cur = nil
		case strings.HasPrefix(line, ackPrefix):
			ack, err := ParseAck(line)
			if err != nil {
				return nil, err
			}
			return nil, &Error{Kind: KindServerRejected, Op: ack.Command, Ack: ack}
		default:
			f, err := ParseLine(line)
			if err != nil {
				return nil, err
			}
			cur = append(cur, f)
		}
	}
}

// Close closes the socket. It is safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.raw.Close()
}

// Closed reports whether Close has been called
func (c *Conn) Closed() bool {
	return c.closed.Load()
}
