package mpd

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yhkl-dev/navimpd/config"
)

// reply is a scripted response body. ack, when set, is sent instead of the
// body as "ACK [ack@index] {command} message".
type reply struct {
	body    []string
	ack     AckCode
	message string
	delay   time.Duration
}

// fakeServer speaks enough of the protocol to drive a Client in tests
type fakeServer struct {
	t  *testing.T
	ln net.Listener

	mu       sync.Mutex
	replies  map[string]reply
	received []string
	conns    []net.Conn

	changes chan []string
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeServer{
		t:       t,
		ln:      ln,
		replies: map[string]reply{},
		changes: make(chan []string, 16),
	}
	go s.accept()
	t.Cleanup(s.close)
	return s
}

func (s *fakeServer) serverConfig() config.ServerConfig {
	host, port, _ := net.SplitHostPort(s.ln.Addr().String())
	p, _ := strconv.Atoi(port)
	return config.ServerConfig{Address: host, Port: p, Timeout: 2 * time.Second}
}

// on scripts the reply for a command name
func (s *fakeServer) on(name string, r reply) {
	s.mu.Lock()
	s.replies[name] = r
	s.mu.Unlock()
}

// notify wakes a pending idle request with the given subsystems
func (s *fakeServer) notify(subsystems ...string) {
	s.changes <- subsystems
}

// commands returns every non-idle line received so far
func (s *fakeServer) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// dropAll closes every accepted connection from the server side
func (s *fakeServer) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

func (s *fakeServer) close() {
	s.ln.Close()
	s.dropAll()
}

func (s *fakeServer) accept() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns = append(s.conns, c)
		s.mu.Unlock()
		go s.serve(c)
	}
}

func (s *fakeServer) serve(c net.Conn) {
	defer c.Close()
	w := bufio.NewWriter(c)
	r := bufio.NewReader(c)
	w.WriteString("OK MPD 0.23.5\n")
	w.Flush()

	var list []string
	inList, listOK := false, false
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\n")

		switch {
		case strings.HasPrefix(line, "idle"):
			changed, ok := <-s.changes
			if !ok {
				return
			}
			for _, sub := range changed {
				w.WriteString("changed: " + sub + "\n")
			}
			w.WriteString("OK\n")
			w.Flush()
			continue
		case line == cmdListBegin || line == cmdListOKBegin:
			s.record(line)
			inList, listOK = true, line == cmdListOKBegin
			list = nil
			continue
		case line == cmdListEnd:
			s.record(line)
			s.respondList(w, list, listOK)
			inList = false
			continue
		}

		s.record(line)
		if inList {
			list = append(list, line)
			continue
		}
		rep := s.lookup(line)
		time.Sleep(rep.delay)
		if rep.ack != 0 {
			writeAck(w, rep, 0, commandName(line))
		} else {
			writeBody(w, rep)
			w.WriteString("OK\n")
		}
		w.Flush()
	}
}

func (s *fakeServer) respondList(w *bufio.Writer, list []string, listOK bool) {
	defer w.Flush()
	for i, line := range list {
		rep := s.lookup(line)
		if rep.ack != 0 {
			writeAck(w, rep, i, commandName(line))
			return
		}
		writeBody(w, rep)
		if listOK {
			w.WriteString("list_OK\n")
		}
	}
	w.WriteString("OK\n")
}

func (s *fakeServer) record(line string) {
	s.mu.Lock()
	s.received = append(s.received, line)
	s.mu.Unlock()
}

func (s *fakeServer) lookup(line string) reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.replies[commandName(line)]
}

func commandName(line string) string {
	name, _, _ := strings.Cut(line, " ")
	return name
}

func writeBody(w *bufio.Writer, rep reply) {
	for _, l := range rep.body {
		w.WriteString(l + "\n")
	}
}

func writeAck(w *bufio.Writer, rep reply, index int, name string) {
	w.WriteString("ACK [" + strconv.Itoa(int(rep.ack)) + "@" + strconv.Itoa(index) + "] {" + name + "} " + rep.message + "\n")
}

// connectedClient starts a fake server and a client connected to it
func connectedClient(t *testing.T, opts ...Option) (*Client, *fakeServer) {
	t.Helper()
	srv := newFakeServer(t)
	c := New(srv.serverConfig(), opts...)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { c.Disconnect() })
	return c, srv
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
