package mpd

import (
	"context"
	"net"
	"sync"

	"github.com/sourcegraph/conc"
	"github.com/yhkl-dev/navimpd/config"
	"github.com/yhkl-dev/navimpd/domain"
	"github.com/yhkl-dev/navimpd/events"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Option customizes a Client
type Option func(*Client)

// WithDispatcher sets where Future.Then callbacks and event handlers run
func WithDispatcher(d Dispatcher) Option {
	return func(c *Client) { c.dispatch = d }
}

// WithBus publishes events on an existing bus instead of a private one
func WithBus(b *events.Bus) Option {
	return func(c *Client) { c.bus = b }
}

// WithDialer replaces the TCP dialer, mostly for tests
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithLogger replaces the package logger
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) { c.log = l }
}

// session is the state of one successful Connect
type session struct {
	exec     *Executor
	idle     *IdleListener
	wg       conc.WaitGroup
	lostOnce sync.Once
	// release lets the idle loop start once Connect has been published
	release func()
}

// Client talks to one server over a command connection and an idle connection
type Client struct {
	cfg      config.ServerConfig
	dialer   Dialer
	dispatch Dispatcher
	bus      *events.Bus
	log      *zap.SugaredLogger

	mu         sync.Mutex
	sess       *session
	connecting bool
	version    string
}

// New creates a disconnected client for the given server settings
func New(cfg config.ServerConfig, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg,
		dialer:   &net.Dialer{},
		dispatch: Inline,
		log:      &log.SugaredLogger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.bus == nil {
		c.bus = events.NewBusWithDispatcher(c.dispatch)
	}
	return c
}

// Bus returns the bus events are published on
func (c *Client) Bus() *events.Bus {
	return c.bus
}

// Subscribe registers handler for the given events
func (c *Client) Subscribe(set domain.EventSet, handler events.Handler) events.SubscriptionID {
	return c.bus.Subscribe(set, handler)
}

// Unsubscribe removes a subscription
func (c *Client) Unsubscribe(id events.SubscriptionID) bool {
	return c.bus.Unsubscribe(id)
}

// Connect opens the command and idle connections and starts the idle loop.
// The lock is only held to claim and install the session, so other calls
// fail fast with disconnected while the dial is in progress.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.sess != nil || c.connecting {
		c.mu.Unlock()
		return &Error{Kind: KindInvalidState, Op: "connect"}
	}
	c.connecting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
	}()

	addr := Address(c.cfg.Address, c.cfg.Port)
	cmdConn, err := c.open(ctx, addr)
	if err != nil {
		return err
	}
	idleConn, err := c.open(ctx, addr)
	if err != nil {
		cmdConn.Close()
		return err
	}

	ready := make(chan struct{})
	s := &session{
		exec:    NewExecutor(cmdConn),
		release: sync.OnceFunc(func() { close(ready) }),
	}
	s.idle = NewIdleListener(idleConn, c.bus.Publish, func(error) {
		c.dropSession(s)
	})
	s.exec.OnLost(func(error) {
		c.dropSession(s)
	})
	s.wg.Go(s.exec.Run)
	s.wg.Go(func() {
		<-ready
		s.idle.Run()
	})

	c.mu.Lock()
	c.sess = s
	c.version = cmdConn.Version()
	c.mu.Unlock()

	c.log.Infow("connected", "address", addr, "version", cmdConn.Version())
	c.bus.Publish(domain.EventConnect)
	s.release()
	return nil
}

func (c *Client) open(ctx context.Context, addr string) (*Conn, error) {
	conn, err := Dial(ctx, c.dialer, addr, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if c.cfg.Password != "" {
		if _, err := conn.roundtrip(Cmd("password", c.cfg.Password).Encode(), modeNone, true); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return conn, nil
}

// connectionLost publishes Disconnect once per session
func (c *Client) connectionLost(s *session) {
	s.lostOnce.Do(func() {
		c.bus.Publish(domain.EventDisconnect)
	})
}

// dropSession tears down a session whose connection failed on its own. It
// runs on one of the session's goroutines, so it must not wait for them.
func (c *Client) dropSession(s *session) {
	c.mu.Lock()
	if c.sess == s {
		c.sess = nil
	}
	c.mu.Unlock()
	s.exec.Close()
	s.idle.Close()
	s.release()
	c.connectionLost(s)
}

// Disconnect closes both connections. Queued commands complete with
// disconnected. Calling it while disconnected is a no-op.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	s := c.sess
	c.sess = nil
	c.mu.Unlock()
	if s == nil {
		return nil
	}

	err := multierr.Append(s.exec.Close(), s.idle.Close())
	s.release()
	s.wg.Wait()
	c.connectionLost(s)
	c.log.Infow("disconnected", "address", Address(c.cfg.Address, c.cfg.Port))
	return err
}

// IsConnected reflects the command connection only
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil
}

// Version is the protocol version of the last successful connection
func (c *Client) Version() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Root is the library root used to resolve song paths
func (c *Client) Root() string {
	return c.cfg.Directory
}

func (c *Client) executor() *Executor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	return c.sess.exec
}

// Execute runs one command; with expectsBody the response fields are returned
func (c *Client) Execute(cmd Command, expectsBody bool) *Future[Block] {
	e := c.executor()
	if e == nil {
		return c.failed(cmd.Name)
	}
	return e.Execute(cmd, expectsBody, c.dispatch)
}

// ExecuteBatch runs cmds atomically as one command list
func (c *Client) ExecuteBatch(cmds []Command) *Future[struct{}] {
	e := c.executor()
	if e == nil {
		f := newFuture[struct{}](c.dispatch)
		f.resolve(struct{}{}, errDisconnected(cmdListBegin))
		return f
	}
	return e.ExecuteBatch(cmds, c.dispatch)
}

// ExecuteList runs cmds as one command list and returns a block per command
func (c *Client) ExecuteList(cmds []Command) *Future[[]Block] {
	e := c.executor()
	if e == nil {
		f := newFuture[[]Block](c.dispatch)
		f.resolve(nil, errDisconnected(cmdListOKBegin))
		return f
	}
	return e.ExecuteList(cmds, c.dispatch)
}

func (c *Client) failed(op string) *Future[Block] {
	f := newFuture[Block](c.dispatch)
	f.resolve(nil, errDisconnected(op))
	return f
}

// Simple runs a command that has no response body
func (c *Client) Simple(name string, args ...any) *Future[struct{}] {
	return Map(c.Execute(Cmd(name, args...), false), func(Block) (struct{}, error) {
		return struct{}{}, nil
	})
}

// Ping checks the command connection round trip
func (c *Client) Ping() *Future[struct{}] {
	return c.Simple("ping")
}

// Status fetches the player status together with the current song
func (c *Client) Status() *Future[domain.PlayerStatus] {
	list := c.ExecuteList([]Command{Cmd("status"), Cmd("currentsong")})
	root := c.cfg.Directory
	return Map(list, func(blocks []Block) (domain.PlayerStatus, error) {
		st := ParseStatus(blocks[0])
		if st.SongPosition >= 0 {
			st.Song = ParseSong(blocks[1], root)
		}
		return st, nil
	})
}

// CurrentSong fetches the current song, EmptySong when there is none
func (c *Client) CurrentSong() *Future[domain.Song] {
	root := c.cfg.Directory
	return Map(c.Execute(Cmd("currentsong"), true), func(b Block) (domain.Song, error) {
		if len(b) == 0 {
			return domain.EmptySong, nil
		}
		return ParseSong(b, root), nil
	})
}

// Queue fetches every song of the queue in position order
func (c *Client) Queue() *Future[[]domain.Song] {
	root := c.cfg.Directory
	return Map(c.Execute(Cmd("playlistinfo"), true), func(b Block) ([]domain.Song, error) {
		return ParseSongs(b, root), nil
	})
}

// Stats fetches the server counters
func (c *Client) Stats() *Future[domain.Stats] {
	return Map(c.Execute(Cmd("stats"), true), func(b Block) (domain.Stats, error) {
		return ParseStats(b), nil
	})
}
