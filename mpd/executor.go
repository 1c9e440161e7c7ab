package mpd

import (
	"sync"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("mpd")

// request is one queued unit of work for the command connection
type request struct {
	op      string
	payload string
	mode    responseMode
	done    func([]Block, error)
}

// Executor serializes all traffic on the command connection. One worker
// goroutine runs each request to completion before starting the next.
type Executor struct {
	conn *Conn

	mu      sync.Mutex
	pending []*request
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
	onLost  func(error)
}

// NewExecutor wraps conn. Run must be started for requests to make progress.
func NewExecutor(conn *Conn) *Executor {
	return &Executor{
		conn:    conn,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// OnLost registers fn to be called when the connection breaks under a
// request. The executor has already shut down when fn runs.
func (e *Executor) OnLost(fn func(error)) {
	e.mu.Lock()
	e.onLost = fn
	e.mu.Unlock()
}

// fatal reports whether err leaves the connection unusable
func fatal(err error) bool {
	switch Classify(err) {
	case KindConnectionClosed, KindTimeout, KindSystemError, KindMalformedResponse:
		return true
	}
	return false
}

// enqueue adds r to the queue, or completes it with disconnected when the
// executor has shut down.
func (e *Executor) enqueue(r *request) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		r.done(nil, errDisconnected(r.op))
		return
	}
	e.pending = append(e.pending, r)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

func (e *Executor) next() (*request, bool) {
	for {
		e.mu.Lock()
		if e.closed {
			e.mu.Unlock()
			return nil, false
		}
		if len(e.pending) > 0 {
			r := e.pending[0]
			e.pending[0] = nil
			e.pending = e.pending[1:]
			e.mu.Unlock()
			return r, true
		}
		e.mu.Unlock()

		select {
		case <-e.wake:
		case <-e.stopped:
		}
	}
}

// Run processes requests until Close. It returns when the worker exits.
func (e *Executor) Run() {
	for {
		r, ok := e.next()
		if !ok {
			return
		}
		blocks, err := e.conn.roundtrip(r.payload, r.mode, true)
		if err != nil {
			if e.isClosed() {
				err = errDisconnected(r.op)
			} else {
				log.Debugw("command failed", "op", r.op, "kind", Classify(err).String(), "err", err)
			}
		}
		r.done(blocks, err)
		if err != nil && fatal(err) && !e.isClosed() {
			log.Warnw("command connection lost", "op", r.op, "err", err)
			e.Close()
			e.mu.Lock()
			onLost := e.onLost
			e.mu.Unlock()
			if onLost != nil {
				onLost(err)
			}
			return
		}
	}
}

func (e *Executor) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close stops the worker, closes the connection and completes every request
// that has not started with disconnected.
func (e *Executor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	drained := e.pending
	e.pending = nil
	close(e.stopped)
	e.mu.Unlock()

	err := e.conn.Close()
	for _, r := range drained {
		r.done(nil, errDisconnected(r.op))
	}
	return err
}

// Execute sends a single command. With expectsBody the response fields are
// returned; otherwise the block is empty.
func (e *Executor) Execute(cmd Command, expectsBody bool, dispatch Dispatcher) *Future[Block] {
	f := newFuture[Block](dispatch)
	mode := modeNone
	if expectsBody {
		mode = modeBody
	}
	e.enqueue(&request{
		op:      cmd.Name,
		payload: cmd.Encode(),
		mode:    mode,
		done: func(blocks []Block, err error) {
			if err != nil {
				f.resolve(nil, err)
				return
			}
			var b Block
			if len(blocks) > 0 {
				b = blocks[0]
			}
			f.resolve(b, nil)
		},
	})
	return f
}

// ExecuteBatch sends cmds as one command list so the server applies them
// atomically. An empty batch succeeds without touching the network.
func (e *Executor) ExecuteBatch(cmds []Command, dispatch Dispatcher) *Future[struct{}] {
	f := newFuture[struct{}](dispatch)
	if len(cmds) == 0 {
		f.resolve(struct{}{}, nil)
		return f
	}
	e.enqueue(&request{
		op:      cmdListBegin,
		payload: EncodeList(cmds, false),
		mode:    modeBody,
		done: func(_ []Block, err error) {
			f.resolve(struct{}{}, err)
		},
	})
	return f
}

// ExecuteList sends cmds as a command list and returns one block per command
func (e *Executor) ExecuteList(cmds []Command, dispatch Dispatcher) *Future[[]Block] {
	f := newFuture[[]Block](dispatch)
	if len(cmds) == 0 {
		f.resolve(nil, nil)
		return f
	}
	e.enqueue(&request{
		op:      cmdListOKBegin,
		payload: EncodeList(cmds, true),
		mode:    modeList,
		done: func(blocks []Block, err error) {
			if err == nil && len(blocks) != len(cmds) {
				err = newError(KindMalformedResponse, cmdListOKBegin, nil)
			}
			f.resolve(blocks, err)
		},
	})
	return f
}
