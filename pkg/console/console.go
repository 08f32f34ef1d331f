// Package console connects a running program's standard streams to a
// driver. Input is an injectable queue of characters; a read with nothing
// queued flips the console into the AwaitingInput state until the driver
// feeds more input, closes the stream or asks the program to stop.
package console

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// EOF is returned by Read once input is closed and drained
const EOF = -1

// ErrStopped is returned by reads after RequestStop
var ErrStopped = errors.New("console: stop requested")

// State is the observable state of the console
type State int

const (
	Ready State = iota
	AwaitingInput
)

func (s State) String() string {
	if s == AwaitingInput {
		return "awaiting input"
	}
	return "ready"
}

// Console is safe for one reading goroutine (the interpreter) and any
// number of driver goroutines.
type Console struct {
	mu      sync.Mutex
	notify  chan struct{}
	queue   []byte
	closed  bool
	pending int // ungotten character, or EOF-1 when there is none
	stop    bool
	state   State
	out     strings.Builder
	tee     io.Writer
	echo    bool
}

const noPending = EOF - 1

// Option configures a Console
type Option func(*Console)

// WithOutput copies everything the program writes to w as well
func WithOutput(w io.Writer) Option {
	return func(c *Console) { c.tee = w }
}

// WithEcho appends every consumed input character to the output, the way
// a terminal shows what the user types.
func WithEcho(echo bool) Option {
	return func(c *Console) { c.echo = echo }
}

// WithInput queues initial input and closes the stream after it
func WithInput(s string) Option {
	return func(c *Console) {
		c.queue = append(c.queue, s...)
		c.closed = true
	}
}

// New creates a console in the Ready state
func New(opts ...Option) *Console {
	c := &Console{notify: make(chan struct{}, 1), pending: noPending}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Console) wake() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// FeedInput queues one character of input
func (c *Console) FeedInput(ch byte) {
	c.mu.Lock()
	c.queue = append(c.queue, ch)
	c.mu.Unlock()
	c.wake()
}

// FeedString queues every byte of s
func (c *Console) FeedString(s string) {
	c.mu.Lock()
	c.queue = append(c.queue, s...)
	c.mu.Unlock()
	c.wake()
}

// CloseInput marks the end of input. Reads drain the queue and then
// return EOF.
func (c *Console) CloseInput() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wake()
}

// RequestStop asks the program to stop. The request is observed at the
// next read, even if input is queued, and between statements.
func (c *Console) RequestStop() {
	c.mu.Lock()
	c.stop = true
	c.mu.Unlock()
	c.wake()
}

// StopRequested reports whether RequestStop was called
func (c *Console) StopRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop
}

// State returns the current state
func (c *Console) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsAwaitingInput reports whether the program is blocked in a read
func (c *Console) IsAwaitingInput() bool {
	return c.State() == AwaitingInput
}

// take removes the next character. The caller holds mu.
func (c *Console) take() (int, bool) {
	if c.pending != noPending {
		ch := c.pending
		c.pending = noPending
		return ch, true
	}
	if len(c.queue) > 0 {
		ch := c.queue[0]
		c.queue = c.queue[1:]
		if c.echo {
			c.write([]byte{ch})
		}
		return int(ch), true
	}
	if c.closed {
		return EOF, true
	}
	return 0, false
}

// TryRead returns the next character without blocking. ok is false when
// no input is available yet.
func (c *Console) TryRead() (ch int, ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop {
		return 0, false, ErrStopped
	}
	ch, ok = c.take()
	return ch, ok, nil
}

// Read returns the next character, or EOF. With nothing queued it enters
// AwaitingInput and blocks until input arrives, the input is closed, a
// stop is requested or ctx is done.
func (c *Console) Read(ctx context.Context) (int, error) {
	for {
		c.mu.Lock()
		if c.stop {
			c.state = Ready
			c.mu.Unlock()
			return 0, ErrStopped
		}
		if ch, ok := c.take(); ok {
			c.state = Ready
			c.mu.Unlock()
			return ch, nil
		}
		c.state = AwaitingInput
		c.mu.Unlock()

		select {
		case <-c.notify:
		case <-ctx.Done():
			c.mu.Lock()
			c.state = Ready
			c.mu.Unlock()
			return 0, ctx.Err()
		}
	}
}

// Unget pushes ch back so that the next read returns it again. Only one
// character of lookahead is kept; EOF is never pushed back.
func (c *Console) Unget(ch int) error {
	if ch == EOF {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != noPending {
		return errors.New("console: only one character can be pushed back")
	}
	c.pending = ch
	return nil
}

// Write appends program output
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(p)
}

func (c *Console) write(p []byte) (int, error) {
	c.out.Write(p)
	if c.tee != nil {
		return c.tee.Write(p)
	}
	return len(p), nil
}

// CurrentOutputText returns everything written so far
func (c *Console) CurrentOutputText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}
