package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ClientState is the reconnecting client's lifecycle position. Transitions:
//
//	Idle -> Connecting
//	Connecting -> Open | Backoff | Failed
//	Open -> Backoff
//	Backoff -> Connecting
type ClientState int

const (
	StateIdle ClientState = iota
	StateConnecting
	StateOpen
	StateBackoff
	StateFailed
)

func (s ClientState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateBackoff:
		return "backoff"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type clientSocket interface {
	ReadMessage() (int, []byte, error)
	Close() error
}

type dialer interface {
	Dial(ctx context.Context, url string) (clientSocket, error)
}

type clock interface {
	After(d time.Duration) <-chan time.Time
}

type gorillaDialer struct{}

func (gorillaDialer) Dial(ctx context.Context, url string) (clientSocket, error) {
	sock, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	return sock, err
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Client maintains a stream connection to a relay, reconnecting with a
// linearly growing delay. A successful connection resets the failure count; a
// run of maxAttempts consecutive failures parks the client in Failed.
type Client struct {
	url         string
	baseDelay   time.Duration
	maxAttempts int

	dialer dialer
	clock  clock

	OnMessage func(data []byte)

	mu       sync.Mutex
	state    ClientState
	failures int
}

func NewClient(url string, baseDelay time.Duration, maxAttempts int) *Client {
	return &Client{
		url:         url,
		baseDelay:   baseDelay,
		maxAttempts: maxAttempts,
		dialer:      gorillaDialer{},
		clock:       realClock{},
		state:       StateIdle,
	}
}

func (c *Client) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failures reports the consecutive failure count behind the current backoff.
func (c *Client) Failures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures
}

func (c *Client) setState(s ClientState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run drives the connect/read/backoff loop until the context is cancelled or
// the attempt budget is exhausted.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			c.setState(StateIdle)
			return err
		}

		c.setState(StateConnecting)
		sock, err := c.dialer.Dial(ctx, c.url)
		if err == nil {
			c.mu.Lock()
			c.failures = 0
			c.state = StateOpen
			c.mu.Unlock()
			log.Info().Str("url", c.url).Msg("stream connected")

			err = c.readUntilClosed(ctx, sock)
			if ctx.Err() != nil {
				c.setState(StateIdle)
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("stream connection lost")
		}

		c.mu.Lock()
		c.failures++
		failures := c.failures
		c.mu.Unlock()

		if failures >= c.maxAttempts {
			c.setState(StateFailed)
			return fmt.Errorf("giving up after %d consecutive failures", failures)
		}

		c.setState(StateBackoff)
		delay := time.Duration(failures) * c.baseDelay
		log.Info().Int("failures", failures).Dur("delay", delay).Msg("stream reconnect scheduled")

		select {
		case <-ctx.Done():
			c.setState(StateIdle)
			return ctx.Err()
		case <-c.clock.After(delay):
		}
	}
}

func (c *Client) readUntilClosed(ctx context.Context, sock clientSocket) error {
	defer sock.Close()

	done := make(chan error, 1)
	go func() {
		for {
			_, data, err := sock.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			if c.OnMessage != nil {
				c.OnMessage(data)
			}
		}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
