package feedclient

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"trading-simulator/src/logger"
	"trading-simulator/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Connection States
// -----------------------------------------------------------------------------

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// -----------------------------------------------------------------------------
// Retry Policy
// -----------------------------------------------------------------------------

// RetryPolicy controls the reconnect behaviour. The default is an unbounded
// fixed-delay retry, matching an "always eventually available" feed.
type RetryPolicy struct {
	// Delay waited out before every reconnect attempt.
	Delay time.Duration

	// MaxAttempts caps consecutive failed reconnects; 0 means retry forever.
	MaxAttempts int
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delay: time.Second}
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Client maintains one logical feed subscription across transport drops.
// The latest tick overwrites the previous one; missed ticks are never
// retroactively delivered.
type Client struct {
	URL    string
	Policy RetryPolicy
	Logger *logger.Logger

	dialer *websocket.Dialer

	state atomic.Int32

	mu     sync.RWMutex
	conn   *websocket.Conn
	latest *models.MTick

	// OnTick, when set before Run, is invoked for every inbound tick.
	OnTick func(models.MTick)

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	running   atomic.Bool
	stopped   chan struct{}
}

// -----------------------------------------------------------------------------

func NewClient(url string, policy RetryPolicy, log *logger.Logger) *Client {
	if policy.Delay <= 0 {
		policy.Delay = DefaultRetryPolicy().Delay
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		URL:     url,
		Policy:  policy,
		Logger:  log,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

// Run drives the connection cycle until Close. It returns when the client is
// closed or the retry cap is exhausted. Only one attempt is ever in flight.
func (c *Client) Run() {
	c.running.Store(true)
	defer close(c.stopped)
	defer c.setState(StateDisconnected)

	failures := 0
	for {
		if c.ctx.Err() != nil {
			return
		}

		c.setState(StateConnecting)
		conn, resp, err := c.dialer.DialContext(c.ctx, c.URL, nil)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			c.setState(StateDisconnected)
			if c.ctx.Err() != nil {
				return
			}
			c.Logger.Info("Feed connect failed: %v", err)
			failures++
			if c.Policy.MaxAttempts > 0 && failures >= c.Policy.MaxAttempts {
				c.Logger.Warning("Feed retry cap reached (%d attempts)", failures)
				return
			}
			if !c.waitDelay() {
				return
			}
			continue
		}

		failures = 0
		c.setConn(conn)
		c.setState(StateConnected)
		c.Logger.Info("Feed connected to %s", c.URL)

		c.readLoop(conn)

		c.setConn(nil)
		c.setState(StateDisconnected)
		if c.ctx.Err() != nil {
			return
		}
		c.Logger.Info("Feed disconnected. Reconnecting...")
		if !c.waitDelay() {
			return
		}
	}
}

// -----------------------------------------------------------------------------

// readLoop consumes inbound ticks until the transport drops. Each tick
// overwrites the previous observable value.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			conn.Close()
			return
		}

		var tick models.MTick
		if err := json.Unmarshal(message, &tick); err != nil {
			c.Logger.Warning("Dropping malformed tick: %v", err)
			continue
		}

		c.mu.Lock()
		c.latest = &tick
		c.mu.Unlock()

		if c.OnTick != nil {
			c.OnTick(tick)
		}
	}
}

// -----------------------------------------------------------------------------

// waitDelay blocks for the retry delay; false means the client was closed
// and no further attempt may be issued.
func (c *Client) waitDelay() bool {
	timer := time.NewTimer(c.Policy.Delay)
	defer timer.Stop()

	select {
	case <-c.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// -----------------------------------------------------------------------------

// Send writes a JSON message to the feed. Outside the Connected state it is
// silently dropped; sending while disconnected is never an error.
func (c *Client) Send(message interface{}) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil || c.State() != StateConnected {
		return
	}

	if err := conn.WriteJSON(message); err != nil {
		c.Logger.Info("Feed send failed: %v", err)
	}
}

// -----------------------------------------------------------------------------

// Latest returns the most recent tick, if any has been received.
func (c *Client) Latest() (models.MTick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.latest == nil {
		return models.MTick{}, false
	}
	return *c.latest, true
}

// -----------------------------------------------------------------------------

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Close releases the transport and deterministically stops further reconnect
// attempts: the dial, the read loop and the delay timer all observe it.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.cancel()

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn != nil {
			conn.Close()
		}
	})
	if c.running.Load() {
		<-c.stopped
	}
}
