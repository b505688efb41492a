package signaling

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/peermesh/peersignal/internal/metrics"
	"github.com/peermesh/peersignal/internal/ratelimit"
)

// wsConn adapts one gorilla WebSocket connection to the relay's Conn
// contract: a read loop feeding the router in arrival order, and a writer
// goroutine draining a bounded outbound queue.
type wsConn struct {
	srv     *Server
	ws      *websocket.Conn
	log     *slog.Logger
	limiter *ratelimit.TokenBucket

	out  chan []byte
	done chan struct{}

	closeOnce sync.Once
}

// Send enqueues msg for delivery, reporting false once the connection is
// closing or the outbound queue is full. It never blocks: the relay's
// broadcast fan-out runs under its lock and must not wait on any socket.
func (c *wsConn) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- msg:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

// run services the connection until the transport fails, the peer
// disconnects, or the server shuts down. It blocks in the read loop;
// writing happens on a separate goroutine.
//
// Messages are handed to the relay inline, one at a time, which is what
// gives each connection its in-order, no-concurrent-handlers guarantee.
func (c *wsConn) run() {
	defer c.close()

	go c.writeLoop()

	if c.srv.maxMessageBytes > 0 {
		c.ws.SetReadLimit(c.srv.maxMessageBytes)
	}
	c.resetReadDeadline()
	c.ws.SetPongHandler(func(string) error {
		c.resetReadDeadline()
		return nil
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.resetReadDeadline()

		// Apply the rate limit after reading so the bytes already buffered by
		// the OS are consumed before a potential close.
		if c.limiter != nil && !c.limiter.Allow(1) {
			c.srv.incMetric(metrics.RateLimited)
			c.closeWith(websocket.ClosePolicyViolation, "rate limit exceeded")
			return
		}

		if msgType != websocket.TextMessage {
			// The protocol is JSON text; anything else is discarded like any
			// other malformed payload, without dropping the connection.
			c.srv.incMetric(metrics.BadMessage)
			c.log.Debug("discarding non-text frame", "ws_message_type", msgType)
			continue
		}

		c.srv.relay.HandleMessage(c, data)
	}
}

func (c *wsConn) writeLoop() {
	var ticker *time.Ticker
	var ping <-chan time.Time
	if c.srv.pingInterval > 0 {
		ticker = time.NewTicker(c.srv.pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case msg := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.close()
				return
			}
		case <-ping:
			_ = c.ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) resetReadDeadline() {
	if c.srv.idleTimeout > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.srv.idleTimeout))
	}
}

func (c *wsConn) closeWith(code int, reason string) {
	deadline := time.Now().Add(wsWriteWait)
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
}

// close runs the connection's cleanup exactly once, regardless of whether
// the trigger was a read error, a write error, an explicit server shutdown,
// or several of those at once.
func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.srv.relay.Disconnect(c)
		c.srv.untrack(c)
		_ = c.ws.Close()
	})
}
