package ws

import (
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/time/rate"
)

// Client wraps a single websocket connection. Writes go through the
// buffered send channel; Enqueue never blocks the caller.
type Client struct {
	ws      *websocket.Conn
	send    chan []byte
	done    chan struct{}
	limiter *rate.Limiter
	closed  int32

	pingInterval  time.Duration
	writeDeadline time.Duration
}

func NewClient(conn *websocket.Conn, pingInterval, writeDeadline time.Duration, rps int) *Client {
	return &Client{
		ws:            conn,
		send:          make(chan []byte, 256),
		done:          make(chan struct{}),
		limiter:       rate.NewLimiter(rate.Limit(rps), rps),
		pingInterval:  pingInterval,
		writeDeadline: writeDeadline,
	}
}

// Enqueue implements presence.Conn. The send channel is never closed,
// so this cannot race with Close.
func (c *Client) Enqueue(payload []byte) bool {
	if atomic.LoadInt32(&c.closed) == 1 {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeDeadline))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeDeadline))
			if err := c.ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// Close is safe to call from any goroutine and any number of times.
func (c *Client) Close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		close(c.done)
		_ = c.ws.Close()
	}
}
