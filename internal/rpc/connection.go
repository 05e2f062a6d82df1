package rpc

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/renato0307/kubecontexts/internal/logging"
)

const sendBufferSize = 256

// ConnectionConfig tunes a single connection.
type ConnectionConfig struct {
	// ReadTimeout bounds how long a peer may stay unresponsive. The server
	// pings every half of it and drops peers whose pong does not arrive in
	// time. Silent peers that answer pings are kept. Zero disables pings.
	ReadTimeout time.Duration
	// MessagesPerSecond throttles inbound requests. Zero means unlimited.
	MessagesPerSecond float64
}

// Connection is one websocket peer. Send is safe for concurrent use.
type Connection struct {
	id      string
	conn    *websocket.Conn
	config  ConnectionConfig
	limiter *rate.Limiter
	send    chan []byte
	logger  *logging.Logger

	onRequest func(id string, req Request)
	onClose   func(id string, err error)

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(parent context.Context, conn *websocket.Conn, config ConnectionConfig, logger *logging.Logger) *Connection {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(parent)
	limit := rate.Inf
	if config.MessagesPerSecond > 0 {
		limit = rate.Limit(config.MessagesPerSecond)
	}
	return &Connection{
		id:      id,
		conn:    conn,
		config:  config,
		limiter: rate.NewLimiter(limit, 1+int(config.MessagesPerSecond)),
		send:    make(chan []byte, sendBufferSize),
		logger:  logger.With("conn", id),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// ID is the subscriber identity of the connection.
func (c *Connection) ID() string {
	return c.id
}

// run pumps both directions until the connection closes.
func (c *Connection) run() {
	go c.writePump()
	c.readPump()
	<-c.done
}

func (c *Connection) readPump() {
	var readErr error
	defer func() { c.Close(readErr) }()

	for {
		if err := c.limiter.Wait(c.ctx); err != nil {
			readErr = err
			return
		}
		data, err := c.read()
		if err != nil {
			readErr = err
			return
		}
		if data == nil {
			continue
		}
		req, err := decodeRequest(data)
		if err != nil {
			c.logger.Warn("ignoring bad request", "error", err)
			continue
		}
		if c.onRequest != nil {
			c.onRequest(c.id, req)
		}
	}
}

func (c *Connection) read() ([]byte, error) {
	typ, r, err := c.conn.Reader(c.ctx)
	if err != nil {
		return nil, err
	}
	if typ != websocket.MessageText {
		return nil, nil
	}
	return io.ReadAll(r)
}

func (c *Connection) writePump() {
	var writeErr error
	defer func() { c.Close(writeErr) }()

	// A nil channel never fires, so no pings without a timeout.
	var pings <-chan time.Time
	if c.config.ReadTimeout > 0 {
		ticker := time.NewTicker(c.config.ReadTimeout / 2)
		defer ticker.Stop()
		pings = ticker.C
	}

	for {
		select {
		case message := <-c.send:
			if err := c.conn.Write(c.ctx, websocket.MessageText, message); err != nil {
				writeErr = err
				return
			}
		case <-pings:
			if err := c.ping(); err != nil {
				writeErr = err
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// ping waits for the pong of the peer for at most ReadTimeout. A peer that
// misses it is dropped without a close handshake.
func (c *Connection) ping() error {
	ctx, cancel := context.WithTimeout(c.ctx, c.config.ReadTimeout)
	defer cancel()
	if err := c.conn.Ping(ctx); err != nil {
		c.logger.Debug("peer did not answer ping", "error", err)
		_ = c.conn.CloseNow()
		return err
	}
	return nil
}

// Send queues message without blocking.
func (c *Connection) Send(message []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrClosed
	default:
	}
	select {
	case c.send <- message:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close shuts the connection down once and reports it to the close handler.
func (c *Connection) Close(err error) {
	c.closeOnce.Do(func() {
		c.cancel()
		status := websocket.CloseStatus(err)
		if err == nil || errors.Is(err, context.Canceled) || status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			c.logger.Debug("connection closed", "status", status.String())
		} else {
			c.logger.Info("connection closed", "status", status.String(), "error", err)
		}
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
		if c.onClose != nil {
			c.onClose(c.id, err)
		}
		close(c.done)
	})
}

// Done is closed once the connection is fully shut down.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}
