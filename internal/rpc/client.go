package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/coder/websocket"

	"github.com/renato0307/kubecontexts/internal/channels"
)

// Client is a frontend connection to a Server.
type Client struct {
	conn     *websocket.Conn
	messages chan Message
	ctx      context.Context
	cancel   context.CancelFunc

	mu  sync.Mutex
	err error
}

// Dial connects to the server websocket at url, for example
// ws://127.0.0.1:7077/rpc.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", url, err)
	}
	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:     conn,
		messages: make(chan Message, sendBufferSize),
		ctx:      cctx,
		cancel:   cancel,
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.messages)
	for {
		typ, data, err := c.conn.Read(c.ctx)
		if err != nil {
			c.setErr(err)
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		select {
		case c.messages <- msg:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// Err returns why the message stream ended, if it did.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Messages delivers every payload received. It is closed when the
// connection ends.
func (c *Client) Messages() <-chan Message {
	return c.messages
}

// Subscribe asks for the payloads of channel.
func (c *Client) Subscribe(ctx context.Context, channel string) error {
	return c.send(ctx, Request{Type: TypeSubscribe, Channel: channel})
}

// Unsubscribe stops the payloads of channel.
func (c *Client) Unsubscribe(ctx context.Context, channel string) error {
	return c.send(ctx, Request{Type: TypeUnsubscribe, Channel: channel})
}

// EditContext asks for the context oldName to be replaced by edited.
func (c *Client) EditContext(ctx context.Context, oldName string, edited channels.Context) error {
	return c.send(ctx, Request{Type: TypeEditContext, OldName: oldName, Context: &edited})
}

func (c *Client) send(ctx context.Context, req Request) error {
	if c.ctx.Err() != nil {
		return ErrClosed
	}
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("error sending %s request: %w", req.Type, err)
	}
	return nil
}

// Close ends the connection.
func (c *Client) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.cancel()
	return err
}
