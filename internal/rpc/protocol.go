// Package rpc carries channel payloads between the extension and its
// frontends over websocket.
//
// A frontend sends Requests to subscribe to or unsubscribe from channels and
// receives a Message for every payload dispatched to a channel it listens
// to. It may also ask for a kubeconfig context to be edited; the result
// shows up on the available contexts channel. Each connection is one subscriber, identified by a random UUID.
package rpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/renato0307/kubecontexts/internal/channels"
)

// Request types
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeEditContext = "edit-context"
)

// Path is where the server accepts websocket connections.
const Path = "/rpc"

var (
	// ErrClosed is returned when using a closed connection or client.
	ErrClosed = errors.New("rpc connection closed")
	// ErrBufferFull is returned when a connection cannot keep up with
	// outbound messages.
	ErrBufferFull = errors.New("rpc send buffer full")
)

// Request is sent by a frontend. Channel is set for subscriptions, OldName
// and Context for context edits.
type Request struct {
	Type    string            `json:"type"`
	Channel string            `json:"channel,omitempty"`
	OldName string            `json:"oldName,omitempty"`
	Context *channels.Context `json:"context,omitempty"`
}

// Validate checks the request type and the fields it needs.
func (r Request) Validate() error {
	switch r.Type {
	case TypeSubscribe, TypeUnsubscribe:
		if r.Channel == "" {
			return errors.New("request has no channel")
		}
	case TypeEditContext:
		if r.OldName == "" {
			return errors.New("edit has no context to edit")
		}
		if r.Context == nil {
			return errors.New("edit has no context")
		}
		if r.Context.Name == "" {
			return errors.New("edited context has no name")
		}
		if r.Context.Namespace == "" {
			return errors.New("edited context has no namespace")
		}
	default:
		return fmt.Errorf("unknown request type %q", r.Type)
	}
	return nil
}

// Message is a channel payload sent to a frontend.
type Message struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

func encodeMessage(channel string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding payload of %s: %w", channel, err)
	}
	return json.Marshal(Message{Channel: channel, Payload: raw})
}

func decodeRequest(data []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, fmt.Errorf("error decoding request: %w", err)
	}
	return req, req.Validate()
}
