package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/kubecontexts/internal/channels"
	"github.com/renato0307/kubecontexts/internal/logging"
	"github.com/renato0307/kubecontexts/internal/metrics"
)

const waitTimeout = 5 * time.Second

type received struct {
	id  string
	req Request
}

func startServer(t *testing.T, config ConnectionConfig) (*Server, string, <-chan received, <-chan string) {
	t.Helper()
	srv := NewServer(ServerConfig{Connection: config}, logging.Discard())
	requests := make(chan received, 16)
	disconnects := make(chan string, 16)
	srv.OnRequest(func(id string, req Request) { requests <- received{id: id, req: req} })
	srv.OnDisconnect(func(id string) { disconnects <- id })

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + Path, requests, disconnects
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	c, err := Dial(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting")
		var zero T
		return zero
	}
}

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"subscribe", Request{Type: TypeSubscribe, Channel: "c"}, false},
		{"unsubscribe", Request{Type: TypeUnsubscribe, Channel: "c"}, false},
		{"unknown type", Request{Type: "publish", Channel: "c"}, true},
		{"missing channel", Request{Type: TypeSubscribe}, true},
		{"edit context", Request{Type: TypeEditContext, OldName: "a", Context: &channels.Context{Name: "b", Namespace: "ns"}}, false},
		{"edit without old name", Request{Type: TypeEditContext, Context: &channels.Context{Name: "b", Namespace: "ns"}}, true},
		{"edit without context", Request{Type: TypeEditContext, OldName: "a"}, true},
		{"edit with empty name", Request{Type: TypeEditContext, OldName: "a", Context: &channels.Context{Namespace: "ns"}}, true},
		{"edit with empty namespace", Request{Type: TypeEditContext, OldName: "a", Context: &channels.Context{Name: "b"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := decodeRequest([]byte(`{"type":"subscribe","channel":"context-healths"}`))
	require.NoError(t, err)
	assert.Equal(t, Request{Type: TypeSubscribe, Channel: "context-healths"}, req)

	_, err = decodeRequest([]byte(`not json`))
	assert.Error(t, err)

	req, err = decodeRequest([]byte(`{"type":"edit-context","oldName":"a","context":{"name":"b","cluster":"c1","user":"u1","namespace":"ns"}}`))
	require.NoError(t, err)
	assert.Equal(t, "a", req.OldName)
	assert.Equal(t, &channels.Context{Name: "b", Cluster: "c1", User: "u1", Namespace: "ns"}, req.Context)
}

func TestClient_EditContextReachesServer(t *testing.T) {
	_, url, requests, _ := startServer(t, ConnectionConfig{})
	c := dial(t, url)

	edited := channels.Context{Name: "renamed", Cluster: "cluster1", User: "user1", Namespace: "apps"}
	require.NoError(t, c.EditContext(context.Background(), "original", edited))

	got := next(t, requests).req
	assert.Equal(t, TypeEditContext, got.Type)
	assert.Equal(t, "original", got.OldName)
	assert.Equal(t, &edited, got.Context)
}

func TestEncodeMessage(t *testing.T) {
	data, err := encodeMessage("c", map[string][]int{"counts": {}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"channel":"c","payload":{"counts":[]}}`, string(data))

	_, err = encodeMessage("c", make(chan int))
	assert.Error(t, err)
}

func TestServer_RequestsCarryConnectionID(t *testing.T) {
	srv, url, requests, _ := startServer(t, ConnectionConfig{})
	c := dial(t, url)
	ctx := context.Background()

	require.NoError(t, c.Subscribe(ctx, "available-contexts"))
	got := next(t, requests)

	assert.Equal(t, Request{Type: TypeSubscribe, Channel: "available-contexts"}, got.req)
	assert.Equal(t, []string{got.id}, srv.Connections())

	require.NoError(t, c.Unsubscribe(ctx, "available-contexts"))
	got2 := next(t, requests)
	assert.Equal(t, TypeUnsubscribe, got2.req.Type)
	assert.Equal(t, got.id, got2.id)
}

func TestServer_BadRequestsAreIgnored(t *testing.T) {
	_, url, requests, _ := startServer(t, ConnectionConfig{})
	c := dial(t, url)
	ctx := context.Background()

	require.NoError(t, c.send(ctx, Request{Type: "bogus", Channel: "x"}))
	require.NoError(t, c.Subscribe(ctx, "x"))

	got := next(t, requests)
	assert.Equal(t, TypeSubscribe, got.req.Type, "the connection survives a bad request")
}

func TestServer_FireDeliversToSubscribers(t *testing.T) {
	srv, url, requests, _ := startServer(t, ConnectionConfig{})
	first := dial(t, url)
	second := dial(t, url)
	ctx := context.Background()

	require.NoError(t, first.Subscribe(ctx, "c"))
	firstID := next(t, requests).id
	require.NoError(t, second.Subscribe(ctx, "c"))
	next(t, requests)

	err := srv.Fire("c", []string{firstID}, map[string]string{"hello": "world"})
	require.NoError(t, err)

	msg := next(t, first.Messages())
	assert.Equal(t, "c", msg.Channel)
	assert.JSONEq(t, `{"hello":"world"}`, string(msg.Payload))

	select {
	case m := <-second.Messages():
		t.Fatalf("unexpected message for non-target: %+v", m)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestServer_FireToUnknownSubscriber(t *testing.T) {
	srv, _, _, _ := startServer(t, ConnectionConfig{})

	err := srv.Fire("c", []string{"gone"}, struct{}{})

	assert.True(t, errors.Is(err, ErrClosed))
}

func TestServer_DisconnectIsReported(t *testing.T) {
	srv, url, requests, disconnects := startServer(t, ConnectionConfig{})
	c := dial(t, url)
	require.NoError(t, c.Subscribe(context.Background(), "c"))
	id := next(t, requests).id

	_ = c.Close()

	assert.Equal(t, id, next(t, disconnects))
	assert.Eventually(t, func() bool { return len(srv.Connections()) == 0 }, waitTimeout, 10*time.Millisecond)
}

func TestServer_CloseEndsClients(t *testing.T) {
	srv, url, requests, disconnects := startServer(t, ConnectionConfig{})
	c := dial(t, url)
	require.NoError(t, c.Subscribe(context.Background(), "c"))
	next(t, requests)

	srv.Close()

	next(t, disconnects)
	for range c.Messages() {
	}
	assert.Error(t, c.Err())
}

func TestServer_ThrottledRequestsStillArrive(t *testing.T) {
	_, url, requests, _ := startServer(t, ConnectionConfig{MessagesPerSecond: 50})
	c := dial(t, url)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Subscribe(ctx, "c"))
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, "c", next(t, requests).req.Channel)
	}
}

func TestServer_KeepsSilentSubscriberWithReadTimeout(t *testing.T) {
	srv, url, requests, disconnects := startServer(t, ConnectionConfig{ReadTimeout: 200 * time.Millisecond})
	c := dial(t, url)
	require.NoError(t, c.Subscribe(context.Background(), "c"))
	id := next(t, requests).id

	select {
	case gone := <-disconnects:
		t.Fatalf("silent subscriber %s was dropped", gone)
	case <-time.After(700 * time.Millisecond):
	}

	require.NoError(t, srv.Fire("c", []string{id}, map[string]int{"n": 1}))
	msg := next(t, c.Messages())
	assert.JSONEq(t, `{"n":1}`, string(msg.Payload))
}

func TestServer_DropsPeerThatStopsAnsweringPings(t *testing.T) {
	_, url, _, disconnects := startServer(t, ConnectionConfig{ReadTimeout: 200 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	// A raw connection nobody reads from never answers pings.
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })

	next(t, disconnects)
}

func TestMessage_JSON(t *testing.T) {
	var msg Message
	require.NoError(t, json.Unmarshal([]byte(`{"channel":"c","payload":{"a":1}}`), &msg))
	assert.Equal(t, "c", msg.Channel)
	assert.JSONEq(t, `{"a":1}`, string(msg.Payload))
}

func TestServer_ServesMetrics(t *testing.T) {
	_, url, _, _ := startServer(t, ConnectionConfig{})
	dial(t, url)

	resp, err := http.Get("http" + strings.TrimPrefix(strings.TrimSuffix(url, Path), "ws") + metrics.Path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "kubecontexts_rpc_connections")
}
