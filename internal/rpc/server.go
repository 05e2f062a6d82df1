package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/renato0307/kubecontexts/internal/logging"
	"github.com/renato0307/kubecontexts/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// ServerConfig configures a Server.
type ServerConfig struct {
	Address    string
	Connection ConnectionConfig
}

// Server accepts frontend connections and delivers channel payloads to
// them. It implements manager.Publisher.
type Server struct {
	config ServerConfig
	logger *logging.Logger

	onRequest    func(id string, req Request)
	onDisconnect func(id string)

	mu    sync.RWMutex
	conns map[string]*Connection
	wg    sync.WaitGroup
	ctx   context.Context
	stop  context.CancelFunc
}

// NewServer creates a server. Handlers must be set before it serves.
func NewServer(config ServerConfig, logger *logging.Logger) *Server {
	ctx, stop := context.WithCancel(context.Background())
	return &Server{
		config: config,
		logger: logger.Component("rpc"),
		conns:  make(map[string]*Connection),
		ctx:    ctx,
		stop:   stop,
	}
}

// OnRequest sets the handler for frontend requests. It runs on the
// connection's read goroutine.
func (s *Server) OnRequest(handler func(id string, req Request)) {
	s.onRequest = handler
}

// OnDisconnect sets the handler called once per closed connection.
func (s *Server) OnDisconnect(handler func(id string)) {
	s.onDisconnect = handler
}

// Handler returns the websocket endpoint, mounted at Path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.upgrade)
	mux.Handle(metrics.Path, metrics.Handler())
	return mux
}

func (s *Server) upgrade(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
	})
	if err != nil {
		s.logger.Warn("cannot accept websocket", "remote", r.RemoteAddr, "error", err)
		return
	}

	conn := newConnection(s.ctx, ws, s.config.Connection, s.logger)
	conn.onRequest = s.onRequest
	conn.onClose = func(id string, _ error) {
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
		metrics.Connections.Dec()
		if s.onDisconnect != nil {
			s.onDisconnect(id)
		}
	}

	s.mu.Lock()
	s.conns[conn.ID()] = conn
	s.mu.Unlock()
	metrics.Connections.Inc()
	s.wg.Add(1)
	defer s.wg.Done()

	s.logger.Info("frontend connected", "conn", conn.ID(), "remote", r.RemoteAddr)
	conn.run()
}

// Fire sends payload on channel to the given connections. Unknown or
// congested connections are reported in the returned error; the others
// still receive the payload.
func (s *Server) Fire(channel string, subscribers []string, payload any) error {
	message, err := encodeMessage(channel, payload)
	if err != nil {
		return err
	}

	var errs []error
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range subscribers {
		conn, ok := s.conns[id]
		if !ok {
			errs = append(errs, fmt.Errorf("subscriber %s: %w", id, ErrClosed))
			continue
		}
		if err := conn.Send(message); err != nil {
			errs = append(errs, fmt.Errorf("subscriber %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Connections returns the ids of open connections, sorted.
func (s *Server) Connections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.conns))
	for id := range s.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("rpc server listening", "address", l.Addr().String())
		errCh <- httpServer.Serve(l)
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("rpc server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down rpc server: %w", err)
	}
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", s.config.Address, err)
	}
	return s.Serve(ctx, l)
}

// Close closes every connection and waits for them to finish.
func (s *Server) Close() {
	s.stop()
	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.RUnlock()
	for _, c := range conns {
		c.Close(errors.New("server shutting down"))
	}
	s.wg.Wait()
}
