// SPDX-License-Identifier: MPL-2.0

package resolveserver

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/refbridge/refbridge/pkg/resolution"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAddr listens on a random localhost port.
const DefaultAddr = "127.0.0.1:0"

// maxRequestBody bounds the size of a resolve request.
const maxRequestBody = 64 << 10

type (
	// Server serves a resolver over HTTP. A server is single-use: once
	// stopped, create a new one.
	Server struct {
		resolver *resolution.Resolver
		logger   *log.Logger
		addr     string
		token    AuthToken
		metrics  *metrics

		state      atomic.Int32
		mu         sync.Mutex
		listener   net.Listener
		httpServer *http.Server
		errCh      chan error
		done       chan struct{}
	}

	// Option configures a Server.
	Option func(*Server)
)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithToken sets the bearer token instead of a random one.
func WithToken(token AuthToken) Option {
	return func(s *Server) { s.token = token }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates a server for resolver. It does not listen until Start.
func New(resolver *resolution.Resolver, opts ...Option) (*Server, error) {
	s := &Server{
		resolver: resolver,
		addr:     DefaultAddr,
		errCh:    make(chan error, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.token == "" {
		token, err := generateToken(32)
		if err != nil {
			return nil, err
		}
		s.token = AuthToken(token)
	}
	if err := s.token.Validate(); err != nil {
		return nil, err
	}
	s.metrics = newMetrics(resolver.Table().Len)
	return s, nil
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(PathHealth, s.handleHealth)
	mux.Handle(PathMetrics, promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc(PathResolve, s.authenticated(s.handleResolve))
	mux.HandleFunc(PathEntries, s.authenticated(s.handleEntries))
	return mux
}

// Start listens and serves in the background. A cancelled ctx fails the
// start.
func (s *Server) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before start: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st := s.State(); st != StateCreated {
		return fmt.Errorf("cannot start server in state %s", st)
	}
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		s.state.Store(int32(StateFailed))
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	s.state.Store(int32(StateRunning))

	go func() {
		defer close(s.done)
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.state.Store(int32(StateFailed))
			s.errCh <- err
		}
	}()
	s.logger.Info("resolution server listening", "url", "http://"+listener.Addr().String())
	return nil
}

// Stop shuts the server down gracefully. Stopping a server that never
// started or has already stopped is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateCreated:
		s.state.Store(int32(StateStopped))
		return nil
	case StateStopped:
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	<-s.done
	if s.State() != StateFailed {
		s.state.Store(int32(StateStopped))
	}
	return err
}

// State returns the lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// IsRunning reports whether the server accepts requests.
func (s *Server) IsRunning() bool {
	return s.State() == StateRunning
}

// Err receives the error that stopped serving, if any.
func (s *Server) Err() <-chan error {
	return s.errCh
}

// Address returns the listen address, resolved once started.
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// URL returns the base URL of the server.
func (s *Server) URL() string {
	return "http://" + s.Address()
}

// Token returns the bearer token.
func (s *Server) Token() AuthToken {
	return s.token
}

// Env returns the environment entries that point a host at the server.
func (s *Server) Env() []string {
	return []string{EnvAddr + "=" + s.URL(), EnvToken + "=" + s.token.String()}
}

func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get("Authorization"))
		want := []byte("Bearer " + s.token.String())
		if subtle.ConstantTimeCompare(got, want) != 1 {
			s.sendError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		s.sendError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		s.sendError(w, "name is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	resp, status := s.resolve(req)
	s.metrics.duration.Observe(time.Since(start).Seconds())
	s.logger.Debug("resolve", "name", req.Name, "load", req.Load, "status", status, "path", resp.Path)

	s.sendJSON(w, status, resp)
}

func (s *Server) resolve(req ResolveRequest) (ResolveResponse, int) {
	res, ok := s.resolver.Resolve(req.Name)
	if !ok {
		s.metrics.requests.WithLabelValues(resultMiss).Inc()
		return ResolveResponse{Name: resolution.SimpleName(req.Name), Error: resolution.ErrResolutionMiss.Error()}, http.StatusNotFound
	}
	resp := ResolveResponse{Name: res.Name, Path: res.Path, ProjectOutput: res.ProjectOutput}
	if !req.Load {
		s.metrics.requests.WithLabelValues(resultHit).Inc()
		return resp, http.StatusOK
	}

	m, err := s.resolver.Load(req.Name)
	if err != nil {
		if errors.Is(err, resolution.ErrResolutionMiss) {
			s.metrics.requests.WithLabelValues(resultMiss).Inc()
			resp.Error = err.Error()
			return resp, http.StatusNotFound
		}
		s.metrics.requests.WithLabelValues(resultLoadError).Inc()
		resp.Error = err.Error()
		return resp, http.StatusUnprocessableEntity
	}
	s.metrics.requests.WithLabelValues(resultHit).Inc()
	resp.Module = m.Name()
	resp.Types = m.Types()
	return resp, http.StatusOK
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	t := s.resolver.Table()
	s.sendJSON(w, http.StatusOK, EntriesResponse{Entries: t.Entries(), Frozen: t.Frozen()})
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, msg string, status int) {
	s.sendJSON(w, status, ErrorResponse{Error: msg})
}

// generateToken generates a random hex-encoded token of the specified byte length.
func generateToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
