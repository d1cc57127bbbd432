package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"receipt-resender/internal/entities"
	"sync"
	"time"
)

const (
	decisionPending  = "pending"
	decisionConfirm  = "confirmed"
	decisionDeclined = "declined"
)

// HttpServer is an approval channel: it publishes the plan and waits for an
// operator to confirm or decline it over HTTP. The first decision wins.
type HttpServer struct {
	addr   string
	token  string
	logger *slog.Logger

	ln net.Listener

	mu       sync.Mutex
	plan     []*entities.ResubmissionPayload
	decision string
	decided  chan struct{}
}

func NewServer(addr, token string, logger *slog.Logger) *HttpServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &HttpServer{
		addr:   addr,
		token:  token,
		logger: logger,
	}
}

// Listen binds the approval address ahead of Confirm so the actual address
// is known early (useful with port 0).
func (s *HttpServer) Listen() (net.Addr, error) {
	if s.ln == nil {
		ln, err := net.Listen("tcp", s.addr)
		if err != nil {
			return nil, fmt.Errorf("listening on %s: %w", s.addr, err)
		}
		s.ln = ln
	}
	return s.ln.Addr(), nil
}

func (s *HttpServer) Confirm(ctx context.Context, plan []*entities.ResubmissionPayload) (bool, error) {
	s.mu.Lock()
	s.plan = plan
	s.decision = decisionPending
	s.decided = make(chan struct{})
	decided := s.decided
	s.mu.Unlock()

	if _, err := s.Listen(); err != nil {
		return false, err
	}
	ln := s.ln
	s.ln = nil
	return s.serve(ctx, ln, decided, len(plan))
}

func (s *HttpServer) serve(ctx context.Context, ln net.Listener, decided <-chan struct{}, planned int) (bool, error) {
	srv := s.createHTTPServer()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	s.logger.Info("waiting for approval", "addr", ln.Addr().String(), "planned", planned)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to shut down approval server", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err, ok := <-serveErr:
		if ok && err != nil {
			return false, fmt.Errorf("approval server: %w", err)
		}
		return false, errors.New("approval server stopped without a decision")
	case <-decided:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.decision == decisionConfirm, nil
	}
}

// decide records the first decision and reports the one in effect.
func (s *HttpServer) decide(decision string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.decision == decisionPending {
		s.decision = decision
		close(s.decided)
	}
	return s.decision
}

func (s *HttpServer) createHTTPServer() *http.Server {
	router := s.loadRoutes(http.NewServeMux())
	middlewareChain := NewChain(
		s.recoverPanic,
		s.noCache,
		s.requireToken,
	)

	return &http.Server{
		Handler:      middlewareChain(router),
		IdleTimeout:  10 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}
