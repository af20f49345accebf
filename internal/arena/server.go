// Package arena hosts the realtime card duel service: connection onboarding,
// matchmaking, the session registry and the turn state machine.
package arena

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	authapp "github.com/louisbranch/skirmish.cards/internal/auth/app"
	"github.com/louisbranch/skirmish.cards/internal/auth/service"
	"github.com/louisbranch/skirmish.cards/internal/auth/storage/sqlite"
	"github.com/louisbranch/skirmish.cards/internal/auth/token"
	"github.com/louisbranch/skirmish.cards/internal/platform/timeouts"
)

// Config defines the inputs for the arena process.
type Config struct {
	HTTPAddr        string
	DatabasePath    string
	TokenSecret     string
	ShutdownTimeout time.Duration
}

// Server hosts the arena HTTP/WebSocket process and owns the engine
// lifecycle.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	store           *sqlite.Store
	engineStop      context.CancelFunc
	engineDone      chan struct{}
}

// NewServer wires storage, the identity service and the game engine into a
// single process.
func NewServer(config Config) (*Server, error) {
	store, err := sqlite.Open(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open identity store: %w", err)
	}

	issuer, err := token.NewIssuer(config.TokenSecret, nil)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("configure token issuer: %w", err)
	}

	svc := service.New(store)
	engine := NewEngine(svc)

	engineCtx, engineStop := context.WithCancel(context.Background())
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		engine.Run(engineCtx)
	}()

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = timeouts.Shutdown
	}

	httpServer := &http.Server{
		Addr:              config.HTTPAddr,
		Handler:           newHandler(engine, svc, authapp.NewHandler(svc, issuer)),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	return &Server{
		httpAddr:        config.HTTPAddr,
		shutdownTimeout: shutdownTimeout,
		httpServer:      httpServer,
		store:           store,
		engineStop:      engineStop,
		engineDone:      engineDone,
	}, nil
}

// Run creates and serves an arena server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServer(config)
	if err != nil {
		return fmt.Errorf("init arena server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve arena: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("arena server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("arena server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.engineStop != nil {
		s.engineStop()
	}
	if s.engineDone != nil {
		<-s.engineDone
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close identity store: %v", err)
		}
	}
}
