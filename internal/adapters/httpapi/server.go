// Package httpapi exposes the journal over REST. Handlers are thin callers of
// the application service; every calculation lives in the core packages.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tradejournal/internal/ports"
)

// Server wraps the chi router and HTTP server lifecycle.
type Server struct {
	addr    string
	logger  ports.Logger
	handler *Handler
}

// NewServer creates the HTTP surface for the journal service.
func NewServer(addr string, svc JournalAPI, logger ports.Logger) *Server {
	return &Server{
		addr:    addr,
		logger:  logger,
		handler: NewHandler(svc, logger),
	}
}

// Router assembles all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/instruments", s.handler.ListInstruments)

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", s.handler.CreateAccount)
		r.Get("/", s.handler.ListAccounts)
		r.Get("/{id}", s.handler.GetAccount)
		r.Get("/{id}/stats", s.handler.AccountStats)
		r.Get("/{id}/trades", s.handler.ListTrades)
	})

	r.Route("/trades", func(r chi.Router) {
		r.Post("/", s.handler.CreateTrade)
		r.Get("/{id}", s.handler.GetTrade)
		r.Put("/{id}", s.handler.UpdateTrade)
		r.Post("/{id}/status", s.handler.ChangeStatus)
		r.Delete("/{id}", s.handler.DeleteTrade)
	})

	return r
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": s.addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Shutting down HTTP server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error(ctx, err, "HTTP server shutdown error")
		return err
	}
	return nil
}
