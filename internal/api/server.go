// Package api exposes a Database as a small HTTP/JSON service: the
// boundary a SQL tokenizer and parser would otherwise sit behind.
// Request bodies, query results, and error bodies are JSON that maps
// directly onto the structured requests the engine package already
// understands; GET /health answers in plain text, and successful
// create, drop, insert, and delete requests reply with a status code
// and no body.
//
// EDUCATIONAL NOTES:
// ------------------
// The router and middleware stack (request ID, real IP, logging,
// panic recovery, timeout) and the graceful-shutdown Run loop are all
// built the same way as every other chi-based service in this
// codebase's lineage. The one addition a single-process storage
// engine needs that a typical handler-per-resource service does not:
// a mutex around the shared *engine.Database, since net/http serves
// requests concurrently but the storage core beneath Database has no
// locking of its own.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cabewaldrop/microdb/internal/engine"
)

// Server is the HTTP surface for one *engine.Database.
type Server struct {
	router *chi.Mux
	addr   string

	mu sync.Mutex
	db *engine.Database
}

// NewServer builds a Server listening on addr and operating on db.
func NewServer(addr string, db *engine.Database) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	s := &Server{router: r, addr: addr, db: db}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Post("/tables", s.handleCreateTable)
	s.router.Delete("/tables/{name}", s.handleDropTable)
	s.router.Post("/tables/{name}/rows", s.handleInsert)
	s.router.Post("/tables/{name}/query", s.handleSelect)
	s.router.Post("/tables/{name}/delete", s.handleDelete)
}

// Router returns the underlying handler for testing.
func (s *Server) Router() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until it receives SIGINT or
// SIGTERM, then drains in-flight requests and shuts down.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		fmt.Printf("microdb listening on %s\n", s.addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-done:
		fmt.Println("shutdown signal received, draining in-flight requests...")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	fmt.Println("server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}
