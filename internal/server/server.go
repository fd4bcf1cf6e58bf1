// Package server exposes the capture session over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/server/api"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/store"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/pkg/log"
)

// Config holds the server configuration. Routes whose dependency is nil are
// not registered.
type Config struct {
	StaticDir  string
	CaptureDir string
	Store      *store.Store
	Frames     FrameSource
	Controller api.Controller
	Hub        *ReportHub

	// CaptureRate and CaptureBurst limit POST /api/session/capture.
	CaptureRate  float64
	CaptureBurst int
}

// Server is the HTTP front of the capture service.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Controller != nil {
		sessionHandler := api.NewSessionHandler(s.config.Controller, s.config.CaptureRate, s.config.CaptureBurst)
		s.mux.Handle("/api/session", sessionHandler)
		s.mux.Handle("/api/session/", sessionHandler)
	}

	if s.config.Store != nil {
		historyHandler := api.NewHistoryHandler(s.config.Store)
		s.mux.Handle("/api/sessions", historyHandler)
		s.mux.Handle("/api/sessions/", historyHandler)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/report", s.config.Hub)
	}

	if s.config.CaptureDir != "" {
		s.mux.Handle("/captures/", http.StripPrefix("/captures/", http.FileServer(http.Dir(s.config.CaptureDir))))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Hub != nil {
		response["listeners"] = s.config.Hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(log.Fields{"addr": addr}, "[server.Run] listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info(log.Fields{"addr": addr}, "[server.Run] stopped")
	return nil
}
