// Package server exposes the frame over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AnyUserName/photoframe/internal/frame"
	"github.com/AnyUserName/photoframe/internal/profile"
	"github.com/AnyUserName/photoframe/internal/render"
)

// StatsSource reports redraw counters.
type StatsSource interface {
	Stats() render.Stats
}

// Options configures a Server.
type Options struct {
	// WebDir is served at / when set.
	WebDir  string
	Quiet   *render.Quiet
	Render  StatsSource
	Profile profile.Profile
}

// Server routes the HTTP API onto a frame controller.
type Server struct {
	ctl     *frame.Controller
	opts    Options
	started time.Time
}

// New returns a server for ctl.
func New(ctl *frame.Controller, opts Options) *Server {
	return &Server{ctl: ctl, opts: opts, started: time.Now()}
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/photos/upload", s.handleUpload)
	mux.HandleFunc("GET /api/photos", s.handleList)
	mux.HandleFunc("GET /api/photos/file/{name}", s.handleFile)
	mux.HandleFunc("POST /api/photos/select", s.handleSelect)
	mux.HandleFunc("POST /api/photos/next", s.handleNext)
	mux.HandleFunc("POST /api/photos/delete", s.handleDelete)
	mux.HandleFunc("POST /api/photos/reorder", s.handleReorder)
	mux.HandleFunc("GET /api/rotation", s.handleGetRotation)
	mux.HandleFunc("POST /api/rotation", s.handleSetRotation)
	mux.HandleFunc("GET /api/slideshow", s.handleGetSlideshow)
	mux.HandleFunc("POST /api/slideshow", s.handleSetSlideshow)
	mux.HandleFunc("GET /api/status", s.handleStatus)

	if s.opts.WebDir != "" {
		files := http.FileServer(http.Dir(s.opts.WebDir))
		mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			files.ServeHTTP(w, r)
		})
	}

	return withRequestID(withLogging(withActivity(s.opts.Quiet, withCompression(mux))))
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info().Msg("shutting down http server")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}()

	log.Info().Str("addr", addr).Msg("starting http server")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}
