package server

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AnyUserName/photoframe/internal/render"
)

const requestIDHeader = "X-Request-Id"

// withRequestID tags every request with an id and a logger carrying it.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		lg := log.With().Str("req_id", id).Logger()
		next.ServeHTTP(w, r.WithContext(lg.WithContext(r.Context())))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		lvl := zerolog.DebugLevel
		if strings.HasPrefix(r.URL.Path, "/api/") {
			lvl = zerolog.InfoLevel
		}
		zerolog.Ctx(r.Context()).WithLevel(lvl).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("API request")
	})
}

// activityBody marks the network busy while a request body streams in.
type activityBody struct {
	io.ReadCloser
	q *render.Quiet
}

func (b *activityBody) Read(p []byte) (int, error) {
	b.q.Mark()
	return b.ReadCloser.Read(p)
}

// withActivity feeds request traffic into the quiet tracker so redraws wait
// for the network to settle.
func withActivity(q *render.Quiet, next http.Handler) http.Handler {
	if q == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q.Mark()
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = &activityBody{ReadCloser: r.Body, q: q}
		}
		next.ServeHTTP(w, r)
		q.Mark()
	})
}

func withCompression(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}
