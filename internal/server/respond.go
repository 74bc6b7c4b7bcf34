package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/AnyUserName/photoframe/internal/frame"
)

// Body limits of the small endpoints.
const (
	maxIDBody        = 64
	maxRotationBody  = 31
	maxSlideshowBody = 255
	maxReorderBody   = 32 << 10
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// writeError maps a controller error to its status code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *frame.ValidationError
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, frame.ErrNotFound), errors.Is(err, frame.ErrNoPhotos):
		status = http.StatusNotFound
	case errors.Is(err, frame.ErrBusy):
		status = http.StatusServiceUnavailable
		w.Header().Set("Retry-After", "1")
	}

	lg := zerolog.Ctx(r.Context())
	if status >= 500 {
		lg.Warn().Err(err).Int("status", status).Msg("request failed")
	} else {
		lg.Debug().Err(err).Int("status", status).Msg("request rejected")
	}
	httpError(w, status, err.Error())
}

// readSmallBody reads at most max bytes of the request body.
func readSmallBody(r *http.Request, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, max+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > max {
		return nil, &frame.ValidationError{Field: "body", Reason: fmt.Sprintf("payload larger than %d bytes", max)}
	}
	return data, nil
}
