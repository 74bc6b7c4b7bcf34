package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AnyUserName/photoframe/internal/frame"
	"github.com/AnyUserName/photoframe/internal/hasher"
	"github.com/AnyUserName/photoframe/internal/library"
)

type okResponse struct {
	OK bool `json:"ok"`
}

type currentResponse struct {
	OK      bool   `json:"ok"`
	Current string `json:"current"`
}

type uploadResponse struct {
	OK       bool   `json:"ok"`
	ID       string `json:"id"`
	Variant  string `json:"variant"`
	Filename string `json:"filename"`
}

type listResponse struct {
	Rotation   int              `json:"rotation"`
	Current    string           `json:"current"`
	Displaying string           `json:"displaying"`
	Photos     []library.Record `json:"photos"`
	Count      int              `json:"count"`
}

type rotationResponse struct {
	Rotation int `json:"rotation"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.ctl.Upload(frame.UploadRequest{
		Variant:     q.Get("variant"),
		Orientation: q.Get("orientation"),
		ID:          q.Get("id"),
	}, r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, uploadResponse{
		OK:       true,
		ID:       res.ID,
		Variant:  res.Kind.String(),
		Filename: res.Filename,
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	l, err := s.ctl.List()
	if err != nil {
		writeError(w, r, err)
		return
	}
	photos := l.Photos
	if photos == nil {
		photos = []library.Record{}
	}
	respondJSON(w, http.StatusOK, listResponse{
		Rotation:   l.Rotation,
		Current:    l.Current,
		Displaying: l.Displaying,
		Photos:     photos,
		Count:      len(photos),
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.ctl.FilePath(r.PathValue("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		writeError(w, r, fmt.Errorf("open %s: %w", filepath.Base(path), frame.ErrNotFound))
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		writeError(w, r, err)
		return
	}

	sum, err := hasher.Reader(f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "image/bmp")
	h.Set("Cache-Control", "public, max-age=3600")
	h.Set("ETag", `"`+sum.Hex(16)+`"`)
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	body, err := readSmallBody(r, maxIDBody)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.ctl.Select(string(body))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, currentResponse{OK: true, Current: id})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	id, err := s.ctl.Next()
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, currentResponse{OK: true, Current: id})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	body, err := readSmallBody(r, maxIDBody)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.ctl.Delete(string(body)); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	body, err := readSmallBody(r, maxReorderBody)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Order []json.RawMessage `json:"order"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, &frame.ValidationError{Field: "body", Reason: "invalid JSON"})
		return
	}
	if req.Order == nil {
		writeError(w, r, &frame.ValidationError{Field: "order", Reason: "missing order array"})
		return
	}

	ids := make([]string, 0, len(req.Order))
	for _, raw := range req.Order {
		var id string
		if json.Unmarshal(raw, &id) == nil {
			ids = append(ids, id)
		}
	}
	if err := s.ctl.Reorder(ids); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, okResponse{OK: true})
}

func (s *Server) handleGetRotation(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, rotationResponse{Rotation: s.ctl.Rotation()})
}

func (s *Server) handleSetRotation(w http.ResponseWriter, r *http.Request) {
	body, err := readSmallBody(r, maxRotationBody)
	if err != nil {
		writeError(w, r, err)
		return
	}
	deg, err := strconv.Atoi(strings.TrimSpace(string(body)))
	if err != nil {
		writeError(w, r, &frame.ValidationError{Field: "rotation", Reason: fmt.Sprintf("not a number: %q", body)})
		return
	}
	if err := s.ctl.SetRotation(deg); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rotationResponse{Rotation: s.ctl.Rotation()})
}

func (s *Server) handleGetSlideshow(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.ctl.Slideshow())
}

func (s *Server) handleSetSlideshow(w http.ResponseWriter, r *http.Request) {
	body, err := readSmallBody(r, maxSlideshowBody)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := parseSlideshowPatch(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	st, err := s.ctl.UpdateSlideshow(patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

// parseSlideshowPatch accepts enabled as a boolean or a number and
// interval_s as a number or a decimal string.
func parseSlideshowPatch(body []byte) (frame.SlideshowPatch, error) {
	var p frame.SlideshowPatch
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return p, &frame.ValidationError{Field: "body", Reason: "invalid JSON"}
	}

	if v, ok := raw["enabled"]; ok {
		var b bool
		var n float64
		switch {
		case json.Unmarshal(v, &b) == nil:
		case json.Unmarshal(v, &n) == nil:
			b = n != 0
		default:
			return p, &frame.ValidationError{Field: "enabled", Reason: "want a boolean"}
		}
		p.Enabled = &b
	}

	if v, ok := raw["interval_s"]; ok {
		var n uint32
		var str string
		switch {
		case json.Unmarshal(v, &n) == nil:
		case json.Unmarshal(v, &str) == nil:
			parsed, err := strconv.ParseUint(str, 10, 32)
			if err != nil {
				return p, &frame.ValidationError{Field: "interval_s", Reason: fmt.Sprintf("not a number: %q", str)}
			}
			n = uint32(parsed)
		default:
			return p, &frame.ValidationError{Field: "interval_s", Reason: "want a number of seconds"}
		}
		p.IntervalS = &n
	}
	return p, nil
}

type statusResponse struct {
	Rotation      int             `json:"rotation"`
	Current       string          `json:"current"`
	Pending       string          `json:"pending"`
	Displaying    string          `json:"displaying"`
	ImageRotation int             `json:"image_rotation"`
	Failed        string          `json:"failed,omitempty"`
	Photos        int             `json:"photos"`
	Slideshow     frame.Slideshow `json:"slideshow"`
	Panel         panelStatus     `json:"panel"`
	Render        *renderStatus   `json:"render,omitempty"`
	UptimeS       int64           `json:"uptime_s"`
}

type panelStatus struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type renderStatus struct {
	Redraws   int        `json:"redraws"`
	Flushes   int        `json:"flushes"`
	Unchanged int        `json:"unchanged"`
	Failures  int        `json:"failures"`
	LastPath  string     `json:"last_path,omitempty"`
	LastHash  string     `json:"last_hash,omitempty"`
	LastFlush *time.Time `json:"last_flush,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.ctl.Status()
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := statusResponse{
		Rotation:      st.Rotation,
		Current:       st.Current,
		Pending:       st.Pending,
		Displaying:    filepath.Base(st.Display.Path),
		ImageRotation: st.Display.ImageRotation,
		Failed:        st.Failed,
		Photos:        st.Photos,
		Slideshow:     st.Slideshow,
		Panel: panelStatus{
			Name:   s.opts.Profile.Name,
			Width:  s.opts.Profile.Width,
			Height: s.opts.Profile.Height,
		},
		UptimeS: int64(time.Since(s.started) / time.Second),
	}
	if st.Display.Path == "" {
		resp.Displaying = ""
	}
	if s.opts.Render != nil {
		rs := s.opts.Render.Stats()
		resp.Render = &renderStatus{
			Redraws:   rs.Redraws,
			Flushes:   rs.Flushes,
			Unchanged: rs.Unchanged,
			Failures:  rs.Failures,
			LastPath:  rs.LastPath,
			LastHash:  rs.LastHash,
		}
		if !rs.LastFlush.IsZero() {
			resp.Render.LastFlush = &rs.LastFlush
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
