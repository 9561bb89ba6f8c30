package sim

import (
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"

	perr "github.com/appengine-ltd/survivalist-processors/internal/platform/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Envelope is the body of every API response.
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Router exposes the world over HTTP:
//
//	GET  /status
//	GET  /events
//	GET  /processors
//	GET  /processors/{name}
//	POST /processors/{name}/tick?ticks=N
//	POST /temperature?celsius=T
//
// Routes that change state only accept exact processor names.
func (w *World) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/status", func(rw http.ResponseWriter, _ *http.Request) {
		respondOK(rw, w.Status())
	})
	r.Get("/events", func(rw http.ResponseWriter, _ *http.Request) {
		respondOK(rw, w.Events())
	})
	r.Post("/temperature", w.handleSetTemperature)
	r.Route("/processors", func(r chi.Router) {
		r.Get("/", func(rw http.ResponseWriter, _ *http.Request) {
			respondOK(rw, w.Views())
		})
		r.Get("/{name}", w.handleGetProcessor)
		r.Post("/{name}/tick", w.handleAdvanceProcessor)
	})
	return r
}

func nameParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

func (w *World) handleGetProcessor(rw http.ResponseWriter, r *http.Request) {
	v, err := w.View(nameParam(r))
	if err != nil {
		respondError(rw, err)
		return
	}
	respondOK(rw, v)
}

// handleAdvanceProcessor fast-forwards one processor, leaving the world clock
// and every other processor alone.
func (w *World) handleAdvanceProcessor(rw http.ResponseWriter, r *http.Request) {
	ticks := 1
	if raw := r.URL.Query().Get("ticks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(rw, perr.WithField(perr.InvalidArgf("ticks must be a positive integer, got %q", raw), "ticks"))
			return
		}
		ticks = n
	}

	w.mu.Lock()
	s, err := w.siteExact(nameParam(r))
	if err != nil {
		w.mu.Unlock()
		respondError(rw, err)
		return
	}
	s.Processor().Advance(ticks)
	v := s.view()
	w.mu.Unlock()

	respondOK(rw, v)
}

func (w *World) handleSetTemperature(rw http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("celsius")
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
		respondError(rw, perr.WithField(perr.InvalidArgf("celsius must be a number, got %q", raw), "celsius"))
		return
	}
	w.SetTemperature(t)
	respondOK(rw, w.Status())
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func respondOK(rw http.ResponseWriter, data any) {
	writeJSON(rw, http.StatusOK, Envelope{
		StatusCode: http.StatusOK,
		Status:     http.StatusText(http.StatusOK),
		Data:       data,
	})
}

func respondError(rw http.ResponseWriter, err error) {
	status := statusFor(perr.CodeOf(err))
	writeJSON(rw, status, Envelope{
		StatusCode: status,
		Status:     http.StatusText(status),
		Code:       perr.CodeOf(err),
		Error:      err.Error(),
	})
}

func statusFor(code perr.ErrorCode) int {
	switch code {
	case perr.ErrorCodeNotFound:
		return http.StatusNotFound
	case perr.ErrorCodeInvalidArgument, perr.ErrorCodeValidation:
		return http.StatusBadRequest
	case perr.ErrorCodeInvalidState, perr.ErrorCodeConsistency:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
