package engagement

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cleanbid/backend/internal/domain"
	"github.com/cleanbid/backend/internal/pkg/httputil"
)

// Recorder is the beacon sink behind the /track endpoints. The Service
// applies events directly; the Publisher forwards them over SQS.
type Recorder interface {
	RecordOpen(ctx context.Context, token string, c domain.Caller) error
	RecordView(ctx context.Context, token string, c domain.Caller) error
	RecordDownload(ctx context.Context, token string, c domain.Caller) error
	RecordScrollDepth(ctx context.Context, token string, percent int, c domain.Caller) error
	RecordTimeSpent(ctx context.Context, token string, milliseconds int64, c domain.Caller) error
	RecordClick(ctx context.Context, token, elementID, elementText string, c domain.Caller) error
}

// 1x1 transparent PNG
var pixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// Handler serves the public /track beacon endpoints. Responses never
// distinguish limiter drops or partial write failures; only the view,
// scroll, and time beacons report bad input back to the page script.
type Handler struct {
	rec     Recorder
	limiter *RateLimiter
}

// NewHandler creates the beacon handler. limiter may be nil.
func NewHandler(rec Recorder, limiter *RateLimiter) *Handler {
	return &Handler{rec: rec, limiter: limiter}
}

// Routes returns the public beacon routes, rooted at /track.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/track/open/{token}", h.HandleOpen)
	r.Post("/track/view/{token}", h.HandleView)
	r.Post("/track/scroll/{token}", h.HandleScroll)
	r.Post("/track/time/{token}", h.HandleTime)
	r.Post("/track/click/{token}", h.HandleClick)
	return r
}

// HandleOpen serves the open pixel. It responds 200 with the PNG no matter
// what happened behind it.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if h.allow(r, token, "open") {
		h.rec.RecordOpen(r.Context(), token, CallerFrom(r))
	}
	servePixel(w)
}

// HandleView records a page view. Unknown tokens get a 404.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if !h.allow(r, token, "view") {
		beaconOK(w)
		return
	}

	err := h.rec.RecordView(r.Context(), token, CallerFrom(r))
	if errors.Is(err, ErrNotFound) {
		httputil.NotFound(w, "unknown tracking token")
		return
	}
	beaconOK(w)
}

// HandleScroll records a scroll-depth beacon from a JSON body of the form
// {"percent": 80}.
func (h *Handler) HandleScroll(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var body struct {
		Percent int `json:"percent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.BadRequest(w, "invalid beacon body")
		return
	}

	if !h.allow(r, token, "scroll") {
		beaconOK(w)
		return
	}

	err := h.rec.RecordScrollDepth(r.Context(), token, body.Percent, CallerFrom(r))
	switch {
	case errors.Is(err, ErrInvalidArgument):
		httputil.BadRequest(w, "scroll percent must be between 0 and 100")
	case errors.Is(err, ErrNotFound):
		httputil.NotFound(w, "unknown tracking token")
	default:
		beaconOK(w)
	}
}

// HandleTime records a time-spent beacon from a JSON body of the form
// {"milliseconds": 45000}.
func (h *Handler) HandleTime(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var body struct {
		Milliseconds int64 `json:"milliseconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.BadRequest(w, "invalid beacon body")
		return
	}

	if !h.allow(r, token, "time") {
		beaconOK(w)
		return
	}

	err := h.rec.RecordTimeSpent(r.Context(), token, body.Milliseconds, CallerFrom(r))
	switch {
	case errors.Is(err, ErrInvalidArgument):
		httputil.BadRequest(w, "time spent must not be negative")
	case errors.Is(err, ErrNotFound):
		httputil.NotFound(w, "unknown tracking token")
	default:
		beaconOK(w)
	}
}

// HandleClick records a click beacon. It always reports success; a
// malformed body just records a click with empty descriptors.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	var body struct {
		ElementID   string `json:"element_id"`
		ElementText string `json:"element_text"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	if h.allow(r, token, "click") {
		h.rec.RecordClick(r.Context(), token, body.ElementID, body.ElementText, CallerFrom(r))
	}
	beaconOK(w)
}

func (h *Handler) allow(r *http.Request, token, kind string) bool {
	return h.limiter.Allow(r.Context(), token, kind)
}

func beaconOK(w http.ResponseWriter) {
	httputil.OK(w, map[string]bool{"success": true})
}

func servePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Write(pixelPNG)
}

// CallerFrom extracts requester metadata from a beacon request.
func CallerFrom(r *http.Request) domain.Caller {
	return domain.Caller{
		IPAddress: realIP(r),
		UserAgent: r.UserAgent(),
		Referrer:  r.Referer(),
	}
}

func realIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
