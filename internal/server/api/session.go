package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/capture"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/enroll"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/pkg/log"
)

// Controller drives the live capture session.
type Controller interface {
	Report() session.Report
	Live() capture.Live
	Capture(ctx context.Context) (enroll.Outcome, error)
	Reset() session.Report
}

// SessionHandler serves /api/session and its capture and reset actions.
type SessionHandler struct {
	controller Controller
	limiter    *rate.Limiter
}

// NewSessionHandler creates a SessionHandler. Capture requests beyond
// perSecond (with the given burst) are answered with 429.
func NewSessionHandler(c Controller, perSecond float64, burst int) *SessionHandler {
	if perSecond <= 0 {
		perSecond = 2
	}
	if burst < 1 {
		burst = 1
	}
	return &SessionHandler{
		controller: c,
		limiter:    rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

type sessionResponse struct {
	Report  session.Report `json:"report"`
	Summary string         `json:"summary"`
	Live    capture.Live   `json:"live"`
}

// ServeHTTP routes /api/session, /api/session/capture and /api/session/reset.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/session")
	path = strings.Trim(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.get(w, r)
	case "capture":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.capture(w, r)
	case "reset":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.reset(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	report := h.controller.Report()
	writeJSON(w, http.StatusOK, sessionResponse{
		Report:  report,
		Summary: report.Summary(),
		Live:    h.controller.Live(),
	})
}

// capture handles POST /api/session/capture. Accepted attempts answer 200,
// quality and matching rejections 422, stage and busy conflicts 409.
func (h *SessionHandler) capture(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "Too many capture requests")
		return
	}

	outcome, err := h.controller.Capture(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, outcome)
		return
	}

	if rej, ok := enroll.AsRejection(err); ok {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, enroll.ErrBusy) || errors.Is(err, enroll.ErrStageRejected) {
			status = http.StatusConflict
		}
		log.Debug(log.Fields{"reason": rej.Reason, "stage": outcome.Stage}, "[api.Capture] attempt rejected")
		writeJSON(w, status, outcome)
		return
	}

	if errors.Is(err, context.Canceled) {
		// Client went away
		return
	}

	log.Error(log.Fields{"error": err.Error()}, "[api.Capture] capture failed")
	writeError(w, http.StatusServiceUnavailable, "Capture failed: "+err.Error())
}

func (h *SessionHandler) reset(w http.ResponseWriter, r *http.Request) {
	report := h.controller.Reset()
	writeJSON(w, http.StatusOK, sessionResponse{
		Report:  report,
		Summary: report.Summary(),
		Live:    h.controller.Live(),
	})
}
