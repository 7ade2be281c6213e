package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/internal/prediction"
	"github.com/wonny/synthlab/backend/pkg/logger"
)

// SessionRegistry is the part of sessions.Manager the handlers use
type SessionRegistry interface {
	Create() (*prediction.Session, error)
	Restore(ctx context.Context, id string) (*prediction.Session, error)
}

// SessionHandler handles prediction session endpoints
// ⭐ SSOT: 세션 API 핸들러는 이 구조체에서만
type SessionHandler struct {
	sessions SessionRegistry
	logger   *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionRegistry, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   log.WithComponent("api.sessions"),
	}
}

// Create opens a new Idle session
// POST /api/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, err := h.sessions.Create()
	if err != nil {
		h.logger.WithError(err).Warn("Failed to create session")
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, s.Snapshot())
}

// Get returns the session snapshot
// GET /api/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, s.Snapshot())
}

// SubmitRequest is the body of the prediction form
type SubmitRequest struct {
	Symbol         string `json:"symbol"`
	Model          string `json:"model"`
	DateFrom       string `json:"date_from"` // YYYY-MM-DD, optional
	DateTo         string `json:"date_to"`   // YYYY-MM-DD, optional
	PredictionDays int    `json:"prediction_days"`
	Supersede      bool   `json:"supersede"`
}

// toRequest converts the form body. Field-level checks are left to prediction.Validate.
func (b SubmitRequest) toRequest() (contracts.PredictionRequest, error) {
	model, err := contracts.ParseModelChoice(b.Model)
	if err != nil {
		model = contracts.ModelChoice(strings.TrimSpace(b.Model))
	}

	req := contracts.PredictionRequest{
		Symbol:      b.Symbol,
		ModelChoice: model,
		HorizonDays: contracts.Horizon(b.PredictionDays),
	}

	if req.DateRangeStart, err = parseDate("date_from", b.DateFrom); err != nil {
		return req, err
	}
	if req.DateRangeEnd, err = parseDate("date_to", b.DateTo); err != nil {
		return req, err
	}

	return req, nil
}

func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, &contracts.ValidationError{
			Code:    contracts.CodeInvalidField,
			Field:   field,
			Message: "expected YYYY-MM-DD",
		}
	}
	return &t, nil
}

// Submit starts a prediction. Responds 202 with the Loading snapshot.
// POST /api/sessions/{id}/predictions
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var body SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := body.toRequest()
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if body.Supersede {
		_, err = s.Supersede(req)
	} else {
		_, err = s.Submit(req)
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, s.Snapshot())
}

// Comparison returns the LSTM vs RNN comparison of the current result
// GET /api/sessions/{id}/comparison
func (h *SessionHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	view, err := s.Comparison()
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// Chart returns the chart series of the current result
// GET /api/sessions/{id}/chart
func (h *SessionHandler) Chart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	chart, err := s.Chart()
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, chart)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*prediction.Session, bool) {
	s, err := h.sessions.Restore(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondDomainError(w, err)
		return nil, false
	}
	return s, true
}
