package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/synthlab/backend/internal/contracts"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string              `json:"error"`
	Code  contracts.ErrorCode `json:"code,omitempty"`
	Field string              `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondDomainError maps the contracts error taxonomy to HTTP statuses
func respondDomainError(w http.ResponseWriter, err error) {
	var ve *contracts.ValidationError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Error(), Code: ve.Code, Field: ve.Field})
	case errors.Is(err, contracts.ErrSubmitInFlight):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, contracts.ErrSessionNotFound), errors.Is(err, contracts.ErrNoResult):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, contracts.ErrTooManySessions):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, contracts.ErrService):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: contracts.CodeServiceError})
	default:
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
