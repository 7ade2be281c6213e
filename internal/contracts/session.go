package contracts

import "time"

// SessionState 예측 세션 상태
type SessionState string

const (
	StateIdle     SessionState = "idle"
	StateLoading  SessionState = "loading"
	StateResolved SessionState = "resolved"
	StateFailed   SessionState = "failed"
)

// ErrorInfo is the failure recorded on a Failed session
type ErrorInfo struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SessionSnapshot is a read-only copy of a session.
// Stale is set when LastResult belongs to an earlier request than LastRequest.
type SessionSnapshot struct {
	ID          string             `json:"id"`
	State       SessionState       `json:"state"`
	Generation  uint64             `json:"generation"`
	LastRequest *PredictionRequest `json:"last_request,omitempty"`
	LastResult  *PredictionResult  `json:"last_result,omitempty"`
	LastError   *ErrorInfo         `json:"last_error,omitempty"`
	Stale       bool               `json:"stale"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// CanSubmit mirrors the disabled state of the submit button
func (s SessionSnapshot) CanSubmit() bool {
	return s.State != StateLoading
}
