package prediction

import (
	"regexp"
	"strings"
	"time"

	"github.com/wonny/synthlab/backend/internal/contracts"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,11}$`)

// Validate checks a form submission and returns the normalized request.
// The symbol is trimmed and upper-cased and an unset horizon defaults to 7 days.
// Dates are compared by calendar day. Request dates keep the day they were written
// with and today is now's UTC calendar date, matching dates parsed as UTC midnight.
func Validate(req contracts.PredictionRequest, now time.Time) (contracts.PredictionRequest, error) {
	out := req.Clone()
	out.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))

	if out.Symbol == "" {
		return req, missing("symbol", "symbol is required")
	}
	if out.ModelChoice == contracts.ModelUnset {
		return req, missing("model", "model choice is required")
	}
	if !tickerPattern.MatchString(out.Symbol) {
		return req, invalid("symbol", "symbol must be a ticker such as AAPL or BRK.B")
	}
	if !out.ModelChoice.Valid() {
		return req, invalid("model", "model must be one of lstm, rnn, both")
	}

	if out.HorizonDays == contracts.HorizonUnset {
		out.HorizonDays = contracts.DefaultHorizon
	}
	if !out.HorizonDays.Valid() {
		return req, invalid("prediction_days", "prediction days must be 7, 14 or 30")
	}

	today := civilDay(now.UTC())
	if out.DateRangeStart != nil && civilDay(*out.DateRangeStart).After(today) {
		return req, badRange("date_from", "start date is in the future")
	}
	if out.DateRangeEnd != nil && civilDay(*out.DateRangeEnd).After(today) {
		return req, badRange("date_to", "end date is in the future")
	}
	if out.DateRangeStart != nil && out.DateRangeEnd != nil &&
		civilDay(*out.DateRangeEnd).Before(civilDay(*out.DateRangeStart)) {
		return req, badRange("date_to", "end date precedes start date")
	}

	return out, nil
}

// civilDay drops the clock part, keeping the calendar date as seen in t's own location
func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func missing(field, msg string) error {
	return &contracts.ValidationError{Code: contracts.CodeMissingField, Field: field, Message: msg}
}

func invalid(field, msg string) error {
	return &contracts.ValidationError{Code: contracts.CodeInvalidField, Field: field, Message: msg}
}

func badRange(field, msg string) error {
	return &contracts.ValidationError{Code: contracts.CodeInvalidDateRange, Field: field, Message: msg}
}
