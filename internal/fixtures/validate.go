package fixtures

import (
	"fmt"
	"sort"
	"time"
)

// ValidationError 검증 실패
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every payload is aligned and in range
func Validate(set *Set) error {
	if set.Meta.Name == "" {
		return ValidationError{"meta.name", "required"}
	}
	if len(set.Symbols) == 0 {
		return ValidationError{"symbols", "at least one symbol required"}
	}

	// deterministic error order
	symbols := make([]string, 0, len(set.Symbols))
	for sym := range set.Symbols {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		if err := validatePayload("symbols."+sym, set.Symbols[sym]); err != nil {
			return err
		}
	}
	return nil
}

func validatePayload(field string, p Payload) error {
	n := len(p.Dates)
	if n == 0 {
		return ValidationError{field + ".dates", "required"}
	}

	var prev time.Time
	for i, raw := range p.Dates {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return ValidationError{fmt.Sprintf("%s.dates[%d]", field, i), "expected YYYY-MM-DD"}
		}
		if i > 0 && !d.After(prev) {
			return ValidationError{fmt.Sprintf("%s.dates[%d]", field, i), "dates must be strictly increasing"}
		}
		prev = d
	}

	if len(p.Actual) != n {
		return ValidationError{field + ".actual", fmt.Sprintf("expected %d points, got %d", n, len(p.Actual))}
	}
	if err := validateModel(field+".lstm", p.LSTM, n); err != nil {
		return err
	}
	return validateModel(field+".rnn", p.RNN, n)
}

func validateModel(field string, m Model, n int) error {
	if len(m.Prices) != n {
		return ValidationError{field + ".prices", fmt.Sprintf("expected %d points, got %d", n, len(m.Prices))}
	}
	if m.Accuracy < 0 || m.Accuracy > 100 {
		return ValidationError{field + ".accuracy", "must be in [0, 100]"}
	}
	if m.RMSE < 0 || m.MAE < 0 || m.TrainingTime < 0 {
		return ValidationError{field, "rmse, mae and training_time must be >= 0"}
	}
	return nil
}
