package workload

import "fmt"

// ValidationError reports a malformed or out-of-range input field. It is
// raised before any store access, so a validation failure never leaves
// partial state behind.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalidf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports either an unknown trainer (Year and Month empty) or
// a known trainer with no aggregate for the requested year/month.
type NotFoundError struct {
	TrainerUsername string
	Year            string
	Month           string
}

func (e *NotFoundError) Error() string {
	if e.Year == "" && e.Month == "" {
		return fmt.Sprintf("trainer not found: %s", e.TrainerUsername)
	}
	return fmt.Sprintf("no data found for trainer %s in year %s and month %s",
		e.TrainerUsername, e.Year, e.Month)
}

// TrainerUnknown reports whether the trainer itself was missing, as opposed
// to the trainer existing without data for the requested period.
func (e *NotFoundError) TrainerUnknown() bool {
	return e.Year == "" && e.Month == ""
}

// CapacityExceededError rejects an additive change that would push a day
// past the configured hour cap. Retrying the same message cannot succeed.
type CapacityExceededError struct {
	TrainerUsername string
	Year            string
	Month           string
	Day             string
	CurrentHours    float64
	RequestedHours  float64
	Limit           float64
}

func (e *CapacityExceededError) Error() string {
	if e.CurrentHours == 0 {
		return fmt.Sprintf("cannot add %.2f hours for trainer %s on %s-%s-%s: daily limit is %.1f hours",
			e.RequestedHours, e.TrainerUsername, e.Year, e.Month, e.Day, e.Limit)
	}
	return fmt.Sprintf("cannot add %.2f hours for trainer %s on %s-%s-%s: current hours %.2f, would exceed daily limit of %.1f hours",
		e.RequestedHours, e.TrainerUsername, e.Year, e.Month, e.Day, e.CurrentHours, e.Limit)
}
