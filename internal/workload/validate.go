package workload

import (
	"strconv"
	"strings"

	"trainer-workload-service/internal/model"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 50
	maxNameLen     = 50
)

// validateMessage checks a workload message field by field, failing on the
// first violation. It runs before any store access.
func validateMessage(msg *model.WorkloadMessage) error {
	if msg == nil {
		return invalidf("message", "workload message cannot be nil")
	}
	if err := validateUsername(msg.TrainerUsername); err != nil {
		return err
	}
	if strings.TrimSpace(msg.TrainerFirstName) == "" {
		return invalidf("trainerFirstName", "trainer first name cannot be blank")
	}
	if len(strings.TrimSpace(msg.TrainerFirstName)) > maxNameLen {
		return invalidf("trainerFirstName", "trainer first name cannot exceed %d characters", maxNameLen)
	}
	if strings.TrimSpace(msg.TrainerLastName) == "" {
		return invalidf("trainerLastName", "trainer last name cannot be blank")
	}
	if len(strings.TrimSpace(msg.TrainerLastName)) > maxNameLen {
		return invalidf("trainerLastName", "trainer last name cannot exceed %d characters", maxNameLen)
	}
	if msg.IsActive == nil {
		return invalidf("isActive", "isActive field is required")
	}
	if msg.TrainingDate == nil || msg.TrainingDate.IsZero() {
		return invalidf("trainingDate", "training date is required")
	}
	if msg.TrainingDurationInMinutes == nil {
		return invalidf("trainingDurationInMinutes", "training duration is required")
	}
	if !msg.ActionType.Valid() {
		return invalidf("actionType", "action type must be ADD or DELETE, got %q", string(msg.ActionType))
	}
	return nil
}

func validateUsername(username string) error {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return invalidf("trainerUsername", "trainer username cannot be blank")
	}
	if len(trimmed) < minUsernameLen {
		return invalidf("trainerUsername", "trainer username must be at least %d characters long", minUsernameLen)
	}
	if len(trimmed) > maxUsernameLen {
		return invalidf("trainerUsername", "trainer username cannot exceed %d characters", maxUsernameLen)
	}
	return nil
}

var monthNames = map[string]bool{
	"JANUARY": true, "FEBRUARY": true, "MARCH": true, "APRIL": true,
	"MAY": true, "JUNE": true, "JULY": true, "AUGUST": true,
	"SEPTEMBER": true, "OCTOBER": true, "NOVEMBER": true, "DECEMBER": true,
}

// validateQuery checks the read-path parameters: username length rules, a
// numeric year inside the configured range, and a month given either as 1-12
// or as a full English month name.
func (s *DefaultService) validateQuery(trainerUsername, year, month string) error {
	if err := validateUsername(trainerUsername); err != nil {
		return err
	}

	if strings.TrimSpace(year) == "" {
		return invalidf("year", "year cannot be blank")
	}
	yearValue, err := strconv.Atoi(year)
	if err != nil {
		return invalidf("year", "year must be a valid numeric value, got %q", year)
	}
	if yearValue < s.limits.MinYear || yearValue > s.limits.MaxYear {
		return invalidf("year", "year must be between %d and %d, got %d", s.limits.MinYear, s.limits.MaxYear, yearValue)
	}

	if strings.TrimSpace(month) == "" {
		return invalidf("month", "month cannot be blank")
	}
	if n, err := strconv.Atoi(month); err == nil {
		if n < 1 || n > 12 {
			return invalidf("month", "month number must be between 1 and 12, got %d", n)
		}
		return nil
	}
	if !monthNames[strings.ToUpper(month)] {
		return invalidf("month", "month must be a full month name (e.g. JANUARY) or a number 1-12, got %q", month)
	}
	return nil
}
