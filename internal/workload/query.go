package workload

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trainer-workload-service/internal/repository"
)

// GetWorkingHours resolves a trainer's monthly total. It is a pure read.
//
// Month keys are matched exactly against the upper-cased query month, the
// same way they were written: the engine stores month-name keys ("JUNE"), so
// a ledger keyed that way will not match a numeric query ("6") and vice
// versa. This mirrors the reference behavior on purpose rather than
// normalizing the key form.
func (s *DefaultService) GetWorkingHours(ctx context.Context, trainerUsername, year, month string) (*MonthlyHours, error) {
	if err := s.validateQuery(trainerUsername, year, month); err != nil {
		return nil, err
	}

	ledger, err := s.store.Get(ctx, trainerUsername)
	if errors.Is(err, repository.ErrLedgerNotFound) {
		return nil, &NotFoundError{TrainerUsername: trainerUsername}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for %s: %w", trainerUsername, err)
	}

	monthEntry := ledger.FindMonth(year, strings.ToUpper(month))
	if monthEntry == nil {
		return nil, &NotFoundError{
			TrainerUsername: trainerUsername,
			Year:            year,
			Month:           month,
		}
	}

	return &MonthlyHours{
		TrainerUsername: ledger.TrainerUsername,
		Year:            year,
		Month:           month,
		WorkingHours:    monthEntry.MonthlyWorkingHours,
	}, nil
}
