package workload

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"trainer-workload-service/internal/logger"
	"trainer-workload-service/internal/model"
	"trainer-workload-service/internal/repository"
)

// Limits holds the tunable business constants: the per-day hour cap applied
// to additive changes and the year range accepted by queries.
type Limits struct {
	DailyHourCap float64
	MinYear      int
	MaxYear      int
}

// DefaultLimits mirror the reference configuration.
func DefaultLimits() Limits {
	return Limits{
		DailyHourCap: 8.0,
		MinYear:      2025,
		MaxYear:      2100,
	}
}

// MonthlyHours is the query result: the running monthly total for one
// trainer, echoing the caller's year and month strings.
type MonthlyHours struct {
	TrainerUsername string  `json:"trainerUsername"`
	Year            string  `json:"year"`
	Month           string  `json:"month"`
	WorkingHours    float64 `json:"workingHours"`
}

// CacheInvalidator lets the write path drop cached query results for a
// trainer. May be nil.
type CacheInvalidator interface {
	InvalidateTrainer(trainerUsername string)
}

// Service defines the working-hours operations.
type Service interface {
	CalculateAndSave(ctx context.Context, msg *model.WorkloadMessage) error
	GetWorkingHours(ctx context.Context, trainerUsername, year, month string) (*MonthlyHours, error)
}

// DefaultService implements Service against a LedgerStore. All writes for a
// given trainer are serialized behind a per-username mutex so concurrent
// consumer workers cannot lose updates.
type DefaultService struct {
	store  repository.LedgerStore
	cache  CacheInvalidator
	log    *logrus.Logger
	limits Limits
	locks  *keyLock
}

func New(store repository.LedgerStore, cache CacheInvalidator, log *logrus.Logger, limits Limits) *DefaultService {
	return &DefaultService{
		store:  store,
		cache:  cache,
		log:    log,
		limits: limits,
		locks:  newKeyLock(),
	}
}

// CalculateAndSave validates a workload message and folds it into the
// trainer's ledger: ADD events for an active trainer add hours, DELETE events
// or events for an inactive trainer subtract them. Additive changes are
// checked against the daily cap first; nothing is written on any failure.
func (s *DefaultService) CalculateAndSave(ctx context.Context, msg *model.WorkloadMessage) error {
	if err := validateMessage(msg); err != nil {
		return err
	}

	date := msg.TrainingDate.In(time.Local)
	year := strconv.Itoa(date.Year())
	month := strings.ToUpper(date.Month().String())
	day := strconv.Itoa(date.Day())
	username := msg.TrainerUsername

	rawHours := float64(*msg.TrainingDurationInMinutes) / 60.0
	subtract := msg.ActionType == model.ActionDelete || !*msg.IsActive
	delta := rawHours
	if subtract {
		delta = -rawHours
	}

	unlock := s.locks.lock(username)
	defer unlock()

	existing, err := s.store.Get(ctx, username)
	if errors.Is(err, repository.ErrLedgerNotFound) {
		existing = nil
	} else if err != nil {
		return fmt.Errorf("failed to load ledger for %s: %w", username, err)
	}

	// The cap only guards additive changes; subtraction is unconditionally
	// permitted and may drive totals negative before the clamp.
	if !subtract {
		if err := s.checkDailyLimit(existing, year, month, day, delta, username); err != nil {
			return err
		}
	}

	var ledger *model.TrainerLedger
	if existing == nil {
		ledger = newLedger(msg, year, month, day, delta)
	} else {
		ledger = existing
		s.applyDelta(ctx, ledger, year, month, day, delta)
	}

	if err := s.store.Upsert(ctx, ledger); err != nil {
		return fmt.Errorf("failed to save ledger for %s: %w", username, err)
	}

	if s.cache != nil {
		s.cache.InvalidateTrainer(username)
	}

	logger.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"trainer": username,
		"year":    year,
		"month":   month,
		"day":     day,
		"delta":   delta,
		"action":  msg.ActionType,
	}).Info("workload applied")

	return nil
}

func (s *DefaultService) checkDailyLimit(existing *model.TrainerLedger, year, month, day string, additionalHours float64, username string) error {
	var current float64
	if existing != nil {
		current = existing.DailyHours(year, month, day)
	}
	if current+additionalHours > s.limits.DailyHourCap {
		return &CapacityExceededError{
			TrainerUsername: username,
			Year:            year,
			Month:           month,
			Day:             day,
			CurrentHours:    current,
			RequestedHours:  additionalHours,
			Limit:           s.limits.DailyHourCap,
		}
	}
	return nil
}

// newLedger builds the first ledger for a trainer, seeding month and day
// totals with the (floored) delta and capturing the identity fields from the
// message. Later events never refresh those fields.
func newLedger(msg *model.WorkloadMessage, year, month, day string, delta float64) *model.TrainerLedger {
	seeded := clampHours(delta)
	return &model.TrainerLedger{
		TrainerUsername:  msg.TrainerUsername,
		TrainerFirstName: msg.TrainerFirstName,
		TrainerLastName:  msg.TrainerLastName,
		IsActive:         *msg.IsActive,
		Years: model.YearList{{
			Year: year,
			Months: []model.MonthEntry{{
				Month:               month,
				MonthlyWorkingHours: seeded,
				Days: []model.DayEntry{{
					Day:               day,
					DailyWorkingHours: seeded,
				}},
			}},
		}},
	}
}

// applyDelta locates or creates the year/month/day chain by exact key match
// and adds delta to both the monthly and daily totals, flooring each at zero.
func (s *DefaultService) applyDelta(ctx context.Context, ledger *model.TrainerLedger, year, month, day string, delta float64) {
	yi := -1
	for i := range ledger.Years {
		if ledger.Years[i].Year == year {
			yi = i
			break
		}
	}
	if yi == -1 {
		ledger.Years = append(ledger.Years, model.YearEntry{Year: year})
		yi = len(ledger.Years) - 1
	}

	months := &ledger.Years[yi].Months
	mi := -1
	for i := range *months {
		if (*months)[i].Month == month {
			mi = i
			break
		}
	}
	if mi == -1 {
		*months = append(*months, model.MonthEntry{Month: month})
		mi = len(*months) - 1
	}
	monthEntry := &(*months)[mi]

	newMonthly := monthEntry.MonthlyWorkingHours + delta
	if newMonthly < 0 {
		s.warnClamp(ctx, ledger.TrainerUsername, "month", year+"-"+month, newMonthly)
	}
	monthEntry.MonthlyWorkingHours = clampHours(newMonthly)

	di := -1
	for i := range monthEntry.Days {
		if monthEntry.Days[i].Day == day {
			di = i
			break
		}
	}
	if di == -1 {
		monthEntry.Days = append(monthEntry.Days, model.DayEntry{Day: day})
		di = len(monthEntry.Days) - 1
	}
	dayEntry := &monthEntry.Days[di]

	newDaily := dayEntry.DailyWorkingHours + delta
	if newDaily < 0 {
		s.warnClamp(ctx, ledger.TrainerUsername, "day", year+"-"+month+"-"+day, newDaily)
	}
	dayEntry.DailyWorkingHours = clampHours(newDaily)
}

// warnClamp records that a subtraction drove a total below zero before the
// floor absorbed it, so over-subtraction is observable instead of silent.
func (s *DefaultService) warnClamp(ctx context.Context, username, level, key string, total float64) {
	logger.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"trainer": username,
		"level":   level,
		"key":     key,
		"total":   total,
	}).Warn("working hours clamped to zero")
}

func clampHours(hours float64) float64 {
	if hours < 0 {
		return 0
	}
	return hours
}
