package workload_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainer-workload-service/internal/logger"
	"trainer-workload-service/internal/model"
	"trainer-workload-service/internal/repository"
	"trainer-workload-service/internal/workload"
)

// countingStore wraps the in-memory store and counts writes so tests can
// assert that failed messages never touch the store.
type countingStore struct {
	repository.LedgerStore
	mu     sync.Mutex
	writes int
}

func (s *countingStore) Upsert(ctx context.Context, ledger *model.TrainerLedger) error {
	s.mu.Lock()
	s.writes++
	s.mu.Unlock()
	return s.LedgerStore.Upsert(ctx, ledger)
}

func (s *countingStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func newTestService(t *testing.T) (*workload.DefaultService, *countingStore) {
	t.Helper()
	store := &countingStore{LedgerStore: repository.NewMemoryLedgerStore()}
	svc := workload.New(store, nil, logger.New(), workload.DefaultLimits())
	return svc, store
}

func newMessage(username string, minutes int, action model.ActionType) *model.WorkloadMessage {
	active := true
	date := model.EventDate{Time: time.Date(2025, time.June, 15, 10, 0, 0, 0, time.Local)}
	return &model.WorkloadMessage{
		TrainerUsername:           username,
		TrainerFirstName:          "John",
		TrainerLastName:           "Doe",
		IsActive:                  &active,
		TrainingDate:              &date,
		TrainingDurationInMinutes: &minutes,
		ActionType:                action,
	}
}

func TestCalculateAndSave_ValidationFailures_NeverWrite(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		mutate func(*model.WorkloadMessage)
	}{
		{"blank username", "trainerUsername", func(m *model.WorkloadMessage) { m.TrainerUsername = "  " }},
		{"short username", "trainerUsername", func(m *model.WorkloadMessage) { m.TrainerUsername = "ab" }},
		{"long username", "trainerUsername", func(m *model.WorkloadMessage) {
			m.TrainerUsername = "this-username-is-far-longer-than-fifty-characters-allowed"
		}},
		{"blank first name", "trainerFirstName", func(m *model.WorkloadMessage) { m.TrainerFirstName = "" }},
		{"blank last name", "trainerLastName", func(m *model.WorkloadMessage) { m.TrainerLastName = " " }},
		{"missing isActive", "isActive", func(m *model.WorkloadMessage) { m.IsActive = nil }},
		{"missing date", "trainingDate", func(m *model.WorkloadMessage) { m.TrainingDate = nil }},
		{"missing duration", "trainingDurationInMinutes", func(m *model.WorkloadMessage) { m.TrainingDurationInMinutes = nil }},
		{"invalid action", "actionType", func(m *model.WorkloadMessage) { m.ActionType = "UPSERT" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)

			msg := newMessage("john.doe", 60, model.ActionAdd)
			tt.mutate(msg)

			err := svc.CalculateAndSave(context.Background(), msg)

			var validationErr *workload.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
			assert.Equal(t, 0, store.writeCount())
		})
	}
}

func TestCalculateAndSave_NilMessage(t *testing.T) {
	svc, store := newTestService(t)

	err := svc.CalculateAndSave(context.Background(), nil)

	var validationErr *workload.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 0, store.writeCount())
}

func TestCalculateAndSave_FirstMessageCreatesLedger(t *testing.T) {
	svc, store := newTestService(t)

	err := svc.CalculateAndSave(context.Background(), newMessage("john.doe", 120, model.ActionAdd))
	require.NoError(t, err)

	ledger, err := store.Get(context.Background(), "john.doe")
	require.NoError(t, err)

	assert.Equal(t, "john.doe", ledger.TrainerUsername)
	assert.Equal(t, "John", ledger.TrainerFirstName)
	assert.Equal(t, "Doe", ledger.TrainerLastName)
	assert.True(t, ledger.IsActive)

	require.Len(t, ledger.Years, 1)
	assert.Equal(t, "2025", ledger.Years[0].Year)
	require.Len(t, ledger.Years[0].Months, 1)
	assert.Equal(t, "JUNE", ledger.Years[0].Months[0].Month)
	assert.InDelta(t, 2.0, ledger.Years[0].Months[0].MonthlyWorkingHours, 1e-6)
	require.Len(t, ledger.Years[0].Months[0].Days, 1)
	assert.Equal(t, "15", ledger.Years[0].Months[0].Days[0].Day)
	assert.InDelta(t, 2.0, ledger.Years[0].Months[0].Days[0].DailyWorkingHours, 1e-6)
}

func TestCalculateAndSave_DailyCap(t *testing.T) {
	t.Run("exceeding the cap rejects with no write", func(t *testing.T) {
		svc, store := newTestService(t)

		require.NoError(t, svc.CalculateAndSave(context.Background(), newMessage("john.doe", 240, model.ActionAdd)))
		writesBefore := store.writeCount()

		err := svc.CalculateAndSave(context.Background(), newMessage("john.doe", 300, model.ActionAdd))

		var capErr *workload.CapacityExceededError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, "john.doe", capErr.TrainerUsername)
		assert.InDelta(t, 4.0, capErr.CurrentHours, 1e-6)
		assert.Equal(t, writesBefore, store.writeCount())
	})

	t.Run("reaching the cap exactly succeeds", func(t *testing.T) {
		svc, store := newTestService(t)

		require.NoError(t, svc.CalculateAndSave(context.Background(), newMessage("john.doe", 240, model.ActionAdd)))
		require.NoError(t, svc.CalculateAndSave(context.Background(), newMessage("john.doe", 240, model.ActionAdd)))

		ledger, err := store.Get(context.Background(), "john.doe")
		require.NoError(t, err)
		assert.InDelta(t, 8.0, ledger.DailyHours("2025", "JUNE", "15"), 1e-6)
	})

	t.Run("first message over the cap rejects", func(t *testing.T) {
		svc, store := newTestService(t)

		err := svc.CalculateAndSave(context.Background(), newMessage("john.doe", 600, model.ActionAdd))

		var capErr *workload.CapacityExceededError
		require.ErrorAs(t, err, &capErr)
		assert.Equal(t, 0, store.writeCount())
	})
}

func TestCalculateAndSave_SubtractionIsNeverCapped(t *testing.T) {
	svc, store := newTestService(t)

	require.NoError(t, svc.CalculateAndSave(context.Background(), newMessage("john.doe", 120, model.ActionAdd)))

	// A delete far larger than the recorded total is permitted; the totals
	// clamp at zero instead of going negative.
	require.NoError(t, svc.CalculateAndSave(context.Background(), newMessage("john.doe", 6000, model.ActionDelete)))

	ledger, err := store.Get(context.Background(), "john.doe")
	require.NoError(t, err)
	assert.Zero(t, ledger.DailyHours("2025", "JUNE", "15"))
	assert.Zero(t, ledger.FindMonth("2025", "JUNE").MonthlyWorkingHours)
}

func TestCalculateAndSave_InactiveTrainerSubtracts(t *testing.T) {
	svc, store := newTestService(t)

	require.NoError(t, svc.CalculateAndSave(context.Background(), newMessage("john.doe", 180, model.ActionAdd)))

	msg := newMessage("john.doe", 60, model.ActionAdd)
	inactive := false
	msg.IsActive = &inactive
	require.NoError(t, svc.CalculateAndSave(context.Background(), msg))

	ledger, err := store.Get(context.Background(), "john.doe")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, ledger.DailyHours("2025", "JUNE", "15"), 1e-6)
}

func TestCalculateAndSave_AccumulatesAcrossMessages(t *testing.T) {
	svc, store := newTestService(t)

	durations := []int{30, 45, 90, 60, 120}
	var totalMinutes int
	for _, d := range durations {
		require.NoError(t, svc.CalculateAndSave(context.Background(), newMessage("john.doe", d, model.ActionAdd)))
		totalMinutes += d
	}

	ledger, err := store.Get(context.Background(), "john.doe")
	require.NoError(t, err)
	want := float64(totalMinutes) / 60.0
	assert.InDelta(t, want, ledger.DailyHours("2025", "JUNE", "15"), 1e-6)
	assert.InDelta(t, want, ledger.FindMonth("2025", "JUNE").MonthlyWorkingHours, 1e-6)
}

func TestCalculateAndSave_SeparateDaysShareMonthlyTotal(t *testing.T) {
	svc, store := newTestService(t)

	first := newMessage("john.doe", 120, model.ActionAdd)
	require.NoError(t, svc.CalculateAndSave(context.Background(), first))

	second := newMessage("john.doe", 180, model.ActionAdd)
	date := model.EventDate{Time: time.Date(2025, time.June, 16, 9, 0, 0, 0, time.Local)}
	second.TrainingDate = &date
	require.NoError(t, svc.CalculateAndSave(context.Background(), second))

	ledger, err := store.Get(context.Background(), "john.doe")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, ledger.DailyHours("2025", "JUNE", "15"), 1e-6)
	assert.InDelta(t, 3.0, ledger.DailyHours("2025", "JUNE", "16"), 1e-6)
	assert.InDelta(t, 5.0, ledger.FindMonth("2025", "JUNE").MonthlyWorkingHours, 1e-6)
}

func TestCalculateAndSave_IdentityFieldsNotRefreshed(t *testing.T) {
	svc, store := newTestService(t)

	require.NoError(t, svc.CalculateAndSave(context.Background(), newMessage("john.doe", 60, model.ActionAdd)))

	renamed := newMessage("john.doe", 60, model.ActionAdd)
	renamed.TrainerFirstName = "Johnny"
	renamed.TrainerLastName = "Dough"
	require.NoError(t, svc.CalculateAndSave(context.Background(), renamed))

	ledger, err := store.Get(context.Background(), "john.doe")
	require.NoError(t, err)
	assert.Equal(t, "John", ledger.TrainerFirstName)
	assert.Equal(t, "Doe", ledger.TrainerLastName)
}

// The worked scenario from the service contract: 3h recorded, add 2h, delete
// 1h, query JUNE -> 4.0.
func TestCalculateAndSave_AddThenDeleteScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.CalculateAndSave(ctx, newMessage("john.doe", 180, model.ActionAdd)))
	require.NoError(t, svc.CalculateAndSave(ctx, newMessage("john.doe", 120, model.ActionAdd)))
	require.NoError(t, svc.CalculateAndSave(ctx, newMessage("john.doe", 60, model.ActionDelete)))

	result, err := svc.GetWorkingHours(ctx, "john.doe", "2025", "JUNE")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, result.WorkingHours, 1e-6)
}

func TestCalculateAndSave_ConcurrentSameTrainer(t *testing.T) {
	svc, store := newTestService(t)

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.CalculateAndSave(context.Background(), newMessage("john.doe", 60, model.ActionAdd))
		}()
	}
	wg.Wait()

	// Writes are serialized per trainer, so every add lands.
	ledger, err := store.Get(context.Background(), "john.doe")
	require.NoError(t, err)
	assert.InDelta(t, float64(workers), ledger.DailyHours("2025", "JUNE", "15"), 1e-6)
}
