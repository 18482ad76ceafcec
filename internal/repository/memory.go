package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"trainer-workload-service/internal/model"
)

// MemoryLedgerStore is a mutex-guarded in-memory LedgerStore used by tests
// and local runs without PostgreSQL. Ledgers are deep-copied on the way in
// and out so callers cannot mutate stored state through shared slices.
type MemoryLedgerStore struct {
	mu      sync.RWMutex
	ledgers map[string]*model.TrainerLedger
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{ledgers: make(map[string]*model.TrainerLedger)}
}

func (s *MemoryLedgerStore) Get(ctx context.Context, trainerUsername string) (*model.TrainerLedger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger, ok := s.ledgers[trainerUsername]
	if !ok {
		return nil, ErrLedgerNotFound
	}
	return copyLedger(ledger), nil
}

func (s *MemoryLedgerStore) Upsert(ctx context.Context, ledger *model.TrainerLedger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyLedger(ledger)
	stored.UpdatedAt = time.Now()
	s.ledgers[ledger.TrainerUsername] = stored
	return nil
}

// Len reports the number of stored ledgers.
func (s *MemoryLedgerStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ledgers)
}

func copyLedger(in *model.TrainerLedger) *model.TrainerLedger {
	out := *in
	if in.Years != nil {
		data, _ := json.Marshal(in.Years)
		out.Years = nil
		_ = json.Unmarshal(data, &out.Years)
	}
	return &out
}

// MemoryEventJournal is the in-memory EventJournal counterpart.
type MemoryEventJournal struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryEventJournal() *MemoryEventJournal {
	return &MemoryEventJournal{seen: make(map[string]struct{})}
}

func (j *MemoryEventJournal) Seen(ctx context.Context, eventID string) (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, ok := j.seen[eventID]
	return ok, nil
}

func (j *MemoryEventJournal) Record(ctx context.Context, eventID, trainerUsername string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.seen[eventID] = struct{}{}
	return nil
}
