package repository

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trainer-workload-service/internal/model"
)

// ErrLedgerNotFound is returned by Get when no ledger exists for a username.
var ErrLedgerNotFound = errors.New("ledger not found")

// LedgerStore is the persistence contract the aggregation engine depends on:
// get-by-key and upsert, nothing else.
type LedgerStore interface {
	Get(ctx context.Context, trainerUsername string) (*model.TrainerLedger, error)
	Upsert(ctx context.Context, ledger *model.TrainerLedger) error
}

// GormLedgerStore persists trainer ledgers in PostgreSQL, one row per
// trainer with the year hierarchy in a JSONB column.
type GormLedgerStore struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewGormLedgerStore(db *gorm.DB, log *logrus.Logger) *GormLedgerStore {
	return &GormLedgerStore{
		db:  db,
		log: log,
	}
}

func (r *GormLedgerStore) Get(ctx context.Context, trainerUsername string) (*model.TrainerLedger, error) {
	var ledger model.TrainerLedger
	err := r.db.WithContext(ctx).
		Where("trainer_username = ?", trainerUsername).
		First(&ledger).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLedgerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (r *GormLedgerStore) Upsert(ctx context.Context, ledger *model.TrainerLedger) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "trainer_username"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"years",
			"updated_at",
		}),
	}).Create(ledger).Error
}
