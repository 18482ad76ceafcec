package repository

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trainer-workload-service/internal/model"
)

// EventJournal records which event ids have already been applied so the
// consumer can acknowledge broker redeliveries without double-counting.
type EventJournal interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID, trainerUsername string) error
}

type GormEventJournal struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewGormEventJournal(db *gorm.DB, log *logrus.Logger) *GormEventJournal {
	return &GormEventJournal{
		db:  db,
		log: log,
	}
}

func (r *GormEventJournal) Seen(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProcessedEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormEventJournal) Record(ctx context.Context, eventID, trainerUsername string) error {
	event := model.ProcessedEvent{
		EventID:         eventID,
		TrainerUsername: trainerUsername,
		ProcessedAt:     time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&event).Error
}
