package model

import "time"

// ProcessedEvent journals consumed event ids so broker redeliveries of an
// already-applied message can be acknowledged without re-applying it.
type ProcessedEvent struct {
	EventID         string    `gorm:"primaryKey;column:event_id;size:64"`
	TrainerUsername string    `gorm:"column:trainer_username;size:50;index"`
	ProcessedAt     time.Time `gorm:"column:processed_at"`
}

func (ProcessedEvent) TableName() string {
	return "processed_events"
}
