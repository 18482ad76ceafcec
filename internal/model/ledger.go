package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TrainerLedger is the per-trainer working-hours document, one row per
// trainer username with the year -> month -> day hierarchy stored as JSONB.
// Identity fields are written when the ledger is first created and are not
// refreshed by later events.
type TrainerLedger struct {
	TrainerUsername  string    `gorm:"primaryKey;column:trainer_username;size:50" json:"trainerUsername"`
	TrainerFirstName string    `gorm:"column:trainer_first_name;size:50" json:"trainerFirstName"`
	TrainerLastName  string    `gorm:"column:trainer_last_name;size:50" json:"trainerLastName"`
	IsActive         bool      `gorm:"column:is_active" json:"isActive"`
	Years            YearList  `gorm:"column:years;type:jsonb" json:"years"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (TrainerLedger) TableName() string {
	return "trainer_working_hours"
}

// YearEntry holds one calendar year of aggregated hours, keyed by the
// 4-digit year string.
type YearEntry struct {
	Year   string       `json:"year"`
	Months []MonthEntry `json:"months"`
}

// MonthEntry holds one month's running total plus its per-day breakdown. The
// month key is the string form used by whichever write created the entry;
// lookups match it exactly.
type MonthEntry struct {
	Month               string     `json:"month"`
	MonthlyWorkingHours float64    `json:"monthlyWorkingHours"`
	Days                []DayEntry `json:"days"`
}

// DayEntry holds one day's running total, keyed by day-of-month without a
// leading zero.
type DayEntry struct {
	Day               string  `json:"day"`
	DailyWorkingHours float64 `json:"dailyWorkingHours"`
}

// YearList serializes the nested hierarchy into a single JSONB column.
type YearList []YearEntry

func (y YearList) Value() (driver.Value, error) {
	if y == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(y)
}

func (y *YearList) Scan(value interface{}) error {
	if value == nil {
		*y = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for years column", value)
	}
	return json.Unmarshal(data, y)
}

// FindMonth returns the month entry for the exact (year, month) key pair, or
// nil when either level is absent.
func (l *TrainerLedger) FindMonth(year, month string) *MonthEntry {
	for i := range l.Years {
		if l.Years[i].Year != year {
			continue
		}
		for j := range l.Years[i].Months {
			if l.Years[i].Months[j].Month == month {
				return &l.Years[i].Months[j]
			}
		}
	}
	return nil
}

// DailyHours returns the recorded total for the exact (year, month, day) key
// chain, defaulting to 0 when any level is absent.
func (l *TrainerLedger) DailyHours(year, month, day string) float64 {
	m := l.FindMonth(year, month)
	if m == nil {
		return 0
	}
	for i := range m.Days {
		if m.Days[i].Day == day {
			return m.Days[i].DailyWorkingHours
		}
	}
	return 0
}
