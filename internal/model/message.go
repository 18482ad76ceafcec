package model

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// ActionType tells the aggregation engine whether a training session was
// created or removed.
type ActionType string

const (
	ActionAdd    ActionType = "ADD"
	ActionDelete ActionType = "DELETE"
)

// Valid reports whether the action type is one of the known values.
func (a ActionType) Valid() bool {
	return a == ActionAdd || a == ActionDelete
}

// EventDate wraps time.Time with the lenient decoding producers actually
// send: RFC3339 (with or without nanos), bare dates, "2006-01-02 15:04:05",
// or epoch milliseconds.
type EventDate struct {
	time.Time
}

var dateFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (d *EventDate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		millis, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid training date %q: %w", data, err)
		}
		d.Time = time.UnixMilli(millis)
		return nil
	}

	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("invalid training date %q: %w", data, err)
	}
	for _, format := range dateFormats {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized training date format %q", s)
}

func (d EventDate) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.Format(time.RFC3339))), nil
}

// WorkloadMessage is the queue payload describing one training-session event
// for a trainer. Required fields that can legitimately be zero-valued are
// pointers so that an absent JSON key is distinguishable from a zero.
type WorkloadMessage struct {
	TrainerUsername           string     `json:"trainerUsername"`
	TrainerFirstName          string     `json:"trainerFirstName"`
	TrainerLastName           string     `json:"trainerLastName"`
	IsActive                  *bool      `json:"isActive"`
	TrainingDate              *EventDate `json:"trainingDate"`
	TrainingDurationInMinutes *int       `json:"trainingDurationInMinutes"`
	ActionType                ActionType `json:"actionType"`

	// EventID is optional producer-side metadata used to suppress duplicate
	// processing on broker redelivery.
	EventID string `json:"eventId,omitempty"`
}
