package service

import (
	"bytes"
	"encoding/json"

	"github.com/punchclock/punchclock-backend/internal/timekeeping/domain"
	"github.com/punchclock/punchclock-backend/pkg/clock"
	"github.com/punchclock/punchclock-backend/pkg/errors"
)

// PunchInput is the body of a punch.
type PunchInput struct {
	StartTime    string  `json:"start_time" validate:"required,timeofday"`
	EndTime      *string `json:"end_time" validate:"omitempty,timeofday"`
	EntryType    string  `json:"entry_type"`
	SessionToken string  `json:"session_token" validate:"required"`
	SegmentIndex *int    `json:"segment_index" validate:"omitempty,min=1"`
}

// CreateEntryInput is the body of a manual entry. EmployeeID is honoured
// for admins only; Status is honoured for admins only.
type CreateEntryInput struct {
	Date         string  `json:"date" validate:"required,date"`
	StartTime    string  `json:"start_time" validate:"required,timeofday"`
	EndTime      *string `json:"end_time" validate:"omitempty,timeofday"`
	EntryType    string  `json:"entry_type"`
	Status       string  `json:"status"`
	EmployeeID   string  `json:"employee_id"`
	SessionToken string  `json:"session_token"`
	SegmentIndex *int    `json:"segment_index" validate:"omitempty,min=1"`
}

// UpdateEntryInput carries the fields to change. Nil fields are kept.
type UpdateEntryInput struct {
	Date         *string        `json:"date" validate:"omitempty,date"`
	StartTime    *string        `json:"start_time" validate:"omitempty,timeofday"`
	EndTime      NullableString `json:"end_time"`
	EntryType    *string        `json:"entry_type"`
	Status       *string        `json:"status"`
	SegmentIndex *int           `json:"segment_index" validate:"omitempty,min=1"`
}

// StatusInput is the body of a status change.
type StatusInput struct {
	Status string `json:"status" validate:"required"`
}

// ClearInput optionally narrows a clear to one employee.
type ClearInput struct {
	EmployeeID string `json:"employee_id"`
}

// NullableString tells an absent JSON field apart from an explicit null.
type NullableString struct {
	Set   bool
	Value *string
}

// UnmarshalJSON implements json.Unmarshaler
func (n *NullableString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func parseTime(field, s string) (clock.TimeOfDay, error) {
	t, err := clock.ParseTimeOfDay(s)
	if err != nil {
		return 0, errors.InvalidField(field, "must be a time in HH:MM format")
	}
	return t, nil
}

func parseOptionalTime(field string, s *string) (*clock.TimeOfDay, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := parseTime(field, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDate(field, s string) (clock.Date, error) {
	d, err := clock.ParseDate(s)
	if err != nil {
		return clock.Date{}, errors.InvalidField(field, "must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

func parseEntryType(s string) (domain.EntryType, error) {
	if s == "" {
		return domain.EntryTypeRegular, nil
	}
	t := domain.EntryType(s)
	if !t.Valid() {
		return "", errors.InvalidField("entry_type",
			"must be one of: Regular Work Hours, Overtime, Meeting, Training, Other")
	}
	return t, nil
}

func parseStatus(s string) (domain.Status, error) {
	st := domain.Status(s)
	if !st.Valid() {
		return "", errors.InvalidField("status", "must be one of: pending, approved, rejected")
	}
	return st, nil
}

func segmentIndex(p *int) (int, error) {
	if p == nil {
		return 0, nil
	}
	if *p < 1 {
		return 0, errors.InvalidField("segment_index", "must be at least 1")
	}
	return *p, nil
}
