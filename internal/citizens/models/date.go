package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the wire format for birth dates. Existing clients send and
// expect dd.mm.yyyy, so it stays.
const DateLayout = "02.01.2006"

// Date is a calendar date serialized as dd.mm.yyyy.
type Date struct {
	time.Time
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("birth_date must be a string: %w", err)
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return fmt.Errorf("birth_date must be formatted as dd.mm.yyyy: %w", err)
	}
	d.Time = t
	return nil
}

// MonthKey returns the month as the "1".."12" report bucket key.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%d", int(d.Time.Month()))
}
