package models

import (
	"errors"
	"fmt"
	"time"
)

// ScheduleFrequency names the recurrence shape of a schedule trigger.
type ScheduleFrequency string

const (
	FrequencyInterval ScheduleFrequency = "interval" // Every N seconds
	FrequencyDaily    ScheduleFrequency = "daily"    // Once a day at Hour:Minute
	FrequencyWeekly   ScheduleFrequency = "weekly"   // Once a week on Weekday at Hour:Minute
	FrequencyMonthly  ScheduleFrequency = "monthly"  // Once a month on Day at Hour:Minute
)

var (
	ErrScheduleFrequencyUnknown = errors.New("unknown schedule frequency")
	ErrScheduleInterval         = errors.New("interval must be at least 1 second")
	ErrScheduleTime             = errors.New("schedule time out of range")
	ErrScheduleDay              = errors.New("schedule day must be between 1 and 28")
	ErrScheduleLocation         = errors.New("unknown schedule location")
)

// ScheduleSpec is a structured recurring schedule. Fields are typed
// rather than parsed out of a cron string so that validation happens at
// activation time and next-fire computation stays deterministic.
type ScheduleSpec struct {
	Frequency       ScheduleFrequency `json:"frequency"         validate:"required"`
	IntervalSeconds int               `json:"interval_seconds,omitempty"`
	Hour            int               `json:"hour,omitempty"`
	Minute          int               `json:"minute,omitempty"`
	Weekday         time.Weekday      `json:"weekday,omitempty"`
	Day             int               `json:"day,omitempty"` // 1..28, kept below month-length edge cases
	Location        string            `json:"location,omitempty"`
}

// Validate checks the spec's fields against its frequency.
func (s *ScheduleSpec) Validate() error {
	switch s.Frequency {
	case FrequencyInterval:
		if s.IntervalSeconds < 1 {
			return ErrScheduleInterval
		}
	case FrequencyDaily, FrequencyWeekly:
		if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
			return ErrScheduleTime
		}
	case FrequencyMonthly:
		if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
			return ErrScheduleTime
		}

		if s.Day < 1 || s.Day > 28 {
			return ErrScheduleDay
		}
	default:
		return fmt.Errorf("%w: %s", ErrScheduleFrequencyUnknown, s.Frequency)
	}

	if s.Location != "" {
		if _, err := time.LoadLocation(s.Location); err != nil {
			return fmt.Errorf("%w: %s", ErrScheduleLocation, s.Location)
		}
	}

	return nil
}

// NextAfter computes the first fire time strictly after the reference time.
func (s *ScheduleSpec) NextAfter(after time.Time) time.Time {
	loc := time.UTC
	if s.Location != "" {
		if l, err := time.LoadLocation(s.Location); err == nil {
			loc = l
		}
	}

	ref := after.In(loc)

	switch s.Frequency {
	case FrequencyInterval:
		return ref.Add(time.Duration(s.IntervalSeconds) * time.Second)

	case FrequencyDaily:
		next := time.Date(ref.Year(), ref.Month(), ref.Day(), s.Hour, s.Minute, 0, 0, loc)
		if !next.After(ref) {
			next = next.AddDate(0, 0, 1)
		}

		return next

	case FrequencyWeekly:
		next := time.Date(ref.Year(), ref.Month(), ref.Day(), s.Hour, s.Minute, 0, 0, loc)

		days := (int(s.Weekday) - int(next.Weekday()) + 7) % 7
		next = next.AddDate(0, 0, days)

		if !next.After(ref) {
			next = next.AddDate(0, 0, 7)
		}

		return next

	case FrequencyMonthly:
		next := time.Date(ref.Year(), ref.Month(), s.Day, s.Hour, s.Minute, 0, 0, loc)
		if !next.After(ref) {
			next = time.Date(ref.Year(), ref.Month()+1, s.Day, s.Hour, s.Minute, 0, 0, loc)
		}

		return next
	}

	return time.Time{}
}
