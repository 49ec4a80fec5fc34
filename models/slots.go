package models

import "time"

// TimeSlot is a generated, query-scoped candidate slot. It is never persisted.
type TimeSlot struct {
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Start     time.Time `json:"start"`
	Available bool      `json:"available"`
}

// Schedule holds the working-hours rules slots are generated from.
type Schedule struct {
	Location     *time.Location
	WorkingDays  []time.Weekday
	StartHour    int
	EndHour      int // exclusive
	DaysAhead    int
	SlotDuration time.Duration
	MaxSlots     int // 0 means unlimited
}

func (s Schedule) IsWorkingDay(d time.Weekday) bool {
	for _, w := range s.WorkingDays {
		if w == d {
			return true
		}
	}
	return false
}

// ServiceInfo carries display-only details about the consultation.
type ServiceInfo struct {
	Name         string
	Price        string
	AdminContact string
	Phone        string

	// Reminder lead times, used in texts only.
	ReminderDaysBefore  int
	ReminderHoursBefore int
}
