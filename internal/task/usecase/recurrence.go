package usecase

import (
	"time"

	"hndld-backend/internal/task/domain"
)

// DueLabelLayout formats the next due date shown after a completion
const DueLabelLayout = "Mon, Jan 2"

// CalculateNextOccurrence returns the due date of the occurrence following
// currentDueAt, anchored at the current time when currentDueAt is nil.
// It returns nil when the rule produces no successor.
func CalculateNextOccurrence(recurrence domain.Recurrence, customDays *int, currentDueAt *time.Time) *time.Time {
	return NextOccurrenceAt(recurrence, customDays, currentDueAt, time.Now())
}

// NextOccurrenceAt is CalculateNextOccurrence with an explicit clock reading
func NextOccurrenceAt(recurrence domain.Recurrence, customDays *int, currentDueAt *time.Time, now time.Time) *time.Time {
	anchor := now
	if currentDueAt != nil {
		anchor = *currentDueAt
	}

	var next time.Time
	switch recurrence {
	case domain.RecurrenceDaily:
		next = anchor.AddDate(0, 0, 1)
	case domain.RecurrenceWeekly:
		next = anchor.AddDate(0, 0, 7)
	case domain.RecurrenceBiweekly:
		next = anchor.AddDate(0, 0, 14)
	case domain.RecurrenceMonthly:
		next = addMonthsClamped(anchor, 1)
	case domain.RecurrenceCustom:
		if customDays == nil || *customDays <= 0 {
			return nil
		}
		next = anchor.AddDate(0, 0, *customDays)
	default:
		return nil
	}
	return &next
}

// addMonthsClamped keeps the day of month, clamped to the length of the
// target month (Jan 31 + 1 month is the last day of February).
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// ValidateRecurrence checks that a recurrence rule can be stored on a task
func ValidateRecurrence(recurrence domain.Recurrence, customDays *int) error {
	switch recurrence {
	case "", domain.RecurrenceNone, domain.RecurrenceDaily, domain.RecurrenceWeekly,
		domain.RecurrenceBiweekly, domain.RecurrenceMonthly:
		return nil
	case domain.RecurrenceCustom:
		if customDays == nil || *customDays <= 0 {
			return ErrInvalidRecurrence
		}
		return nil
	}
	return ErrInvalidRecurrence
}
