package domain

import "time"

// ImportantDateType classifies an important date
type ImportantDateType string

const (
	ImportantDateBirthday    ImportantDateType = "BIRTHDAY"
	ImportantDateAnniversary ImportantDateType = "ANNIVERSARY"
	ImportantDateHoliday     ImportantDateType = "HOLIDAY"
	ImportantDateOther       ImportantDateType = "OTHER"
)

// ImportantDate is an annually recurring date of a household.
// Only the month and day of Date are meaningful.
type ImportantDate struct {
	ID          string            `json:"id" gorm:"primaryKey"`
	HouseholdID string            `json:"household_id" gorm:"index;not null"`
	Title       string            `json:"title" gorm:"not null"`
	Date        time.Time         `json:"date" gorm:"not null"`
	Notes       string            `json:"notes,omitempty"`
	Type        ImportantDateType `json:"type" gorm:"default:OTHER"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
