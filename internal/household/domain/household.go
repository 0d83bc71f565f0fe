package domain

import (
	"slices"
	"time"
)

// Role is a member's role inside a household
type Role string

const (
	RoleAssistant Role = "ASSISTANT"
	RoleClient    Role = "CLIENT"
	// RoleStaff is limited to tasks assigned to them within their service categories
	RoleStaff Role = "STAFF"
)

// Household is the tenant boundary every task and important date belongs to
type Household struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Member links a user to a household with a role
type Member struct {
	ID                string    `json:"id" gorm:"primaryKey"`
	HouseholdID       string    `json:"household_id" gorm:"uniqueIndex:idx_member_household_user;not null"`
	UserID            string    `json:"user_id" gorm:"uniqueIndex:idx_member_household_user;not null"`
	Role              Role      `json:"role" gorm:"not null"`
	ServiceCategories []string  `json:"service_categories,omitempty" gorm:"serializer:json"`
	CreatedAt         time.Time `json:"created_at"`
}

// IsLimited reports whether the member is restricted to their own assignments
func (m *Member) IsLimited() bool {
	return m.Role == RoleStaff
}

// CanServe reports whether category is within the member's service scope
func (m *Member) CanServe(category string) bool {
	return slices.Contains(m.ServiceCategories, category)
}
