package repository

import (
	"context"

	"hndld-backend/internal/household/domain"
)

// HouseholdRepository defines data access for households, their members
// and their important dates
type HouseholdRepository interface {
	Create(ctx context.Context, household *domain.Household) error
	FindByID(ctx context.Context, id string) (*domain.Household, error)
	FindAll(ctx context.Context) ([]*domain.Household, error)

	AddMember(ctx context.Context, member *domain.Member) error
	// FindMember returns (nil, nil) when the user is not a member
	FindMember(ctx context.Context, householdID, userID string) (*domain.Member, error)
	FindMembers(ctx context.Context, householdID string) ([]*domain.Member, error)

	CreateImportantDate(ctx context.Context, date *domain.ImportantDate) error
	FindImportantDates(ctx context.Context, householdID string) ([]*domain.ImportantDate, error)
	// DeleteImportantDate reports whether a row was removed
	DeleteImportantDate(ctx context.Context, householdID, id string) (bool, error)
}
