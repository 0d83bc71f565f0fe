package repository

import (
	"context"

	"hndld-backend/internal/task/domain"
)

// TaskRepository defines the interface for task data access.
// Lookups return (nil, nil) when no row matches.
type TaskRepository interface {
	// Create persists a new task, assigning an ID if empty
	Create(ctx context.Context, task *domain.Task) error

	// FindByID finds a task by ID within a household
	FindByID(ctx context.Context, householdID, id string) (*domain.Task, error)

	// FindByHousehold returns all tasks of a household, optionally filtered by status
	FindByHousehold(ctx context.Context, householdID string, status *domain.TaskStatus) ([]*domain.Task, error)

	// FindByGroup returns a recurrence series ordered by occurrence
	FindByGroup(ctx context.Context, householdID, groupID string) ([]*domain.Task, error)

	// Update applies a partial update and returns the updated task
	Update(ctx context.Context, householdID, id string, patch domain.TaskPatch) (*domain.Task, error)

	// CompleteIfOpen sets status to DONE only when the task is neither DONE
	// nor CANCELLED.
	// It reports whether this call performed the transition.
	CompleteIfOpen(ctx context.Context, householdID, id string) (bool, error)
}
