package usecase

import (
	"context"
	"time"

	hdomain "hndld-backend/internal/household/domain"
	"hndld-backend/internal/task/domain"
	"hndld-backend/pkg/metrics"
)

// TaskUsecase defines the interface for task business logic
type TaskUsecase interface {
	// CreateTask creates a task on behalf of a household member
	CreateTask(ctx context.Context, householdID, actingUserID string, input TaskInput) (*domain.Task, error)

	// GetTask retrieves a task of the household
	GetTask(ctx context.Context, householdID, taskID string) (*domain.Task, error)

	// ListTasks lists household tasks with an optional status filter
	ListTasks(ctx context.Context, householdID string, status *string) ([]*domain.Task, error)

	// CompleteTask marks a task DONE and, for recurring tasks, creates the next occurrence
	CompleteTask(ctx context.Context, householdID, taskID, actingUserID string) (*CompletionResult, error)

	// CancelTask moves a non-terminal task to CANCELLED
	CancelTask(ctx context.Context, householdID, taskID, actingUserID string) (*domain.Task, error)

	// ListRecurrenceGroup returns every occurrence of a recurring series
	ListRecurrenceGroup(ctx context.Context, householdID, groupID string) ([]*domain.Task, error)

	// SetClock overrides the wall clock used as recurrence anchor
	SetClock(now func() time.Time)

	// SetMetrics sets the collector for completion counters
	SetMetrics(m *metrics.Metrics)
}

// MembershipReader resolves the role of the acting user in a household
type MembershipReader interface {
	FindMember(ctx context.Context, householdID, userID string) (*hdomain.Member, error)
}

// TaskInput represents the fields accepted when creating a task
type TaskInput struct {
	Title                string            `json:"title" binding:"required"`
	Description          string            `json:"description"`
	Category             domain.Category   `json:"category"`
	Urgency              domain.Urgency    `json:"urgency"`
	Location             string            `json:"location"`
	Notes                string            `json:"notes"`
	Status               domain.TaskStatus `json:"status"`
	AssignedTo           *string           `json:"assigned_to"`
	DueAt                *time.Time        `json:"due_at"`
	Recurrence           domain.Recurrence `json:"recurrence"`
	RecurrenceCustomDays *int              `json:"recurrence_custom_days"`
}

// CompletionResult is returned to the caller of CompleteTask for display
type CompletionResult struct {
	CompletedTask *domain.Task `json:"completed_task"`
	NextTask      *domain.Task `json:"next_task,omitempty"`
	NextDueLabel  string       `json:"next_due_label,omitempty"`
	// AlreadyCompleted is set when the task was DONE before this call
	AlreadyCompleted bool `json:"already_completed,omitempty"`
}
