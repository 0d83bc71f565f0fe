package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"hndld-backend/internal/task/domain"
	"hndld-backend/internal/task/repository"
	"hndld-backend/pkg/metrics"
)

// taskUsecase implements TaskUsecase interface
type taskUsecase struct {
	taskRepo repository.TaskRepository
	members  MembershipReader
	timeout  time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
}

// NewTaskUsecase creates a new instance of taskUsecase. Every call runs its
// persistence work under timeout; zero disables the limit.
func NewTaskUsecase(taskRepo repository.TaskRepository, members MembershipReader, timeout time.Duration) TaskUsecase {
	return &taskUsecase{
		taskRepo: taskRepo,
		members:  members,
		timeout:  timeout,
		now:      time.Now,
	}
}

func (u *taskUsecase) SetClock(now func() time.Time) {
	u.now = now
}

func (u *taskUsecase) SetMetrics(m *metrics.Metrics) {
	u.metrics = m
}

func (u *taskUsecase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.timeout)
}

func (u *taskUsecase) CreateTask(ctx context.Context, householdID, actingUserID string, input TaskInput) (*domain.Task, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidTask)
	}
	if err := ValidateRecurrence(input.Recurrence, input.RecurrenceCustomDays); err != nil {
		return nil, err
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, input.Status)
	}

	member, err := u.members.FindMember(ctx, householdID, actingUserID)
	if err != nil {
		return nil, fmt.Errorf("load membership: %w", err)
	}
	if member == nil {
		return nil, ErrForbidden
	}

	task := &domain.Task{
		HouseholdID: householdID,
		CreatedBy:   actingUserID,
		AssignedTo:  input.AssignedTo,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Category:    input.Category,
		Urgency:     input.Urgency,
		Location:    input.Location,
		Notes:       input.Notes,
		Status:      input.Status,
		DueAt:       input.DueAt,
		Recurrence:  input.Recurrence,
	}
	if task.Category == "" {
		task.Category = domain.CategoryOther
	}
	if task.Urgency == "" {
		task.Urgency = domain.UrgencyMedium
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusInbox
	}
	if task.Recurrence == "" {
		task.Recurrence = domain.RecurrenceNone
	}
	if task.Recurrence == domain.RecurrenceCustom {
		task.RecurrenceCustomDays = input.RecurrenceCustomDays
	}
	if task.Recurrence.IsRecurring() {
		first := 1
		task.RecurrenceOccurrence = &first
	}

	if err := u.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

func (u *taskUsecase) GetTask(ctx context.Context, householdID, taskID string) (*domain.Task, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	task, err := u.taskRepo.FindByID(ctx, householdID, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

func (u *taskUsecase) ListTasks(ctx context.Context, householdID string, status *string) ([]*domain.Task, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	var statusFilter *domain.TaskStatus
	if status != nil && *status != "" {
		s := domain.TaskStatus(strings.ToUpper(*status))
		if !s.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, *status)
		}
		statusFilter = &s
	}
	return u.taskRepo.FindByHousehold(ctx, householdID, statusFilter)
}

func (u *taskUsecase) ListRecurrenceGroup(ctx context.Context, householdID, groupID string) ([]*domain.Task, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	tasks, err := u.taskRepo.FindByGroup(ctx, householdID, groupID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, ErrTaskNotFound
	}
	return tasks, nil
}

// authorize checks that the acting user may change the task. Limited members
// may only touch tasks assigned to them within their service categories.
func (u *taskUsecase) authorize(ctx context.Context, task *domain.Task, actingUserID string) error {
	member, err := u.members.FindMember(ctx, task.HouseholdID, actingUserID)
	if err != nil {
		return fmt.Errorf("load membership: %w", err)
	}
	if member == nil {
		return fmt.Errorf("%w: not a member of this household", ErrForbidden)
	}
	if !member.IsLimited() {
		return nil
	}
	if !task.IsAssignedTo(actingUserID) {
		return fmt.Errorf("%w: task is not assigned to you", ErrForbidden)
	}
	if !member.CanServe(string(task.Category)) {
		return fmt.Errorf("%w: category %s is outside your service scope", ErrForbidden, task.Category)
	}
	return nil
}

func (u *taskUsecase) CompleteTask(ctx context.Context, householdID, taskID, actingUserID string) (*CompletionResult, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	task, err := u.taskRepo.FindByID(ctx, householdID, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if err := u.authorize(ctx, task, actingUserID); err != nil {
		return nil, err
	}
	if task.Status == domain.TaskStatusCancelled {
		return nil, fmt.Errorf("%w: task is cancelled", ErrInvalidTransition)
	}

	completed, err := u.taskRepo.CompleteIfOpen(ctx, householdID, taskID)
	if err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	if !completed {
		// Lost the race or the task was already DONE: no second successor.
		current, err := u.taskRepo.FindByID(ctx, householdID, taskID)
		if err != nil {
			return nil, fmt.Errorf("load task: %w", err)
		}
		if current == nil {
			return nil, ErrTaskNotFound
		}
		if current.Status == domain.TaskStatusCancelled {
			return nil, fmt.Errorf("%w: task is cancelled", ErrInvalidTransition)
		}
		log.Printf("[TaskUsecase] Task %s already completed, skipping recurrence", taskID)
		return &CompletionResult{CompletedTask: current, AlreadyCompleted: true}, nil
	}

	task.Status = domain.TaskStatusDone
	u.metrics.TaskCompleted(task.Recurrence.IsRecurring())
	result := &CompletionResult{CompletedTask: task}

	if !task.Recurrence.IsRecurring() {
		return result, nil
	}
	nextDue := NextOccurrenceAt(task.Recurrence, task.RecurrenceCustomDays, task.DueAt, u.now())
	if nextDue == nil {
		return result, nil
	}

	groupID := task.ID
	if task.RecurrenceGroupID != nil {
		groupID = *task.RecurrenceGroupID
	}
	occurrence := task.Occurrence() + 1

	next := &domain.Task{
		HouseholdID:          householdID,
		CreatedBy:            actingUserID,
		AssignedTo:           task.AssignedTo,
		Title:                task.Title,
		Description:          task.Description,
		Category:             task.Category,
		Urgency:              task.Urgency,
		Location:             task.Location,
		Notes:                task.Notes,
		Status:               domain.TaskStatusPlanned,
		DueAt:                nextDue,
		Recurrence:           task.Recurrence,
		RecurrenceCustomDays: task.RecurrenceCustomDays,
		RecurrenceGroupID:    &groupID,
		RecurrenceOccurrence: &occurrence,
	}
	if err := u.taskRepo.Create(ctx, next); err != nil {
		return nil, fmt.Errorf("create next occurrence: %w", err)
	}
	u.metrics.SuccessorCreated()

	if task.RecurrenceGroupID == nil {
		updated, err := u.taskRepo.Update(ctx, householdID, task.ID, domain.TaskPatch{RecurrenceGroupID: &groupID})
		if err != nil {
			return nil, fmt.Errorf("anchor recurrence group: %w", err)
		}
		if updated != nil {
			task = updated
		} else {
			task.RecurrenceGroupID = &groupID
		}
	}

	log.Printf("[TaskUsecase] Task %s completed, occurrence %d of group %s due %s",
		task.ID, occurrence, groupID, nextDue.Format(time.RFC3339))

	result.CompletedTask = task
	result.NextTask = next
	result.NextDueLabel = nextDue.Format(DueLabelLayout)
	return result, nil
}

func (u *taskUsecase) CancelTask(ctx context.Context, householdID, taskID, actingUserID string) (*domain.Task, error) {
	ctx, cancel := u.withTimeout(ctx)
	defer cancel()

	task, err := u.taskRepo.FindByID(ctx, householdID, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	if err := u.authorize(ctx, task, actingUserID); err != nil {
		return nil, err
	}
	if task.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: task is already %s", ErrInvalidTransition, task.Status)
	}

	cancelled := domain.TaskStatusCancelled
	updated, err := u.taskRepo.Update(ctx, householdID, taskID, domain.TaskPatch{Status: &cancelled})
	if err != nil {
		return nil, fmt.Errorf("cancel task: %w", err)
	}
	if updated == nil {
		return nil, ErrTaskNotFound
	}
	return updated, nil
}
