package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	hdomain "hndld-backend/internal/household/domain"
	hrepo "hndld-backend/internal/household/repository"
	"hndld-backend/internal/task/domain"
	"hndld-backend/internal/task/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	householdID = "hh-1"
	assistantID = "u-assistant"
	staffID     = "u-staff"
)

var fixedNow = time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC)

type fixture struct {
	uc    TaskUsecase
	tasks *repository.MemoryTaskRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, repository.NewMemoryTaskRepository())
}

func newFixtureWithRepo(t *testing.T, tasks *repository.MemoryTaskRepository, wrap ...func(repository.TaskRepository) repository.TaskRepository) *fixture {
	t.Helper()
	ctx := context.Background()

	households := hrepo.NewMemoryHouseholdRepository()
	require.NoError(t, households.Create(ctx, &hdomain.Household{ID: householdID, Name: "Test"}))
	require.NoError(t, households.AddMember(ctx, &hdomain.Member{HouseholdID: householdID, UserID: assistantID, Role: hdomain.RoleAssistant}))
	require.NoError(t, households.AddMember(ctx, &hdomain.Member{
		HouseholdID:       householdID,
		UserID:            staffID,
		Role:              hdomain.RoleStaff,
		ServiceCategories: []string{string(domain.CategoryHousehold), string(domain.CategoryErrands)},
	}))

	var repo repository.TaskRepository = tasks
	for _, w := range wrap {
		repo = w(repo)
	}
	uc := NewTaskUsecase(repo, households, time.Second)
	uc.SetClock(func() time.Time { return fixedNow })
	return &fixture{uc: uc, tasks: tasks}
}

func (f *fixture) seed(t *testing.T, task *domain.Task) *domain.Task {
	t.Helper()
	if task.HouseholdID == "" {
		task.HouseholdID = householdID
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPlanned
	}
	if task.CreatedBy == "" {
		task.CreatedBy = assistantID
	}
	require.NoError(t, f.tasks.Create(context.Background(), task))
	return task
}

func (f *fixture) get(t *testing.T, id string) *domain.Task {
	t.Helper()
	task, err := f.tasks.FindByID(context.Background(), householdID, id)
	require.NoError(t, err)
	require.NotNil(t, task)
	return task
}

func TestCompleteTask_WeeklyCreatesLinkedSuccessor(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	original := f.seed(t, &domain.Task{
		Title:       "Water the plants",
		Description: "Front porch and kitchen",
		Category:    domain.CategoryHousehold,
		Urgency:     domain.UrgencyHigh,
		Location:    "Porch",
		DueAt:       &due,
		Recurrence:  domain.RecurrenceWeekly,
	})

	result, err := f.uc.CompleteTask(context.Background(), householdID, original.ID, assistantID)
	require.NoError(t, err)

	require.NotNil(t, result.CompletedTask.RecurrenceGroupID)
	assert.Equal(t, original.ID, *result.CompletedTask.RecurrenceGroupID)
	assert.Equal(t, domain.TaskStatusDone, result.CompletedTask.Status)

	stored := f.get(t, original.ID)
	assert.Equal(t, domain.TaskStatusDone, stored.Status)
	require.NotNil(t, stored.RecurrenceGroupID)
	assert.Equal(t, original.ID, *stored.RecurrenceGroupID)

	next := result.NextTask
	require.NotNil(t, next)
	assert.NotEqual(t, original.ID, next.ID)
	require.NotNil(t, next.RecurrenceGroupID)
	assert.Equal(t, original.ID, *next.RecurrenceGroupID)
	require.NotNil(t, next.RecurrenceOccurrence)
	assert.Equal(t, 2, *next.RecurrenceOccurrence)
	require.NotNil(t, next.DueAt)
	assert.True(t, due.AddDate(0, 0, 7).Equal(*next.DueAt))
	assert.Equal(t, domain.TaskStatusPlanned, next.Status)
	assert.Equal(t, original.Title, next.Title)
	assert.Equal(t, original.Description, next.Description)
	assert.Equal(t, original.Category, next.Category)
	assert.Equal(t, original.Urgency, next.Urgency)
	assert.Equal(t, original.Location, next.Location)
	assert.Equal(t, domain.RecurrenceWeekly, next.Recurrence)
	assert.Equal(t, assistantID, next.CreatedBy)
	assert.Equal(t, householdID, next.HouseholdID)
	assert.Equal(t, "Mon, Jan 8", result.NextDueLabel)

	assert.Equal(t, 2, f.tasks.Len())
}

func TestCompleteTask_ChainKeepsGroupAndIncrementsOccurrence(t *testing.T) {
	f := newFixture(t)
	due := time.Date(2024, time.January, 31, 10, 0, 0, 0, time.UTC)
	original := f.seed(t, &domain.Task{Title: "Pay rent", Category: domain.CategoryErrands, DueAt: &due, Recurrence: domain.RecurrenceMonthly})

	first, err := f.uc.CompleteTask(context.Background(), householdID, original.ID, assistantID)
	require.NoError(t, err)
	second, err := f.uc.CompleteTask(context.Background(), householdID, first.NextTask.ID, assistantID)
	require.NoError(t, err)

	require.NotNil(t, second.NextTask)
	assert.Equal(t, original.ID, *second.NextTask.RecurrenceGroupID)
	assert.Equal(t, 3, *second.NextTask.RecurrenceOccurrence)
	assert.True(t, time.Date(2024, time.March, 29, 10, 0, 0, 0, time.UTC).Equal(*second.NextTask.DueAt),
		"Feb 29 + 1 month, got %s", second.NextTask.DueAt)

	series, err := f.uc.ListRecurrenceGroup(context.Background(), householdID, original.ID)
	require.NoError(t, err)
	require.Len(t, series, 3)
	for i, task := range series {
		assert.Equal(t, i+1, task.Occurrence())
	}
	assert.Equal(t, domain.TaskStatusDone, series[0].Status)
	assert.Equal(t, domain.TaskStatusDone, series[1].Status)
	assert.Equal(t, domain.TaskStatusPlanned, series[2].Status)
}

func TestCompleteTask_WithoutRecurrenceCreatesNoSuccessor(t *testing.T) {
	for _, rec := range []domain.Recurrence{domain.RecurrenceNone, ""} {
		t.Run(string(rec)+"_recurrence", func(t *testing.T) {
			f := newFixture(t)
			task := f.seed(t, &domain.Task{Title: "One-off", Category: domain.CategoryHousehold, Recurrence: rec})

			result, err := f.uc.CompleteTask(context.Background(), householdID, task.ID, assistantID)
			require.NoError(t, err)

			assert.Nil(t, result.NextTask)
			assert.Empty(t, result.NextDueLabel)
			assert.Equal(t, domain.TaskStatusDone, f.get(t, task.ID).Status)
			assert.Nil(t, f.get(t, task.ID).RecurrenceGroupID)
			assert.Equal(t, 1, f.tasks.Len())
		})
	}
}

func TestCompleteTask_CustomWithoutDaysGivesUp(t *testing.T) {
	f := newFixture(t)
	task := f.seed(t, &domain.Task{Title: "Odd", Recurrence: domain.RecurrenceCustom, RecurrenceCustomDays: intPtr(0)})

	result, err := f.uc.CompleteTask(context.Background(), householdID, task.ID, assistantID)
	require.NoError(t, err)
	assert.Nil(t, result.NextTask)
	assert.Equal(t, domain.TaskStatusDone, f.get(t, task.ID).Status)
	assert.Equal(t, 1, f.tasks.Len())
}

func TestCompleteTask_AnchorsAtNowWithoutDueDate(t *testing.T) {
	f := newFixture(t)
	task := f.seed(t, &domain.Task{Title: "Feed the cat", Category: domain.CategoryPets, Recurrence: domain.RecurrenceDaily})

	result, err := f.uc.CompleteTask(context.Background(), householdID, task.ID, assistantID)
	require.NoError(t, err)
	require.NotNil(t, result.NextTask)
	assert.True(t, fixedNow.AddDate(0, 0, 1).Equal(*result.NextTask.DueAt))
}

func TestCompleteTask_ExistingGroupIsNotOverwritten(t *testing.T) {
	f := newFixture(t)
	group := "group-root"
	due := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	task := f.seed(t, &domain.Task{
		Title:                "Trash day",
		DueAt:                &due,
		Recurrence:           domain.RecurrenceCustom,
		RecurrenceCustomDays: intPtr(3),
		RecurrenceGroupID:    &group,
		RecurrenceOccurrence: intPtr(4),
	})

	result, err := f.uc.CompleteTask(context.Background(), householdID, task.ID, assistantID)
	require.NoError(t, err)

	assert.Equal(t, group, *f.get(t, task.ID).RecurrenceGroupID)
	assert.Equal(t, group, *result.NextTask.RecurrenceGroupID)
	assert.Equal(t, 5, *result.NextTask.RecurrenceOccurrence)
	assert.Equal(t, 3, *result.NextTask.RecurrenceCustomDays)
	assert.True(t, due.AddDate(0, 0, 3).Equal(*result.NextTask.DueAt))
}

func TestCompleteTask_NotFound(t *testing.T) {
	f := newFixture(t)
	other := f.seed(t, &domain.Task{Title: "Elsewhere", HouseholdID: "hh-2"})

	_, err := f.uc.CompleteTask(context.Background(), householdID, "missing", assistantID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	_, err = f.uc.CompleteTask(context.Background(), householdID, other.ID, assistantID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCompleteTask_Authorization(t *testing.T) {
	staff := staffID
	someoneElse := "u-other-staff"

	tests := []struct {
		name    string
		actor   string
		task    domain.Task
		wantErr error
	}{
		{
			name:    "staff on task assigned to someone else",
			actor:   staffID,
			task:    domain.Task{Title: "Not mine", Category: domain.CategoryHousehold, AssignedTo: &someoneElse, Recurrence: domain.RecurrenceWeekly},
			wantErr: ErrForbidden,
		},
		{
			name:    "staff on unassigned task",
			actor:   staffID,
			task:    domain.Task{Title: "Nobody's", Category: domain.CategoryHousehold, Recurrence: domain.RecurrenceWeekly},
			wantErr: ErrForbidden,
		},
		{
			name:    "staff outside service scope",
			actor:   staffID,
			task:    domain.Task{Title: "Fix boiler", Category: domain.CategoryMaintenance, AssignedTo: &staff, Recurrence: domain.RecurrenceWeekly},
			wantErr: ErrForbidden,
		},
		{
			name:    "not a member",
			actor:   "u-stranger",
			task:    domain.Task{Title: "Groceries", Category: domain.CategoryGroceries, Recurrence: domain.RecurrenceWeekly},
			wantErr: ErrForbidden,
		},
		{
			name:  "staff on own task in scope",
			actor: staffID,
			task:  domain.Task{Title: "Dry cleaning", Category: domain.CategoryErrands, AssignedTo: &staff, Recurrence: domain.RecurrenceWeekly},
		},
		{
			name:  "assistant on anything",
			actor: assistantID,
			task:  domain.Task{Title: "Fix gate", Category: domain.CategoryMaintenance, AssignedTo: &someoneElse, Recurrence: domain.RecurrenceWeekly},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			task := tt.task
			f.seed(t, &task)

			result, err := f.uc.CompleteTask(context.Background(), householdID, task.ID, tt.actor)
			stored := f.get(t, task.ID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				assert.Equal(t, domain.TaskStatusPlanned, stored.Status)
				assert.Nil(t, stored.RecurrenceGroupID)
				assert.Equal(t, 1, f.tasks.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.TaskStatusDone, stored.Status)
			assert.NotNil(t, result.NextTask)
		})
	}
}

func TestCompleteTask_SecondCompletionDoesNotDuplicateSuccessor(t *testing.T) {
	f := newFixture(t)
	task := f.seed(t, &domain.Task{Title: "Walk dog", Category: domain.CategoryPets, Recurrence: domain.RecurrenceDaily})

	first, err := f.uc.CompleteTask(context.Background(), householdID, task.ID, assistantID)
	require.NoError(t, err)
	require.NotNil(t, first.NextTask)

	second, err := f.uc.CompleteTask(context.Background(), householdID, task.ID, assistantID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyCompleted)
	assert.Nil(t, second.NextTask)
	assert.Equal(t, domain.TaskStatusDone, second.CompletedTask.Status)
	assert.Equal(t, 2, f.tasks.Len())
}

func TestCompleteTask_CancelledTaskIsRejected(t *testing.T) {
	f := newFixture(t)
	task := f.seed(t, &domain.Task{
		Title:      "Water lawn",
		Category:   domain.CategoryHousehold,
		Status:     domain.TaskStatusCancelled,
		Recurrence: domain.RecurrenceWeekly,
	})

	result, err := f.uc.CompleteTask(context.Background(), householdID, task.ID, assistantID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Nil(t, result)

	assert.Equal(t, domain.TaskStatusCancelled, f.get(t, task.ID).Status)
	assert.Equal(t, 1, f.tasks.Len())
}

// staleReadRepo serves the first FindByID with the status the task had before
// a concurrent cancellation landed.
type staleReadRepo struct {
	repository.TaskRepository
	mu     sync.Mutex
	served bool
}

func (r *staleReadRepo) FindByID(ctx context.Context, householdID, id string) (*domain.Task, error) {
	task, err := r.TaskRepository.FindByID(ctx, householdID, id)
	if err != nil || task == nil {
		return task, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.served {
		r.served = true
		task.Status = domain.TaskStatusPlanned
	}
	return task, nil
}

func TestCompleteTask_CancelledConcurrentlyIsRejected(t *testing.T) {
	tasks := repository.NewMemoryTaskRepository()
	f := newFixtureWithRepo(t, tasks, func(r repository.TaskRepository) repository.TaskRepository {
		return &staleReadRepo{TaskRepository: r}
	})
	task := f.seed(t, &domain.Task{
		Title:      "Sweep porch",
		Category:   domain.CategoryHousehold,
		Status:     domain.TaskStatusCancelled,
		Recurrence: domain.RecurrenceDaily,
	})

	_, err := f.uc.CompleteTask(context.Background(), householdID, task.ID, assistantID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, domain.TaskStatusCancelled, f.get(t, task.ID).Status)
	assert.Equal(t, 1, f.tasks.Len())
}

func TestCompleteTask_ConcurrentCompletionsCreateOneSuccessor(t *testing.T) {
	f := newFixture(t)
	task := f.seed(t, &domain.Task{Title: "Take out bins", Category: domain.CategoryHousehold, Recurrence: domain.RecurrenceWeekly})

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successors int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.uc.CompleteTask(context.Background(), householdID, task.ID, assistantID)
			if err != nil {
				t.Errorf("complete: %v", err)
				return
			}
			if result.NextTask != nil {
				mu.Lock()
				successors++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successors)
	assert.Equal(t, 2, f.tasks.Len())
}

type failingCreateRepo struct {
	repository.TaskRepository
}

func (r failingCreateRepo) Create(ctx context.Context, task *domain.Task) error {
	return errors.New("connection reset")
}

func TestCompleteTask_SuccessorFailureLeavesTaskDone(t *testing.T) {
	tasks := repository.NewMemoryTaskRepository()
	f := newFixtureWithRepo(t, tasks, func(r repository.TaskRepository) repository.TaskRepository {
		return failingCreateRepo{r}
	})
	task := f.seed(t, &domain.Task{Title: "Laundry", Recurrence: domain.RecurrenceWeekly})

	_, err := f.uc.CompleteTask(context.Background(), householdID, task.ID, assistantID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	assert.Equal(t, domain.TaskStatusDone, f.get(t, task.ID).Status)
	assert.Equal(t, 1, tasks.Len())
}

func TestCancelTask(t *testing.T) {
	f := newFixture(t)
	task := f.seed(t, &domain.Task{Title: "Book dentist", Status: domain.TaskStatusInbox})

	cancelled, err := f.uc.CancelTask(context.Background(), householdID, task.ID, assistantID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCancelled, cancelled.Status)

	_, err = f.uc.CancelTask(context.Background(), householdID, task.ID, assistantID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.uc.CancelTask(context.Background(), householdID, "missing", assistantID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.uc.CreateTask(ctx, householdID, assistantID, TaskInput{Title: "  Order flowers "})
	require.NoError(t, err)
	assert.Equal(t, "Order flowers", task.Title)
	assert.Equal(t, domain.TaskStatusInbox, task.Status)
	assert.Equal(t, domain.CategoryOther, task.Category)
	assert.Equal(t, domain.UrgencyMedium, task.Urgency)
	assert.Equal(t, domain.RecurrenceNone, task.Recurrence)
	assert.Nil(t, task.RecurrenceOccurrence)

	recurring, err := f.uc.CreateTask(ctx, householdID, assistantID, TaskInput{
		Title:                "Change filters",
		Recurrence:           domain.RecurrenceCustom,
		RecurrenceCustomDays: intPtr(90),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, recurring.Occurrence())
	assert.Equal(t, 90, *recurring.RecurrenceCustomDays)

	_, err = f.uc.CreateTask(ctx, householdID, assistantID, TaskInput{Title: "Bad", Recurrence: domain.RecurrenceCustom})
	assert.ErrorIs(t, err, ErrInvalidRecurrence)

	_, err = f.uc.CreateTask(ctx, householdID, assistantID, TaskInput{Title: " "})
	assert.ErrorIs(t, err, ErrInvalidTask)

	_, err = f.uc.CreateTask(ctx, householdID, "u-stranger", TaskInput{Title: "Sneaky"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListTasks_StatusFilter(t *testing.T) {
	f := newFixture(t)
	f.seed(t, &domain.Task{Title: "a", Status: domain.TaskStatusInbox})
	f.seed(t, &domain.Task{Title: "b", Status: domain.TaskStatusPlanned})

	status := "inbox"
	tasks, err := f.uc.ListTasks(context.Background(), householdID, &status)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].Title)

	bad := "SOMEDAY"
	_, err = f.uc.ListTasks(context.Background(), householdID, &bad)
	assert.ErrorIs(t, err, ErrInvalidTask)
}
