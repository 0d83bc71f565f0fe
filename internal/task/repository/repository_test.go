package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"hndld-backend/internal/task/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSQLiteRepository(t *testing.T) TaskRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&domain.Task{}))
	return NewGormTaskRepository(db)
}

// runRepositoryTests exercises every backend against the same expectations
func runRepositoryTests(t *testing.T, newRepo func(t *testing.T) TaskRepository) {
	ctx := context.Background()

	t.Run("create assigns id and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		task := &domain.Task{HouseholdID: "hh-1", CreatedBy: "u-1", Title: "Water plants", Status: domain.TaskStatusInbox}
		require.NoError(t, repo.Create(ctx, task))

		assert.NotEmpty(t, task.ID)
		assert.False(t, task.CreatedAt.IsZero())

		got, err := repo.FindByID(ctx, "hh-1", task.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Water plants", got.Title)
	})

	t.Run("find is scoped to household", func(t *testing.T) {
		repo := newRepo(t)
		task := &domain.Task{HouseholdID: "hh-1", CreatedBy: "u-1", Title: "Private", Status: domain.TaskStatusInbox}
		require.NoError(t, repo.Create(ctx, task))

		got, err := repo.FindByID(ctx, "hh-2", task.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		missing, err := repo.FindByID(ctx, "hh-1", "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("list filters by status and orders by due date", func(t *testing.T) {
		repo := newRepo(t)
		late := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
		early := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
		require.NoError(t, repo.Create(ctx, &domain.Task{HouseholdID: "hh-1", CreatedBy: "u", Title: "undated", Status: domain.TaskStatusPlanned}))
		require.NoError(t, repo.Create(ctx, &domain.Task{HouseholdID: "hh-1", CreatedBy: "u", Title: "late", Status: domain.TaskStatusPlanned, DueAt: &late}))
		require.NoError(t, repo.Create(ctx, &domain.Task{HouseholdID: "hh-1", CreatedBy: "u", Title: "early", Status: domain.TaskStatusPlanned, DueAt: &early}))
		require.NoError(t, repo.Create(ctx, &domain.Task{HouseholdID: "hh-1", CreatedBy: "u", Title: "done", Status: domain.TaskStatusDone}))
		require.NoError(t, repo.Create(ctx, &domain.Task{HouseholdID: "hh-2", CreatedBy: "u", Title: "elsewhere", Status: domain.TaskStatusPlanned}))

		planned := domain.TaskStatusPlanned
		tasks, err := repo.FindByHousehold(ctx, "hh-1", &planned)
		require.NoError(t, err)
		titles := make([]string, 0, len(tasks))
		for _, task := range tasks {
			titles = append(titles, task.Title)
		}
		assert.Equal(t, []string{"early", "late", "undated"}, titles)

		all, err := repo.FindByHousehold(ctx, "hh-1", nil)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("update applies patch", func(t *testing.T) {
		repo := newRepo(t)
		task := &domain.Task{HouseholdID: "hh-1", CreatedBy: "u", Title: "Old", Status: domain.TaskStatusInbox}
		require.NoError(t, repo.Create(ctx, task))

		title := "New"
		status := domain.TaskStatusInProgress
		updated, err := repo.Update(ctx, "hh-1", task.ID, domain.TaskPatch{Title: &title, Status: &status})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "New", updated.Title)
		assert.Equal(t, domain.TaskStatusInProgress, updated.Status)

		missing, err := repo.Update(ctx, "hh-2", task.ID, domain.TaskPatch{Title: &title})
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("complete if open succeeds once", func(t *testing.T) {
		repo := newRepo(t)
		task := &domain.Task{HouseholdID: "hh-1", CreatedBy: "u", Title: "Once", Status: domain.TaskStatusPlanned}
		require.NoError(t, repo.Create(ctx, task))

		ok, err := repo.CompleteIfOpen(ctx, "hh-1", task.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.CompleteIfOpen(ctx, "hh-1", task.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.FindByID(ctx, "hh-1", task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusDone, got.Status)
	})

	t.Run("complete if open leaves cancelled tasks alone", func(t *testing.T) {
		repo := newRepo(t)
		task := &domain.Task{HouseholdID: "hh-1", CreatedBy: "u", Title: "Dropped", Status: domain.TaskStatusCancelled}
		require.NoError(t, repo.Create(ctx, task))

		ok, err := repo.CompleteIfOpen(ctx, "hh-1", task.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := repo.FindByID(ctx, "hh-1", task.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusCancelled, got.Status)
	})

	t.Run("group includes the root and orders by occurrence", func(t *testing.T) {
		repo := newRepo(t)
		root := &domain.Task{HouseholdID: "hh-1", CreatedBy: "u", Title: "Trash", Status: domain.TaskStatusDone, Recurrence: domain.RecurrenceWeekly}
		require.NoError(t, repo.Create(ctx, root))

		for _, n := range []int{3, 2} {
			occurrence := n
			group := root.ID
			require.NoError(t, repo.Create(ctx, &domain.Task{
				HouseholdID:          "hh-1",
				CreatedBy:            "u",
				Title:                "Trash",
				Status:               domain.TaskStatusInbox,
				Recurrence:           domain.RecurrenceWeekly,
				RecurrenceGroupID:    &group,
				RecurrenceOccurrence: &occurrence,
			}))
		}

		tasks, err := repo.FindByGroup(ctx, "hh-1", root.ID)
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, root.ID, tasks[0].ID)
		assert.Equal(t, 2, tasks[1].Occurrence())
		assert.Equal(t, 3, tasks[2].Occurrence())

		other, err := repo.FindByGroup(ctx, "hh-2", root.ID)
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}

func TestMemoryTaskRepository(t *testing.T) {
	runRepositoryTests(t, func(t *testing.T) TaskRepository {
		return NewMemoryTaskRepository()
	})
}

func TestGormTaskRepository(t *testing.T) {
	runRepositoryTests(t, newSQLiteRepository)
}

func TestMemoryTaskRepository_ConcurrentCompleteIfOpen(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTaskRepository()
	task := &domain.Task{HouseholdID: "hh-1", Title: "Race", Status: domain.TaskStatusPlanned}
	require.NoError(t, repo.Create(ctx, task))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.CompleteIfOpen(ctx, "hh-1", task.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMemoryTaskRepository_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewMemoryTaskRepository()
	err := repo.Create(ctx, &domain.Task{HouseholdID: "hh-1", Title: "late"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, repo.Len())
}
