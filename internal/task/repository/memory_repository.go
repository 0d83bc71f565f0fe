package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"hndld-backend/internal/task/domain"

	"github.com/google/uuid"
)

// MemoryTaskRepository keeps tasks in process memory. It backs the
// "memory" storage driver and the usecase tests.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
}

// NewMemoryTaskRepository creates an empty in-memory repository
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: map[string]domain.Task{}}
}

func (r *MemoryTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	r.tasks[task.ID] = *task
	return nil
}

func (r *MemoryTaskRepository) FindByID(ctx context.Context, householdID, id string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok || t.HouseholdID != householdID {
		return nil, nil
	}
	return &t, nil
}

func (r *MemoryTaskRepository) FindByHousehold(ctx context.Context, householdID string, status *domain.TaskStatus) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Task, 0)
	for _, t := range r.tasks {
		if t.HouseholdID != householdID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		t := t
		out = append(out, &t)
	}

	// Sort: due soonest first (nil due dates last), then newest first
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].DueAt, out[j].DueAt
		switch {
		case di == nil && dj == nil:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		case di == nil:
			return false
		case dj == nil:
			return true
		case !di.Equal(*dj):
			return di.Before(*dj)
		default:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
	})
	return out, nil
}

func (r *MemoryTaskRepository) FindByGroup(ctx context.Context, householdID, groupID string) ([]*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Task, 0)
	for _, t := range r.tasks {
		if t.HouseholdID != householdID {
			continue
		}
		inGroup := t.ID == groupID || (t.RecurrenceGroupID != nil && *t.RecurrenceGroupID == groupID)
		if !inGroup {
			continue
		}
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Occurrence() < out[j].Occurrence()
	})
	return out, nil
}

func (r *MemoryTaskRepository) Update(ctx context.Context, householdID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.HouseholdID != householdID {
		return nil, nil
	}
	patch.Apply(&t)
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return &t, nil
}

func (r *MemoryTaskRepository) CompleteIfOpen(ctx context.Context, householdID, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.HouseholdID != householdID || t.Status.IsTerminal() {
		return false, nil
	}
	t.Status = domain.TaskStatusDone
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return true, nil
}

// Len returns the number of stored tasks
func (r *MemoryTaskRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
