package repository

import (
	"context"
	"errors"
	"time"

	"hndld-backend/internal/task/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormTaskRepository implements TaskRepository using GORM
type gormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based TaskRepository
func NewGormTaskRepository(db *gorm.DB) TaskRepository {
	return &gormTaskRepository{db: db}
}

func (r *gormTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *gormTaskRepository) FindByID(ctx context.Context, householdID, id string) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND household_id = ?", id, householdID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *gormTaskRepository) FindByHousehold(ctx context.Context, householdID string, status *domain.TaskStatus) ([]*domain.Task, error) {
	var tasks []*domain.Task

	query := r.db.WithContext(ctx).Model(&domain.Task{}).Where("household_id = ?", householdID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	// due_at ascending with nulls last, then newest first
	err := query.Order("CASE WHEN due_at IS NULL THEN 1 ELSE 0 END, due_at ASC, created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) FindByGroup(ctx context.Context, householdID, groupID string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	err := r.db.WithContext(ctx).
		Where("household_id = ? AND (recurrence_group_id = ? OR id = ?)", householdID, groupID, groupID).
		Order("COALESCE(recurrence_occurrence, 1) ASC, created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *gormTaskRepository) Update(ctx context.Context, householdID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	cols := patch.Columns()
	cols["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND household_id = ?", id, householdID).
		Updates(cols)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, householdID, id)
}

func (r *gormTaskRepository) CompleteIfOpen(ctx context.Context, householdID, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND household_id = ? AND status NOT IN ?", id, householdID,
			[]domain.TaskStatus{domain.TaskStatusDone, domain.TaskStatusCancelled}).
		Updates(map[string]interface{}{
			"status":     domain.TaskStatusDone,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
