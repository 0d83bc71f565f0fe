package repository

import (
	"context"
	"errors"
	"time"

	"hndld-backend/internal/household/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// gormHouseholdRepository implements HouseholdRepository using GORM
type gormHouseholdRepository struct {
	db *gorm.DB
}

// NewGormHouseholdRepository creates a new GORM-based HouseholdRepository
func NewGormHouseholdRepository(db *gorm.DB) HouseholdRepository {
	return &gormHouseholdRepository{db: db}
}

func (r *gormHouseholdRepository) Create(ctx context.Context, household *domain.Household) error {
	if household.ID == "" {
		household.ID = uuid.New().String()
	}
	household.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(household).Error
}

func (r *gormHouseholdRepository) FindByID(ctx context.Context, id string) (*domain.Household, error) {
	var household domain.Household
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&household).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &household, nil
}

func (r *gormHouseholdRepository) FindAll(ctx context.Context) ([]*domain.Household, error) {
	var households []*domain.Household
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&households).Error
	return households, err
}

func (r *gormHouseholdRepository) AddMember(ctx context.Context, member *domain.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	member.CreatedAt = time.Now()
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *gormHouseholdRepository) FindMember(ctx context.Context, householdID, userID string) (*domain.Member, error) {
	var member domain.Member
	err := r.db.WithContext(ctx).
		Where("household_id = ? AND user_id = ?", householdID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *gormHouseholdRepository) FindMembers(ctx context.Context, householdID string) ([]*domain.Member, error) {
	var members []*domain.Member
	err := r.db.WithContext(ctx).Where("household_id = ?", householdID).Order("user_id ASC").Find(&members).Error
	return members, err
}

func (r *gormHouseholdRepository) CreateImportantDate(ctx context.Context, date *domain.ImportantDate) error {
	if date.ID == "" {
		date.ID = uuid.New().String()
	}
	now := time.Now()
	date.CreatedAt = now
	date.UpdatedAt = now
	return r.db.WithContext(ctx).Create(date).Error
}

func (r *gormHouseholdRepository) FindImportantDates(ctx context.Context, householdID string) ([]*domain.ImportantDate, error) {
	var dates []*domain.ImportantDate
	err := r.db.WithContext(ctx).
		Where("household_id = ?", householdID).
		Order("date ASC").
		Find(&dates).Error
	return dates, err
}

func (r *gormHouseholdRepository) DeleteImportantDate(ctx context.Context, householdID, id string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND household_id = ?", id, householdID).
		Delete(&domain.ImportantDate{})
	return res.RowsAffected > 0, res.Error
}
