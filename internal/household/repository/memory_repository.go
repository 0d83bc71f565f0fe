package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"hndld-backend/internal/household/domain"

	"github.com/google/uuid"
)

// MemoryHouseholdRepository keeps households in process memory
type MemoryHouseholdRepository struct {
	mu         sync.RWMutex
	households map[string]domain.Household
	order      []string
	members    map[string]domain.Member
	dates      map[string]domain.ImportantDate
}

// NewMemoryHouseholdRepository creates an empty in-memory repository
func NewMemoryHouseholdRepository() *MemoryHouseholdRepository {
	return &MemoryHouseholdRepository{
		households: map[string]domain.Household{},
		members:    map[string]domain.Member{},
		dates:      map[string]domain.ImportantDate{},
	}
}

func (r *MemoryHouseholdRepository) Create(ctx context.Context, household *domain.Household) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if household.ID == "" {
		household.ID = uuid.New().String()
	}
	household.CreatedAt = time.Now()
	if _, exists := r.households[household.ID]; !exists {
		r.order = append(r.order, household.ID)
	}
	r.households[household.ID] = *household
	return nil
}

func (r *MemoryHouseholdRepository) FindByID(ctx context.Context, id string) (*domain.Household, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.households[id]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

// FindAll returns households in insertion order
func (r *MemoryHouseholdRepository) FindAll(ctx context.Context) ([]*domain.Household, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Household, 0, len(r.order))
	for _, id := range r.order {
		h := r.households[id]
		out = append(out, &h)
	}
	return out, nil
}

func (r *MemoryHouseholdRepository) AddMember(ctx context.Context, member *domain.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	member.CreatedAt = time.Now()
	r.members[member.ID] = *member
	return nil
}

func (r *MemoryHouseholdRepository) FindMember(ctx context.Context, householdID, userID string) (*domain.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.members {
		if m.HouseholdID == householdID && m.UserID == userID {
			m := m
			return &m, nil
		}
	}
	return nil, nil
}

func (r *MemoryHouseholdRepository) FindMembers(ctx context.Context, householdID string) ([]*domain.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Member, 0)
	for _, m := range r.members {
		if m.HouseholdID == householdID {
			m := m
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *MemoryHouseholdRepository) CreateImportantDate(ctx context.Context, date *domain.ImportantDate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if date.ID == "" {
		date.ID = uuid.New().String()
	}
	now := time.Now()
	date.CreatedAt = now
	date.UpdatedAt = now
	r.dates[date.ID] = *date
	return nil
}

func (r *MemoryHouseholdRepository) FindImportantDates(ctx context.Context, householdID string) ([]*domain.ImportantDate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.ImportantDate, 0)
	for _, d := range r.dates {
		if d.HouseholdID == householdID {
			d := d
			out = append(out, &d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *MemoryHouseholdRepository) DeleteImportantDate(ctx context.Context, householdID, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.dates[id]
	if !ok || d.HouseholdID != householdID {
		return false, nil
	}
	delete(r.dates, id)
	return true, nil
}
