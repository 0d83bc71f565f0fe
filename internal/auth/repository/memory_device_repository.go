package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	authdomain "hndld-backend/internal/auth/domain"

	"github.com/google/uuid"
)

// MemoryDeviceTokenRepository keeps device tokens in process memory
type MemoryDeviceTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]authdomain.DeviceToken
}

func NewMemoryDeviceTokenRepository() *MemoryDeviceTokenRepository {
	return &MemoryDeviceTokenRepository{tokens: map[string]authdomain.DeviceToken{}}
}

func (r *MemoryDeviceTokenRepository) SaveToken(ctx context.Context, userID, token, deviceInfo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	existing, ok := r.tokens[token]
	if !ok {
		existing = authdomain.DeviceToken{ID: uuid.New().String(), Token: token, CreatedAt: now}
	}
	existing.UserID = userID
	existing.DeviceInfo = deviceInfo
	existing.UpdatedAt = now
	r.tokens[token] = existing
	return nil
}

func (r *MemoryDeviceTokenRepository) GetTokensByUserIDs(ctx context.Context, userIDs []string) ([]authdomain.DeviceToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []authdomain.DeviceToken
	for _, t := range r.tokens {
		if slices.Contains(userIDs, t.UserID) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b authdomain.DeviceToken) int {
		switch {
		case a.Token < b.Token:
			return -1
		case a.Token > b.Token:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *MemoryDeviceTokenRepository) DeleteToken(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.tokens[token]; ok && t.UserID == userID {
		delete(r.tokens, token)
	}
	return nil
}

func (r *MemoryDeviceTokenRepository) DeleteTokens(ctx context.Context, tokens []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, token := range tokens {
		delete(r.tokens, token)
	}
	return nil
}
