package repository

import (
	"context"
	"fmt"
	"time"

	authdomain "hndld-backend/internal/auth/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceTokenRepository defines the interface for FCM device token operations
type DeviceTokenRepository interface {
	SaveToken(ctx context.Context, userID, token, deviceInfo string) error
	GetTokensByUserIDs(ctx context.Context, userIDs []string) ([]authdomain.DeviceToken, error)
	DeleteToken(ctx context.Context, userID, token string) error
	DeleteTokens(ctx context.Context, tokens []string) error
}

// deviceTokenRepository implements DeviceTokenRepository interface
type deviceTokenRepository struct {
	db *gorm.DB
}

// NewDeviceTokenRepository creates a new instance of deviceTokenRepository
func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{db: db}
}

// tokenUpsert moves an already registered token onto the user saving it
func tokenUpsert(userID, deviceInfo string, at time.Time) clause.OnConflict {
	return clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"user_id":     userID,
			"device_info": deviceInfo,
			"updated_at":  at,
		}),
	}
}

// SaveToken registers token for userID in a single statement. A device that
// changes hands keeps one row and notifies only the user who saved it last.
func (r *deviceTokenRepository) SaveToken(ctx context.Context, userID, token, deviceInfo string) error {
	at := time.Now()
	row := authdomain.DeviceToken{
		ID:         uuid.NewString(),
		UserID:     userID,
		Token:      token,
		DeviceInfo: deviceInfo,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	if err := r.db.WithContext(ctx).Clauses(tokenUpsert(userID, deviceInfo, at)).Create(&row).Error; err != nil {
		return fmt.Errorf("save device token: %w", err)
	}
	return nil
}

func (r *deviceTokenRepository) GetTokensByUserIDs(ctx context.Context, userIDs []string) ([]authdomain.DeviceToken, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var tokens []authdomain.DeviceToken
	err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Order("token ASC").Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *deviceTokenRepository) DeleteToken(ctx context.Context, userID, token string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND token = ?", userID, token).
		Delete(&authdomain.DeviceToken{}).Error
}

// DeleteTokens removes tokens FCM reported as undeliverable
func (r *deviceTokenRepository) DeleteTokens(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("token IN ?", tokens).Delete(&authdomain.DeviceToken{}).Error
}
