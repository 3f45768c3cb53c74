package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"trailbook/internal/models"
)

// TrailConnectionRepository defines the interface for trail connection data
// operations. All writes assume EnsureCanonicalOrder has been applied.
type TrailConnectionRepository interface {
	Create(ctx context.Context, connection *models.TrailConnection) error
	// FindByPair returns the row for the unordered pair regardless of
	// activity state, or nil if none exists.
	FindByPair(ctx context.Context, userID1, userID2 uint) (*models.TrailConnection, error)
	// SetState updates activity plus the eligibility evidence in one write.
	SetState(ctx context.Context, id uint, isActive bool, mutualAlbumIDs []uint, reflectionCount int) error
	ListActiveForUser(ctx context.Context, userID uint) ([]models.TrailConnection, error)
}

type gormTrailConnectionRepository struct {
	db *gorm.DB
}

// NewGormTrailConnectionRepository creates a new GORM-based
// TrailConnectionRepository.
func NewGormTrailConnectionRepository(db *gorm.DB) TrailConnectionRepository {
	return &gormTrailConnectionRepository{db: db}
}

func (r *gormTrailConnectionRepository) Create(ctx context.Context, connection *models.TrailConnection) error {
	connection.EnsureCanonicalOrder()
	return r.db.WithContext(ctx).Create(connection).Error
}

func (r *gormTrailConnectionRepository) FindByPair(ctx context.Context, userID1, userID2 uint) (*models.TrailConnection, error) {
	a, b := userID1, userID2
	if a > b {
		a, b = b, a
	}
	var connection models.TrailConnection
	err := r.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", a, b).
		First(&connection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &connection, nil
}

func (r *gormTrailConnectionRepository) SetState(ctx context.Context, id uint, isActive bool, mutualAlbumIDs []uint, reflectionCount int) error {
	return r.db.WithContext(ctx).
		Model(&models.TrailConnection{}).
		Where("id = ?", id).
		Select("is_active", "mutual_album_ids", "reflection_count").
		Updates(models.TrailConnection{
			IsActive:        isActive,
			MutualAlbumIDs:  mutualAlbumIDs,
			ReflectionCount: reflectionCount,
		}).Error
}

func (r *gormTrailConnectionRepository) ListActiveForUser(ctx context.Context, userID uint) ([]models.TrailConnection, error) {
	var connections []models.TrailConnection
	err := r.db.WithContext(ctx).
		Where("(user_a_id = ? OR user_b_id = ?) AND is_active = ?", userID, userID, true).
		Order("updated_at DESC").
		Find(&connections).Error
	return connections, err
}
