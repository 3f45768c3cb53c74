package storage

import (
	"context"

	"gorm.io/gorm"

	"trailbook/internal/models"
)

// EdgeRepository reads and writes the two edge sets the eligibility engine
// consumes: album favorites (user → album) and reflections (user → media).
type EdgeRepository interface {
	CreateFavorite(ctx context.Context, fav *models.AlbumFavorite) error
	DeleteFavorite(ctx context.Context, userID, albumID uint) error
	// FavoriteAlbumIDs returns the live albums the user has favorited.
	FavoriteAlbumIDs(ctx context.Context, userID uint) ([]uint, error)

	CreateReflection(ctx context.Context, reflection *models.Reflection) error
	DeleteReflection(ctx context.Context, id uint) error
	GetReflectionByID(ctx context.Context, id uint) (*models.Reflection, error)
	// CountReflectionsOnOwner counts reflections authored by authorID on any
	// live media inside any live album owned by ownerID.
	CountReflectionsOnOwner(ctx context.Context, authorID, ownerID uint) (int64, error)
}

type gormEdgeRepository struct {
	db *gorm.DB
}

// NewGormEdgeRepository creates a new GORM-based EdgeRepository.
func NewGormEdgeRepository(db *gorm.DB) EdgeRepository {
	return &gormEdgeRepository{db: db}
}

func (r *gormEdgeRepository) CreateFavorite(ctx context.Context, fav *models.AlbumFavorite) error {
	return r.db.WithContext(ctx).Create(fav).Error
}

func (r *gormEdgeRepository) DeleteFavorite(ctx context.Context, userID, albumID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND album_id = ?", userID, albumID).
		Delete(&models.AlbumFavorite{}).Error
}

// FavoriteAlbumIDs joins against albums so favorites pointing at deleted
// albums drop out of eligibility without needing edge cleanup.
func (r *gormEdgeRepository) FavoriteAlbumIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.AlbumFavorite{}).
		Joins("JOIN albums ON albums.id = album_favorites.album_id AND albums.deleted_at IS NULL").
		Where("album_favorites.user_id = ?", userID).
		Pluck("album_favorites.album_id", &ids).Error
	return ids, err
}

func (r *gormEdgeRepository) CreateReflection(ctx context.Context, reflection *models.Reflection) error {
	return r.db.WithContext(ctx).Create(reflection).Error
}

func (r *gormEdgeRepository) DeleteReflection(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Reflection{}, id).Error
}

func (r *gormEdgeRepository) GetReflectionByID(ctx context.Context, id uint) (*models.Reflection, error) {
	var reflection models.Reflection
	err := r.db.WithContext(ctx).First(&reflection, id).Error
	if err != nil {
		return nil, err
	}
	return &reflection, nil
}

// CountReflectionsOnOwner walks reflection → media → album and restricts to
// live media in live albums. Anonymous reflections count the same as named
// ones; anonymity is a display concern.
func (r *gormEdgeRepository) CountReflectionsOnOwner(ctx context.Context, authorID, ownerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Reflection{}).
		Joins("JOIN media ON media.id = reflections.media_id AND media.deleted_at IS NULL").
		Joins("JOIN albums ON albums.id = media.album_id AND albums.deleted_at IS NULL").
		Where("reflections.author_id = ? AND albums.owner_id = ?", authorID, ownerID).
		Count(&count).Error
	return count, err
}
