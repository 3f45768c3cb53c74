package storage

import (
	"context"

	"gorm.io/gorm"

	"trailbook/internal/models"
)

// AlbumRepository defines the interface for album and media data operations.
type AlbumRepository interface {
	Create(ctx context.Context, album *models.Album) error
	GetByID(ctx context.Context, id uint) (*models.Album, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]*models.Album, error)
	Delete(ctx context.Context, id uint) error

	AddMedia(ctx context.Context, media *models.Media) error
	GetMediaByID(ctx context.Context, id uint) (*models.Media, error)
	DeleteMedia(ctx context.Context, id uint) error

	// OwnersOfAlbums maps album id -> owner id for live albums only.
	OwnersOfAlbums(ctx context.Context, albumIDs []uint) (map[uint]uint, error)
}

type gormAlbumRepository struct {
	db *gorm.DB
}

// NewGormAlbumRepository creates a new GORM-based AlbumRepository.
func NewGormAlbumRepository(db *gorm.DB) AlbumRepository {
	return &gormAlbumRepository{db: db}
}

func (r *gormAlbumRepository) Create(ctx context.Context, album *models.Album) error {
	return r.db.WithContext(ctx).Create(album).Error
}

func (r *gormAlbumRepository) GetByID(ctx context.Context, id uint) (*models.Album, error) {
	var album models.Album
	err := r.db.WithContext(ctx).First(&album, id).Error
	if err != nil {
		return nil, err
	}
	return &album, nil
}

func (r *gormAlbumRepository) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Album, error) {
	var albums []*models.Album
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&albums).Error
	return albums, err
}

func (r *gormAlbumRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Album{}, id).Error
}

func (r *gormAlbumRepository) AddMedia(ctx context.Context, media *models.Media) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *gormAlbumRepository) GetMediaByID(ctx context.Context, id uint) (*models.Media, error) {
	var media models.Media
	err := r.db.WithContext(ctx).First(&media, id).Error
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *gormAlbumRepository) DeleteMedia(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Media{}, id).Error
}

func (r *gormAlbumRepository) OwnersOfAlbums(ctx context.Context, albumIDs []uint) (map[uint]uint, error) {
	owners := make(map[uint]uint, len(albumIDs))
	if len(albumIDs) == 0 {
		return owners, nil
	}
	type row struct {
		ID      uint
		OwnerID uint
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Album{}).
		Select("id", "owner_id").
		Where("id IN ?", albumIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, a := range rows {
		owners[a.ID] = a.OwnerID
	}
	return owners, nil
}
