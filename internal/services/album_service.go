package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"trailbook/internal/apperrors"
	"trailbook/internal/models"
	"trailbook/internal/storage"
)

// AlbumService covers album and media CRUD plus the favorite and reflection
// edges the eligibility engine reads.
type AlbumService interface {
	CreateAlbum(ctx context.Context, ownerID uint, title, description, coverURL string, isPublic bool) (*models.Album, error)
	GetAlbum(ctx context.Context, albumID uint) (*models.Album, error)
	ListAlbums(ctx context.Context, ownerID uint) ([]*models.Album, error)
	DeleteAlbum(ctx context.Context, callerID, albumID uint) error
	AddMedia(ctx context.Context, callerID, albumID uint, fileKey, fileURL, mimeType, caption string) (*models.Media, error)
	DeleteMedia(ctx context.Context, callerID, mediaID uint) error

	FavoriteAlbum(ctx context.Context, userID, albumID uint) error
	UnfavoriteAlbum(ctx context.Context, userID, albumID uint) error
	Reflect(ctx context.Context, authorID, mediaID uint, reason models.ReflectionReason, isAnonymous bool, note string) (*models.Reflection, error)
	DeleteReflection(ctx context.Context, callerID, reflectionID uint) error
}

type albumService struct {
	albumRepo storage.AlbumRepository
	edgeRepo  storage.EdgeRepository
	logger    *logrus.Logger
}

func NewAlbumService(albumRepo storage.AlbumRepository, edgeRepo storage.EdgeRepository, logger *logrus.Logger) AlbumService {
	return &albumService{albumRepo: albumRepo, edgeRepo: edgeRepo, logger: logger}
}

func (s *albumService) CreateAlbum(ctx context.Context, ownerID uint, title, description, coverURL string, isPublic bool) (*models.Album, error) {
	if title == "" {
		return nil, apperrors.InvalidArgument("album title is required")
	}
	album := &models.Album{
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		CoverURL:    coverURL,
		IsPublic:    isPublic,
	}
	if err := s.albumRepo.Create(ctx, album); err != nil {
		return nil, apperrors.Internal(err, "creating album")
	}
	return album, nil
}

func (s *albumService) GetAlbum(ctx context.Context, albumID uint) (*models.Album, error) {
	album, err := s.albumRepo.GetByID(ctx, albumID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("album not found")
		}
		return nil, apperrors.Internal(err, "loading album")
	}
	return album, nil
}

func (s *albumService) ListAlbums(ctx context.Context, ownerID uint) ([]*models.Album, error) {
	albums, err := s.albumRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal(err, "listing albums")
	}
	return albums, nil
}

func (s *albumService) DeleteAlbum(ctx context.Context, callerID, albumID uint) error {
	album, err := s.GetAlbum(ctx, albumID)
	if err != nil {
		return err
	}
	if album.OwnerID != callerID {
		return apperrors.Forbidden("only the owner can delete an album")
	}
	if err := s.albumRepo.Delete(ctx, albumID); err != nil {
		return apperrors.Internal(err, "deleting album")
	}
	return nil
}

func (s *albumService) AddMedia(ctx context.Context, callerID, albumID uint, fileKey, fileURL, mimeType, caption string) (*models.Media, error) {
	album, err := s.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if album.OwnerID != callerID {
		return nil, apperrors.Forbidden("only the owner can add media to an album")
	}
	media := &models.Media{
		AlbumID:  albumID,
		FileKey:  fileKey,
		FileURL:  fileURL,
		MimeType: mimeType,
		Caption:  caption,
	}
	if err := s.albumRepo.AddMedia(ctx, media); err != nil {
		return nil, apperrors.Internal(err, "adding media")
	}
	return media, nil
}

func (s *albumService) DeleteMedia(ctx context.Context, callerID, mediaID uint) error {
	media, err := s.albumRepo.GetMediaByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("media not found")
		}
		return apperrors.Internal(err, "loading media")
	}
	album, err := s.GetAlbum(ctx, media.AlbumID)
	if err != nil {
		return err
	}
	if album.OwnerID != callerID {
		return apperrors.Forbidden("only the owner can delete media")
	}
	if err := s.albumRepo.DeleteMedia(ctx, mediaID); err != nil {
		return apperrors.Internal(err, "deleting media")
	}
	return nil
}

// FavoriteAlbum records the favorite edge. Favoriting an already favorited
// album is a no-op, not an error.
func (s *albumService) FavoriteAlbum(ctx context.Context, userID, albumID uint) error {
	if _, err := s.GetAlbum(ctx, albumID); err != nil {
		return err
	}
	fav := &models.AlbumFavorite{UserID: userID, AlbumID: albumID}
	if err := s.edgeRepo.CreateFavorite(ctx, fav); err != nil {
		if storage.IsUniqueViolation(err) {
			return nil
		}
		return apperrors.Internal(err, "favoriting album")
	}
	return nil
}

func (s *albumService) UnfavoriteAlbum(ctx context.Context, userID, albumID uint) error {
	if err := s.edgeRepo.DeleteFavorite(ctx, userID, albumID); err != nil {
		return apperrors.Internal(err, "unfavoriting album")
	}
	return nil
}

func (s *albumService) Reflect(ctx context.Context, authorID, mediaID uint, reason models.ReflectionReason, isAnonymous bool, note string) (*models.Reflection, error) {
	if !models.ValidReflectionReason(reason) {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("unknown reflection reason %q", reason))
	}
	if _, err := s.albumRepo.GetMediaByID(ctx, mediaID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("media not found")
		}
		return nil, apperrors.Internal(err, "loading media")
	}

	reflection := &models.Reflection{
		AuthorID:    authorID,
		MediaID:     mediaID,
		Reason:      reason,
		IsAnonymous: isAnonymous,
		Note:        note,
	}
	if err := s.edgeRepo.CreateReflection(ctx, reflection); err != nil {
		return nil, apperrors.Internal(err, "creating reflection")
	}
	return reflection, nil
}

func (s *albumService) DeleteReflection(ctx context.Context, callerID, reflectionID uint) error {
	reflection, err := s.edgeRepo.GetReflectionByID(ctx, reflectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("reflection not found")
		}
		return apperrors.Internal(err, "loading reflection")
	}
	if reflection.AuthorID != callerID {
		return apperrors.Forbidden("only the author can delete a reflection")
	}
	if err := s.edgeRepo.DeleteReflection(ctx, reflectionID); err != nil {
		return apperrors.Internal(err, "deleting reflection")
	}
	return nil
}
