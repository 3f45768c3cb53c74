package services

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"trailbook/internal/apperrors"
	"trailbook/internal/models"
)

func newAlbumService(t *testing.T) (AlbumService, *mockAlbumRepo, *mockEdgeRepo) {
	t.Helper()
	albums := new(mockAlbumRepo)
	edges := new(mockEdgeRepo)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewAlbumService(albums, edges, logger), albums, edges
}

func albumOwnedBy(ownerID uint) *models.Album {
	album := &models.Album{OwnerID: ownerID, Title: "Coastal Trail"}
	album.ID = 10
	return album
}

func TestCreateAlbumRequiresTitle(t *testing.T) {
	svc, _, _ := newAlbumService(t)
	_, err := svc.CreateAlbum(context.Background(), userAlice, "", "", "", true)
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestDeleteAlbumOwnerOnly(t *testing.T) {
	svc, albums, _ := newAlbumService(t)
	albums.On("GetByID", anyCtx, uint(10)).Return(albumOwnedBy(userAlice), nil)

	err := svc.DeleteAlbum(context.Background(), userBob, 10)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	albums.AssertNotCalled(t, "Delete", anyCtx, uint(10))
}

func TestFavoriteAlbumTwiceIsNoop(t *testing.T) {
	svc, albums, edges := newAlbumService(t)
	albums.On("GetByID", anyCtx, uint(10)).Return(albumOwnedBy(userBob), nil)
	edges.On("CreateFavorite", anyCtx, mock.Anything).Return(&pgconn.PgError{Code: "23505"})

	assert.NoError(t, svc.FavoriteAlbum(context.Background(), userAlice, 10))
}

func TestFavoriteMissingAlbum(t *testing.T) {
	svc, albums, _ := newAlbumService(t)
	albums.On("GetByID", anyCtx, uint(99)).Return(nil, gorm.ErrRecordNotFound)

	err := svc.FavoriteAlbum(context.Background(), userAlice, 99)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestReflectRejectsUnknownReason(t *testing.T) {
	svc, _, _ := newAlbumService(t)
	_, err := svc.Reflect(context.Background(), userAlice, 5, "because", false, "")
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestReflectCreatesEdge(t *testing.T) {
	svc, albums, edges := newAlbumService(t)
	media := &models.Media{AlbumID: 10}
	media.ID = 5
	albums.On("GetMediaByID", anyCtx, uint(5)).Return(media, nil)
	edges.On("CreateReflection", anyCtx, mock.MatchedBy(func(r *models.Reflection) bool {
		return r.AuthorID == userAlice && r.MediaID == 5 && r.Reason == models.ReflectionReasonMoved && r.IsAnonymous
	})).Return(nil)

	reflection, err := svc.Reflect(context.Background(), userAlice, 5, models.ReflectionReasonMoved, true, "this one stayed with me")
	require.NoError(t, err)
	assert.Equal(t, "this one stayed with me", reflection.Note)
	edges.AssertExpectations(t)
}

func TestDeleteReflectionAuthorOnly(t *testing.T) {
	svc, _, edges := newAlbumService(t)
	reflection := &models.Reflection{AuthorID: userAlice, MediaID: 5}
	reflection.ID = 3
	edges.On("GetReflectionByID", anyCtx, uint(3)).Return(reflection, nil)

	err := svc.DeleteReflection(context.Background(), userBob, 3)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	edges.AssertNotCalled(t, "DeleteReflection", anyCtx, uint(3))
}
