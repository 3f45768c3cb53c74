package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"trailbook/internal/chattypes"
	"trailbook/internal/models"
	"trailbook/internal/storage"
)

// anyCtx matches any context argument in expectations.
var anyCtx = mock.Anything

type mockEdgeRepo struct {
	mock.Mock
}

func (m *mockEdgeRepo) CreateFavorite(ctx context.Context, fav *models.AlbumFavorite) error {
	return m.Called(ctx, fav).Error(0)
}

func (m *mockEdgeRepo) DeleteFavorite(ctx context.Context, userID, albumID uint) error {
	return m.Called(ctx, userID, albumID).Error(0)
}

func (m *mockEdgeRepo) FavoriteAlbumIDs(ctx context.Context, userID uint) ([]uint, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *mockEdgeRepo) CreateReflection(ctx context.Context, reflection *models.Reflection) error {
	return m.Called(ctx, reflection).Error(0)
}

func (m *mockEdgeRepo) DeleteReflection(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockEdgeRepo) GetReflectionByID(ctx context.Context, id uint) (*models.Reflection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reflection), args.Error(1)
}

func (m *mockEdgeRepo) CountReflectionsOnOwner(ctx context.Context, authorID, ownerID uint) (int64, error) {
	args := m.Called(ctx, authorID, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

type mockAlbumRepo struct {
	mock.Mock
}

func (m *mockAlbumRepo) Create(ctx context.Context, album *models.Album) error {
	return m.Called(ctx, album).Error(0)
}

func (m *mockAlbumRepo) GetByID(ctx context.Context, id uint) (*models.Album, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Album), args.Error(1)
}

func (m *mockAlbumRepo) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Album, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Album), args.Error(1)
}

func (m *mockAlbumRepo) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAlbumRepo) AddMedia(ctx context.Context, media *models.Media) error {
	return m.Called(ctx, media).Error(0)
}

func (m *mockAlbumRepo) GetMediaByID(ctx context.Context, id uint) (*models.Media, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Media), args.Error(1)
}

func (m *mockAlbumRepo) DeleteMedia(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAlbumRepo) OwnersOfAlbums(ctx context.Context, albumIDs []uint) (map[uint]uint, error) {
	args := m.Called(ctx, albumIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]uint), args.Error(1)
}

type mockConnectionRequestRepo struct {
	mock.Mock
}

func (m *mockConnectionRequestRepo) Create(ctx context.Context, request *models.ConnectionRequest) error {
	return m.Called(ctx, request).Error(0)
}

func (m *mockConnectionRequestRepo) GetByID(ctx context.Context, requestID uint) (*models.ConnectionRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConnectionRequest), args.Error(1)
}

func (m *mockConnectionRequestRepo) FindPendingBetween(ctx context.Context, userID1, userID2 uint) (*models.ConnectionRequest, error) {
	args := m.Called(ctx, userID1, userID2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ConnectionRequest), args.Error(1)
}

func (m *mockConnectionRequestRepo) AreConnected(ctx context.Context, userID1, userID2 uint) (bool, error) {
	args := m.Called(ctx, userID1, userID2)
	return args.Bool(0), args.Error(1)
}

func (m *mockConnectionRequestRepo) UpdateStatusFromPending(ctx context.Context, requestID uint, status models.ConnectionRequestStatus) (bool, error) {
	args := m.Called(ctx, requestID, status)
	return args.Bool(0), args.Error(1)
}

func (m *mockConnectionRequestRepo) ListByUserAndStatus(ctx context.Context, userID uint, status models.ConnectionRequestStatus) ([]models.ConnectionRequest, error) {
	args := m.Called(ctx, userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConnectionRequest), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) SetPushToken(ctx context.Context, userID uint, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *mockUserRepo) GetBasicInfoByID(ctx context.Context, id uint) (*models.UserBasicInfo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserBasicInfo), args.Error(1)
}

func (m *mockUserRepo) GetMultipleBasicInfoByIDs(ctx context.Context, userIDs []uint) ([]*models.UserBasicInfo, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserBasicInfo), args.Error(1)
}

type mockChatMessageRepo struct {
	mock.Mock
}

func (m *mockChatMessageRepo) Create(ctx context.Context, message *models.ChatMessage) error {
	return m.Called(ctx, message).Error(0)
}

func (m *mockChatMessageRepo) GetByID(ctx context.Context, id uint) (*models.ChatMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}

func (m *mockChatMessageRepo) ListPage(ctx context.Context, userID1, userID2 uint, cursor *models.ChatMessage, limit int, direction storage.PageDirection) ([]*models.ChatMessage, error) {
	args := m.Called(ctx, userID1, userID2, cursor, limit, direction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ChatMessage), args.Error(1)
}

func (m *mockChatMessageRepo) MarkRead(ctx context.Context, messageIDs []uint, readAt time.Time) error {
	return m.Called(ctx, messageIDs, readAt).Error(0)
}

func (m *mockChatMessageRepo) SetFileUploaded(ctx context.Context, messageID uint, fileURL string) error {
	return m.Called(ctx, messageID, fileURL).Error(0)
}

func (m *mockChatMessageRepo) CountUnread(ctx context.Context, receiverID uint) (int64, error) {
	args := m.Called(ctx, receiverID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockChatMessageRepo) ConversationHeads(ctx context.Context, userID uint) ([]*models.ChatMessage, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ChatMessage), args.Error(1)
}

func (m *mockChatMessageRepo) CountUnreadBySender(ctx context.Context, receiverID uint) (map[uint]int64, error) {
	args := m.Called(ctx, receiverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]int64), args.Error(1)
}

type mockTrailConnectionRepo struct {
	mock.Mock
}

func (m *mockTrailConnectionRepo) Create(ctx context.Context, connection *models.TrailConnection) error {
	return m.Called(ctx, connection).Error(0)
}

func (m *mockTrailConnectionRepo) FindByPair(ctx context.Context, userID1, userID2 uint) (*models.TrailConnection, error) {
	args := m.Called(ctx, userID1, userID2)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TrailConnection), args.Error(1)
}

func (m *mockTrailConnectionRepo) SetState(ctx context.Context, id uint, isActive bool, mutualAlbumIDs []uint, reflectionCount int) error {
	return m.Called(ctx, id, isActive, mutualAlbumIDs, reflectionCount).Error(0)
}

func (m *mockTrailConnectionRepo) ListActiveForUser(ctx context.Context, userID uint) ([]models.TrailConnection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TrailConnection), args.Error(1)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) PublishFileUpload(ctx context.Context, task chattypes.FileUploadTask) error {
	return m.Called(ctx, task).Error(0)
}

func (m *mockDispatcher) PublishNotification(ctx context.Context, task chattypes.NotificationTask) error {
	return m.Called(ctx, task).Error(0)
}

