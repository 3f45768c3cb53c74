package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"trailbook/internal/apperrors"
	"trailbook/internal/auth"
	"trailbook/internal/config"
	"trailbook/internal/models"
)

type mockBlacklist struct {
	mock.Mock
}

func (m *mockBlacklist) Add(ctx context.Context, jti string, expiry time.Duration) error {
	return m.Called(ctx, jti, expiry).Error(0)
}

func (m *mockBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func newAuthService(t *testing.T) (AuthService, *mockUserRepo, *mockBlacklist) {
	t.Helper()
	users := new(mockUserRepo)
	blacklist := new(mockBlacklist)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	cfg := config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour}
	return NewAuthService(users, blacklist, cfg, logger), users, blacklist
}

func TestRegisterRequiresCredentials(t *testing.T) {
	svc, _, _ := newAuthService(t)
	_, err := svc.Register(context.Background(), "", "", "secret", "")
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))

	_, err = svc.Register(context.Background(), "alice", "", "", "")
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestRegisterUsernameTaken(t *testing.T) {
	svc, users, _ := newAuthService(t)
	users.On("GetByUsername", anyCtx, "alice").Return(&models.User{Username: "alice"}, nil)

	_, err := svc.Register(context.Background(), "alice", "", "secret", "")
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestRegisterHashesPassword(t *testing.T) {
	svc, users, _ := newAuthService(t)
	users.On("GetByUsername", anyCtx, "alice").Return(nil, gorm.ErrRecordNotFound)
	users.On("GetByEmail", anyCtx, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
	users.On("Create", anyCtx, mock.MatchedBy(func(u *models.User) bool {
		return u.Username == "alice" &&
			u.PasswordHash != "secret" &&
			auth.CheckPasswordHash("secret", u.PasswordHash)
	})).Return(nil)

	user, err := svc.Register(context.Background(), "alice", "alice@example.com", "secret", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Nickname)
	users.AssertExpectations(t)
}

func TestLoginFailuresLookAlike(t *testing.T) {
	svc, users, _ := newAuthService(t)
	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)

	users.On("GetByUsername", anyCtx, "ghost").Return(nil, gorm.ErrRecordNotFound)
	users.On("GetByUsername", anyCtx, "alice").Return(&models.User{Username: "alice", PasswordHash: hash}, nil)

	_, _, unknownErr := svc.Login(context.Background(), "ghost", "secret")
	_, _, wrongPassErr := svc.Login(context.Background(), "alice", "wrong")

	// Same user-facing message so login probing cannot distinguish the cases.
	assert.Equal(t, apperrors.UserMessage(unknownErr), apperrors.UserMessage(wrongPassErr))
}

func TestLoginIssuesToken(t *testing.T) {
	svc, users, _ := newAuthService(t)
	hash, err := auth.HashPassword("secret")
	require.NoError(t, err)
	account := &models.User{Username: "alice", PasswordHash: hash}
	account.ID = 42
	users.On("GetByUsername", anyCtx, "alice").Return(account, nil)

	token, user, err := svc.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), user.ID)

	claims, err := auth.ValidateToken(context.Background(), token, "test-secret", nil)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
}

func TestLogoutBlacklistsRemainingLifetime(t *testing.T) {
	svc, _, blacklist := newAuthService(t)
	blacklist.On("Add", anyCtx, "jti-1", mock.MatchedBy(func(d time.Duration) bool {
		return d > 50*time.Minute && d <= time.Hour
	})).Return(nil)

	err := svc.Logout(context.Background(), "jti-1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	blacklist.AssertExpectations(t)
}

func TestLogoutRequiresJTI(t *testing.T) {
	svc, _, _ := newAuthService(t)
	err := svc.Logout(context.Background(), "", time.Now().Add(time.Hour))
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}
