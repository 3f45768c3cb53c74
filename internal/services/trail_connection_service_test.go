package services

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"trailbook/internal/apperrors"
	"trailbook/internal/models"
)

type mockEligibility struct {
	mock.Mock
}

func (m *mockEligibility) Check(ctx context.Context, userAID, userBID uint) (*EligibilityResult, error) {
	args := m.Called(ctx, userAID, userBID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EligibilityResult), args.Error(1)
}

func newTrailConnectionService(t *testing.T) (TrailConnectionService, *mockTrailConnectionRepo, *mockEligibility) {
	t.Helper()
	connections := new(mockTrailConnectionRepo)
	eligibility := new(mockEligibility)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewTrailConnectionService(connections, eligibility, logger), connections, eligibility
}

func eligibleResult() *EligibilityResult {
	return &EligibilityResult{Eligible: true, MutualAlbumIDs: []uint{10, 20}, ReflectionCount: 5}
}

func TestConnectSelf(t *testing.T) {
	svc, _, _ := newTrailConnectionService(t)
	_, err := svc.Connect(context.Background(), userAlice, userAlice)
	assert.Equal(t, apperrors.KindInvalidArgument, apperrors.KindOf(err))
}

func TestConnectIneligibleCarriesReasons(t *testing.T) {
	svc, _, eligibility := newTrailConnectionService(t)
	eligibility.On("Check", anyCtx, userAlice, userBob).Return(&EligibilityResult{
		Eligible: false,
		Reasons:  []string{"no mutual album favorites"},
	}, nil)

	_, err := svc.Connect(context.Background(), userAlice, userBob)
	assert.Equal(t, apperrors.KindPrecondition, apperrors.KindOf(err))
	assert.Equal(t, []string{"no mutual album favorites"}, apperrors.DetailsOf(err))
}

func TestConnectCreatesRow(t *testing.T) {
	svc, connections, eligibility := newTrailConnectionService(t)
	eligibility.On("Check", anyCtx, userAlice, userBob).Return(eligibleResult(), nil)
	connections.On("FindByPair", anyCtx, userAlice, userBob).Return(nil, nil)
	connections.On("Create", anyCtx, mock.MatchedBy(func(c *models.TrailConnection) bool {
		return c.IsActive && c.ReflectionCount == 5 && len(c.MutualAlbumIDs) == 2
	})).Return(nil)

	connection, err := svc.Connect(context.Background(), userAlice, userBob)
	require.NoError(t, err)
	assert.True(t, connection.IsActive)
	connections.AssertExpectations(t)
}

func TestConnectActivePairIsIdempotent(t *testing.T) {
	svc, connections, eligibility := newTrailConnectionService(t)
	eligibility.On("Check", anyCtx, userAlice, userBob).Return(eligibleResult(), nil)
	existing := &models.TrailConnection{UserAID: userAlice, UserBID: userBob, IsActive: true}
	existing.ID = 7
	connections.On("FindByPair", anyCtx, userAlice, userBob).Return(existing, nil)

	connection, err := svc.Connect(context.Background(), userAlice, userBob)
	require.NoError(t, err)
	assert.Equal(t, uint(7), connection.ID)
	connections.AssertNotCalled(t, "Create", anyCtx, mock.Anything)
}

func TestConnectReactivatesInactiveRow(t *testing.T) {
	svc, connections, eligibility := newTrailConnectionService(t)
	eligibility.On("Check", anyCtx, userAlice, userBob).Return(eligibleResult(), nil)
	existing := &models.TrailConnection{UserAID: userAlice, UserBID: userBob, IsActive: false, ReflectionCount: 2}
	existing.ID = 7
	connections.On("FindByPair", anyCtx, userAlice, userBob).Return(existing, nil)
	connections.On("SetState", anyCtx, uint(7), true, []uint{10, 20}, 5).Return(nil)

	connection, err := svc.Connect(context.Background(), userAlice, userBob)
	require.NoError(t, err)
	assert.True(t, connection.IsActive)
	assert.Equal(t, 5, connection.ReflectionCount)
	connections.AssertExpectations(t)
}

func TestConnectRaceReturnsWinningRow(t *testing.T) {
	svc, connections, eligibility := newTrailConnectionService(t)
	eligibility.On("Check", anyCtx, userAlice, userBob).Return(eligibleResult(), nil)
	winner := &models.TrailConnection{UserAID: userAlice, UserBID: userBob, IsActive: true}
	winner.ID = 9
	connections.On("FindByPair", anyCtx, userAlice, userBob).Return(nil, nil).Once()
	connections.On("Create", anyCtx, mock.Anything).Return(&pgconn.PgError{Code: "23505"})
	connections.On("FindByPair", anyCtx, userAlice, userBob).Return(winner, nil).Once()

	connection, err := svc.Connect(context.Background(), userAlice, userBob)
	require.NoError(t, err)
	assert.Equal(t, uint(9), connection.ID)
}

func TestReevaluateMissingPairIsNoop(t *testing.T) {
	svc, connections, eligibility := newTrailConnectionService(t)
	connections.On("FindByPair", anyCtx, userAlice, userBob).Return(nil, nil)

	connection, err := svc.Reevaluate(context.Background(), userAlice, userBob)
	require.NoError(t, err)
	assert.Nil(t, connection)
	eligibility.AssertNotCalled(t, "Check", anyCtx, userAlice, userBob)
}

func TestReevaluateDeactivatesWhenEligibilityLost(t *testing.T) {
	svc, connections, eligibility := newTrailConnectionService(t)
	existing := &models.TrailConnection{UserAID: userAlice, UserBID: userBob, IsActive: true, MutualAlbumIDs: []uint{10}, ReflectionCount: 2}
	existing.ID = 7
	connections.On("FindByPair", anyCtx, userAlice, userBob).Return(existing, nil)
	eligibility.On("Check", anyCtx, userAlice, userBob).Return(&EligibilityResult{
		Eligible: false,
		Reasons:  []string{"no bidirectional reflections"},
	}, nil)
	// Deactivation keeps the evidence from when the connection was made.
	connections.On("SetState", anyCtx, uint(7), false, []uint{10}, 2).Return(nil)

	connection, err := svc.Reevaluate(context.Background(), userAlice, userBob)
	require.NoError(t, err)
	assert.False(t, connection.IsActive)
	assert.Equal(t, []uint{10}, connection.MutualAlbumIDs)
	connections.AssertExpectations(t)
}

func TestReevaluateRefreshesEvidence(t *testing.T) {
	svc, connections, eligibility := newTrailConnectionService(t)
	existing := &models.TrailConnection{UserAID: userAlice, UserBID: userBob, IsActive: true, MutualAlbumIDs: []uint{10}, ReflectionCount: 2}
	existing.ID = 7
	connections.On("FindByPair", anyCtx, userAlice, userBob).Return(existing, nil)
	eligibility.On("Check", anyCtx, userAlice, userBob).Return(eligibleResult(), nil)
	connections.On("SetState", anyCtx, uint(7), true, []uint{10, 20}, 5).Return(nil)

	connection, err := svc.Reevaluate(context.Background(), userAlice, userBob)
	require.NoError(t, err)
	assert.Equal(t, []uint{10, 20}, connection.MutualAlbumIDs)
	assert.Equal(t, 5, connection.ReflectionCount)
}

func TestGetWithInactiveIsNotFound(t *testing.T) {
	svc, connections, _ := newTrailConnectionService(t)
	inactive := &models.TrailConnection{UserAID: userAlice, UserBID: userBob, IsActive: false}
	connections.On("FindByPair", anyCtx, userAlice, userBob).Return(inactive, nil)

	_, err := svc.GetWith(context.Background(), userAlice, userBob)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestDeactivate(t *testing.T) {
	svc, connections, _ := newTrailConnectionService(t)
	active := &models.TrailConnection{UserAID: userAlice, UserBID: userBob, IsActive: true, MutualAlbumIDs: []uint{10}, ReflectionCount: 2}
	active.ID = 7
	connections.On("FindByPair", anyCtx, userAlice, userBob).Return(active, nil)
	connections.On("SetState", anyCtx, uint(7), false, []uint{10}, 2).Return(nil)

	require.NoError(t, svc.Deactivate(context.Background(), userAlice, userBob))
	connections.AssertExpectations(t)
}
