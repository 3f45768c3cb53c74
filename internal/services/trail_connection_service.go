package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"trailbook/internal/apperrors"
	"trailbook/internal/models"
	"trailbook/internal/storage"
)

// TrailConnectionService manages deep "walked together" connections. A pair
// is stored exactly once in canonical order; connections are deactivated
// rather than deleted so history and evidence survive.
type TrailConnectionService interface {
	CheckEligibility(ctx context.Context, callerID, otherUserID uint) (*EligibilityResult, error)
	Connect(ctx context.Context, callerID, otherUserID uint) (*models.TrailConnection, error)
	Reevaluate(ctx context.Context, userID1, userID2 uint) (*models.TrailConnection, error)
	ListActive(ctx context.Context, userID uint) ([]models.TrailConnection, error)
	GetWith(ctx context.Context, callerID, otherUserID uint) (*models.TrailConnection, error)
	Deactivate(ctx context.Context, callerID, otherUserID uint) error
}

type trailConnectionService struct {
	connectionRepo storage.TrailConnectionRepository
	eligibility    EligibilityService
	logger         *logrus.Logger
}

func NewTrailConnectionService(connectionRepo storage.TrailConnectionRepository, eligibility EligibilityService, logger *logrus.Logger) TrailConnectionService {
	return &trailConnectionService{connectionRepo: connectionRepo, eligibility: eligibility, logger: logger}
}

func (s *trailConnectionService) CheckEligibility(ctx context.Context, callerID, otherUserID uint) (*EligibilityResult, error) {
	if callerID == 0 || otherUserID == 0 {
		return nil, apperrors.InvalidArgument("user ids must be set")
	}
	result, err := s.eligibility.Check(ctx, callerID, otherUserID)
	if err != nil {
		return nil, apperrors.Internal(err, "checking eligibility")
	}
	return result, nil
}

// Connect creates or reactivates the trail connection for the pair, provided
// eligibility currently holds. An inactive existing row is reactivated with
// fresh evidence instead of creating a duplicate.
func (s *trailConnectionService) Connect(ctx context.Context, callerID, otherUserID uint) (*models.TrailConnection, error) {
	if callerID == otherUserID {
		return nil, apperrors.InvalidArgument("cannot connect with yourself")
	}

	result, err := s.eligibility.Check(ctx, callerID, otherUserID)
	if err != nil {
		return nil, apperrors.Internal(err, "checking eligibility")
	}
	if !result.Eligible {
		e := apperrors.Precondition("users are not eligible for a trail connection")
		return nil, e.WithDetails(result.Reasons...)
	}

	existing, err := s.connectionRepo.FindByPair(ctx, callerID, otherUserID)
	if err != nil {
		return nil, apperrors.Internal(err, "looking up trail connection")
	}
	if existing != nil {
		if existing.IsActive {
			return existing, nil
		}
		if err := s.connectionRepo.SetState(ctx, existing.ID, true, result.MutualAlbumIDs, result.ReflectionCount); err != nil {
			return nil, apperrors.Internal(err, "reactivating trail connection")
		}
		existing.IsActive = true
		existing.MutualAlbumIDs = result.MutualAlbumIDs
		existing.ReflectionCount = result.ReflectionCount
		s.logger.WithField("connectionId", existing.ID).Info("trail connection reactivated")
		return existing, nil
	}

	connection := &models.TrailConnection{
		UserAID:         callerID,
		UserBID:         otherUserID,
		MutualAlbumIDs:  result.MutualAlbumIDs,
		ReflectionCount: result.ReflectionCount,
		IsActive:        true,
	}
	if err := s.connectionRepo.Create(ctx, connection); err != nil {
		if storage.IsUniqueViolation(err) {
			// A concurrent connect won the insert; return its row.
			winner, findErr := s.connectionRepo.FindByPair(ctx, callerID, otherUserID)
			if findErr != nil || winner == nil {
				return nil, apperrors.Internal(err, "creating trail connection")
			}
			return winner, nil
		}
		return nil, apperrors.Internal(err, "creating trail connection")
	}

	s.logger.WithFields(logrus.Fields{
		"connectionId": connection.ID,
		"userA":        connection.UserAID,
		"userB":        connection.UserBID,
	}).Info("trail connection created")
	return connection, nil
}

// Reevaluate re-runs the eligibility engine for an existing pair and updates
// the stored state: evidence is refreshed when still eligible, the row is
// deactivated when not. Missing pairs are a no-op.
func (s *trailConnectionService) Reevaluate(ctx context.Context, userID1, userID2 uint) (*models.TrailConnection, error) {
	connection, err := s.connectionRepo.FindByPair(ctx, userID1, userID2)
	if err != nil {
		return nil, apperrors.Internal(err, "looking up trail connection")
	}
	if connection == nil {
		return nil, nil
	}

	result, err := s.eligibility.Check(ctx, userID1, userID2)
	if err != nil {
		return nil, apperrors.Internal(err, "checking eligibility")
	}

	if !result.Eligible {
		if connection.IsActive {
			if err := s.connectionRepo.SetState(ctx, connection.ID, false, connection.MutualAlbumIDs, connection.ReflectionCount); err != nil {
				return nil, apperrors.Internal(err, "deactivating trail connection")
			}
			connection.IsActive = false
			s.logger.WithFields(logrus.Fields{
				"connectionId": connection.ID,
				"reasons":      result.Reasons,
			}).Info("trail connection deactivated, eligibility no longer holds")
		}
		return connection, nil
	}

	if err := s.connectionRepo.SetState(ctx, connection.ID, true, result.MutualAlbumIDs, result.ReflectionCount); err != nil {
		return nil, apperrors.Internal(err, "updating trail connection evidence")
	}
	connection.IsActive = true
	connection.MutualAlbumIDs = result.MutualAlbumIDs
	connection.ReflectionCount = result.ReflectionCount
	return connection, nil
}

func (s *trailConnectionService) ListActive(ctx context.Context, userID uint) ([]models.TrailConnection, error) {
	connections, err := s.connectionRepo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err, "listing trail connections")
	}
	return connections, nil
}

func (s *trailConnectionService) GetWith(ctx context.Context, callerID, otherUserID uint) (*models.TrailConnection, error) {
	connection, err := s.connectionRepo.FindByPair(ctx, callerID, otherUserID)
	if err != nil {
		return nil, apperrors.Internal(err, "looking up trail connection")
	}
	if connection == nil || !connection.IsActive {
		return nil, apperrors.NotFound("no active trail connection with this user")
	}
	return connection, nil
}

// Deactivate is the explicit removal path. The row stays around so a later
// Connect can reactivate it.
func (s *trailConnectionService) Deactivate(ctx context.Context, callerID, otherUserID uint) error {
	connection, err := s.connectionRepo.FindByPair(ctx, callerID, otherUserID)
	if err != nil {
		return apperrors.Internal(err, "looking up trail connection")
	}
	if connection == nil || !connection.IsActive {
		return apperrors.NotFound("no active trail connection with this user")
	}
	if err := s.connectionRepo.SetState(ctx, connection.ID, false, connection.MutualAlbumIDs, connection.ReflectionCount); err != nil {
		return apperrors.Internal(err, "deactivating trail connection")
	}
	s.logger.WithField("connectionId", connection.ID).Info("trail connection deactivated by user")
	return nil
}
