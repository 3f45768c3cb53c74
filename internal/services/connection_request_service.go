package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"trailbook/internal/apperrors"
	"trailbook/internal/models"
	"trailbook/internal/storage"
)

// ConnectionRequestDecision is the recipient's verdict on a pending request.
type ConnectionRequestDecision string

const (
	DecisionAccept ConnectionRequestDecision = "accept"
	DecisionReject ConnectionRequestDecision = "reject"
)

// ConnectionRequestService drives the pending/accepted/rejected request
// state machine between user pairs.
type ConnectionRequestService interface {
	SendRequest(ctx context.Context, requesterID, recipientID uint) (*models.ConnectionRequest, error)
	Respond(ctx context.Context, callerID, requestID uint, decision ConnectionRequestDecision) (*models.ConnectionRequest, error)
	ListByStatus(ctx context.Context, userID uint, status models.ConnectionRequestStatus) ([]models.ConnectionRequestView, error)
	AreConnected(ctx context.Context, userID1, userID2 uint) (bool, error)
}

type connectionRequestService struct {
	requestRepo storage.ConnectionRequestRepository
	userRepo    storage.UserRepository
	logger      *logrus.Logger
}

func NewConnectionRequestService(requestRepo storage.ConnectionRequestRepository, userRepo storage.UserRepository, logger *logrus.Logger) ConnectionRequestService {
	return &connectionRequestService{requestRepo: requestRepo, userRepo: userRepo, logger: logger}
}

// SendRequest creates a pending request from requester to recipient. At most
// one pending request may exist per pair regardless of direction; an already
// accepted pair cannot request again. The pending-pair uniqueness is also
// enforced by a partial unique index, so a racing duplicate surfaces as a
// conflict instead of a second row.
func (s *connectionRequestService) SendRequest(ctx context.Context, requesterID, recipientID uint) (*models.ConnectionRequest, error) {
	if requesterID == 0 || recipientID == 0 {
		return nil, apperrors.InvalidArgument("user ids must be set")
	}
	if requesterID == recipientID {
		return nil, apperrors.InvalidArgument("cannot send a connection request to yourself")
	}

	if _, err := s.userRepo.GetBasicInfoByID(ctx, recipientID); err != nil {
		return nil, apperrors.NotFound("recipient not found")
	}

	connected, err := s.requestRepo.AreConnected(ctx, requesterID, recipientID)
	if err != nil {
		return nil, apperrors.Internal(err, "checking existing connection")
	}
	if connected {
		return nil, apperrors.Conflict("you are already connected with this user")
	}

	pending, err := s.requestRepo.FindPendingBetween(ctx, requesterID, recipientID)
	if err != nil {
		return nil, apperrors.Internal(err, "checking pending requests")
	}
	if pending != nil {
		if pending.RequesterID == requesterID {
			return nil, apperrors.Conflict("you already sent this user a connection request")
		}
		return nil, apperrors.Conflict("this user already sent you a connection request")
	}

	request := &models.ConnectionRequest{
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.ConnectionRequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		if storage.IsUniqueViolation(err) {
			// Lost a race with a concurrent request for the same pair.
			return nil, apperrors.Conflict("a pending connection request already exists for this user")
		}
		return nil, apperrors.Internal(err, "creating connection request")
	}

	s.logger.WithFields(logrus.Fields{
		"requesterId": requesterID,
		"recipientId": recipientID,
		"requestId":   request.ID,
	}).Info("connection request sent")
	return request, nil
}

// Respond transitions a pending request to accepted or rejected. Only the
// recipient may respond, and only once: the transition is guarded by a
// conditional update so a repeated or concurrent respond reports a conflict.
func (s *connectionRequestService) Respond(ctx context.Context, callerID, requestID uint, decision ConnectionRequestDecision) (*models.ConnectionRequest, error) {
	var target models.ConnectionRequestStatus
	switch decision {
	case DecisionAccept:
		target = models.ConnectionRequestStatusAccepted
	case DecisionReject:
		target = models.ConnectionRequestStatusRejected
	default:
		return nil, apperrors.InvalidArgument(fmt.Sprintf("unknown decision %q", decision))
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, apperrors.NotFound("connection request not found")
	}
	if request.RecipientID != callerID {
		return nil, apperrors.Forbidden("only the recipient can respond to this request")
	}
	if request.Status != models.ConnectionRequestStatusPending {
		return nil, apperrors.Conflict("this request has already been responded to")
	}

	transitioned, err := s.requestRepo.UpdateStatusFromPending(ctx, requestID, target)
	if err != nil {
		return nil, apperrors.Internal(err, "updating connection request status")
	}
	if !transitioned {
		return nil, apperrors.Conflict("this request has already been responded to")
	}

	request.Status = target
	s.logger.WithFields(logrus.Fields{
		"requestId": requestID,
		"decision":  decision,
	}).Info("connection request responded")
	return request, nil
}

// ListByStatus returns the user's requests in the given status, annotated
// with the counterpart's profile. Profiles are looked up in one batch and a
// missing profile leaves the User field nil rather than failing the page.
func (s *connectionRequestService) ListByStatus(ctx context.Context, userID uint, status models.ConnectionRequestStatus) ([]models.ConnectionRequestView, error) {
	if !models.ValidConnectionRequestStatus(status) {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("unknown status %q", status))
	}

	requests, err := s.requestRepo.ListByUserAndStatus(ctx, userID, status)
	if err != nil {
		return nil, apperrors.Internal(err, "listing connection requests")
	}

	counterpartIDs := make([]uint, 0, len(requests))
	for _, request := range requests {
		if request.RequesterID == userID {
			counterpartIDs = append(counterpartIDs, request.RecipientID)
		} else {
			counterpartIDs = append(counterpartIDs, request.RequesterID)
		}
	}

	profiles := map[uint]*models.UserBasicInfo{}
	if len(counterpartIDs) > 0 {
		infos, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, counterpartIDs)
		if err != nil {
			s.logger.WithError(err).Warn("batch profile lookup failed, returning requests without profiles")
		} else {
			for _, info := range infos {
				profiles[info.ID] = info
			}
		}
	}

	views := make([]models.ConnectionRequestView, 0, len(requests))
	for i, request := range requests {
		isReceived := request.RecipientID == userID
		views = append(views, models.ConnectionRequestView{
			ConnectionRequest: request,
			IsReceived:        isReceived,
			User:              profiles[counterpartIDs[i]],
		})
	}
	return views, nil
}

func (s *connectionRequestService) AreConnected(ctx context.Context, userID1, userID2 uint) (bool, error) {
	return s.requestRepo.AreConnected(ctx, userID1, userID2)
}
