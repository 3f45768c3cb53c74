package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"trailbook/internal/models"
)

// ConnectionRequestRepository defines the interface for connection request
// data operations.
type ConnectionRequestRepository interface {
	Create(ctx context.Context, request *models.ConnectionRequest) error
	GetByID(ctx context.Context, requestID uint) (*models.ConnectionRequest, error)
	// FindPendingBetween returns the pending request between two users in
	// either direction, or nil if none exists.
	FindPendingBetween(ctx context.Context, userID1, userID2 uint) (*models.ConnectionRequest, error)
	// AreConnected reports whether an accepted request exists for the pair in
	// either direction.
	AreConnected(ctx context.Context, userID1, userID2 uint) (bool, error)
	// UpdateStatusFromPending transitions the request out of pending. It
	// reports false when the row was no longer pending, so a concurrent or
	// repeated respond is detected at the storage level.
	UpdateStatusFromPending(ctx context.Context, requestID uint, status models.ConnectionRequestStatus) (bool, error)
	ListByUserAndStatus(ctx context.Context, userID uint, status models.ConnectionRequestStatus) ([]models.ConnectionRequest, error)
}

type gormConnectionRequestRepository struct {
	db *gorm.DB
}

// NewGormConnectionRequestRepository creates a new GORM-based
// ConnectionRequestRepository.
func NewGormConnectionRequestRepository(db *gorm.DB) ConnectionRequestRepository {
	return &gormConnectionRequestRepository{db: db}
}

func (r *gormConnectionRequestRepository) Create(ctx context.Context, request *models.ConnectionRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *gormConnectionRequestRepository) GetByID(ctx context.Context, requestID uint) (*models.ConnectionRequest, error) {
	var request models.ConnectionRequest
	err := r.db.WithContext(ctx).First(&request, requestID).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *gormConnectionRequestRepository) FindPendingBetween(ctx context.Context, userID1, userID2 uint) (*models.ConnectionRequest, error) {
	var request models.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)",
			userID1, userID2, userID2, userID1).
		Where("status = ?", models.ConnectionRequestStatusPending).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // no pending request is not an error here
		}
		return nil, err
	}
	return &request, nil
}

func (r *gormConnectionRequestRepository) AreConnected(ctx context.Context, userID1, userID2 uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ConnectionRequest{}).
		Where("(requester_id = ? AND recipient_id = ?) OR (requester_id = ? AND recipient_id = ?)",
			userID1, userID2, userID2, userID1).
		Where("status = ?", models.ConnectionRequestStatusAccepted).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *gormConnectionRequestRepository) UpdateStatusFromPending(ctx context.Context, requestID uint, status models.ConnectionRequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ConnectionRequest{}).
		Where("id = ? AND status = ?", requestID, models.ConnectionRequestStatusPending).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *gormConnectionRequestRepository) ListByUserAndStatus(ctx context.Context, userID uint, status models.ConnectionRequestStatus) ([]models.ConnectionRequest, error) {
	var requests []models.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("(requester_id = ? OR recipient_id = ?) AND status = ?", userID, userID, status).
		Order("updated_at DESC").
		Find(&requests).Error
	return requests, err
}
