package models

// ConnectionRequestStatus defines the state of a connection request.
type ConnectionRequestStatus string

const (
	ConnectionRequestStatusPending  ConnectionRequestStatus = "pending"
	ConnectionRequestStatusAccepted ConnectionRequestStatus = "accepted"
	ConnectionRequestStatusRejected ConnectionRequestStatus = "rejected"
)

// ConnectionRequest records one directed request between two users.
// Rows are never deleted: accepted rows are the proof of connection and
// rejected rows back the "rejected" listing. At most one pending row may
// exist per unordered pair at any instant; that invariant is enforced by a
// partial unique index on (LEAST(requester_id, recipient_id),
// GREATEST(requester_id, recipient_id)) WHERE status = 'pending', created in
// storage.AutoMigrateTables. The application-level pre-checks are a fast path
// only; the index is the authoritative guard under concurrent sends.
type ConnectionRequest struct {
	BaseModel
	RequesterID uint                    `gorm:"not null;index:idx_connection_requests_users" json:"requesterId"`
	RecipientID uint                    `gorm:"not null;index:idx_connection_requests_users" json:"recipientId"`
	Status      ConnectionRequestStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
}

// ValidConnectionRequestStatus reports whether s is one of the known states.
func ValidConnectionRequestStatus(s ConnectionRequestStatus) bool {
	switch s {
	case ConnectionRequestStatusPending, ConnectionRequestStatusAccepted, ConnectionRequestStatusRejected:
		return true
	}
	return false
}

// TableName specifies the table name for the ConnectionRequest model.
func (ConnectionRequest) TableName() string {
	return "connection_requests"
}

// ConnectionRequestView is the listing DTO: the request annotated with which
// side the caller is on and the counterpart's public profile. User is null
// when the counterpart profile could not be resolved.
type ConnectionRequestView struct {
	ConnectionRequest
	IsReceived bool           `json:"isReceived"`
	User       *UserBasicInfo `json:"user"`
}
