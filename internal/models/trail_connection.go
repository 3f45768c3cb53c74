package models

// TrailConnection ("walked together") is the deep connection between two
// users, gated by mutual album favorites plus bidirectional reflections.
// UserAID is always the smaller id so a pair is represented by exactly one
// row regardless of initiation direction; uniqueness is enforced on
// (user_a_id, user_b_id). Rows are deactivated, never hard-deleted.
type TrailConnection struct {
	BaseModel
	UserAID         uint   `gorm:"not null;uniqueIndex:idx_trail_connections_pair" json:"userAId"`
	UserBID         uint   `gorm:"not null;uniqueIndex:idx_trail_connections_pair" json:"userBId"`
	MutualAlbumIDs  []uint `gorm:"type:jsonb;serializer:json" json:"mutualAlbumIds"`
	ReflectionCount int    `gorm:"not null;default:0" json:"reflectionCount"`
	IsActive        bool   `gorm:"not null;default:true" json:"isActive"`

	UserA User `gorm:"foreignKey:UserAID" json:"userA,omitempty"`
	UserB User `gorm:"foreignKey:UserBID" json:"userB,omitempty"`
}

// TableName specifies the table name for the TrailConnection model.
func (TrailConnection) TableName() string {
	return "trail_connections"
}

// EnsureCanonicalOrder sets UserAID to the smaller ID and UserBID to the
// larger ID. This must be called before every write.
func (t *TrailConnection) EnsureCanonicalOrder() {
	if t.UserAID > t.UserBID {
		t.UserAID, t.UserBID = t.UserBID, t.UserAID
	}
}

// Counterpart returns the other user of the pair.
func (t *TrailConnection) Counterpart(userID uint) uint {
	if t.UserAID == userID {
		return t.UserBID
	}
	return t.UserAID
}
