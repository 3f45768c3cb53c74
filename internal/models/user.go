package models

import "time"

// User represents an account in the system.
type User struct {
	BaseModel
	Username     string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"` // never expose the hash
	Email        string     `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	Nickname     string     `gorm:"type:varchar(100)" json:"nickname,omitempty"`
	AvatarURL    string     `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
	Bio          string     `gorm:"type:text" json:"bio,omitempty"`
	PushToken    string     `gorm:"type:varchar(255)" json:"-"` // push-registration token, absent for offline/unregistered devices
	LastSeenAt   *time.Time `json:"lastSeenAt,omitempty"`

	Albums []Album `gorm:"foreignKey:OwnerID" json:"albums,omitempty"`
}

// UserBasicInfo holds minimal public information about a user.
// Used wherever a counterpart profile is embedded in a listing.
type UserBasicInfo struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
