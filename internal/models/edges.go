package models

// AlbumFavorite is a user → album edge. Together with Reflection it is one of
// the two inputs to the deep-connection eligibility computation.
type AlbumFavorite struct {
	BaseModel
	UserID  uint `gorm:"not null;uniqueIndex:idx_album_favorites_user_album" json:"userId"`
	AlbumID uint `gorm:"not null;uniqueIndex:idx_album_favorites_user_album" json:"albumId"`

	User  User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Album Album `gorm:"foreignKey:AlbumID" json:"album,omitempty"`
}

// TableName specifies the table name for the AlbumFavorite model.
func (AlbumFavorite) TableName() string {
	return "album_favorites"
}

// ReflectionReason is the bounded set of reason tags a reflection can carry.
type ReflectionReason string

const (
	ReflectionReasonMoved     ReflectionReason = "moved_me"
	ReflectionReasonBeautiful ReflectionReason = "beautiful"
	ReflectionReasonNostalgic ReflectionReason = "nostalgic"
	ReflectionReasonInspiring ReflectionReason = "inspiring"
	ReflectionReasonFunny     ReflectionReason = "funny"
)

// ValidReflectionReason reports whether r is one of the allowed tags.
func ValidReflectionReason(r ReflectionReason) bool {
	switch r {
	case ReflectionReasonMoved, ReflectionReasonBeautiful, ReflectionReasonNostalgic,
		ReflectionReasonInspiring, ReflectionReasonFunny:
		return true
	}
	return false
}

// Reflection is a user → media edge: a reaction on a specific media item.
// Anonymity affects display only; anonymous reflections still count toward
// connection eligibility.
type Reflection struct {
	BaseModel
	AuthorID    uint             `gorm:"not null;index:idx_reflections_author_media" json:"authorId"`
	MediaID     uint             `gorm:"not null;index:idx_reflections_author_media" json:"mediaId"`
	Reason      ReflectionReason `gorm:"type:varchar(30);not null" json:"reason"`
	IsAnonymous bool             `gorm:"default:false" json:"isAnonymous"`
	Note        string           `gorm:"type:text" json:"note,omitempty"`

	Author User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Media  Media `gorm:"foreignKey:MediaID" json:"media,omitempty"`
}

// TableName specifies the table name for the Reflection model.
func (Reflection) TableName() string {
	return "reflections"
}
