package models

// Album is a user-owned photo album. Albums are soft-deleted; the eligibility
// computation only ever sees live albums.
type Album struct {
	BaseModel
	OwnerID     uint   `gorm:"not null;index" json:"ownerId"`
	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	CoverURL    string `gorm:"type:varchar(255)" json:"coverUrl,omitempty"`
	IsPublic    bool   `gorm:"default:true" json:"isPublic"`

	Owner User    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Media []Media `gorm:"foreignKey:AlbumID" json:"media,omitempty"`
}

// TableName specifies the table name for the Album model.
func (Album) TableName() string {
	return "albums"
}

// Media is a single photo/video inside an album.
type Media struct {
	BaseModel
	AlbumID  uint   `gorm:"not null;index" json:"albumId"`
	FileKey  string `gorm:"type:varchar(255);not null" json:"fileKey"`
	FileURL  string `gorm:"type:varchar(255)" json:"fileUrl,omitempty"`
	MimeType string `gorm:"type:varchar(100)" json:"mimeType,omitempty"`
	Caption  string `gorm:"type:text" json:"caption,omitempty"`

	Album Album `gorm:"foreignKey:AlbumID" json:"album,omitempty"`
}

// TableName specifies the table name for the Media model.
func (Media) TableName() string {
	return "media"
}
