package models

import "time"

// FileType classifies stored media.
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypeVideo FileType = "video"
	FileTypeOther FileType = "other"
)

// File records a stored media artifact. PostID is nil for profile pictures.
type File struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	URL       string    `gorm:"size:512;not null;index" json:"url"`
	Type      FileType  `gorm:"size:16;not null" json:"type"`
	MimeType  string    `gorm:"size:100" json:"mimeType"`
	SizeBytes int64     `json:"size"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	PostID    *uint     `gorm:"index" json:"postId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
