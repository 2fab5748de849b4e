package models

import (
	"encoding/json"
	"time"
)

// Post is a piece of user content with optional media attachments.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text" json:"content"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Files     []File    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"files"`
	Comments  []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// MarshalJSON renders the author through UserSummary.
func (p Post) MarshalJSON() ([]byte, error) {
	type post Post
	return json.Marshal(struct {
		post
		User UserSummary `json:"user"`
	}{post: post(p), User: p.User.Summary()})
}
