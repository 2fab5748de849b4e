package models

import (
	"encoding/json"
	"time"
)

// Comment belongs to a post and optionally replies to another comment on the same post.
type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	UserID          uint      `gorm:"not null;index" json:"userId"`
	User            User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	PostID          uint      `gorm:"not null;index" json:"postId"`
	ParentCommentID *uint     `gorm:"index" json:"parentCommentId"`
	Parent          *Comment  `gorm:"foreignKey:ParentCommentID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
}

// CommentAuthor is all a comment exposes about its author.
type CommentAuthor struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// Author returns the comment-author projection of u.
func (u User) Author() CommentAuthor {
	return CommentAuthor{ID: u.ID, Name: u.Name}
}

// MarshalJSON renders the author as id and name only.
func (c Comment) MarshalJSON() ([]byte, error) {
	type comment Comment
	return json.Marshal(struct {
		comment
		User CommentAuthor `json:"user"`
	}{comment: comment(c), User: c.User.Author()})
}
