// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Email       string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	ProfilePic  *string   `gorm:"size:512" json:"profilePic"`
	Description *string   `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// UserSummary is the public projection of a user embedded in other resources.
type UserSummary struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email,omitempty"`
	ProfilePic *string `json:"profilePic,omitempty"`
}

// Summary returns the public projection of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, ProfilePic: u.ProfilePic}
}

// Profile is a user together with follow counters.
type Profile struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	ProfilePic     *string `json:"profilePic"`
	Description    *string `json:"description"`
	FollowersCount int64   `json:"followersCount"`
	FollowingCount int64   `json:"followingCount"`
}
