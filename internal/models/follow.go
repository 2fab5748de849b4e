package models

import "time"

// Follow is a directed edge from follower to following.
type Follow struct {
	FollowerID  uint      `gorm:"primaryKey;autoIncrement:false;check:chk_follows_not_self,follower_id <> following_id" json:"followerId"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followingId"`
	Follower    User      `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following   User      `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName returns the database table name for Follow.
func (Follow) TableName() string {
	return "follows"
}
