package repository

import (
	"context"

	"socialhub/internal/models"

	"gorm.io/gorm"
)

// FollowRepository manages follower -> following edges.
type FollowRepository interface {
	Create(ctx context.Context, followerID, followingID uint) error
	Delete(ctx context.Context, followerID, followingID uint) error
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	ListFollowers(ctx context.Context, userID uint) ([]models.User, error)
	ListFollowing(ctx context.Context, userID uint) ([]models.User, error)
	Counts(ctx context.Context, userID uint) (followers int64, following int64, err error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Create inserts the edge. The composite primary key settles concurrent duplicates.
func (r *followRepository) Create(ctx context.Context, followerID, followingID uint) error {
	follow := models.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := r.db.WithContext(ctx).Create(&follow).Error; err != nil {
		switch {
		case isUniqueConstraintError(err):
			return models.NewConflictError("Already following this user")
		case isCheckConstraintError(err):
			return models.NewValidationError("You cannot follow yourself")
		case isForeignKeyError(err):
			return models.NewNotFoundError("User", followingID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundMessage("Not following this user")
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) listUsers(ctx context.Context, joinOn, where string, userID uint) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Select("users.id", "users.name", "users.email", "users.profile_pic").
		Joins("JOIN follows ON follows."+joinOn+" = users.id").
		Where("follows."+where+" = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// ListFollowers returns users who follow userID.
func (r *followRepository) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	return r.listUsers(ctx, "follower_id", "following_id", userID)
}

// ListFollowing returns users userID follows.
func (r *followRepository) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	return r.listUsers(ctx, "following_id", "follower_id", userID)
}

func (r *followRepository) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	var followers, following int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, models.NewInternalError(err)
	}
	return followers, following, nil
}
