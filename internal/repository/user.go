package repository

import (
	"context"
	"errors"

	"socialhub/internal/cache"
	"socialhub/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error)
	SetProfilePicture(ctx context.Context, userID uint, file *models.File) (previous *string, err error)
	ClearProfilePicture(ctx context.Context, userID uint) (previous string, owned bool, err error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID is served through the Redis cache. The cached copy never carries the
// password hash, so callers must not write it back with Save.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User

	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error) {
	if len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("User", id)
		}
		cache.InvalidateUser(ctx, id)
	}
	return r.GetByID(ctx, id)
}

// SetProfilePicture records file and points the user's picture at it in one transaction.
// It returns the previous picture reference, if any.
func (r *userRepository) SetProfilePicture(ctx context.Context, userID uint, file *models.File) (*string, error) {
	var previous *string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "profile_pic").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", userID)
			}
			return err
		}
		previous = user.ProfilePic

		file.UserID = userID
		file.PostID = nil
		if err := tx.Create(file).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("profile_pic", file.URL).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, userID)
	return previous, nil
}

// ClearProfilePicture unsets the picture and drops its file row, returning the old
// reference. owned reports whether the reference was backed by the user's own
// standalone file row; only then may the caller remove the artifact.
func (r *userRepository) ClearProfilePicture(ctx context.Context, userID uint) (previous string, owned bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id", "profile_pic").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", userID)
			}
			return err
		}
		if user.ProfilePic == nil || *user.ProfilePic == "" {
			return models.NewNotFoundMessage("No profile picture found to delete.")
		}
		previous = *user.ProfilePic

		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("profile_pic", nil).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND url = ? AND post_id IS NULL", userID, previous).
			Delete(&models.File{})
		owned = res.RowsAffected > 0
		return res.Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return "", false, appErr
		}
		return "", false, models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, userID)
	return previous, owned, nil
}
