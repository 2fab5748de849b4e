package repository

import (
	"context"

	"socialhub/internal/models"

	"gorm.io/gorm"
)

// FileRepository answers questions about stored media rows.
type FileRepository interface {
	IsReferenced(ctx context.Context, url string) (bool, error)
	DeleteProfileFile(ctx context.Context, userID uint, url string) (bool, error)
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository returns a new FileRepository implementation.
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

// IsReferenced reports whether any file row or profile picture points at url.
func (r *fileRepository) IsReferenced(ctx context.Context, url string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.File{}).Where("url = ?", url).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	if count > 0 {
		return true, nil
	}
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("profile_pic = ?", url).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// DeleteProfileFile drops the standalone file row for a replaced profile picture.
// It reports false when userID owns no such row.
func (r *fileRepository) DeleteProfileFile(ctx context.Context, userID uint, url string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND url = ? AND post_id IS NULL", userID, url).
		Delete(&models.File{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
