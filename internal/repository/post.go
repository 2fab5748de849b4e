package repository

import (
	"context"
	"errors"

	"socialhub/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Post, error)
	DeleteOwned(ctx context.Context, id, userID uint) (*models.Post, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func authorColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email", "profile_pic")
}

// withFeed preloads everything the post list renders.
func withFeed(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User", authorColumns).
		Preload("Files", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Comments.User", func(db *gorm.DB) *gorm.DB { return db.Select("id", "name") })
}

// Create inserts the post together with its file rows in one transaction.
func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewNotFoundError("User", post.UserID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withFeed(r.db.WithContext(ctx)).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	if err := withFeed(r.db.WithContext(ctx)).Order("created_at DESC, id DESC").Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	posts := []models.Post{}
	if err := withFeed(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// DeleteOwned removes the post only if userID owns it. Comments and file rows go with it
// through ON DELETE CASCADE. The deleted post is returned with its files so the caller
// can remove the stored artifacts. A missing or foreign post is reported as NOT_FOUND.
func (r *postRepository) DeleteOwned(ctx context.Context, id, userID uint) (*models.Post, error) {
	var post models.Post

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Files").Where("id = ? AND user_id = ?", id, userID).First(&post).Error; err != nil {
			return err
		}
		// Explicit child deletes keep SQLite without foreign_keys consistent too.
		if err := tx.Where("post_id = ?", id).Delete(&models.File{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}
