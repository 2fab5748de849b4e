package service

import (
	"context"
	"fmt"
	"strings"

	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/repository"
	"socialhub/internal/storage"
)

const (
	MsgPostEmpty        = "Post must have text content or at least one media file"
	MsgPostDeleteDenied = "Unauthorized or post not found"
	maxPostContentLen   = 10000
)

type PostService struct {
	posts          repository.PostRepository
	store          storage.MediaStore
	maxUploadBytes int64
}

type CreatePostInput struct {
	UserID  uint
	Content string
	Files   []storage.Upload
}

func NewPostService(posts repository.PostRepository, store storage.MediaStore, maxUploadBytes int64) *PostService {
	return &PostService{posts: posts, store: store, maxUploadBytes: maxUploadBytes}
}

// CreatePost validates every upload, writes the artifacts, then commits the post
// and its file rows. If the commit fails the written artifacts are removed.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && len(in.Files) == 0 {
		return nil, models.NewValidationError(MsgPostEmpty)
	}
	if len(content) > maxPostContentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Content too long (max %d characters)", maxPostContentLen))
	}
	if len(in.Files) > storage.MaxFilesPerPost {
		return nil, models.NewValidationError(fmt.Sprintf("You can upload at most %d files per post", storage.MaxFilesPerPost))
	}

	checked := make([]storage.Checked, 0, len(in.Files))
	for _, u := range in.Files {
		c, err := storage.Validate(u, s.maxUploadBytes)
		if err != nil {
			return nil, err
		}
		checked = append(checked, c)
	}

	batch := storage.NewBatch(s.store)
	files := make([]models.File, 0, len(checked))
	for _, c := range checked {
		a, err := batch.Save(ctx, "media", c.Ext, c.Data)
		if err != nil {
			batch.Rollback(ctx)
			return nil, models.NewInternalError(err)
		}
		observability.MediaStoredBytes.WithLabelValues(string(c.Type)).Add(float64(a.Size))
		files = append(files, models.File{
			URL:       a.URL,
			Type:      c.Type,
			MimeType:  c.MimeType,
			SizeBytes: a.Size,
			UserID:    in.UserID,
		})
	}

	post := &models.Post{Content: content, UserID: in.UserID, Files: files}
	if err := s.posts.Create(ctx, post); err != nil {
		middleware.Logger.WarnContext(ctx, "post insert failed, removing uploaded media",
			"artifacts", len(files), "error", err)
		batch.Rollback(ctx)
		return nil, err
	}

	created, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *PostService) ListPosts(ctx context.Context) ([]models.Post, error) {
	return s.posts.List(ctx)
}

func (s *PostService) ListUserPosts(ctx context.Context, userID uint) ([]models.Post, error) {
	return s.posts.ListByUser(ctx, userID)
}

// DeletePost removes an owned post and then its stored media. A missing post and
// a post owned by someone else are reported identically.
func (s *PostService) DeletePost(ctx context.Context, postID, userID uint) error {
	post, err := s.posts.DeleteOwned(ctx, postID, userID)
	if err != nil {
		if hasCode(err, models.CodeNotFound) {
			return models.NewForbiddenError(MsgPostDeleteDenied)
		}
		return err
	}

	urls := make([]string, 0, len(post.Files))
	for _, f := range post.Files {
		urls = append(urls, f.URL)
	}
	storage.RemoveAll(ctx, s.store, urls, "post_delete")
	return nil
}
