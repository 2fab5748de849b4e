package service

import (
	"context"
	"fmt"
	"strings"

	"socialhub/internal/models"
	"socialhub/internal/notifications"
	"socialhub/internal/repository"
)

const (
	MsgCommentNotFound     = "Comment not found"
	MsgCommentDeleteDenied = "Not authorized to delete this comment"
	maxCommentLen          = 5000
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	events   EventPublisher
}

type AddCommentInput struct {
	UserID          uint
	PostID          uint
	Content         string
	ParentCommentID *uint
}

func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, events EventPublisher) *CommentService {
	return &CommentService{comments: comments, posts: posts, events: events}
}

// AddComment attaches a comment to an existing post, optionally as a reply to
// another comment on the same post.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Comment content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError(fmt.Sprintf("Comment too long (max %d characters)", maxCommentLen))
	}

	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		if hasCode(err, models.CodeNotFound) {
			return nil, models.NewNotFoundMessage("Post not found")
		}
		return nil, err
	}

	if in.ParentCommentID != nil {
		parent, err := s.comments.GetByID(ctx, *in.ParentCommentID)
		if err != nil {
			if hasCode(err, models.CodeNotFound) {
				return nil, models.NewValidationError("Parent comment does not exist")
			}
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		Content:         content,
		UserID:          in.UserID,
		PostID:          in.PostID,
		ParentCommentID: in.ParentCommentID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if post.UserID != in.UserID {
		publish(ctx, s.events, post.UserID, notifications.EventCommentCreated, map[string]any{
			"postId":    post.ID,
			"commentId": comment.ID,
			"content":   comment.Content,
			"user":      comment.User.Author(),
		})
	}
	return comment, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.comments.ListByPost(ctx, postID)
}

// DeleteComment removes a comment authored by userID.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, userID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		if hasCode(err, models.CodeNotFound) {
			return models.NewNotFoundMessage(MsgCommentNotFound)
		}
		return err
	}
	if comment.UserID != userID {
		return models.NewUnauthorizedError(MsgCommentDeleteDenied)
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		if hasCode(err, models.CodeNotFound) {
			return models.NewNotFoundMessage(MsgCommentNotFound)
		}
		return err
	}
	return nil
}
