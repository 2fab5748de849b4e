package service

import (
	"context"
	"testing"

	"socialhub/internal/models"
	"socialhub/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postsWithOwner(owner uint) *postRepoStub {
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		if id != 1 {
			return nil, models.NewNotFoundError("Post", id)
		}
		return &models.Post{ID: 1, UserID: owner}, nil
	}
	return repo
}

func TestCommentService_AddComment(t *testing.T) {
	t.Parallel()

	t.Run("notifies post owner", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.createFn = func(_ context.Context, c *models.Comment) error {
			c.ID = 3
			c.User = models.User{ID: c.UserID, Name: "Jane"}
			return nil
		}
		events := &eventRecorder{}
		svc := NewCommentService(comments, postsWithOwner(9), events)

		c, err := svc.AddComment(context.Background(), AddCommentInput{UserID: 2, PostID: 1, Content: " hi "})
		require.NoError(t, err)
		assert.Equal(t, "hi", c.Content)
		require.Len(t, events.events, 1)
		assert.Equal(t, uint(9), events.events[0].UserID)
		assert.Equal(t, notifications.EventCommentCreated, events.events[0].Type)
	})

	t.Run("no self notification", func(t *testing.T) {
		t.Parallel()
		events := &eventRecorder{}
		svc := NewCommentService(noopCommentRepo(), postsWithOwner(2), events)
		_, err := svc.AddComment(context.Background(), AddCommentInput{UserID: 2, PostID: 1, Content: "mine"})
		require.NoError(t, err)
		assert.Empty(t, events.events)
	})

	t.Run("missing post", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(noopCommentRepo(), postsWithOwner(2), nil)
		_, err := svc.AddComment(context.Background(), AddCommentInput{UserID: 2, PostID: 99, Content: "x"})
		assertAppError(t, err, models.CodeNotFound)
	})

	t.Run("empty content", func(t *testing.T) {
		t.Parallel()
		svc := NewCommentService(noopCommentRepo(), postsWithOwner(2), nil)
		_, err := svc.AddComment(context.Background(), AddCommentInput{UserID: 2, PostID: 1, Content: "  "})
		assertAppError(t, err, models.CodeValidation)
	})

	t.Run("parent on another post", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 42}, nil
		}
		parent := uint(8)
		svc := NewCommentService(comments, postsWithOwner(2), nil)
		_, err := svc.AddComment(context.Background(), AddCommentInput{UserID: 2, PostID: 1, Content: "x", ParentCommentID: &parent})
		assertAppError(t, err, models.CodeValidation)
	})

	t.Run("reply on same post", func(t *testing.T) {
		t.Parallel()
		comments := noopCommentRepo()
		comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id, PostID: 1}, nil
		}
		parent := uint(8)
		svc := NewCommentService(comments, postsWithOwner(2), nil)
		c, err := svc.AddComment(context.Background(), AddCommentInput{UserID: 2, PostID: 1, Content: "x", ParentCommentID: &parent})
		require.NoError(t, err)
		assert.Equal(t, &parent, c.ParentCommentID)
	})
}

func TestCommentService_DeleteComment(t *testing.T) {
	t.Parallel()

	comments := noopCommentRepo()
	comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
		if id == 404 {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return &models.Comment{ID: id, UserID: 2}, nil
	}
	deleted := 0
	comments.deleteFn = func(_ context.Context, _ uint) error {
		deleted++
		return nil
	}
	svc := NewCommentService(comments, noopPostRepo(), nil)

	err := svc.DeleteComment(context.Background(), 404, 2)
	appErr := assertAppError(t, err, models.CodeNotFound)
	assert.Equal(t, MsgCommentNotFound, appErr.Message)

	err = svc.DeleteComment(context.Background(), 5, 3)
	appErr = assertAppError(t, err, models.CodeUnauthorized)
	assert.Equal(t, MsgCommentDeleteDenied, appErr.Message)
	assert.Equal(t, 0, deleted)

	require.NoError(t, svc.DeleteComment(context.Background(), 5, 2))
	assert.Equal(t, 1, deleted)
}
