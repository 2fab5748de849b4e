package service

import (
	"context"

	"socialhub/internal/models"
	"socialhub/internal/notifications"
	"socialhub/internal/repository"
)

const MsgCannotFollowSelf = "You cannot follow yourself"

type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	events  EventPublisher
}

func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, events EventPublisher) *FollowService {
	return &FollowService{follows: follows, users: users, events: events}
}

// Follow creates the follower -> target edge and notifies the target.
func (s *FollowService) Follow(ctx context.Context, follower *models.User, targetID uint) error {
	if follower.ID == targetID {
		return models.NewValidationError(MsgCannotFollowSelf)
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		if hasCode(err, models.CodeNotFound) {
			return models.NewNotFoundMessage("User not found")
		}
		return err
	}
	if err := s.follows.Create(ctx, follower.ID, targetID); err != nil {
		if hasCode(err, models.CodeNotFound) {
			return models.NewNotFoundMessage("User not found")
		}
		return err
	}

	publish(ctx, s.events, targetID, notifications.EventNewFollower, map[string]any{
		"follower": follower.Summary(),
	})
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	return s.follows.Delete(ctx, followerID, targetID)
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, targetID uint) (bool, error) {
	return s.follows.Exists(ctx, followerID, targetID)
}

func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	users, err := s.follows.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	users, err := s.follows.ListFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return summaries(users), nil
}

func summaries(users []models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out
}
