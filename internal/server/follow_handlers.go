package server

import (
	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/follow/:id/follow
// @Summary Follow user
// @Tags follow
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /follow/{id}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.followService.Follow(c.UserContext(), currentUser(c), targetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(messageResponse{Message: "User followed successfully"})
}

// UnfollowUser handles POST /api/follow/:id/unfollow
// @Summary Unfollow user
// @Tags follow
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /follow/{id}/unfollow [post]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.followService.Unfollow(c.UserContext(), currentUser(c).ID, targetID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(messageResponse{Message: "User unfollowed successfully"})
}

// GetFollowers handles GET /api/follow/:id/followers
// @Summary List followers
// @Tags follow
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.UserSummary
// @Router /follow/{id}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	users, err := s.followService.Followers(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/follow/:id/following
// @Summary List followed users
// @Tags follow
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.UserSummary
// @Router /follow/{id}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	users, err := s.followService.Following(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetFollowStatus handles GET /api/follow/:id/status
// @Summary Follow status
// @Description Whether the caller follows the given user
// @Tags follow
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{isFollowing=bool}
// @Security BearerAuth
// @Router /follow/{id}/status [get]
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	following, err := s.followService.IsFollowing(c.UserContext(), currentUser(c).ID, targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"isFollowing": following})
}
