package server

import (
	"socialhub/internal/models"
	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetComments handles GET /api/posts/:postId/comments
// @Summary List comments
// @Description Comments on a post, oldest first
// @Tags comments
// @Produce json
// @Param postId path int true "Post ID"
// @Success 200 {array} models.Comment
// @Router /posts/{postId}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:postId/comments
// @Summary Add comment
// @Description Comment on a post, optionally replying to another comment on the same post
// @Tags comments
// @Accept json
// @Produce json
// @Param postId path int true "Post ID"
// @Param request body object{content=string,parentCommentId=int} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{postId}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	var req struct {
		Content         string `json:"content"`
		ParentCommentID *uint  `json:"parentCommentId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		UserID:          currentUser(c).ID,
		PostID:          postID,
		Content:         req.Content,
		ParentCommentID: req.ParentCommentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.UserContext(), commentID, currentUser(c).ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(messageResponse{Message: "Comment deleted"})
}
