package server

import (
	"fmt"
	"strings"

	"socialhub/internal/models"
	"socialhub/internal/service"
	"socialhub/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// mediaField is the multipart field carrying post attachments.
const mediaField = "mediaFiles"

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description Create a post with text content and up to 5 image or video attachments
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param content formData string false "Post text"
// @Param mediaFiles formData file false "Attachment (repeatable, max 5)"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	user := currentUser(c)
	in := service.CreatePostInput{UserID: user.ID}

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid multipart form"))
		}
		if values := form.Value["content"]; len(values) > 0 {
			in.Content = values[0]
		}
		headers := form.File[mediaField]
		if len(headers) > storage.MaxFilesPerPost {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(fmt.Sprintf("You can upload at most %d files per post", storage.MaxFilesPerPost)))
		}
		for _, fh := range headers {
			upload, err := storage.ReadUpload(fh, s.config.MaxUploadBytes())
			if err != nil {
				return respondError(c, err)
			}
			in.Files = append(in.Files, upload)
		}
	} else {
		var req struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Content = req.Content
	}

	post, err := s.postService.CreatePost(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description All posts, newest first, with author, media and comments
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPosts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetMyPosts handles GET /api/posts/me
// @Summary List my posts
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Security BearerAuth
// @Router /posts/me [get]
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListUserPosts(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description Delete an owned post together with its comments and stored media
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), postID, currentUser(c).ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(messageResponse{Message: "Post deleted"})
}
