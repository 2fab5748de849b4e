package server

import (
	"path/filepath"
	"strings"

	"socialhub/internal/models"
	"socialhub/internal/service"
	"socialhub/internal/storage"

	"github.com/gofiber/fiber/v2"
)

type postIDRequest struct {
	PostID uint `json:"postId"`
}

func parsePostIDBody(c *fiber.Ctx) (uint, error) {
	var req postIDRequest
	if err := c.BodyParser(&req); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return 0, errResponseWritten
	}
	if req.PostID == 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("postId is required"))
		return 0, errResponseWritten
	}
	return req.PostID, nil
}

// SummarizeComments handles POST /api/ai/summarize
// @Summary Summarize comments
// @Description Summarize the discussion under a post
// @Tags ai
// @Accept json
// @Produce json
// @Param request body object{postId=int} true "Post"
// @Success 200 {object} object{summary=string}
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /ai/summarize [post]
func (s *Server) SummarizeComments(c *fiber.Ctx) error {
	postID, err := parsePostIDBody(c)
	if err != nil {
		return nil
	}

	summary, err := s.aiService.SummarizeComments(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"summary": summary})
}

// SuggestReply handles POST /api/ai/suggest
// @Summary Suggest a reply
// @Description Draft a reply that moves the discussion under a post forward
// @Tags ai
// @Accept json
// @Produce json
// @Param request body object{postId=int} true "Post"
// @Success 200 {object} object{suggestion=string}
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /ai/suggest [post]
func (s *Server) SuggestReply(c *fiber.Ctx) error {
	postID, err := parsePostIDBody(c)
	if err != nil {
		return nil
	}

	suggestion, err := s.aiService.SuggestReply(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"suggestion": suggestion})
}

// AnalyzeResume handles POST /api/ai/analyze-resume
// @Summary Analyze resume
// @Description Score a PDF resume or a portfolio link against a target role
// @Tags ai
// @Accept multipart/form-data
// @Produce json
// @Param rolePreference formData string true "Target role"
// @Param resume formData file false "Resume PDF (max 5MB)"
// @Param portfolioLink formData string false "Portfolio URL"
// @Success 200 {object} ai.ResumeAnalysis
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /ai/analyze-resume [post]
func (s *Server) AnalyzeResume(c *fiber.Ctx) error {
	in := service.ResumeInput{
		RolePreference: c.FormValue("rolePreference"),
		PortfolioLink:  c.FormValue("portfolioLink"),
	}

	fh, err := c.FormFile("resume")
	if err != nil {
		fh, err = c.FormFile("file")
	}
	if err == nil && fh != nil {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Resume must be a PDF file"))
		}
		upload, err := storage.ReadUpload(fh, service.MaxResumeBytes)
		if err != nil {
			return respondError(c, err)
		}
		in.Resume = upload.Data
	}

	analysis, err := s.aiService.AnalyzeResume(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(analysis)
}
