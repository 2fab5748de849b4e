package server

import (
	"socialhub/internal/models"
	"socialhub/internal/service"
	"socialhub/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/tidwall/gjson"
)

// GetProfile handles GET /api/users/profile/:id
// @Summary Get profile
// @Description Profile with follower and following counts
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/profile/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile handles PUT /api/users/profile
// @Summary Update profile
// @Description Partial update. Absent fields are untouched; null clears description or profilePic.
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{name=string,profilePic=string,description=string} true "Profile fields"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	body := c.Body()
	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdateProfileInput{UserID: currentUser(c).ID}
	var err error
	if in.Name, _, err = optionalString(body, "name"); err != nil {
		return respondError(c, err)
	}
	if in.Description, in.ClearDescription, err = optionalString(body, "description"); err != nil {
		return respondError(c, err)
	}
	if in.ProfilePic, in.ClearProfilePic, err = optionalString(body, "profilePic"); err != nil {
		return respondError(c, err)
	}

	profile, err := s.userService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// optionalString distinguishes an absent key, an explicit null and a string value.
func optionalString(body []byte, key string) (*string, bool, error) {
	v := gjson.GetBytes(body, key)
	switch {
	case !v.Exists():
		return nil, false, nil
	case v.Type == gjson.Null:
		return nil, true, nil
	case v.Type == gjson.String:
		str := v.String()
		return &str, false, nil
	default:
		return nil, false, models.NewValidationError(key + " must be a string")
	}
}

// DeleteProfilePicture handles DELETE /api/users/profile-pic
// @Summary Delete profile picture
// @Tags users
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/profile-pic [delete]
func (s *Server) DeleteProfilePicture(c *fiber.Ctx) error {
	if err := s.userService.DeleteProfilePicture(c.UserContext(), currentUser(c).ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(messageResponse{Message: service.MsgProfilePictureDeleted})
}

// UploadProfilePicture handles POST /api/upload
// @Summary Upload profile picture
// @Description Still images are resized and stored as WebP
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Picture"
// @Success 200 {object} object{message=string,profilePic=string}
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /upload [post]
func (s *Server) UploadProfilePicture(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	upload, err := storage.ReadUpload(fh, s.config.MaxUploadBytes())
	if err != nil {
		return respondError(c, err)
	}

	url, err := s.userService.UploadProfilePicture(c.UserContext(), currentUser(c).ID, upload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    service.MsgProfilePhotoUpdated,
		"profilePic": url,
	})
}
