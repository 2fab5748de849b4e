package service

import (
	"context"
	"strings"

	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/observability"
	"socialhub/internal/repository"
	"socialhub/internal/storage"
)

const (
	MsgUserNotFound          = "User not found"
	MsgProfilePhotoUpdated   = "Profile photo updated successfully"
	MsgProfilePictureDeleted = "Profile picture deleted successfully."
	maxDescriptionLen        = 1000
	maxProfilePicRefLen      = 512
)

// ProfileImageOptions controls how uploaded still images are normalized.
type ProfileImageOptions struct {
	MaxPx   int
	Quality int
}

type UserService struct {
	users          repository.UserRepository
	follows        repository.FollowRepository
	files          repository.FileRepository
	store          storage.MediaStore
	maxUploadBytes int64
	image          ProfileImageOptions
}

// UpdateProfileInput carries a partial update. Nil fields are left untouched;
// ClearDescription and ClearProfilePic null the column.
type UpdateProfileInput struct {
	UserID           uint
	Name             *string
	ProfilePic       *string
	ClearProfilePic  bool
	Description      *string
	ClearDescription bool
}

func NewUserService(
	users repository.UserRepository,
	follows repository.FollowRepository,
	files repository.FileRepository,
	store storage.MediaStore,
	maxUploadBytes int64,
	image ProfileImageOptions,
) *UserService {
	return &UserService{
		users:          users,
		follows:        follows,
		files:          files,
		store:          store,
		maxUploadBytes: maxUploadBytes,
		image:          image,
	}
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if hasCode(err, models.CodeNotFound) {
			return nil, models.NewNotFoundMessage(MsgUserNotFound)
		}
		return nil, err
	}
	return s.profileOf(ctx, user)
}

func (s *UserService) profileOf(ctx context.Context, user *models.User) (*models.Profile, error) {
	followers, following, err := s.follows.Counts(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		ProfilePic:     user.ProfilePic,
		Description:    user.Description,
		FollowersCount: followers,
		FollowingCount: following,
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Profile, error) {
	fields := map[string]interface{}{}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, models.NewValidationError("name cannot be empty")
		}
		if len(name) > 100 {
			return nil, models.NewValidationError("name must be at most 100 characters")
		}
		fields["name"] = name
	}

	switch {
	case in.ClearDescription:
		fields["description"] = nil
	case in.Description != nil:
		if len(*in.Description) > maxDescriptionLen {
			return nil, models.NewValidationError("description must be at most 1000 characters")
		}
		fields["description"] = *in.Description
	}

	switch {
	case in.ClearProfilePic:
		fields["profile_pic"] = nil
	case in.ProfilePic != nil:
		ref := strings.TrimSpace(*in.ProfilePic)
		if ref == "" || len(ref) > maxProfilePicRefLen {
			return nil, models.NewValidationError("profilePic must be a non-empty reference of at most 512 characters")
		}
		fields["profile_pic"] = ref
	}

	user, err := s.users.UpdateFields(ctx, in.UserID, fields)
	if err != nil {
		if hasCode(err, models.CodeNotFound) {
			return nil, models.NewNotFoundMessage(MsgUserNotFound)
		}
		return nil, err
	}
	return s.profileOf(ctx, user)
}

// UploadProfilePicture stores a new picture and points the user at it. Still
// images are re-encoded as WebP. The previous artifact is removed afterwards.
func (s *UserService) UploadProfilePicture(ctx context.Context, userID uint, upload storage.Upload) (string, error) {
	checked, err := storage.Validate(upload, s.maxUploadBytes)
	if err != nil {
		return "", err
	}

	data, ext, mimeType := checked.Data, checked.Ext, checked.MimeType
	if checked.Type == models.FileTypeImage {
		data, err = storage.NormalizeImage(checked.Data, s.image.MaxPx, s.image.Quality)
		if err != nil {
			return "", models.NewValidationError("Could not process image: " + err.Error())
		}
		ext, mimeType = ".webp", "image/webp"
	}

	batch := storage.NewBatch(s.store)
	artifact, err := batch.Save(ctx, "profilePic", ext, data)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	observability.MediaStoredBytes.WithLabelValues(string(checked.Type)).Add(float64(artifact.Size))

	file := &models.File{
		URL:       artifact.URL,
		Type:      checked.Type,
		MimeType:  mimeType,
		SizeBytes: artifact.Size,
	}
	previous, err := s.users.SetProfilePicture(ctx, userID, file)
	if err != nil {
		batch.Rollback(ctx)
		return "", err
	}

	if previous != nil && *previous != "" && *previous != artifact.URL {
		owned, err := s.files.DeleteProfileFile(ctx, userID, *previous)
		switch {
		case err != nil:
			middleware.Logger.WarnContext(ctx, "failed to remove previous profile file row",
				"url", *previous, "error", err)
		case owned:
			storage.RemoveAll(ctx, s.store, []string{*previous}, "profile_replace")
		}
	}
	return artifact.URL, nil
}

// DeleteProfilePicture clears the reference. The stored artifact is removed only
// when it was uploaded as this user's picture; a reference set by hand to some
// other URL is just dropped.
func (s *UserService) DeleteProfilePicture(ctx context.Context, userID uint) error {
	previous, owned, err := s.users.ClearProfilePicture(ctx, userID)
	if err != nil {
		return err
	}
	if owned {
		storage.RemoveAll(ctx, s.store, []string{previous}, "profile_delete")
	}
	return nil
}
