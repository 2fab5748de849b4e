package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"socialhub/internal/models"
	"socialhub/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(users *userRepoStub, files *fileRepoStub, store *memStore) *UserService {
	follows := noopFollowRepo()
	follows.countsFn = func(_ context.Context, _ uint) (int64, int64, error) { return 3, 4, nil }
	return NewUserService(users, follows, files, store, testMaxUpload, ProfileImageOptions{MaxPx: 64, Quality: 80})
}

func TestUserService_GetProfile(t *testing.T) {
	t.Parallel()
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		if id == 9 {
			return nil, models.NewNotFoundError("User", id)
		}
		return &models.User{ID: id, Name: "John", Email: "john@example.com"}, nil
	}
	svc := newTestUserService(users, noopFileRepo(), newMemStore())

	profile, err := svc.GetProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), profile.FollowersCount)
	assert.Equal(t, int64(4), profile.FollowingCount)

	_, err = svc.GetProfile(context.Background(), 9)
	appErr := assertAppError(t, err, models.CodeNotFound)
	assert.Equal(t, MsgUserNotFound, appErr.Message)
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()

	t.Run("partial update only sends present fields", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		var got map[string]interface{}
		users.updateFieldsFn = func(_ context.Context, id uint, fields map[string]interface{}) (*models.User, error) {
			got = fields
			return &models.User{ID: id, Name: "New"}, nil
		}
		name := " New "
		profile, err := newTestUserService(users, noopFileRepo(), newMemStore()).UpdateProfile(context.Background(),
			UpdateProfileInput{UserID: 1, Name: &name, ClearDescription: true})
		require.NoError(t, err)
		assert.Equal(t, "New", profile.Name)
		assert.Equal(t, map[string]interface{}{"name": "New", "description": nil}, got)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		t.Parallel()
		blank := "  "
		_, err := newTestUserService(noopUserRepo(), noopFileRepo(), newMemStore()).UpdateProfile(context.Background(),
			UpdateProfileInput{UserID: 1, Name: &blank})
		assertAppError(t, err, models.CodeValidation)
	})

	t.Run("rejects long description", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("d", maxDescriptionLen+1)
		_, err := newTestUserService(noopUserRepo(), noopFileRepo(), newMemStore()).UpdateProfile(context.Background(),
			UpdateProfileInput{UserID: 1, Description: &long})
		assertAppError(t, err, models.CodeValidation)
	})
}

func TestUserService_UploadProfilePicture(t *testing.T) {
	t.Parallel()

	t.Run("normalizes image and replaces previous", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		previous := "/uploads/old.webp"
		users := noopUserRepo()
		var recorded *models.File
		users.setProfilePicFn = func(_ context.Context, _ uint, f *models.File) (*string, error) {
			recorded = f
			return &previous, nil
		}
		files := noopFileRepo()
		var droppedRow string
		files.deleteProfileFileFn = func(_ context.Context, _ uint, url string) (bool, error) {
			droppedRow = url
			return true, nil
		}

		url, err := newTestUserService(users, files, store).UploadProfilePicture(context.Background(), 1,
			storage.Upload{Filename: "me.png", ContentType: "image/png", Data: pngBytes(t, 200, 100)})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(url, ".webp"))
		assert.Equal(t, "image/webp", recorded.MimeType)
		assert.Equal(t, models.FileTypeImage, recorded.Type)
		assert.Equal(t, previous, droppedRow)
		assert.Equal(t, []string{previous}, store.removed)
		assert.Contains(t, store.saved, url)
	})

	t.Run("previous reference not owned is left on disk", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		foreign := "/uploads/someone-elses.png"
		users := noopUserRepo()
		users.setProfilePicFn = func(_ context.Context, _ uint, _ *models.File) (*string, error) {
			return &foreign, nil
		}

		_, err := newTestUserService(users, noopFileRepo(), store).UploadProfilePicture(context.Background(), 1,
			storage.Upload{Filename: "me.png", ContentType: "image/png", Data: pngBytes(t, 8, 8)})
		require.NoError(t, err)
		assert.Empty(t, store.removed)
	})

	t.Run("video stored as is", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		url, err := newTestUserService(noopUserRepo(), noopFileRepo(), store).UploadProfilePicture(context.Background(), 1,
			storage.Upload{Filename: "clip.mp4", ContentType: "video/mp4", Data: mp4Header})
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(url, ".mp4"))
		assert.Equal(t, mp4Header, store.saved[url])
		assert.Empty(t, store.removed)
	})

	t.Run("db failure removes new artifact", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		users := noopUserRepo()
		users.setProfilePicFn = func(_ context.Context, _ uint, _ *models.File) (*string, error) {
			return nil, models.NewInternalError(errors.New("db down"))
		}
		_, err := newTestUserService(users, noopFileRepo(), store).UploadProfilePicture(context.Background(), 1,
			storage.Upload{Filename: "me.png", ContentType: "image/png", Data: pngBytes(t, 8, 8)})
		assertAppError(t, err, models.CodeInternal)
		assert.Empty(t, store.saved)
		assert.Len(t, store.removed, 1)
	})

	t.Run("invalid type", func(t *testing.T) {
		t.Parallel()
		_, err := newTestUserService(noopUserRepo(), noopFileRepo(), newMemStore()).UploadProfilePicture(context.Background(), 1,
			storage.Upload{Filename: "me.gif", ContentType: "image/gif", Data: []byte("GIF89a")})
		assertAppError(t, err, models.CodeValidation)
	})
}

func TestUserService_DeleteProfilePicture(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	users := noopUserRepo()
	users.clearProfilePicFn = func(_ context.Context, _ uint) (string, bool, error) { return "/uploads/me.webp", true, nil }
	require.NoError(t, newTestUserService(users, noopFileRepo(), store).DeleteProfilePicture(context.Background(), 1))
	assert.Equal(t, []string{"/uploads/me.webp"}, store.removed)

	store = newMemStore()
	users.clearProfilePicFn = func(_ context.Context, _ uint) (string, bool, error) { return "/uploads/theirs.png", false, nil }
	require.NoError(t, newTestUserService(users, noopFileRepo(), store).DeleteProfilePicture(context.Background(), 1))
	assert.Empty(t, store.removed, "a reference without an owned file row keeps the artifact")

	users.clearProfilePicFn = func(_ context.Context, _ uint) (string, bool, error) {
		return "", false, models.NewNotFoundMessage("No profile picture found to delete.")
	}
	err := newTestUserService(users, noopFileRepo(), newMemStore()).DeleteProfilePicture(context.Background(), 1)
	assertAppError(t, err, models.CodeNotFound)
}
