package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"socialhub/internal/models"
	"socialhub/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn         func(context.Context, uint) (*models.User, error)
	getByEmailFn      func(context.Context, string) (*models.User, error)
	createFn          func(context.Context, *models.User) error
	updateFieldsFn    func(context.Context, uint, map[string]interface{}) (*models.User, error)
	setProfilePicFn   func(context.Context, uint, *models.File) (*string, error)
	clearProfilePicFn func(context.Context, uint) (string, bool, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) (*models.User, error) {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *userRepoStub) SetProfilePicture(ctx context.Context, userID uint, file *models.File) (*string, error) {
	return s.setProfilePicFn(ctx, userID, file)
}
func (s *userRepoStub) ClearProfilePicture(ctx context.Context, userID uint) (string, bool, error) {
	return s.clearProfilePicFn(ctx, userID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:    func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:     func(_ context.Context, _ *models.User) error { return nil },
		updateFieldsFn: func(_ context.Context, id uint, _ map[string]interface{}) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		setProfilePicFn:   func(_ context.Context, _ uint, _ *models.File) (*string, error) { return nil, nil },
		clearProfilePicFn: func(_ context.Context, _ uint) (string, bool, error) { return "", false, nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn      func(context.Context, *models.Post) error
	getByIDFn     func(context.Context, uint) (*models.Post, error)
	listFn        func(context.Context) ([]models.Post, error)
	listByUserFn  func(context.Context, uint) ([]models.Post, error)
	deleteOwnedFn func(context.Context, uint, uint) (*models.Post, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context) ([]models.Post, error) {
	return s.listFn(ctx)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	return s.listByUserFn(ctx, userID)
}
func (s *postRepoStub) DeleteOwned(ctx context.Context, id, userID uint) (*models.Post, error) {
	return s.deleteOwnedFn(ctx, id, userID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:      func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn:        func(_ context.Context) ([]models.Post, error) { return []models.Post{}, nil },
		listByUserFn:  func(_ context.Context, _ uint) ([]models.Post, error) { return []models.Post{}, nil },
		deleteOwnedFn: func(_ context.Context, id, _ uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]models.Comment, error)
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn: func(_ context.Context, _ uint) ([]models.Comment, error) { return []models.Comment{}, nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	createFn        func(context.Context, uint, uint) error
	deleteFn        func(context.Context, uint, uint) error
	existsFn        func(context.Context, uint, uint) (bool, error)
	listFollowersFn func(context.Context, uint) ([]models.User, error)
	listFollowingFn func(context.Context, uint) ([]models.User, error)
	countsFn        func(context.Context, uint) (int64, int64, error)
}

func (s *followRepoStub) Create(ctx context.Context, followerID, followingID uint) error {
	return s.createFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Delete(ctx context.Context, followerID, followingID uint) error {
	return s.deleteFn(ctx, followerID, followingID)
}
func (s *followRepoStub) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.existsFn(ctx, followerID, followingID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFollowersFn(ctx, userID)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	return s.listFollowingFn(ctx, userID)
}
func (s *followRepoStub) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	return s.countsFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		createFn:        func(_ context.Context, _, _ uint) error { return nil },
		deleteFn:        func(_ context.Context, _, _ uint) error { return nil },
		existsFn:        func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listFollowersFn: func(_ context.Context, _ uint) ([]models.User, error) { return nil, nil },
		listFollowingFn: func(_ context.Context, _ uint) ([]models.User, error) { return nil, nil },
		countsFn:        func(_ context.Context, _ uint) (int64, int64, error) { return 0, 0, nil },
	}
}

// fileRepoStub is a stub for repository.FileRepository.
type fileRepoStub struct {
	isReferencedFn      func(context.Context, string) (bool, error)
	deleteProfileFileFn func(context.Context, uint, string) (bool, error)
}

func (s *fileRepoStub) IsReferenced(ctx context.Context, url string) (bool, error) {
	return s.isReferencedFn(ctx, url)
}
func (s *fileRepoStub) DeleteProfileFile(ctx context.Context, userID uint, url string) (bool, error) {
	return s.deleteProfileFileFn(ctx, userID, url)
}

func noopFileRepo() *fileRepoStub {
	return &fileRepoStub{
		isReferencedFn:      func(_ context.Context, _ string) (bool, error) { return false, nil },
		deleteProfileFileFn: func(_ context.Context, _ uint, _ string) (bool, error) { return false, nil },
	}
}

// memStore is an in-memory storage.MediaStore.
type memStore struct {
	mu      sync.Mutex
	next    int
	saved   map[string][]byte
	removed []string
	failAt  int
}

func newMemStore() *memStore {
	return &memStore{saved: map[string][]byte{}, failAt: -1}
}

func (m *memStore) Save(_ context.Context, field, ext string, data []byte) (storage.Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAt == m.next {
		return storage.Artifact{}, errors.New("disk full")
	}
	m.next++
	name := fmt.Sprintf("%s-%d%s", field, m.next, ext)
	url := "/uploads/" + name
	m.saved[url] = data
	return storage.Artifact{Name: name, URL: url, Size: int64(len(data))}, nil
}

func (m *memStore) Remove(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, url)
	delete(m.saved, url)
	return nil
}

// eventRecorder captures published events.
type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	UserID  uint
	Type    string
	Payload any
}

func (r *eventRecorder) PublishUserEvent(_ context.Context, userID uint, eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{UserID: userID, Type: eventType, Payload: payload})
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

var mp4Header = append([]byte("\x00\x00\x00\x20ftypisom\x00\x00\x02\x00isomiso2avc1mp41"), make([]byte, 64)...)

func assertAppError(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}
