package seed

import (
	"fmt"
	"strings"
	"time"

	"socialhub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is assigned to every generated account.
const DefaultPassword = "password123"

var hashtags = []string{
	"#golang", "#coding", "#react", "#datascience", "#fullstack", "#javascript",
	"#devops", "#career", "#opensource", "#postgres", "#design", "#learning",
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  Options
	hash  string
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A zero
// opts.RandomSeed picks a time-based seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, faker: gofakeit.New(seed), opts: opts}
}

// password returns the stored form of DefaultPassword, hashing it once per factory.
func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.hash == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		f.hash = string(hashed)
	}
	return f.hash, nil
}

// BuildUser constructs a user without persisting it.
func (f *Factory) BuildUser(overrides ...func(*models.User)) (*models.User, error) {
	pw, err := f.password()
	if err != nil {
		return nil, err
	}
	first, last := f.faker.FirstName(), f.faker.LastName()
	bio := f.faker.Sentence(10)
	user := &models.User{
		Name:        first + " " + last,
		Email:       strings.ToLower(fmt.Sprintf("%s.%s.%d@example.com", first, last, f.faker.Number(1000, 9999))),
		Password:    pw,
		Description: &bio,
	}
	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user, err := f.BuildUser(overrides...)
	if err != nil {
		return nil, err
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post for user with a created_at spread over the last
// opts.MaxDays days.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute

	post := &models.Post{
		Content:   f.faker.Paragraph(1, 3, 12, " ") + " " + f.faker.RandomString(hashtags),
		UserID:    user.ID,
		CreatedAt: time.Now().Add(-back),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost constructs and persists a sample post for the given user.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreatePostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.CreateInBatches(posts, 100).Error
}

// CreateComment constructs and persists a sample comment on post by user.
// The comment is never older than the post it belongs to.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	created := post.CreatedAt.Add(time.Duration(f.faker.Number(1, 48*60)) * time.Minute)
	if created.After(time.Now()) {
		created = time.Now()
	}
	comment := &models.Comment{
		Content:   f.faker.Sentence(8),
		UserID:    user.ID,
		PostID:    post.ID,
		CreatedAt: created,
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow persists a follow edge from follower to following.
func (f *Factory) CreateFollow(follower, following *models.User) error {
	return f.db.Create(&models.Follow{FollowerID: follower.ID, FollowingID: following.ID}).Error
}
