// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"

	"socialhub/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder.
type Options struct {
	// Clean removes all existing rows before seeding.
	Clean bool
	// SkipDemo leaves out the embedded demo fixture.
	SkipDemo bool
	// FakeUsers and FakePosts add generated accounts and posts on top of the fixture.
	FakeUsers int
	FakePosts int
	// CommentsPerPost is the upper bound of generated comments on each fake post.
	CommentsPerPost int
	// SkipBcrypt stores the plain password; only useful for throwaway databases.
	SkipBcrypt bool
	MaxDays    int
	RandomSeed int64
}

// Result counts what a run inserted.
type Result struct {
	Users    int
	Posts    int
	Comments int
	Follows  int
}

// Seeder writes demo and generated data.
type Seeder struct {
	db   *gorm.DB
	opts Options
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts}
}

// Run applies the fixture, then the generated data, inside one transaction.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	log.Printf("🌱 Seeding database (demo=%t, users=%d, posts=%d)", !s.opts.SkipDemo, s.opts.FakeUsers, s.opts.FakePosts)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.opts.Clean {
			if err := ClearAll(tx); err != nil {
				return err
			}
		}

		factory := NewFactory(tx, s.opts)

		if !s.opts.SkipDemo {
			fixture, err := DemoFixture()
			if err != nil {
				return err
			}
			if err := applyFixture(tx, factory, fixture, &res); err != nil {
				return fmt.Errorf("failed to apply demo fixture: %w", err)
			}
		}

		if err := generate(tx, factory, s.opts, &res); err != nil {
			return fmt.Errorf("failed to generate data: %w", err)
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log.Printf("🎉 Seeding complete: %d users, %d posts, %d comments, %d follows",
		res.Users, res.Posts, res.Comments, res.Follows)
	return res, nil
}

// ClearAll deletes every row in dependency order. It avoids TRUNCATE so it
// works on SQLite as well as Postgres.
func ClearAll(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	for _, model := range []any{&models.Comment{}, &models.File{}, &models.Post{}, &models.Follow{}, &models.User{}} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("failed to clear %T: %w", model, err)
		}
	}
	return nil
}

func applyFixture(tx *gorm.DB, factory *Factory, fixture *Fixture, res *Result) error {
	pw := fixture.Password
	if !factory.opts.SkipBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(fixture.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		pw = string(hashed)
	}

	users := make(map[string]*models.User, len(fixture.Users))
	for _, fu := range fixture.Users {
		var existing models.User
		err := tx.Where("email = ?", fu.Email).Limit(1).Find(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != 0 {
			users[fu.Key] = &existing
			continue
		}

		user := &models.User{Name: fu.Name, Email: fu.Email, Password: pw}
		if fu.Description != "" {
			desc := fu.Description
			user.Description = &desc
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("user %s: %w", fu.Email, err)
		}
		users[fu.Key] = user
		res.Users++
	}

	for _, fp := range fixture.Posts {
		author := users[fp.Author]
		var count int64
		if err := tx.Model(&models.Post{}).Where("user_id = ? AND content = ?", author.ID, fp.Content).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		post := &models.Post{Content: fp.Content, UserID: author.ID}
		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("post %s: %w", fp.Key, err)
		}
		res.Posts++

		for _, fc := range fp.Comments {
			comment := &models.Comment{Content: fc.Content, UserID: users[fc.Author].ID, PostID: post.ID}
			if err := tx.Create(comment).Error; err != nil {
				return fmt.Errorf("comment on %s: %w", fp.Key, err)
			}
			res.Comments++
		}
	}

	for _, ff := range fixture.Follows {
		edge := models.Follow{FollowerID: users[ff.Follower].ID, FollowingID: users[ff.Following].ID}
		var count int64
		if err := tx.Model(&models.Follow{}).Where(&edge).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := tx.Create(&edge).Error; err != nil {
			return fmt.Errorf("follow %s -> %s: %w", ff.Follower, ff.Following, err)
		}
		res.Follows++
	}
	return nil
}

func generate(tx *gorm.DB, factory *Factory, opts Options, res *Result) error {
	if opts.FakeUsers <= 0 {
		return nil
	}

	users := make([]*models.User, 0, opts.FakeUsers)
	for i := 0; i < opts.FakeUsers; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return err
		}
		users = append(users, user)
	}
	res.Users += len(users)

	posts := make([]*models.Post, 0, opts.FakePosts)
	for i := 0; i < opts.FakePosts; i++ {
		posts = append(posts, factory.BuildPost(users[i%len(users)]))
	}
	if err := factory.CreatePostsBatch(posts); err != nil {
		return err
	}
	res.Posts += len(posts)

	for _, post := range posts {
		n := factory.faker.Number(0, opts.CommentsPerPost)
		for j := 0; j < n; j++ {
			author := users[factory.faker.Number(0, len(users)-1)]
			if _, err := factory.CreateComment(author, post); err != nil {
				return err
			}
			res.Comments++
		}
	}

	// Each generated user follows up to three others.
	if len(users) < 2 {
		return nil
	}
	for i, follower := range users {
		for step := 1; step <= 3 && step < len(users); step++ {
			following := users[(i+step)%len(users)]
			if err := factory.CreateFollow(follower, following); err != nil {
				return err
			}
			res.Follows++
		}
	}
	return nil
}
