package seed

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"testing"

	"socialhub/internal/database"
	"socialhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

var dbSeq atomic.Int64

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := database.SQLiteDSN(fmt.Sprintf("file:seed_%d?mode=memory&cache=shared", dbSeq.Add(1)))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestDemoFixture(t *testing.T) {
	f, err := DemoFixture()
	require.NoError(t, err)
	assert.Len(t, f.Users, 3)
	assert.Len(t, f.Posts, 3)
	assert.Len(t, f.Follows, 3)
	assert.Equal(t, DefaultPassword, f.Password)
}

func TestParseFixture_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "users: [unclosed"},
		{"short password", "password: abc\nusers: []"},
		{"missing email", "password: secret1\nusers:\n  - key: a\n    name: A"},
		{"duplicate key", "password: secret1\nusers:\n  - {key: a, name: A, email: a@x.io}\n  - {key: a, name: B, email: b@x.io}"},
		{"unknown author", "password: secret1\nusers:\n  - {key: a, name: A, email: a@x.io}\nposts:\n  - {key: p, author: z, content: hi}"},
		{"self follow", "password: secret1\nusers:\n  - {key: a, name: A, email: a@x.io}\nfollows:\n  - {follower: a, following: a}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFixture([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSeeder_DemoData(t *testing.T) {
	db := setupDB(t)

	res, err := NewSeeder(db, Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 3, Posts: 3, Comments: 2, Follows: 3}, res)

	var john models.User
	require.NoError(t, db.Where("email = ?", "john.doe@example.com").First(&john).Error)
	assert.Equal(t, "John Doe", john.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(john.Password), []byte(DefaultPassword)))

	var followers int64
	require.NoError(t, db.Model(&models.Follow{}).Where("following_id = ?", john.ID).Count(&followers).Error)
	assert.Equal(t, int64(2), followers)
}

func TestSeeder_IsIdempotent(t *testing.T) {
	db := setupDB(t)
	opts := Options{SkipBcrypt: true}

	_, err := NewSeeder(db, opts).Run(context.Background())
	require.NoError(t, err)
	res, err := NewSeeder(db, opts).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Result{}, res)
	assert.Equal(t, int64(3), count(t, db, &models.User{}))
	assert.Equal(t, int64(2), count(t, db, &models.Comment{}))
}

func TestSeeder_CleanAndGenerate(t *testing.T) {
	db := setupDB(t)
	_, err := NewSeeder(db, Options{SkipBcrypt: true}).Run(context.Background())
	require.NoError(t, err)

	opts := Options{
		Clean:           true,
		SkipDemo:        true,
		FakeUsers:       5,
		FakePosts:       12,
		CommentsPerPost: 2,
		SkipBcrypt:      true,
		RandomSeed:      42,
	}
	res, err := NewSeeder(db, opts).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, res.Users)
	assert.Equal(t, 12, res.Posts)
	assert.Equal(t, 15, res.Follows)
	assert.Equal(t, int64(5), count(t, db, &models.User{}))
	assert.Equal(t, int64(12), count(t, db, &models.Post{}))
	assert.Equal(t, int64(res.Comments), count(t, db, &models.Comment{}))

	var demo int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "john.doe@example.com").Count(&demo).Error)
	assert.Zero(t, demo, "clean removes earlier rows")

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = following_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)
}

func TestFactory_CommentNotOlderThanPost(t *testing.T) {
	db := setupDB(t)
	f := NewFactory(db, Options{SkipBcrypt: true, RandomSeed: 7})

	user, err := f.CreateUser()
	require.NoError(t, err)
	assert.Equal(t, DefaultPassword, user.Password)
	require.NotNil(t, user.Description)

	post, err := f.CreatePost(user)
	require.NoError(t, err)
	comment, err := f.CreateComment(user, post)
	require.NoError(t, err)
	assert.False(t, comment.CreatedAt.Before(post.CreatedAt))
}
