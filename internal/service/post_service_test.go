package service

import (
	"context"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
)

type fakeImageStore struct {
	saved   []string
	removed []string
}

func (f *fakeImageStore) Save(file *multipart.FileHeader) (string, error) {
	path := "tweet_images/" + file.Filename
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeImageStore) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

func setupPostService(t *testing.T) (PostService, repository.PostRepository, *gorm.DB, *fakeImageStore) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Post{}))

	repo := repository.NewPostRepository(db)
	images := &fakeImageStore{}
	return NewPostService(repo, images), repo, db, images
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func header(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func TestTextValidationBoundary(t *testing.T) {
	svc, _, db, _ := setupPostService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	// Exactly 280 characters is accepted.
	post, err := svc.Create(ctx, alice, PostInput{Text: strings.Repeat("a", 280)})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)

	// 281 is rejected with a field error on text.
	_, err = svc.Create(ctx, alice, PostInput{Text: strings.Repeat("a", 281)})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "text")

	_, err = svc.Create(ctx, alice, PostInput{Text: "   "})
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "text")
}

func TestImageValidation(t *testing.T) {
	svc, _, db, _ := setupPostService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	tests := []struct {
		name    string
		image   *multipart.FileHeader
		wantErr bool
	}{
		{"no image", nil, false},
		{"4MiB png", header("pic.png", 4<<20), false},
		{"exactly 5MiB png", header("pic.png", 5 << 20), false},
		{"6MiB png", header("pic.png", 6<<20), true},
		{"1KiB bmp", header("pic.bmp", 1<<10), true},
		{"uppercase extension", header("PIC.PNG", 1 << 10), false},
		{"no extension", header("pic", 1 << 10), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, alice, PostInput{Text: "hi", Image: tt.image})
			if tt.wantErr {
				var fe FieldErrors
				require.ErrorAs(t, err, &fe)
				assert.Contains(t, fe, "image")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOnlyAuthorMayEdit(t *testing.T) {
	svc, repo, db, _ := setupPostService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	post, err := svc.Create(ctx, alice, PostInput{Text: "original"})
	require.NoError(t, err)

	_, err = svc.Edit(ctx, bob, post.ID, PostInput{Text: "hijacked"})
	assert.ErrorIs(t, err, ErrForbidden)

	// Nothing mutated.
	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Text)

	edited, err := svc.Edit(ctx, alice, post.ID, PostInput{Text: "revised"})
	require.NoError(t, err)
	assert.Equal(t, "revised", edited.Text)
}

func TestOnlyAuthorMayDelete(t *testing.T) {
	svc, repo, db, _ := setupPostService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	post, err := svc.Create(ctx, alice, PostInput{Text: "keep me"})
	require.NoError(t, err)

	err = svc.Delete(ctx, bob, post.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = repo.GetByID(ctx, post.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, alice, post.ID))
	_, err = repo.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEditMissingPost(t *testing.T) {
	svc, _, db, _ := setupPostService(t)
	alice := seedUser(t, db, "alice")

	_, err := svc.Edit(context.Background(), alice, 9999, PostInput{Text: "x"})
	assert.ErrorIs(t, err, ErrPostNotFound)

	err = svc.Delete(context.Background(), alice, 9999)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeleteRemovesStoredImage(t *testing.T) {
	svc, _, db, images := setupPostService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	post, err := svc.Create(ctx, alice, PostInput{Text: "with pic", Image: header("pic.png", 1024)})
	require.NoError(t, err)
	require.True(t, post.HasImage())

	require.NoError(t, svc.Delete(ctx, alice, post.ID))
	assert.Contains(t, images.removed, post.ImagePath)
}

func TestFeedPagination(t *testing.T) {
	svc, repo, db, _ := setupPostService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		p := &model.Post{AuthorID: alice.ID, Text: "post", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, p))
	}

	page, err := svc.Feed(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, page.Posts, 10)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.False(t, page.HasPrev)
	assert.True(t, page.HasNext)

	page, err = svc.Feed(ctx, "3")
	require.NoError(t, err)
	assert.Len(t, page.Posts, 5)
	assert.True(t, page.HasPrev)
	assert.False(t, page.HasNext)

	// Out-of-range pages clamp to the last page; junk falls back to
	// the first. Never an error.
	page, err = svc.Feed(ctx, "0")
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)

	page, err = svc.Feed(ctx, "99")
	require.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Len(t, page.Posts, 5)

	page, err = svc.Feed(ctx, "banana")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)

	page, err = svc.Feed(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
}

func TestFeedOrderingAcrossPages(t *testing.T) {
	svc, repo, db, _ := setupPostService(t)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		p := &model.Post{AuthorID: alice.ID, Text: "post", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, p))
	}

	var prev time.Time
	first := true
	for pageNum := 1; pageNum <= 3; pageNum++ {
		page, err := svc.Feed(ctx, map[int]string{1: "1", 2: "2", 3: "3"}[pageNum])
		require.NoError(t, err)
		for _, p := range page.Posts {
			if !first {
				assert.False(t, p.CreatedAt.After(prev), "feed must be non-increasing by created_at")
			}
			prev = p.CreatedAt
			first = false
		}
	}
}

func TestFeedEmpty(t *testing.T) {
	svc, _, _, _ := setupPostService(t)

	page, err := svc.Feed(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrev)
}
