package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Post{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestPostCRUD(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := seedUser(t, db, "alice")

	post := &model.Post{AuthorID: author.ID, Text: "hello"}
	require.NoError(t, repo.Create(ctx, post))
	require.NotZero(t, post.ID)

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)
	// Author comes preloaded.
	assert.Equal(t, "alice", got.Author.Username)

	firstUpdated := got.UpdatedAt
	time.Sleep(10 * time.Millisecond)
	got.Text = "edited"
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	assert.True(t, got.UpdatedAt.After(firstUpdated))

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err = repo.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestListPageOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	author := seedUser(t, db, "alice")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	older := &model.Post{AuthorID: author.ID, Text: "older", CreatedAt: base}
	tied := &model.Post{AuthorID: author.ID, Text: "tied", CreatedAt: base}
	newer := &model.Post{AuthorID: author.ID, Text: "newer", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, tied))
	require.NoError(t, repo.Create(ctx, newer))

	posts, err := repo.ListPage(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	// Newest first; equal timestamps fall back to reverse insertion order.
	assert.Equal(t, "newer", posts[0].Text)
	assert.Equal(t, "tied", posts[1].Text)
	assert.Equal(t, "older", posts[2].Text)

	cnt, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, cnt)
}

func TestListPageBatchesAuthors(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		u := seedUser(t, db, fmt.Sprintf("user%d", i))
		require.NoError(t, repo.Create(ctx, &model.Post{AuthorID: u.ID, Text: "post"}))
	}

	posts, err := repo.ListPage(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, posts, 5)
	for _, p := range posts {
		assert.NotEmpty(t, p.Author.Username)
	}
}

func TestSearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	require.NoError(t, repo.Create(ctx, &model.Post{AuthorID: alice.ID, Text: "go is fun"}))
	require.NoError(t, repo.Create(ctx, &model.Post{AuthorID: alice.ID, Text: "lunch time"}))
	require.NoError(t, repo.Create(ctx, &model.Post{AuthorID: bob.ID, Text: "fun weekend"}))

	posts, total, err := repo.Search(ctx, PostFilter{Query: "fun"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, posts, 2)

	posts, total, err = repo.Search(ctx, PostFilter{AuthorID: alice.ID}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, p := range posts {
		assert.Equal(t, alice.ID, p.AuthorID)
	}

	posts, total, err = repo.Search(ctx, PostFilter{AuthorID: bob.ID, Query: "fun"}, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, posts, 1)
	assert.Equal(t, "fun weekend", posts[0].Text)
}

func TestUserRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &model.User{Username: "carol", Email: "carol@example.com", PasswordHash: "x"}
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol", got.Username)

	exists, err := repo.ExistsByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
