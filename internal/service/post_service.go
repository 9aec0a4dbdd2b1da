package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strconv"

	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
)

// FeedPageSize is fixed: ten posts per feed page.
const FeedPageSize = 10

var (
	ErrPostNotFound = errors.New("post not found")
	// ErrForbidden means the caller is authenticated but not the author.
	ErrForbidden = errors.New("not the author of this post")
)

// ImageStore persists uploaded post images and reports the stored
// relative path. Implemented by internal/storage.
type ImageStore interface {
	Save(file *multipart.FileHeader) (string, error)
	Remove(path string) error
}

// PostInput is the raw create/edit form payload.
type PostInput struct {
	Text  string
	Image *multipart.FileHeader // nil when no file was submitted
}

// FeedPage is one page of the reverse-chronological feed plus the
// pagination metadata the templates need.
type FeedPage struct {
	Posts      []*model.Post
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
}

type PostService interface {
	// Feed accepts the raw ?page= value. A non-numeric value falls
	// back to page 1; a numeric value out of range clamps to the last
	// page. Never errors on bad page input.
	Feed(ctx context.Context, rawPage string) (*FeedPage, error)
	Create(ctx context.Context, author *model.User, in PostInput) (*model.Post, error)
	// GetOwned loads a post and enforces ownership; used by the edit
	// and delete-confirmation views.
	GetOwned(ctx context.Context, actor *model.User, id uint) (*model.Post, error)
	Edit(ctx context.Context, actor *model.User, id uint, in PostInput) (*model.Post, error)
	Delete(ctx context.Context, actor *model.User, id uint) error
}

type postService struct {
	posts  repository.PostRepository
	images ImageStore
}

func NewPostService(posts repository.PostRepository, images ImageStore) PostService {
	return &postService{posts: posts, images: images}
}

func (s *postService) Feed(ctx context.Context, rawPage string) (*FeedPage, error) {
	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + FeedPageSize - 1) / FeedPageSize)
	if totalPages < 1 {
		totalPages = 1
	}

	page, convErr := strconv.Atoi(rawPage)
	switch {
	case rawPage == "" || convErr != nil:
		page = 1
	case page < 1 || page > totalPages:
		page = totalPages
	}

	posts, err := s.posts.ListPage(ctx, (page-1)*FeedPageSize, FeedPageSize)
	if err != nil {
		return nil, err
	}

	return &FeedPage{
		Posts:      posts,
		Page:       page,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   page - 1,
		NextPage:   page + 1,
	}, nil
}

func (s *postService) Create(ctx context.Context, author *model.User, in PostInput) (*model.Post, error) {
	if fe := validatePostInput(in.Text, in.Image); fe != nil {
		return nil, fe
	}

	post := &model.Post{AuthorID: author.ID, Text: in.Text}
	if in.Image != nil {
		path, err := s.images.Save(in.Image)
		if err != nil {
			return nil, err
		}
		post.ImagePath = path
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if post.HasImage() {
			_ = s.images.Remove(post.ImagePath)
		}
		return nil, err
	}
	return post, nil
}

func (s *postService) GetOwned(ctx context.Context, actor *model.User, id uint) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if post.AuthorID != actor.ID {
		return nil, ErrForbidden
	}
	return post, nil
}

func (s *postService) Edit(ctx context.Context, actor *model.User, id uint, in PostInput) (*model.Post, error) {
	post, err := s.GetOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if fe := validatePostInput(in.Text, in.Image); fe != nil {
		return nil, fe
	}

	oldImage := post.ImagePath
	post.Text = in.Text
	if in.Image != nil {
		path, err := s.images.Save(in.Image)
		if err != nil {
			return nil, err
		}
		post.ImagePath = path
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	if in.Image != nil && oldImage != "" && oldImage != post.ImagePath {
		_ = s.images.Remove(oldImage)
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, actor *model.User, id uint) error {
	post, err := s.GetOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return err
	}
	if post.HasImage() {
		_ = s.images.Remove(post.ImagePath)
	}
	return nil
}
