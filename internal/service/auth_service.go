package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
)

// ErrInvalidCredentials is deliberately generic: it never reveals
// whether the username exists.
var ErrInvalidCredentials = errors.New("invalid username or password")

const minPasswordLen = 8

// RegisterInput is the raw registration form payload.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

type AuthService interface {
	// Register creates the account. Duplicate usernames and weak
	// passwords surface as FieldErrors, not sentinel errors.
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
}

type authService struct {
	users repository.UserRepository
}

func NewAuthService(users repository.UserRepository) AuthService {
	return &authService{users: users}
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	var fe FieldErrors

	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		fe = fe.add("username", "Username is required.")
	case utf8.RuneCountInString(username) > 150:
		fe = fe.add("username", "Username must be at most 150 characters.")
	}

	email := strings.TrimSpace(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		fe = fe.add("email", "A valid email address is required.")
	}

	switch {
	case len(in.Password) < minPasswordLen:
		fe = fe.add("password", "Password must be at least 8 characters.")
	case in.Password != in.PasswordConfirm:
		fe = fe.add("password_confirm", "Passwords do not match.")
	}

	if fe == nil {
		taken, err := s.users.ExistsByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			fe = fe.add("username", "This username is already taken.")
		}
	}
	if fe != nil {
		return nil, fe
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
