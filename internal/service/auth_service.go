package service

import (
	"context"
	"strings"

	"socialhub/internal/models"
	"socialhub/internal/repository"
	"socialhub/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 10

const (
	MsgEmailExists        = "Email already exists"
	MsgInvalidCredentials = "Invalid credentials"
)

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

type AuthService struct {
	users  repository.UserRepository
	tokens TokenIssuer
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates an account. A taken email is reported as a validation error.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError(MsgEmailExists)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{Name: in.Name, Email: in.Email, Password: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if hasCode(err, models.CodeConflict) {
			return nil, models.NewValidationError(MsgEmailExists)
		}
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and returns a signed token. Unknown email and a
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, models.NewUnauthorizedError(MsgInvalidCredentials)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		return "", nil, models.NewUnauthorizedError(MsgInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, models.NewUnauthorizedError(MsgInvalidCredentials)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, models.NewInternalError(err)
	}
	return token, user, nil
}
