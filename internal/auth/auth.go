// Package auth handles accounts, session tokens and vendor submission links.
package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"procurement/internal/apperr"
	"procurement/internal/validation"
	"procurement/models"
)

// UserStore is the slice of storage that accounts need.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type RegisterInput struct {
	Name        string      `json:"name" validate:"required,max=255"`
	Email       string      `json:"email" validate:"required,email,max=255"`
	Password    string      `json:"password" validate:"required,min=8,max=72"`
	Role        models.Role `json:"role" validate:"required,oneof=buyer vendor"`
	CompanyName string      `json:"companyName" validate:"max=255"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is returned after register and login.
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

var errBadCredentials = apperr.ErrUnauthenticated.WithMessage("Invalid email or password")

type Service struct {
	store  UserStore
	tokens *Tokens
}

func NewService(store UserStore, tokens *Tokens) *Service {
	return &Service{store: store, tokens: tokens}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, apperr.Validation("Name, email, password, and role are required").WithInternal(err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		CompanyName:  strings.TrimSpace(in.CompanyName),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := validation.Struct(in); err != nil {
		return nil, apperr.Validation("Email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(in.Password, user.PasswordHash) {
		return nil, errBadCredentials
	}
	return s.session(user)
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := s.tokens.IssueSession(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
