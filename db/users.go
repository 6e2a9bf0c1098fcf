package db

import (
	"context"

	"github.com/google/uuid"

	"procurement/internal/apperr"
	"procurement/models"
)

const userColumns = `id, uuid, name, email, password_hash, role, company_name, created_at`

func (s *Storage) CreateUser(ctx context.Context, u *models.User) error {
	u.UUID = uuid.New()
	query := `
        INSERT INTO users (uuid, name, email, password_hash, role, company_name)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, query,
		u.UUID, u.Name, u.Email, u.PasswordHash, u.Role, u.CompanyName).
		Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.Validation("email already in use")
	}
	return err
}

func (s *Storage) GetUser(ctx context.Context, id int) (*models.User, error) {
	u := &models.User{}
	err := s.db.GetContext(ctx, u, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	err := s.db.GetContext(ctx, u, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}
