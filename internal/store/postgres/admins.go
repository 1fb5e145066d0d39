package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/subhive-systems/subhive/internal/models"
)

type AdminStore struct {
	db *sql.DB
}

func NewAdminStore(db *sql.DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) CreateAdmin(ctx context.Context, email, passwordHash string) (*models.Admin, error) {
	admin := &models.Admin{
		PublicID:     uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO admins (public_id, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		admin.PublicID, admin.Email, admin.PasswordHash,
	).Scan(&admin.ID, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return admin, nil
}

func (s *AdminStore) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	admin := &models.Admin{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, public_id, email, password_hash, created_at, updated_at
		 FROM admins WHERE email = $1`,
		email,
	).Scan(&admin.ID, &admin.PublicID, &admin.Email, &admin.PasswordHash, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (s *AdminStore) GetAdminByID(ctx context.Context, id int64) (*models.Admin, error) {
	admin := &models.Admin{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, public_id, email, password_hash, created_at, updated_at
		 FROM admins WHERE id = $1`,
		id,
	).Scan(&admin.ID, &admin.PublicID, &admin.Email, &admin.PasswordHash, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return admin, nil
}
