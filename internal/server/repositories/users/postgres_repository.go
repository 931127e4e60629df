package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdrop/internal/common"
	"github.com/dmitrijs2005/gophdrop/internal/dbx"
	"github.com/dmitrijs2005/gophdrop/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectUser = `SELECT id, username, name, email, homedir, role, password_hash, salt, created_at FROM users`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner, u *models.User) error {
	return s.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.HomeDir, &u.Role, &u.PasswordHash, &u.Salt, &u.CreatedAt)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := selectUser + `
		 WHERE username = $1`

	user := &models.User{}
	err := scanUser(r.db.QueryRowContext(ctx, query, username), user)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.User, error) {
	query := selectUser + `
		 ORDER BY username`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Upsert inserts user or, when the username is taken, replaces every
// attribute of the existing row. The stored id is returned in user.ID.
func (r *PostgresRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (id, username, name, email, homedir, role, password_hash, salt)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (username) DO UPDATE SET
		   name = EXCLUDED.name,
		   email = EXCLUDED.email,
		   homedir = EXCLUDED.homedir,
		   role = EXCLUDED.role,
		   password_hash = EXCLUDED.password_hash,
		   salt = EXCLUDED.salt
		 RETURNING id`

	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}

	err := r.db.QueryRowContext(ctx, query,
		id, user.Username, user.Name, user.Email, user.HomeDir, user.Role, user.PasswordHash, user.Salt).Scan(&user.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}
