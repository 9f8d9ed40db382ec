package rest

import (
	"context"
	"errors"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	UpsertUser(ctx context.Context, user model.User, forceRole bool) (model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, id uuid.UUID, role model.Role) (model.User, error)
}

type UserRepo struct {
	DB *pgxpool.Pool
}

const userColumns = `id, name, email, image, role, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var user model.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Image, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return user, err
}

// UpsertUser creates the user on first sign-in and refreshes the profile on
// later ones. The stored role is kept unless forceRole is set.
func (repo *UserRepo) UpsertUser(ctx context.Context, user model.User, forceRole bool) (model.User, error) {
	stmt := `
        INSERT INTO users (id, name, email, image, role)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (email) DO UPDATE
        SET name = EXCLUDED.name,
            image = EXCLUDED.image,
            role = CASE WHEN $6 THEN EXCLUDED.role ELSE users.role END,
            updated_at = NOW()
        RETURNING ` + userColumns

	return scanUser(repo.DB.QueryRow(ctx, stmt, user.ID, user.Name, user.Email, user.Image, user.Role, forceRole))
}

func (repo *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	stmt := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(repo.DB.QueryRow(ctx, stmt, id))
}

func (repo *UserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := repo.DB.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (repo *UserRepo) UpdateUserRole(ctx context.Context, id uuid.UUID, role model.Role) (model.User, error) {
	stmt := `
        UPDATE users
        SET role = $2, updated_at = NOW()
        WHERE id = $1
        RETURNING ` + userColumns
	return scanUser(repo.DB.QueryRow(ctx, stmt, id, role))
}
