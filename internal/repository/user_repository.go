package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserRepository defines persistence access for accounts of every role.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetActiveAdmin returns the organization's single active admin.
	GetActiveAdmin(ctx context.Context, organizationID string) (*domain.User, error)
	ListActiveByRole(ctx context.Context, organizationID string, role domain.UserRole) ([]domain.User, error)
	CountActiveByRole(ctx context.Context, organizationID string, role domain.UserRole) (int, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, organization_id, is_active, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, organization_id, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.OrganizationID,
		user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *userRepository) GetActiveAdmin(ctx context.Context, organizationID string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
        WHERE organization_id=$1 AND role=$2 AND is_active=true
        ORDER BY created_at ASC LIMIT 1`
	return r.fetchSingle(ctx, query, organizationID, domain.RoleAdmin)
}

func (r *userRepository) ListActiveByRole(ctx context.Context, organizationID string, role domain.UserRole) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
        WHERE organization_id=$1 AND role=$2 AND is_active=true
        ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, organizationID, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) CountActiveByRole(ctx context.Context, organizationID string, role domain.UserRole) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE organization_id=$1 AND role=$2 AND is_active=true`
	var count int
	if err := r.pool.QueryRow(ctx, query, organizationID, role).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	if err := scanUser(r.pool.QueryRow(ctx, query, args...), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func scanUser(row pgx.Row, user *domain.User) error {
	return row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.OrganizationID,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}
