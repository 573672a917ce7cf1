package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/coursehub/coursehub/internal/platform/db"
	"github.com/coursehub/coursehub/internal/shared"
)

// Repository provides PostgreSQL backed persistence for roles.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByName fetches a role by its unique name.
func (r *Repository) FindByName(ctx context.Context, name string) (*Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, permissions, created_at, updated_at FROM roles WHERE name = $1`, name)
	return scanRole(row)
}

// List returns all roles ordered by name.
func (r *Repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, permissions, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *role)
	}
	return out, rows.Err()
}

// SeedOnce inserts the given role set in one transaction, failing with
// ErrAlreadySeeded when any role already exists. The existence check and the
// inserts share the transaction so two concurrent seeds cannot both succeed.
func (r *Repository) SeedOnce(ctx context.Context, seed []Role) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM roles`).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrAlreadySeeded
		}
		for _, role := range seed {
			perms, err := json.Marshal(role.Permissions)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `INSERT INTO roles (name, permissions) VALUES ($1, $2)`, role.Name, perms); err != nil {
				if platformdb.IsUniqueViolation(err) {
					return shared.ErrAlreadySeeded
				}
				return fmt.Errorf("roles: insert %q: %w", role.Name, err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*Role, error) {
	var role Role
	var perms []byte
	if err := row.Scan(&role.ID, &role.Name, &perms, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(perms, &role.Permissions); err != nil {
		return nil, fmt.Errorf("roles: decode permissions: %w", err)
	}
	return &role, nil
}
