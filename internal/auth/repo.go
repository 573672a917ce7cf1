package auth

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursehub/coursehub/internal/shared"
)

// Repository loads credential projections straight from Postgres. It is
// deliberately separate from the accounts repository: the middleware hits it
// on every request and only needs the slim row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a new Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const credentialQuery = `
SELECT a.id, a.email, a.password_hash, a.first_name, a.last_name,
       COALESCE(jsonb_agg(r.name) FILTER (WHERE r.name IS NOT NULL), '[]'::jsonb)
FROM accounts a
LEFT JOIN account_roles ar ON ar.account_id = a.id
LEFT JOIN roles r ON r.id = ar.role_id
`

// FindByEmail loads the account with the given email, roles included.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.pool.QueryRow(ctx, credentialQuery+`WHERE a.email = $1 GROUP BY a.id`, email)
	return scanCredential(row)
}

// FindByStudentNumber loads the account bound to the given student number.
func (r *Repository) FindByStudentNumber(ctx context.Context, number string) (*Account, error) {
	row := r.pool.QueryRow(ctx, credentialQuery+`WHERE a.student_number = $1 GROUP BY a.id`, number)
	return scanCredential(row)
}

// FindByID loads the account by primary key.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx, credentialQuery+`WHERE a.id = $1 GROUP BY a.id`, id)
	return scanCredential(row)
}

func scanCredential(row pgx.Row) (*Account, error) {
	var (
		a         Account
		rolesJSON []byte
	)
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &rolesJSON); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(rolesJSON, &a.Roles); err != nil {
		return nil, err
	}
	return &a, nil
}
