package accounts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/coursehub/coursehub/internal/platform/db"
	"github.com/coursehub/coursehub/internal/roles"
	"github.com/coursehub/coursehub/internal/shared"
)

// Repository provides PostgreSQL backed persistence for accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `a.id, a.email, a.student_number, a.password_hash, a.first_name, a.last_name,
	a.address, a.city, a.phone_number, a.program, a.is_active, a.created_at, a.updated_at`

// FindByID fetches an account with its roles populated.
func (r *Repository) FindByID(ctx context.Context, id int64) (*Account, error) {
	return r.findOne(ctx, `WHERE a.id = $1`, id)
}

// FindByEmail fetches an account by its unique email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return r.findOne(ctx, `WHERE a.email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

// FindByStudentNumber fetches an account by its sparse-unique student number.
func (r *Repository) FindByStudentNumber(ctx context.Context, n string) (*Account, error) {
	return r.findOne(ctx, `WHERE a.student_number = $1`, strings.TrimSpace(n))
}

func (r *Repository) findOne(ctx context.Context, where string, arg any) (*Account, error) {
	query := `SELECT ` + accountColumns + `,
		COALESCE(jsonb_agg(jsonb_build_object('id', ro.id, 'name', ro.name, 'permissions', ro.permissions))
			FILTER (WHERE ro.id IS NOT NULL), '[]')
	FROM accounts a
	LEFT JOIN account_roles ar ON ar.account_id = a.id
	LEFT JOIN roles ro ON ro.id = ar.role_id
	` + where + `
	GROUP BY a.id`
	row := r.pool.QueryRow(ctx, query, arg)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

// ListByRole returns all accounts holding the named role, ordered by last name.
func (r *Repository) ListByRole(ctx context.Context, roleName string) ([]Account, error) {
	query := `SELECT ` + accountColumns + `,
		COALESCE(jsonb_agg(jsonb_build_object('id', ro.id, 'name', ro.name, 'permissions', ro.permissions))
			FILTER (WHERE ro.id IS NOT NULL), '[]')
	FROM accounts a
	JOIN account_roles ar ON ar.account_id = a.id
	JOIN roles ro ON ro.id = ar.role_id
	WHERE a.id IN (
		SELECT ar2.account_id FROM account_roles ar2
		JOIN roles ro2 ON ro2.id = ar2.role_id
		WHERE ro2.name = $1
	)
	GROUP BY a.id
	ORDER BY a.last_name, a.first_name`
	rows, err := r.pool.Query(ctx, query, roleName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *account)
	}
	return out, rows.Err()
}

// Create inserts the account and its role assignments in one transaction.
// The password hash must already be applied; plaintext never reaches the store.
func (r *Repository) Create(ctx context.Context, account *Account, roleIDs []int64) (*Account, error) {
	var id int64
	err := platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO accounts
			(email, student_number, password_hash, first_name, last_name, address, city, phone_number, program, is_active)
			VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, TRUE)
			RETURNING id`,
			strings.ToLower(strings.TrimSpace(account.Email)), account.StudentNumber, account.PasswordHash,
			account.FirstName, account.LastName, account.Address, account.City,
			account.PhoneNumber, account.Program,
		).Scan(&id)
		if err != nil {
			return mapUniqueViolation(err)
		}
		for _, roleID := range roleIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO account_roles (account_id, role_id) VALUES ($1, $2)`, id, roleID); err != nil {
				return fmt.Errorf("accounts: assign role: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// Patch carries optional field updates; nil fields are left untouched.
type Patch struct {
	FirstName   *string
	LastName    *string
	Email       *string
	Address     *string
	City        *string
	PhoneNumber *string
	Program     *string
}

// Update applies a patch, failing with shared.ErrNotFound when the id is absent.
func (r *Repository) Update(ctx context.Context, id int64, patch Patch) (*Account, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			email = COALESCE(LOWER($4), email),
			address = COALESCE($5, address),
			city = COALESCE($6, city),
			phone_number = COALESCE($7, phone_number),
			program = COALESCE($8, program),
			updated_at = NOW()
		WHERE id = $1`,
		id, patch.FirstName, patch.LastName, patch.Email, patch.Address, patch.City, patch.PhoneNumber, patch.Program)
	if err != nil {
		return nil, mapUniqueViolation(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// Delete removes the account together with its enrollment and role rows. The
// cascade is explicit inside the transaction rather than left to constraints,
// so the bidirectional enrollment invariant is restored by the same commit that
// removes the account.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM enrollments WHERE account_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM account_roles WHERE account_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func mapUniqueViolation(err error) error {
	if platformdb.IsUniqueViolation(err) {
		if strings.Contains(err.Error(), "email") {
			return shared.ErrDuplicateAccount
		}
		return shared.ErrDuplicateKey
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var a Account
	var studentNumber *string
	var rolesJSON []byte
	if err := row.Scan(
		&a.ID, &a.Email, &studentNumber, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.Address, &a.City, &a.PhoneNumber, &a.Program, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
		&rolesJSON,
	); err != nil {
		return nil, err
	}
	if studentNumber != nil {
		a.StudentNumber = *studentNumber
	}
	if err := json.Unmarshal(rolesJSON, &a.Roles); err != nil {
		return nil, fmt.Errorf("accounts: decode roles: %w", err)
	}
	if a.Roles == nil {
		a.Roles = []roles.Role{}
	}
	return &a, nil
}
