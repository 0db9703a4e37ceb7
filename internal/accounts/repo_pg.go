package accounts

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"

	identityKeyConstraintName = "accounts_identity_key_key"
	emailConstraintName       = "accounts_email_key"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const accountColumns = `id, identity_key, email, plan, credits_remaining, credits_total, created_at, updated_at`

func (r *PGRepo) GetByIdentityKey(ctx context.Context, identityKey string) (Account, error) {
	const query = `SELECT ` + accountColumns + `
FROM accounts
WHERE identity_key = $1
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, identityKey))
}

func (r *PGRepo) GetByID(ctx context.Context, accountID string) (Account, error) {
	const query = `SELECT ` + accountColumns + `
FROM accounts
WHERE id = $1
LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, accountID))
}

func (r *PGRepo) Create(ctx context.Context, account Account) error {
	const query = `
INSERT INTO accounts (id, identity_key, email, plan, credits_remaining, credits_total, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		account.ID,
		account.IdentityKey,
		account.Email,
		string(account.Plan),
		account.CreditsRemaining,
		account.CreditsTotal,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return classifyError(err)
	}
	return nil
}

func (r *PGRepo) ConsumeCredit(ctx context.Context, accountID string) (Account, error) {
	const query = `
UPDATE accounts
SET credits_remaining = credits_remaining - 1,
    updated_at = now()
WHERE id = $1 AND credits_remaining >= 1 AND plan <> 'ultimate'
RETURNING ` + accountColumns
	acct, err := r.scanOne(r.DB.QueryRowContext(ctx, query, accountID))
	if errors.Is(err, ErrNotFound) {
		return Account{}, ErrNoCredits
	}
	return acct, err
}

func (r *PGRepo) scanOne(row *sql.Row) (Account, error) {
	var acct Account
	var plan string
	err := row.Scan(
		&acct.ID,
		&acct.IdentityKey,
		&acct.Email,
		&plan,
		&acct.CreditsRemaining,
		&acct.CreditsTotal,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, classifyError(err)
	}
	acct.Plan = Plan(plan)
	return acct, nil
}

// classifyError maps driver errors onto *StorageError.
func classifyError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return &StorageError{Kind: KindOther, Err: err}
	}
	if pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case identityKeyConstraintName:
			return &StorageError{Kind: KindUniqueViolation, Constraint: ConstraintIdentityKey, Code: pgErr.Code, Err: err}
		case emailConstraintName:
			return &StorageError{Kind: KindUniqueViolation, Constraint: ConstraintEmail, Code: pgErr.Code, Err: err}
		}
	}
	return &StorageError{Kind: KindOther, Code: pgErr.Code, Err: err}
}

var _ Repo = (*PGRepo)(nil)
