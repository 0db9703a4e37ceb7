package accounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

var accountRowColumns = []string{"id", "identity_key", "email", "plan", "credits_remaining", "credits_total", "created_at", "updated_at"}

func TestPGRepoCreateMapsUniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       Constraint
	}{
		{name: "identity key", constraint: "accounts_identity_key_key", want: ConstraintIdentityKey},
		{name: "email", constraint: "accounts_email_key", want: ConstraintEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock: %v", err)
			}
			defer db.Close()

			now := time.Now().UTC()
			acct := newFreeAccount("acct-1", "google:1", "jane@example.com", now)
			mock.ExpectExec("INSERT INTO accounts").
				WithArgs(acct.ID, acct.IdentityKey, acct.Email, "free", 1, 1, now, now).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			repo := &PGRepo{DB: db}
			err = repo.Create(context.Background(), acct)
			if !IsUniqueViolation(err, tt.want) {
				t.Fatalf("expected unique violation on %s, got %v", tt.want, err)
			}
			if StorageCode(err) != "23505" {
				t.Fatalf("expected storage code 23505, got %q", StorageCode(err))
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("expectations: %v", err)
			}
		})
	}
}

func TestPGRepoCreateOtherErrorKeepsCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "accounts_credits_check"})

	repo := &PGRepo{DB: db}
	err = repo.Create(context.Background(), newFreeAccount("acct-1", "google:1", "a@example.com", time.Now()))
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StorageError, got %T", err)
	}
	if se.Kind != KindOther || se.Code != "23514" {
		t.Fatalf("unexpected classification: %+v", se)
	}
}

func TestPGRepoGetByIdentityKeyNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM accounts").
		WithArgs("google:404").
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByIdentityKey(context.Background(), "google:404"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoConsumeCreditIsConditional(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`UPDATE accounts\s+SET credits_remaining = credits_remaining - 1,(.+)WHERE id = \$1 AND credits_remaining >= 1 AND plan <> 'ultimate'\s+RETURNING`).
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows(accountRowColumns).
			AddRow("acct-1", "google:1", "jane@example.com", "free", 0, 1, now, now))
	mock.ExpectQuery("UPDATE accounts").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows(accountRowColumns))

	repo := &PGRepo{DB: db}
	acct, err := repo.ConsumeCredit(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("ConsumeCredit: %v", err)
	}
	if acct.CreditsRemaining != 0 || acct.Plan != PlanFree {
		t.Fatalf("unexpected account after decrement: %+v", acct)
	}

	if _, err := repo.ConsumeCredit(context.Background(), "acct-1"); !errors.Is(err, ErrNoCredits) {
		t.Fatalf("expected ErrNoCredits on zero rows, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
