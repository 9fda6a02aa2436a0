package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/account"
)

type accountRow struct {
	ID           int       `db:"id"`
	FullName     string    `db:"full_name"`
	Email        string    `db:"email"`
	PhoneNumber  string    `db:"phone_number"`
	IsActive     bool      `db:"is_active"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r accountRow) toAccount() account.Account {
	return account.Account{
		ID:           r.ID,
		FullName:     r.FullName,
		Email:        r.Email,
		PhoneNumber:  r.PhoneNumber,
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

func (repo accountRepository) CreateAccount(ctx context.Context, a account.Account, exec ...core.DBExecutor) (account.Account, error) {
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &a.ID,
		`INSERT INTO account (full_name, email, phone_number, is_active, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		a.FullName, a.Email, a.PhoneNumber, a.IsActive, a.PasswordHash, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return account.Account{}, account.ErrEmailExists
		}
		return account.Account{}, errors.Wrap(err, "creating account")
	}
	return a, nil
}

func (repo accountRepository) GetAccountByID(ctx context.Context, id int, exec ...core.DBExecutor) (account.Account, error) {
	return repo.getAccount(ctx, `WHERE id = $1`, id, exec)
}

func (repo accountRepository) GetAccountByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (account.Account, error) {
	return repo.getAccount(ctx, `WHERE email = $1`, email, exec)
}

func (repo accountRepository) getAccount(ctx context.Context, where string, arg interface{}, exec []core.DBExecutor) (account.Account, error) {
	var row accountRow
	err := sqlx.GetContext(ctx, getExec(repo.db, exec), &row,
		`SELECT id, full_name, email, phone_number, is_active, password_hash, created_at, updated_at
		 FROM account `+where, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "finding account")
	}
	return row.toAccount(), nil
}
