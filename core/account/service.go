package account

import (
	"context"
	"errors"

	"github.com/elimuhub/elimu/core"
)

var (
	// errors
	ErrNotFound    = errors.New("account not found")
	ErrEmailExists = errors.New("an account with this email already exists")
)

type (
	Repository interface {
		// CreateAccount fails with ErrEmailExists on a duplicate email.
		CreateAccount(ctx context.Context, a Account, exec ...core.DBExecutor) (Account, error)
		GetAccountByID(ctx context.Context, id int, exec ...core.DBExecutor) (Account, error)
		GetAccountByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (Account, error)
	}

	Service interface {
		Create(ctx context.Context, na NewAccount) (Account, error)
		GetByID(ctx context.Context, id int) (Account, error)
		GetByEmail(ctx context.Context, email string) (Account, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, na NewAccount) (Account, error) {
	if err := core.Validate.Struct(&na); err != nil {
		return Account{}, core.TranslateValidationErrors(err)
	}
	if err := ValidatePassword(na.Password, na.FullName, na.Email); err != nil {
		return Account{}, err
	}
	now := core.NowFunc()
	acc := Account{
		FullName:    core.CleanString(na.FullName),
		Email:       core.CleanString(na.Email, true /* lower */),
		PhoneNumber: core.CleanString(na.PhoneNumber),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := acc.SetPassword(na.Password); err != nil {
		return Account{}, err
	}
	return svc.repo.CreateAccount(ctx, acc)
}

func (svc *service) GetByID(ctx context.Context, id int) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, core.CleanString(email, true /* lower */))
}
