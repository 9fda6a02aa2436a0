package inmemdb

import (
	"context"

	"github.com/elimuhub/elimu/core"
	"github.com/elimuhub/elimu/core/account"
)

type accountRepository struct {
	db *accountTable
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) *accountRepository {
	return &accountRepository{db: db.account}
}

func (repo *accountRepository) CreateAccount(_ context.Context, a account.Account, _ ...core.DBExecutor) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.Email == a.Email {
			return account.Account{}, account.ErrEmailExists
		}
	}
	repo.db.pkCount++
	a.ID = repo.db.pkCount
	repo.db.table[a.ID] = &a
	return a, nil
}

func (repo *accountRepository) GetAccountByID(_ context.Context, id int, _ ...core.DBExecutor) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return *a, nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetAccountByEmail(_ context.Context, email string, _ ...core.DBExecutor) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, a := range repo.db.table {
		if a.Email == email {
			return *a, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}
