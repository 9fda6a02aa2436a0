package account

import (
	"context"
	"errors"

	"github.com/elimuhub/elimu/core/request"
)

// IdentityProvider adapts Service to the request package's Identity interface
// so the approval flow can provision learner accounts.
type IdentityProvider struct {
	svc Service
}

var _ request.Identity = (*IdentityProvider)(nil)

func NewIdentityProvider(svc Service) *IdentityProvider {
	return &IdentityProvider{svc: svc}
}

func (p *IdentityProvider) FindAccountByEmail(ctx context.Context, email string) (request.Account, error) {
	acc, err := p.svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return request.Account{}, request.ErrAccountNotFound
		}
		return request.Account{}, err
	}
	return request.Account{ID: acc.ID, Email: acc.Email, IsActive: acc.IsActive}, nil
}

func (p *IdentityProvider) CreateAccount(ctx context.Context, na request.NewAccount) (request.Account, error) {
	acc, err := p.svc.Create(ctx, NewAccount{
		FullName:    na.FullName,
		Email:       na.Email,
		PhoneNumber: na.PhoneNumber,
		Password:    na.Password,
	})
	if err != nil {
		return request.Account{}, err
	}
	return request.Account{ID: acc.ID, Email: acc.Email, IsActive: acc.IsActive}, nil
}
