package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/elimuhub/elimu/core/account"
	"github.com/elimuhub/elimu/core/request"
	inmemdb "github.com/elimuhub/elimu/storage/database/inmem"
	testutil "github.com/elimuhub/elimu/tests"
)

func setup(t *testing.T) account.Service {
	t.Helper()
	testutil.Setup(t)
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	return account.NewService(inmemdb.NewAccountRepository(db))
}

func Test_service_Create(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	acc, err := svc.Create(ctx, account.NewAccount{
		FullName: "Jane Doe",
		Email:    "Jane@Test.com ", // cleaned and lowered
		Password: "Password123",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if acc.Email != "jane@test.com" {
		t.Errorf("Email = %s; want jane@test.com", acc.Email)
	}
	if !acc.IsActive {
		t.Error("IsActive = false; want true")
	}
	if err = acc.CheckPassword("Password123"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
	if err = acc.CheckPassword("nope"); err == nil {
		t.Error("CheckPassword() passed for wrong password")
	}

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Create(ctx, account.NewAccount{Email: "jane@test.com", Password: "Password123"})
		if !errors.Is(err, account.ErrEmailExists) {
			t.Errorf("Create() expected ErrEmailExists, got %v", err)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		if _, err := svc.Create(ctx, account.NewAccount{Email: "nope", Password: "Password123"}); err == nil {
			t.Error("Create() expected validation error, got none")
		}
	})
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		user    string
		email   string
		wantErr bool
	}{
		{name: "ok", pwd: "Password123", user: "Jane Doe", email: "jane@test.com"},
		{name: "too short", pwd: "Ab1", wantErr: true},
		{name: "all numeric", pwd: "12345678", wantErr: true},
		{name: "same as email", pwd: "jane@test.com", user: "Jane Doe", email: "jane@test.com", wantErr: true},
		{name: "similar to name", pwd: "janedoe123", user: "jane doe", email: "x@test.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := account.ValidatePassword(tt.pwd, tt.user, tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword(%q) error = %v; wantErr %v", tt.pwd, err, tt.wantErr)
			}
		})
	}
}

func TestIdentityProvider(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	identity := account.NewIdentityProvider(svc)

	if _, err := identity.FindAccountByEmail(ctx, "ghost@test.com"); !errors.Is(err, request.ErrAccountNotFound) {
		t.Errorf("FindAccountByEmail() expected ErrAccountNotFound, got %v", err)
	}

	created, err := identity.CreateAccount(ctx, request.NewAccount{
		FullName: "Jane Doe",
		Email:    "jane@test.com",
		Password: "Password123",
	})
	if err != nil {
		t.Fatalf("CreateAccount() failed: %v", err)
	}
	found, err := identity.FindAccountByEmail(ctx, "jane@test.com")
	if err != nil {
		t.Fatalf("FindAccountByEmail() failed: %v", err)
	}
	if found.ID != created.ID || !found.IsActive {
		t.Errorf("FindAccountByEmail() = %+v; want id %d, active", found, created.ID)
	}
}
