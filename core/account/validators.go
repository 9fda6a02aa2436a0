package account

import (
	"errors"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/elimuhub/elimu/core"
)

const (
	pwdMinLen = 8
	pwdMaxSim = 0.7
)

var (
	errPwdTooShort   = errors.New("password is too short, minimum of 8 characters required")
	errPwdAllNumeric = errors.New("password cannot be entirely numeric")
	errPwdTooSimilar = errors.New("password is too similar to personal information")
)

// ValidatePassword enforces the password policy for self-chosen passwords.
// Provisioned defaults pass it too; keep the policy in sync when changing
// core.Conf.DefaultStudentPassword.
func ValidatePassword(pwd, fullName, email string) error {
	fieldErr := func(err error) error {
		return core.NewValidationError(err, core.FieldError{Field: "password", Error: err.Error()})
	}

	if len(pwd) < pwdMinLen {
		return fieldErr(errPwdTooShort)
	}

	digitCount := 0
	for _, r := range pwd {
		if unicode.IsDigit(r) {
			digitCount++
		}
	}
	if digitCount == len(pwd) {
		return fieldErr(errPwdAllNumeric)
	}

	getRatio := func(pass, attr string) float64 {
		if attr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(attr, "")).QuickRatio()
	}
	lpwd := strings.ToLower(pwd)
	if getRatio(lpwd, strings.ToLower(fullName)) >= pwdMaxSim ||
		getRatio(lpwd, strings.ToLower(email)) >= pwdMaxSim {
		return fieldErr(errPwdTooSimilar)
	}
	return nil
}
