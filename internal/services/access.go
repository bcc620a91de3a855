package services

import (
	"github.com/ruralpay/ledger/internal/errors"
	"github.com/ruralpay/ledger/internal/models"
)

// Authorize reports whether principal may act on accountID. Admins may act
// on any account; clients only on their own.
func Authorize(principal *models.Principal, accountID int64) error {
	if principal == nil {
		return errors.ErrUnauthenticated
	}
	if principal.IsAdmin() {
		return nil
	}
	if principal.AccountID != nil && *principal.AccountID == accountID {
		return nil
	}
	return errors.ErrForbidden
}

func RequireAdmin(principal *models.Principal) error {
	if principal == nil {
		return errors.ErrUnauthenticated
	}
	if !principal.IsAdmin() {
		return errors.ErrForbidden
	}
	return nil
}

// OwnAccount returns the account id of a client principal.
func OwnAccount(principal *models.Principal) (int64, error) {
	if principal == nil {
		return 0, errors.ErrUnauthenticated
	}
	if principal.AccountID == nil {
		return 0, errors.ErrAccountNotFound
	}
	return *principal.AccountID, nil
}
