package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ruralpay/ledger/internal/errors"
	"github.com/ruralpay/ledger/internal/models"
)

func clientPrincipal(accountID int64) *models.Principal {
	return &models.Principal{UserID: 10, Username: "adam", Role: models.RoleClient, AccountID: &accountID}
}

func TestAuthorize(t *testing.T) {
	admin := &models.Principal{UserID: 1, Username: "root", Role: models.RoleAdmin}

	assert.NoError(t, Authorize(admin, 1))
	assert.NoError(t, Authorize(admin, 999))

	assert.NoError(t, Authorize(clientPrincipal(5), 5))
	assert.ErrorIs(t, Authorize(clientPrincipal(5), 6), apperrors.ErrForbidden)

	orphan := &models.Principal{UserID: 2, Username: "ghost", Role: models.RoleClient}
	assert.ErrorIs(t, Authorize(orphan, 1), apperrors.ErrForbidden)

	assert.ErrorIs(t, Authorize(nil, 1), apperrors.ErrUnauthenticated)
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(&models.Principal{Role: models.RoleAdmin}))
	assert.ErrorIs(t, RequireAdmin(clientPrincipal(1)), apperrors.ErrForbidden)
	assert.ErrorIs(t, RequireAdmin(nil), apperrors.ErrUnauthenticated)
}

func TestOwnAccount(t *testing.T) {
	id, err := OwnAccount(clientPrincipal(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)

	_, err = OwnAccount(&models.Principal{Role: models.RoleAdmin})
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
}
