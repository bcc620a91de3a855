// Package store defines the persistence boundary of the ledger. Adapters
// live in the postgres and memory subpackages.
package store

import (
	"context"
	"sort"

	"github.com/ruralpay/ledger/internal/models"
)

// Store is durable, key-indexed storage with a transactional unit of work.
type Store interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)

	// ListTransactions returns the account's transactions in insertion order.
	ListTransactions(ctx context.Context, accountID int64) ([]*models.Transaction, error)
	ListAllTransactions(ctx context.Context) ([]*models.Transaction, error)
	ListTransfers(ctx context.Context, accountID int64) ([]*models.Transfer, error)

	// Atomic runs fn while holding exclusive locks on lockIDs, acquired in
	// ascending order. Writes made through tx are committed iff fn returns
	// nil; otherwise none of them are observable.
	Atomic(ctx context.Context, lockIDs []int64, fn func(tx Tx) error) error

	UserStore
}

// Tx is the view of one unit of work. Account only resolves ids that were
// passed to Atomic.
type Tx interface {
	// Account returns the locked account or errors.ErrAccountNotFound.
	Account(id int64) (*models.Account, error)
	UpdateBalance(ctx context.Context, id int64, balance models.Money) error
	InsertTransaction(ctx context.Context, txn *models.Transaction) error
	InsertTransfer(ctx context.Context, transfer *models.Transfer) error
	DeleteTransactions(ctx context.Context, accountID int64) error
	DeleteAccount(ctx context.Context, id int64) error
}

// UserStore keeps the identities the auth collaborator resolves.
type UserStore interface {
	// CreateUserWithAccount stores account (if non-nil) and user in one unit,
	// linking user.AccountID to the new account.
	CreateUserWithAccount(ctx context.Context, user *models.User, account *models.Account) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// LockOrder sorts ids ascending and drops duplicates and non-positive ids.
func LockOrder(ids []int64) []int64 {
	ordered := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	return ordered
}
