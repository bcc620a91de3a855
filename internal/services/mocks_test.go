package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
)

// MockStore runs the unit of work against Tx. The first return value of
// Atomic is a failure before fn runs, the second a commit failure.
type MockStore struct {
	mock.Mock
	Tx *MockTx
}

func (m *MockStore) CreateAccount(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockStore) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockStore) ListTransactions(ctx context.Context, accountID int64) ([]*models.Transaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockStore) ListAllTransactions(ctx context.Context) ([]*models.Transaction, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockStore) ListTransfers(ctx context.Context, accountID int64) ([]*models.Transfer, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transfer), args.Error(1)
}

func (m *MockStore) Atomic(ctx context.Context, lockIDs []int64, fn func(tx store.Tx) error) error {
	args := m.Called(ctx, lockIDs)
	if err := args.Error(0); err != nil {
		return err
	}
	if err := fn(m.Tx); err != nil {
		return err
	}
	return args.Error(1)
}

func (m *MockStore) CreateUserWithAccount(ctx context.Context, user *models.User, account *models.Account) error {
	args := m.Called(ctx, user, account)
	return args.Error(0)
}

func (m *MockStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockStore) DeleteUser(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockTx struct {
	mock.Mock
}

func (m *MockTx) Account(id int64) (*models.Account, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockTx) UpdateBalance(ctx context.Context, id int64, balance models.Money) error {
	args := m.Called(ctx, id, balance)
	return args.Error(0)
}

func (m *MockTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTx) InsertTransfer(ctx context.Context, transfer *models.Transfer) error {
	args := m.Called(ctx, transfer)
	return args.Error(0)
}

func (m *MockTx) DeleteTransactions(ctx context.Context, accountID int64) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockTx) DeleteAccount(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAuditLogger struct {
	mock.Mock
}

func (m *MockAuditLogger) LogTransaction(accountID int64, kind models.TransactionKind, amount models.Money, status string) {
	m.Called(accountID, kind, amount, status)
}

func (m *MockAuditLogger) LogTransfer(reference string, senderID, receiverID int64, amount models.Money, status string) {
	m.Called(reference, senderID, receiverID, amount, status)
}

func (m *MockAuditLogger) LogDeletion(accountID int64) {
	m.Called(accountID)
}

func (m *MockAuditLogger) LogError(operation string, accountID int64, err error) {
	m.Called(operation, accountID, err)
}

var _ store.Store = (*MockStore)(nil)
var _ store.Tx = (*MockTx)(nil)
var _ AuditLogger = (*MockAuditLogger)(nil)
