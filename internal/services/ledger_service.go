package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ruralpay/ledger/internal/audit"
	"github.com/ruralpay/ledger/internal/errors"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/ruralpay/ledger/internal/validators"
)

// AuditLogger receives one event per attempted mutation.
type AuditLogger interface {
	LogTransaction(accountID int64, kind models.TransactionKind, amount models.Money, status string)
	LogTransfer(reference string, senderID, receiverID int64, amount models.Money, status string)
	LogDeletion(accountID int64)
	LogError(operation string, accountID int64, err error)
}

// LedgerService owns every balance mutation. It keeps no state between
// calls and is safe for concurrent use; serialization happens in the store.
type LedgerService struct {
	store  store.Store
	names  validators.NamePolicy
	audit  AuditLogger
	logger *zap.Logger
}

type LedgerOption func(*LedgerService)

func WithNamePolicy(policy validators.NamePolicy) LedgerOption {
	return func(s *LedgerService) { s.names = policy }
}

func WithAuditLogger(a AuditLogger) LedgerOption {
	return func(s *LedgerService) { s.audit = a }
}

func WithLogger(logger *zap.Logger) LedgerOption {
	return func(s *LedgerService) { s.logger = logger }
}

func NewLedgerService(st store.Store, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		store:  st,
		names:  validators.DefaultNamePolicy(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.audit == nil {
		s.audit = audit.NewLogger(s.logger)
	}
	return s
}

// TransactionResult is the outcome of a committed RegisterTransaction.
type TransactionResult struct {
	Account     *models.Account     `json:"account"`
	Transaction *models.Transaction `json:"transaction"`
}

// TransferResult is the outcome of a committed RegisterTransfer.
type TransferResult struct {
	Transfer *models.Transfer    `json:"transfer"`
	Sender   *models.Account     `json:"sender"`
	Receiver *models.Account     `json:"receiver"`
	Outgoing *models.Transaction `json:"outgoing"`
	Incoming *models.Transaction `json:"incoming"`
}

// RegisterTransaction applies a deposit or withdrawal to one account and
// records it. Checks run in order: account exists, amount, kind, funds.
func (s *LedgerService) RegisterTransaction(ctx context.Context, accountID int64, amount models.Money, kind string) (*TransactionResult, error) {
	var result *TransactionResult

	err := s.store.Atomic(ctx, []int64{accountID}, func(tx store.Tx) error {
		account, err := tx.Account(accountID)
		if err != nil {
			return err
		}
		if err := validators.ValidateAmount(amount); err != nil {
			return err
		}
		if err := validators.ValidateKind(kind); err != nil {
			return err
		}

		k := models.TransactionKind(kind)
		balance := account.Balance.Add(amount)
		if k == models.KindWithdrawal {
			if amount.GreaterThan(account.Balance) {
				return errors.ErrInsufficientFunds
			}
			balance = account.Balance.Sub(amount)
		}

		if err := tx.UpdateBalance(ctx, accountID, balance); err != nil {
			return err
		}
		txn := &models.Transaction{AccountID: accountID, Kind: k, Amount: amount}
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}

		account.Balance = balance
		result = &TransactionResult{Account: account, Transaction: txn}
		return nil
	})
	if err != nil {
		return nil, s.fail("transaction", accountID, err)
	}

	s.audit.LogTransaction(accountID, result.Transaction.Kind, amount, audit.StatusSuccess)
	return result, nil
}

// RegisterTransfer moves amount from sender to receiver. Both balances, the
// two Transactions and the Transfer commit together or not at all.
func (s *LedgerService) RegisterTransfer(ctx context.Context, senderID, receiverID int64, amount models.Money) (*TransferResult, error) {
	if senderID == receiverID {
		err := errors.NewValidationError("receiver_id", "cannot transfer to the same account", errors.ErrSameAccount)
		return nil, s.fail("transfer", senderID, err)
	}

	var result *TransferResult

	err := s.store.Atomic(ctx, []int64{senderID, receiverID}, func(tx store.Tx) error {
		sender, err := tx.Account(senderID)
		if err != nil {
			return err
		}
		receiver, err := tx.Account(receiverID)
		if err != nil {
			return err
		}
		if err := validators.ValidateAmount(amount); err != nil {
			return err
		}
		if amount.GreaterThan(sender.Balance) {
			return errors.ErrInsufficientFunds
		}

		sender.Balance = sender.Balance.Sub(amount)
		receiver.Balance = receiver.Balance.Add(amount)
		if err := tx.UpdateBalance(ctx, senderID, sender.Balance); err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, receiverID, receiver.Balance); err != nil {
			return err
		}

		outgoing := &models.Transaction{AccountID: senderID, Kind: models.KindOutgoingTransfer, Amount: amount}
		if err := tx.InsertTransaction(ctx, outgoing); err != nil {
			return err
		}
		incoming := &models.Transaction{AccountID: receiverID, Kind: models.KindIncomingTransfer, Amount: amount}
		if err := tx.InsertTransaction(ctx, incoming); err != nil {
			return err
		}

		transfer := &models.Transfer{
			Reference:  uuid.New(),
			SenderID:   senderID,
			ReceiverID: receiverID,
			Amount:     amount,
		}
		if err := tx.InsertTransfer(ctx, transfer); err != nil {
			return err
		}

		result = &TransferResult{
			Transfer: transfer,
			Sender:   sender,
			Receiver: receiver,
			Outgoing: outgoing,
			Incoming: incoming,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("transfer", senderID, err)
	}

	s.audit.LogTransfer(result.Transfer.Reference.String(), senderID, receiverID, amount, audit.StatusSuccess)
	return result, nil
}

// DeleteAccount removes the account and its Transactions. Transfers that
// name it are kept.
func (s *LedgerService) DeleteAccount(ctx context.Context, accountID int64) error {
	err := s.store.Atomic(ctx, []int64{accountID}, func(tx store.Tx) error {
		if _, err := tx.Account(accountID); err != nil {
			return err
		}
		if err := tx.DeleteTransactions(ctx, accountID); err != nil {
			return err
		}
		return tx.DeleteAccount(ctx, accountID)
	})
	if err != nil {
		return s.fail("delete account", accountID, err)
	}

	s.audit.LogDeletion(accountID)
	return nil
}

func (s *LedgerService) CreateAccount(ctx context.Context, name string, initialBalance models.Money) (*models.Account, error) {
	if err := s.names.Validate(name); err != nil {
		return nil, err
	}
	if err := validators.ValidateInitialBalance(initialBalance); err != nil {
		return nil, err
	}

	account := &models.Account{Name: name, Balance: initialBalance}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, s.fail("create account", 0, err)
	}
	s.logger.Info("account created", zap.Int64("account_id", account.ID))
	return account, nil
}

// NewAccount validates name and balance without storing anything; callers
// that persist the account through another path use it.
func (s *LedgerService) NewAccount(name string, initialBalance models.Money) (*models.Account, error) {
	if err := s.names.Validate(name); err != nil {
		return nil, err
	}
	if err := validators.ValidateInitialBalance(initialBalance); err != nil {
		return nil, err
	}
	return &models.Account{Name: name, Balance: initialBalance}, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// GetAccountDetail returns the account with its transaction history.
func (s *LedgerService) GetAccountDetail(ctx context.Context, accountID int64) (*models.AccountDetail, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []*models.Transaction{}
	}
	return &models.AccountDetail{Account: *account, Transactions: txns}, nil
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]*models.AccountDetail, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	details := make([]*models.AccountDetail, 0, len(accounts))
	for _, account := range accounts {
		txns, err := s.store.ListTransactions(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if txns == nil {
			txns = []*models.Transaction{}
		}
		details = append(details, &models.AccountDetail{Account: *account, Transactions: txns})
	}
	return details, nil
}

// ListTransactions returns the account's history in insertion order.
func (s *LedgerService) ListTransactions(ctx context.Context, accountID int64) ([]*models.Transaction, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	txns, err := s.store.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []*models.Transaction{}
	}
	return txns, nil
}

func (s *LedgerService) ListAllTransactions(ctx context.Context) ([]*models.Transaction, error) {
	txns, err := s.store.ListAllTransactions(ctx)
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []*models.Transaction{}
	}
	return txns, nil
}

// ListTransfers returns the transfers the account sent or received.
func (s *LedgerService) ListTransfers(ctx context.Context, accountID int64) ([]*models.Transfer, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	transfers, err := s.store.ListTransfers(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if transfers == nil {
		transfers = []*models.Transfer{}
	}
	return transfers, nil
}

// fail records a rejected or failed mutation and returns err unchanged.
func (s *LedgerService) fail(operation string, accountID int64, err error) error {
	if errors.IsStorageError(err) {
		s.logger.Error("ledger storage failure",
			zap.String("operation", operation),
			zap.Int64("account_id", accountID),
			zap.Error(err))
	}
	s.audit.LogError(operation, accountID, err)
	return err
}
