// Package postgres is the database/sql store of the ledger. A unit of work
// is one database transaction that locks its account rows with
// SELECT ... FOR UPDATE in ascending id order.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ruralpay/ledger/internal/errors"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/ruralpay/ledger/internal/validators"
)

const uniqueViolation = "23505"

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const accountColumns = `id, name, balance, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := insertAccount(ctx, s.db, account, s.now()); err != nil {
		return errors.NewStorageError("create account", err)
	}
	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertAccount(ctx context.Context, q queryRower, account *models.Account, now time.Time) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO accounts (name, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING id`,
		account.Name, account.Balance, now).Scan(&account.ID)
	if err != nil {
		return err
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, errors.ErrAccountNotFound
	}
	if err != nil {
		return nil, errors.NewStorageError("get account", err)
	}
	return account, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, errors.NewStorageError("list accounts", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, errors.NewStorageError("list accounts", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list accounts", err)
	}
	return accounts, nil
}

const transactionColumns = `id, account_id, kind, amount, created_at`

func (s *Store) ListTransactions(ctx context.Context, accountID int64) ([]*models.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE account_id = $1 ORDER BY id`, accountID)
}

func (s *Store) ListAllTransactions(ctx context.Context) ([]*models.Transaction, error) {
	return s.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions ORDER BY id`)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]*models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewStorageError("list transactions", err)
	}
	defer rows.Close()

	var txns []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Kind, &t.Amount, &t.CreatedAt); err != nil {
			return nil, errors.NewStorageError("list transactions", err)
		}
		txns = append(txns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list transactions", err)
	}
	return txns, nil
}

func (s *Store) ListTransfers(ctx context.Context, accountID int64) ([]*models.Transfer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reference, sender_id, receiver_id, amount, created_at
		FROM transfers
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY id`, accountID)
	if err != nil {
		return nil, errors.NewStorageError("list transfers", err)
	}
	defer rows.Close()

	var transfers []*models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.ID, &t.Reference, &t.SenderID, &t.ReceiverID, &t.Amount, &t.CreatedAt); err != nil {
			return nil, errors.NewStorageError("list transfers", err)
		}
		transfers = append(transfers, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list transfers", err)
	}
	return transfers, nil
}

// Atomic begins a transaction, locks the rows of lockIDs in ascending
// order and hands fn a view bound to that transaction. Ids without a row
// are simply absent from the view.
func (s *Store) Atomic(ctx context.Context, lockIDs []int64, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("begin", err)
	}
	defer sqlTx.Rollback()

	t := &pgTx{
		tx:       sqlTx,
		now:      s.now,
		accounts: make(map[int64]*models.Account),
	}
	for _, id := range store.LockOrder(lockIDs) {
		account, err := scanAccount(sqlTx.QueryRowContext(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return errors.NewStorageError("lock account", err)
		}
		t.accounts[id] = account
	}

	if err := fn(t); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return errors.NewStorageError("commit", err)
	}
	return nil
}

type pgTx struct {
	tx       *sql.Tx
	now      func() time.Time
	accounts map[int64]*models.Account
}

func (t *pgTx) Account(id int64) (*models.Account, error) {
	account, ok := t.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (t *pgTx) UpdateBalance(ctx context.Context, id int64, balance models.Money) error {
	account, ok := t.accounts[id]
	if !ok {
		return errors.ErrAccountNotFound
	}
	now := t.now()
	_, err := t.tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, updated_at = $2
		WHERE id = $3`,
		balance, now, id)
	if err != nil {
		return errors.NewStorageError("update balance", err)
	}
	account.Balance = balance
	account.UpdatedAt = now
	return nil
}

func (t *pgTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if err := validators.ValidateRecordKind(txn.Kind); err != nil {
		return err
	}
	now := t.now()
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO transactions (account_id, kind, amount, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		txn.AccountID, string(txn.Kind), txn.Amount, now).Scan(&txn.ID)
	if err != nil {
		return errors.NewStorageError("insert transaction", err)
	}
	txn.CreatedAt = now
	return nil
}

func (t *pgTx) InsertTransfer(ctx context.Context, transfer *models.Transfer) error {
	if transfer.Reference == uuid.Nil {
		transfer.Reference = uuid.New()
	}
	now := t.now()
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO transfers (reference, sender_id, receiver_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		transfer.Reference.String(), transfer.SenderID, transfer.ReceiverID, transfer.Amount, now).Scan(&transfer.ID)
	if err != nil {
		return errors.NewStorageError("insert transfer", err)
	}
	transfer.CreatedAt = now
	return nil
}

func (t *pgTx) DeleteTransactions(ctx context.Context, accountID int64) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM transactions WHERE account_id = $1`, accountID); err != nil {
		return errors.NewStorageError("delete transactions", err)
	}
	return nil
}

// DeleteAccount removes the row; linked users lose their account_id through
// the ON DELETE SET NULL constraint.
func (t *pgTx) DeleteAccount(ctx context.Context, id int64) error {
	if _, ok := t.accounts[id]; !ok {
		return errors.ErrAccountNotFound
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id); err != nil {
		return errors.NewStorageError("delete account", err)
	}
	delete(t.accounts, id)
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

var _ store.Store = (*Store)(nil)
var _ store.Tx = (*pgTx)(nil)
