// Package memory is an in-process store. Each account has its own mutex;
// a unit of work locks its accounts in ascending id order, stages every
// write, and applies them together on commit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ruralpay/ledger/internal/errors"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/ruralpay/ledger/internal/store"
	"github.com/ruralpay/ledger/internal/validators"
)

type Store struct {
	// mu guards the maps, slices and id sequences below
	mu           sync.RWMutex
	accounts     map[int64]*models.Account
	transactions []*models.Transaction
	transfers    []*models.Transfer
	users        map[int64]*models.User

	nextAccountID     int64
	nextTransactionID int64
	nextTransferID    int64
	nextUserID        int64

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex

	now func() time.Time
}

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		accounts: make(map[int64]*models.Account),
		users:    make(map[int64]*models.User),
		locks:    make(map[int64]*sync.Mutex),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertAccountLocked(account)
	return nil
}

func (s *Store) insertAccountLocked(account *models.Account) {
	s.nextAccountID++
	now := s.now()
	account.ID = s.nextAccountID
	account.CreatedAt = now
	account.UpdatedAt = now
	stored := *account
	s.accounts[account.ID] = &stored
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := make([]*models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		cp := *account
		accounts = append(accounts, &cp)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

func (s *Store) ListTransactions(ctx context.Context, accountID int64) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Transaction
	for _, txn := range s.transactions {
		if txn.AccountID == accountID {
			cp := *txn
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) ListAllTransactions(ctx context.Context) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Transaction, 0, len(s.transactions))
	for _, txn := range s.transactions {
		cp := *txn
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) ListTransfers(ctx context.Context, accountID int64) ([]*models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Transfer
	for _, transfer := range s.transfers {
		if transfer.SenderID == accountID || transfer.ReceiverID == accountID {
			cp := *transfer
			out = append(out, &cp)
		}
	}
	return out, nil
}

// lockFor returns nil for ids with no account. Ids are never reused, so an
// absent account cannot appear later under the same id.
func (s *Store) lockFor(id int64) *sync.Mutex {
	s.mu.RLock()
	_, exists := s.accounts[id]
	s.mu.RUnlock()
	if !exists {
		return nil
	}

	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *Store) Atomic(ctx context.Context, lockIDs []int64, fn func(tx store.Tx) error) error {
	var held []int64
	for _, id := range store.LockOrder(lockIDs) {
		l := s.lockFor(id)
		if l == nil {
			continue
		}
		l.Lock()
		defer l.Unlock()
		held = append(held, id)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	t := s.begin(held)
	if err := fn(t); err != nil {
		return err
	}
	s.commit(t)
	return nil
}

func (s *Store) begin(ids []int64) *memTx {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := &memTx{
		store:    s,
		accounts: make(map[int64]*models.Account, len(ids)),
		deleted:  make(map[int64]bool),
	}
	for _, id := range ids {
		if account, ok := s.accounts[id]; ok {
			cp := *account
			t.accounts[id] = &cp
		}
	}
	return t
}

func (s *Store) commit(t *memTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	for id, account := range t.accounts {
		if t.deleted[id] {
			continue
		}
		if stored, ok := s.accounts[id]; ok && !stored.Balance.Equal(account.Balance) {
			stored.Balance = account.Balance
			stored.UpdatedAt = now
		}
	}

	s.transactions = append(s.transactions, t.transactions...)
	s.transfers = append(s.transfers, t.transfers...)

	if len(t.purged) > 0 {
		kept := s.transactions[:0]
		for _, txn := range s.transactions {
			if !t.purged[txn.AccountID] {
				kept = append(kept, txn)
			}
		}
		s.transactions = kept
	}

	if len(t.deleted) > 0 {
		s.locksMu.Lock()
		for id := range t.deleted {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}

	for id := range t.deleted {
		delete(s.accounts, id)
		for _, user := range s.users {
			if user.AccountID != nil && *user.AccountID == id {
				user.AccountID = nil
			}
		}
	}
}

func (s *Store) sequence(kind string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case "transaction":
		s.nextTransactionID++
		return s.nextTransactionID
	default:
		s.nextTransferID++
		return s.nextTransferID
	}
}

// memTx stages the writes of one unit of work.
type memTx struct {
	store        *Store
	accounts     map[int64]*models.Account
	transactions []*models.Transaction
	transfers    []*models.Transfer
	purged       map[int64]bool
	deleted      map[int64]bool
}

func (t *memTx) Account(id int64) (*models.Account, error) {
	account, ok := t.accounts[id]
	if !ok || t.deleted[id] {
		return nil, errors.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (t *memTx) UpdateBalance(ctx context.Context, id int64, balance models.Money) error {
	account, ok := t.accounts[id]
	if !ok || t.deleted[id] {
		return errors.ErrAccountNotFound
	}
	account.Balance = balance
	return nil
}

func (t *memTx) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if err := validators.ValidateRecordKind(txn.Kind); err != nil {
		return err
	}
	txn.ID = t.store.sequence("transaction")
	txn.CreatedAt = t.store.now()
	cp := *txn
	t.transactions = append(t.transactions, &cp)
	return nil
}

func (t *memTx) InsertTransfer(ctx context.Context, transfer *models.Transfer) error {
	transfer.ID = t.store.sequence("transfer")
	transfer.CreatedAt = t.store.now()
	cp := *transfer
	t.transfers = append(t.transfers, &cp)
	return nil
}

func (t *memTx) DeleteTransactions(ctx context.Context, accountID int64) error {
	if t.purged == nil {
		t.purged = make(map[int64]bool)
	}
	t.purged[accountID] = true

	kept := t.transactions[:0]
	for _, txn := range t.transactions {
		if txn.AccountID != accountID {
			kept = append(kept, txn)
		}
	}
	t.transactions = kept
	return nil
}

func (t *memTx) DeleteAccount(ctx context.Context, id int64) error {
	if _, ok := t.accounts[id]; !ok || t.deleted[id] {
		return errors.ErrAccountNotFound
	}
	t.deleted[id] = true
	return nil
}

var _ store.Store = (*Store)(nil)
var _ store.Tx = (*memTx)(nil)
