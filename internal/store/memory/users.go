package memory

import (
	"context"
	"sort"

	"github.com/ruralpay/ledger/internal/errors"
	"github.com/ruralpay/ledger/internal/models"
)

func (s *Store) CreateUserWithAccount(ctx context.Context, user *models.User, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return errors.ErrUserAlreadyExists
		}
	}

	if account != nil {
		s.insertAccountLocked(account)
		id := account.ID
		user.AccountID = &id
	}

	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = s.now()
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return copyUser(user), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return copyUser(user), nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, copyUser(user))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return errors.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func copyUser(u *models.User) *models.User {
	cp := *u
	if u.AccountID != nil {
		id := *u.AccountID
		cp.AccountID = &id
	}
	return &cp
}
