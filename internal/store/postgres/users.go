package postgres

import (
	"context"
	"database/sql"

	"github.com/ruralpay/ledger/internal/errors"
	"github.com/ruralpay/ledger/internal/models"
)

const userColumns = `id, username, hashed_password, role, is_active, account_id, created_at`

func scanUser(row scanner) (*models.User, error) {
	var (
		u         models.User
		accountID sql.NullInt64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.HashedPassword, &u.Role, &u.IsActive, &accountID, &u.CreatedAt); err != nil {
		return nil, err
	}
	if accountID.Valid {
		id := accountID.Int64
		u.AccountID = &id
	}
	return &u, nil
}

// CreateUserWithAccount inserts the account (when given) and the user in a
// single transaction.
func (s *Store) CreateUserWithAccount(ctx context.Context, user *models.User, account *models.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("begin", err)
	}
	defer tx.Rollback()

	now := s.now()
	var accountID sql.NullInt64
	if account != nil {
		if err := insertAccount(ctx, tx, account, now); err != nil {
			return errors.NewStorageError("create account", err)
		}
		accountID = sql.NullInt64{Int64: account.ID, Valid: true}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (username, hashed_password, role, is_active, account_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		user.Username, user.HashedPassword, string(user.Role), user.IsActive, accountID, now).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.ErrUserAlreadyExists
		}
		return errors.NewStorageError("create user", err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageError("commit", err)
	}

	user.CreatedAt = now
	if account != nil {
		id := account.ID
		user.AccountID = &id
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.NewStorageError("get user", err)
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, errors.NewStorageError("list users", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.NewStorageError("list users", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("list users", err)
	}
	return users, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.NewStorageError("delete user", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewStorageError("delete user", err)
	}
	if affected == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}
