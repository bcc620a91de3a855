package models

import (
	"time"
)

// Account is one client's monetary position. Balance only changes through
// the ledger operations.
type Account struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Balance   Money     `json:"balance" db:"balance"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AccountDetail is an account together with its transaction history.
type AccountDetail struct {
	Account
	Transactions []*Transaction `json:"transactions"`
}
