package models

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind encodes the direction of a Transaction; amounts are always positive.
type TransactionKind string

const (
	KindDeposit          TransactionKind = "deposit"
	KindWithdrawal       TransactionKind = "withdrawal"
	KindOutgoingTransfer TransactionKind = "outgoing transfer"
	KindIncomingTransfer TransactionKind = "incoming transfer"
)

// Transaction is an immutable record of a single-account balance mutation.
type Transaction struct {
	ID        int64           `json:"id" db:"id"`
	AccountID int64           `json:"account_id" db:"account_id"`
	Kind      TransactionKind `json:"transaction_type" db:"kind"`
	Amount    Money           `json:"amount" db:"amount"`
	CreatedAt time.Time       `json:"date" db:"created_at"`
}

// Transfer pairs a sender and a receiver for one atomic move of funds.
// Reference is an external tracking number.
type Transfer struct {
	ID         int64     `json:"id" db:"id"`
	Reference  uuid.UUID `json:"reference" db:"reference"`
	SenderID   int64     `json:"sender_id" db:"sender_id"`
	ReceiverID int64     `json:"receiver_id" db:"receiver_id"`
	Amount     Money     `json:"amount" db:"amount"`
	CreatedAt  time.Time `json:"date" db:"created_at"`
}
