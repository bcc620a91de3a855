// Package audit records every ledger mutation, successful or not, as a
// structured event.
package audit

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ruralpay/ledger/internal/models"
)

const (
	EventTransaction = "TRANSACTION"
	EventTransfer    = "TRANSFER"
	EventDeletion    = "ACCOUNT_DELETED"
	EventError       = "ERROR"

	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	Reference string            `json:"reference,omitempty"`
	AccountID int64             `json:"account_id,omitempty"`
	Amount    string            `json:"amount,omitempty"`
	Status    string            `json:"status"`
	Details   map[string]string `json:"details,omitempty"`
}

type Logger struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewLogger writes audit events to logger under the "audit" name. A nil
// logger discards them.
func NewLogger(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{
		logger: logger.Named("audit"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (a *Logger) LogTransaction(accountID int64, kind models.TransactionKind, amount models.Money, status string) {
	a.log(Event{
		EventType: EventTransaction,
		AccountID: accountID,
		Amount:    amount.String(),
		Status:    status,
		Details:   map[string]string{"transaction_type": string(kind)},
	})
}

func (a *Logger) LogTransfer(reference string, senderID, receiverID int64, amount models.Money, status string) {
	a.log(Event{
		EventType: EventTransfer,
		Reference: reference,
		AccountID: senderID,
		Amount:    amount.String(),
		Status:    status,
		Details: map[string]string{
			"sender_id":   formatID(senderID),
			"receiver_id": formatID(receiverID),
		},
	})
}

func (a *Logger) LogDeletion(accountID int64) {
	a.log(Event{
		EventType: EventDeletion,
		AccountID: accountID,
		Status:    StatusSuccess,
	})
}

func (a *Logger) LogError(operation string, accountID int64, err error) {
	a.log(Event{
		EventType: EventError,
		AccountID: accountID,
		Status:    StatusFailed,
		Details: map[string]string{
			"operation": operation,
			"error":     err.Error(),
		},
	})
}

func (a *Logger) log(event Event) {
	event.Timestamp = a.now()
	fields := []zap.Field{
		zap.Time("timestamp", event.Timestamp),
		zap.String("event_type", event.EventType),
		zap.String("status", event.Status),
	}
	if event.Reference != "" {
		fields = append(fields, zap.String("reference", event.Reference))
	}
	if event.AccountID != 0 {
		fields = append(fields, zap.Int64("account_id", event.AccountID))
	}
	if event.Amount != "" {
		fields = append(fields, zap.String("amount", event.Amount))
	}
	if len(event.Details) > 0 {
		fields = append(fields, zap.Any("details", event.Details))
	}

	if event.Status == StatusFailed {
		a.logger.Warn("AUDIT", fields...)
		return
	}
	a.logger.Info("AUDIT", fields...)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
