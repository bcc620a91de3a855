// Package validators holds the pure input checks of the ledger. Every
// validator returns nil when the value is acceptable and a
// *errors.ValidationError wrapping the matching sentinel otherwise.
package validators

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ruralpay/ledger/internal/errors"
	"github.com/ruralpay/ledger/internal/models"
)

// MaxAmount is the largest value a NUMERIC(12,2) column holds.
var MaxAmount = models.MustParseMoney("9999999999.99")

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 4

// MaxNameLength matches accounts.name VARCHAR(100).
const MaxNameLength = 100

func ValidateAmount(amount models.Money) error {
	return validateMoney("amount", amount)
}

// ValidateInitialBalance applies the amount rule to a balance given at account creation.
func ValidateInitialBalance(balance models.Money) error {
	return validateMoney("balance", balance)
}

func validateMoney(field string, m models.Money) error {
	switch {
	case !m.IsPositive():
		return errors.NewValidationError(field, "must be greater than zero", errors.ErrInvalidAmount)
	case m.HasSubCentPrecision():
		return errors.NewValidationError(field, "must have at most two fractional digits", errors.ErrInvalidAmount)
	case m.GreaterThan(MaxAmount):
		return errors.NewValidationError(field, "exceeds "+MaxAmount.String(), errors.ErrInvalidAmount)
	}
	return nil
}

// ValidateKind accepts the kinds a caller may request directly.
func ValidateKind(kind string) error {
	switch models.TransactionKind(kind) {
	case models.KindDeposit, models.KindWithdrawal:
		return nil
	}
	return errors.NewValidationError("transaction_type", "should be either withdrawal or deposit", errors.ErrInvalidKind)
}

// ValidateRecordKind accepts every kind a stored Transaction may carry,
// including the two produced internally by transfers.
func ValidateRecordKind(kind models.TransactionKind) error {
	switch kind {
	case models.KindDeposit, models.KindWithdrawal, models.KindOutgoingTransfer, models.KindIncomingTransfer:
		return nil
	}
	return errors.NewValidationError("transaction_type", fmt.Sprintf("unknown kind %q", kind), errors.ErrInvalidKind)
}

func ValidateAccountID(id int64) error {
	if id <= 0 {
		return errors.NewValidationError("account_id", "must be a positive integer", errors.ErrInvalidAccountID)
	}
	return nil
}

// ParseAccountID parses a path or query parameter into an account id.
func ParseAccountID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("account_id", "must be a positive integer", errors.ErrInvalidAccountID)
	}
	if err := ValidateAccountID(id); err != nil {
		return 0, err
	}
	return id, nil
}

func ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return errors.NewValidationError("username", "is required", errors.ErrInvalidCredentials)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errors.NewValidationError("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength), errors.ErrInvalidCredentials)
	}
	return nil
}

// NamePolicy decides which display names an account may carry: one or
// more capitalized words of Unicode letters separated by single spaces.
type NamePolicy struct {
	MaxWords int
	pattern  *regexp.Regexp
}

const (
	NamePolicyOneWord  = "one_word"
	NamePolicyTwoWords = "two_words"
)

const namePart = `\p{Lu}\p{Ll}+`

func NewNamePolicy(maxWords int) NamePolicy {
	if maxWords < 1 {
		maxWords = 1
	}
	expr := fmt.Sprintf(`^%s(?: %s){0,%d}$`, namePart, namePart, maxWords-1)
	return NamePolicy{
		MaxWords: maxWords,
		pattern:  regexp.MustCompile(expr),
	}
}

// DefaultNamePolicy allows "Adam" and "Adam Nowak".
func DefaultNamePolicy() NamePolicy {
	return NewNamePolicy(2)
}

// ParseNamePolicy maps a configuration value to a policy.
func ParseNamePolicy(name string) (NamePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NamePolicyOneWord:
		return NewNamePolicy(1), nil
	case NamePolicyTwoWords, "":
		return NewNamePolicy(2), nil
	}
	return NamePolicy{}, fmt.Errorf("unknown name policy %q", name)
}

func (p NamePolicy) Validate(name string) error {
	if p.pattern == nil {
		p = DefaultNamePolicy()
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return errors.NewValidationError("name", fmt.Sprintf("must be at most %d characters", MaxNameLength), errors.ErrInvalidName)
	}
	if !p.pattern.MatchString(name) {
		return errors.NewValidationError("name", fmt.Sprintf("must be up to %d capitalized words", p.MaxWords), errors.ErrInvalidName)
	}
	return nil
}
