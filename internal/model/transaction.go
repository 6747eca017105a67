package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind indicates the direction of money for a transaction.
type Kind string

// Transaction kinds.
const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k is a known transaction kind.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// ParseKind converts user input into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("invalid transaction kind %q (want income or expense)", s)
	}
	return k, nil
}

// Transaction is a single ledger entry. Amount is always positive; the
// direction of money is carried by Kind.
type Transaction struct {
	Date        time.Time
	CreatedAt   time.Time
	Amount      decimal.Decimal
	ID          string
	Description string
	CategoryID  string
	Kind        Kind
}

// IsExpense reports whether the transaction is money going out.
func (t Transaction) IsExpense() bool {
	return t.Kind == KindExpense
}
