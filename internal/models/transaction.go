package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// DefaultCategories lists the built-in category names offered per
// transaction type. Users may also supply free-form categories.
var DefaultCategories = map[TransactionType][]string{
	TransactionTypeExpense:  {"Food", "Transport", "Entertainment", "Utilities", "Rent", "Shopping", "Healthcare", "Education"},
	TransactionTypeIncome:   {"Salary", "Freelance", "Investment", "Gift", "Bonus"},
	TransactionTypeTransfer: {"Between Accounts"},
}

// Transaction represents a financial transaction in the system. Amount is
// always positive, in minor currency units; the sign of its effect on an
// account is derived from the transaction type. Expenses and transfers
// debit AccountFrom, income and transfers credit AccountTo.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Category    string          `gorm:"index" json:"category"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`

	AccountFromID *string `gorm:"type:uuid" json:"account_from,omitempty"`
	AccountToID   *string `gorm:"type:uuid" json:"account_to,omitempty"`

	// Relationships
	AccountFrom *Account `gorm:"foreignKey:AccountFromID" json:"-"`
	AccountTo   *Account `gorm:"foreignKey:AccountToID" json:"-"`
}
