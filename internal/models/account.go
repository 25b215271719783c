package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeChecking AccountType = "checking"
	AccountTypeSavings  AccountType = "savings"
	AccountTypeCredit   AccountType = "credit"
	AccountTypeCash     AccountType = "cash"
	AccountTypeOther    AccountType = "other"
)

// Account represents a financial account in the system. Balance is a
// denormalized running total in minor currency units (paise): it is the sum
// of the signed effects of every transaction ever applied to the account,
// so each effect must be applied exactly once.
type Account struct {
	Base
	UserID  string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name    string      `gorm:"not null" json:"name"`
	Type    AccountType `gorm:"not null" json:"type"`
	Balance int64       `gorm:"type:bigint;not null;default:0" json:"balance"`

	// Optional bank metadata
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}
