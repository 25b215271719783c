package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "paisa/internal/errors"
	"paisa/internal/models"
	"paisa/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a new account for a user. A non-zero opening
// balance is applied directly; it is the account's starting point, not a
// transaction effect.
func (s *accountService) CreateAccount(userID, name string, accountType models.AccountType, bankName, accountNumber string, openingBalance int64) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	account := &models.Account{
		UserID:        userID,
		Name:          name,
		Type:          accountType,
		Balance:       openingBalance,
		BankName:      bankName,
		AccountNumber: accountNumber,
		IsActive:      true,
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return account, nil
}

// GetUserAccounts retrieves a paginated list of active accounts for a user.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	base := s.db.Model(&models.Account{}).Where("user_id = ? AND is_active = ?", userID, true)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount updates an existing account's metadata. The balance is never
// set directly; it only moves through ApplyDelta.
func (s *accountService) UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.BankName != nil {
		updates["bank_name"] = *fields.BankName
	}
	if fields.AccountNumber != nil {
		updates["account_number"] = *fields.AccountNumber
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.db.Where("id = ?", account.ID).First(account).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return account, nil
}

// DeleteAccount soft-deletes an account.
func (s *accountService) DeleteAccount(userID, accountID string) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(account).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// TotalBalance sums the balances of all active accounts for a user.
func (s *accountService) TotalBalance(userID string) (int64, error) {
	var total int64
	err := s.db.Model(&models.Account{}).
		Select("COALESCE(SUM(balance), 0)").
		Where("user_id = ? AND is_active = ?", userID, true).
		Scan(&total).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// ApplyDelta shifts an account's balance by delta within tx. The increment
// runs as a single UPDATE expression, so concurrent deltas against the same
// account serialize on the row rather than clobbering each other.
func (s *accountService) ApplyDelta(tx *gorm.DB, userID, accountID string, delta int64) error {
	if delta == 0 {
		return nil
	}

	result := tx.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", accountID, userID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}
