package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "paisa/internal/errors"
	"paisa/internal/models"
	"paisa/internal/money"
	"paisa/internal/pagination"
	"paisa/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// CreateAccountRequest represents the request payload for creating an account.
// Balance is a decimal string like "1500.00".
type CreateAccountRequest struct {
	Name          string             `json:"name" binding:"required,min=1,max=100"`
	Type          models.AccountType `json:"type" binding:"required,account_type"`
	BankName      string             `json:"bank_name" binding:"max=100"`
	AccountNumber string             `json:"account_number" binding:"max=50"`
	Balance       string             `json:"balance"`
}

// UpdateAccountRequest represents the request payload for updating an account.
type UpdateAccountRequest struct {
	Name          *string `json:"name" binding:"omitempty,min=1,max=100"`
	BankName      *string `json:"bank_name" binding:"omitempty,max=100"`
	AccountNumber *string `json:"account_number" binding:"omitempty,max=50"`
	IsActive      *bool   `json:"is_active"`
}

// AccountResponse represents an account in API responses, with the balance
// rendered as a decimal string.
type AccountResponse struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Type          models.AccountType `json:"type"`
	BankName      string             `json:"bank_name,omitempty"`
	AccountNumber string             `json:"account_number,omitempty"`
	Balance       string             `json:"balance"`
	IsActive      bool               `json:"is_active"`
}

func accountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID,
		Name:          a.Name,
		Type:          a.Type,
		BankName:      a.BankName,
		AccountNumber: a.AccountNumber,
		Balance:       money.Format(a.Balance),
		IsActive:      a.IsActive,
	}
}

// CreateAccount handles the creation of a new account.
// @Summary     Create an account
// @Description Create a new account with an optional opening balance
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} AccountResponse "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var openingBalance int64
	if req.Balance != "" {
		openingBalance, err = money.Parse(req.Balance)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	account, err := h.accountService.CreateAccount(
		userID, req.Name, req.Type, req.BankName, req.AccountNumber, openingBalance,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": accountResponse(account)})
}

// GetAccounts handles listing accounts for the authenticated user.
// @Summary     Get accounts
// @Description Get a paginated list of accounts for the authenticated user
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[AccountResponse] "Paginated accounts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [get]
func (h *AccountHandler) GetAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.accountService.GetUserAccounts(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	items := make([]AccountResponse, 0, len(result.Data))
	for i := range result.Data {
		items = append(items, accountResponse(&result.Data[i]))
	}

	c.JSON(http.StatusOK, pagination.NewPageResponse(items, result.Page, result.PageSize, result.TotalItems))
}

// GetAccount handles retrieving a specific account.
// @Summary     Get account by ID
// @Description Get a single account belonging to the authenticated user
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} AccountResponse "Account"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": accountResponse(account)})
}

// UpdateAccount handles updating an account's mutable fields. The balance is
// never set directly here; it only moves through transactions.
// @Summary     Update an account
// @Description Update an account's name, bank details, or active status
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to update"
// @Success     200 {object} AccountResponse "Updated account"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.UpdateAccount(userID, accountID, services.AccountUpdateFields{
		Name:          req.Name,
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		IsActive:      req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": accountResponse(account)})
}

// DeleteAccount handles soft-deleting an account.
// @Summary     Delete an account
// @Description Soft-delete an account belonging to the authenticated user
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.accountService.DeleteAccount(userID, accountID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// GetTotalBalance handles summing the user's account balances.
// @Summary     Get total balance
// @Description Get the sum of all active account balances for the user
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]string "Total balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/balance [get]
func (h *AccountHandler) GetTotalBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	total, err := h.accountService.TotalBalance(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"total_balance": money.Format(total)})
}
