package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"paisa/internal/clock"
	apperrors "paisa/internal/errors"
	"paisa/internal/models"
	"paisa/internal/money"
	"paisa/internal/pagination"
	"paisa/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	clock              clock.Clock
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, clk clock.Clock) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, clock: clk}
}

// CreateTransactionRequest represents the request payload for creating a
// transaction. Amount is a decimal string like "100.50"; Date and Time are
// interpreted in the configured timezone and default to the current moment.
type CreateTransactionRequest struct {
	Type          models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount        string                 `json:"amount" binding:"required"`
	Category      string                 `json:"category" binding:"max=100"`
	Description   string                 `json:"description" binding:"max=500"`
	Date          string                 `json:"date"`
	Time          string                 `json:"time"`
	AccountFromID *string                `json:"account_from_id"`
	AccountToID   *string                `json:"account_to_id"`
}

// UpdateTransactionRequest represents the request payload for updating a
// transaction. The transaction type cannot be changed; a request that sends
// one is rejected rather than silently ignored.
type UpdateTransactionRequest struct {
	Type          *string `json:"type"`
	Amount        *string `json:"amount"`
	Category      *string `json:"category" binding:"omitempty,max=100"`
	Description   *string `json:"description" binding:"omitempty,max=500"`
	Date          *string `json:"date"`
	Time          string  `json:"time"`
	AccountFromID *string `json:"account_from_id"`
	AccountToID   *string `json:"account_to_id"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID            string                 `json:"id"`
	Type          models.TransactionType `json:"type"`
	Amount        string                 `json:"amount"`
	Category      string                 `json:"category,omitempty"`
	Description   string                 `json:"description,omitempty"`
	Date          time.Time              `json:"date"`
	AccountFromID *string                `json:"account_from_id,omitempty"`
	AccountToID   *string                `json:"account_to_id,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

func transactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		Type:          t.Type,
		Amount:        money.Format(t.Amount),
		Category:      t.Category,
		Description:   t.Description,
		Date:          t.Date,
		AccountFromID: t.AccountFromID,
		AccountToID:   t.AccountToID,
		CreatedAt:     t.CreatedAt,
	}
}

// CreateTransaction handles the creation of a new transaction. Account
// balances and any matching budget are adjusted in the same operation.
// @Summary     Create a transaction
// @Description Record an income, expense, or transfer and reconcile balances and budgets
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     409 {object} ErrorResponse "Consistency error"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	date, err := parseDateTime(req.Date, req.Time, h.clock.Location())
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.CreateTransaction(userID, services.TransactionInput{
		Type:          req.Type,
		Amount:        amount,
		Category:      req.Category,
		Description:   req.Description,
		Date:          date,
		AccountFromID: req.AccountFromID,
		AccountToID:   req.AccountToID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transactionResponse(txn)})
}

// GetTransactions handles listing transactions for the authenticated user.
// @Summary     Get transactions
// @Description Get a paginated, filterable list of transactions
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from_date  query string false "Start date (YYYY-MM-DD)"
// @Param       to_date    query string false "End date (YYYY-MM-DD)"
// @Param       type       query string false "Filter by type (income/expense/transfer)"
// @Param       category   query string false "Filter by category"
// @Param       account_id query string false "Filter by account (either side)"
// @Param       min_amount query string false "Minimum amount (decimal string)"
// @Param       max_amount query string false "Maximum amount (decimal string)"
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[TransactionResponse] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
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

	filter, err := h.parseFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	items := make([]TransactionResponse, 0, len(result.Data))
	for i := range result.Data {
		items = append(items, transactionResponse(&result.Data[i]))
	}

	c.JSON(http.StatusOK, pagination.NewPageResponse(items, result.Page, result.PageSize, result.TotalItems))
}

func (h *TransactionHandler) parseFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	loc := h.clock.Location()
	from, err := parseDate(c.Query("from_date"), loc)
	if err != nil {
		return filter, err
	}
	to, err := parseDate(c.Query("to_date"), loc)
	if err != nil {
		return filter, err
	}
	filter.FromDate = from
	filter.ToDate = to

	if v := c.Query("type"); v != "" {
		t := models.TransactionType(v)
		if !t.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income, expense, or transfer")
		}
		filter.Type = &t
	}

	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}

	if v := c.Query("account_id"); v != "" {
		filter.AccountID = &v
	}

	if v := c.Query("min_amount"); v != "" {
		amt, err := money.Parse(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		filter.MinAmount = &amt
	}

	if v := c.Query("max_amount"); v != "" {
		amt, err := money.Parse(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		filter.MaxAmount = &amt
	}

	return filter, nil
}

// GetTransaction handles retrieving a specific transaction.
// @Summary     Get transaction by ID
// @Description Get a single transaction belonging to the authenticated user
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transactionResponse(txn)})
}

// UpdateTransaction handles editing a transaction. The original effects are
// reversed and the edited transaction is applied fresh, so balances and
// budgets stay consistent whatever field changed.
// @Summary     Update a transaction
// @Description Edit a transaction's amount, category, description, date, or accounts
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} TransactionResponse "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Consistency error"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if req.Type != nil {
		respondWithError(c, apperrors.ErrInvalidTypeChange)
		return
	}

	var update services.TransactionUpdate

	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			respondWithError(c, err)
			return
		}
		update.Amount = &amount
	}

	update.Category = req.Category
	update.Description = req.Description
	update.AccountFromID = req.AccountFromID
	update.AccountToID = req.AccountToID

	if req.Date != nil {
		date, err := parseDateTime(*req.Date, req.Time, h.clock.Location())
		if err != nil {
			respondWithError(c, err)
			return
		}
		// parseDateTime maps an empty date to the zero time so the create
		// path can default to now; an update has no such fallback.
		if date.IsZero() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "date must not be empty"))
			return
		}
		update.Date = &date
	}

	txn, err := h.transactionService.UpdateTransaction(userID, transactionID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transactionResponse(txn)})
}

// DeleteTransaction handles deleting a transaction. Its balance and budget
// effects are reversed before the record is removed.
// @Summary     Delete a transaction
// @Description Delete a transaction and undo its balance and budget effects
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Consistency error"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}
