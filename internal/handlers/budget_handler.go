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

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	clock         clock.Clock
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, clk clock.Clock) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, clock: clk}
}

// CreateBudgetRequest represents the request payload for creating a budget.
// Amount is a decimal string; an empty category creates a general budget that
// catches expenses of any category.
type CreateBudgetRequest struct {
	Category  string              `json:"category" binding:"max=100"`
	Amount    string              `json:"amount" binding:"required"`
	Period    models.BudgetPeriod `json:"period" binding:"required,budget_period"`
	StartDate string              `json:"start_date"`
	EndDate   string              `json:"end_date"`
	Note      string              `json:"note" binding:"max=500"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
// Setting category to an empty string clears it; clear_end_date removes the
// end bound, making the budget open-ended.
type UpdateBudgetRequest struct {
	Category     *string              `json:"category" binding:"omitempty,max=100"`
	Amount       *string              `json:"amount"`
	Period       *models.BudgetPeriod `json:"period" binding:"omitempty,budget_period"`
	StartDate    *string              `json:"start_date"`
	EndDate      *string              `json:"end_date"`
	ClearEndDate bool                 `json:"clear_end_date"`
	Note         *string              `json:"note" binding:"omitempty,max=500"`
	IsActive     *bool                `json:"is_active"`
}

// BudgetEntryResponse represents an attached transaction inside a budget.
type BudgetEntryResponse struct {
	TransactionID string    `json:"transaction_id"`
	Amount        string    `json:"amount"`
	Date          time.Time `json:"date"`
	Note          string    `json:"note,omitempty"`
}

// BudgetResponse represents a budget in API responses, with amounts rendered
// as decimal strings and the clamped remaining figure included.
type BudgetResponse struct {
	ID        string                `json:"id"`
	Category  *string               `json:"category"`
	Amount    string                `json:"amount"`
	Period    models.BudgetPeriod   `json:"period"`
	StartDate time.Time             `json:"start_date"`
	EndDate   *time.Time            `json:"end_date,omitempty"`
	Spent     string                `json:"spent"`
	Remaining string                `json:"remaining"`
	Note      string                `json:"note,omitempty"`
	IsActive  bool                  `json:"is_active"`
	Entries   []BudgetEntryResponse `json:"entries,omitempty"`
}

func budgetResponse(b *models.Budget) BudgetResponse {
	resp := BudgetResponse{
		ID:        b.ID,
		Category:  b.Category,
		Amount:    money.Format(b.Amount),
		Period:    b.Period,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		Spent:     money.Format(b.Spent),
		Remaining: money.Format(b.Remaining()),
		Note:      b.Note,
		IsActive:  b.IsActive,
	}
	for i := range b.Entries {
		e := &b.Entries[i]
		resp.Entries = append(resp.Entries, BudgetEntryResponse{
			TransactionID: e.TransactionID,
			Amount:        money.Format(e.Amount),
			Date:          e.Date,
			Note:          e.Note,
		})
	}
	return resp
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a budget for a category or a general catch-all budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} BudgetResponse "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loc := h.clock.Location()
	start, err := parseDate(req.StartDate, loc)
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseDate(req.EndDate, loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var category *string
	if req.Category != "" {
		category = &req.Category
	}

	budget, err := h.budgetService.CreateBudget(userID, category, amount, req.Period, start, end, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"budget": budgetResponse(budget)})
}

// GetBudgets handles listing budgets for the authenticated user.
// @Summary     Get budgets
// @Description Get a paginated list of budgets, optionally filtered by category or active date
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       category  query string false "Filter by category"
// @Param       active_on query string false "Only budgets whose date range covers this date (YYYY-MM-DD)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[BudgetResponse] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
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

	activeOn, err := parseDate(c.Query("active_on"), h.clock.Location())
	if err != nil {
		respondWithError(c, err)
		return
	}

	var category *string
	if v := c.Query("category"); v != "" {
		category = &v
	}

	result, err := h.budgetService.GetUserBudgets(userID, page, activeOn, category)
	if err != nil {
		respondWithError(c, err)
		return
	}

	items := make([]BudgetResponse, 0, len(result.Data))
	for i := range result.Data {
		items = append(items, budgetResponse(&result.Data[i]))
	}

	c.JSON(http.StatusOK, pagination.NewPageResponse(items, result.Page, result.PageSize, result.TotalItems))
}

// GetBudget handles retrieving a specific budget with its entries.
// @Summary     Get budget by ID
// @Description Get a single budget with its attached transaction entries
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} BudgetResponse "Budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budgetResponse(budget)})
}

// UpdateBudget handles updating a budget's fields.
// @Summary     Update a budget
// @Description Update a budget's category, amount, period, dates, note, or active status
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to update"
// @Success     200 {object} BudgetResponse "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.BudgetUpdateFields{
		Category: req.Category,
		Period:   req.Period,
		ClearEnd: req.ClearEndDate,
		Note:     req.Note,
		IsActive: req.IsActive,
	}

	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.Amount = &amount
	}

	loc := h.clock.Location()
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate, loc)
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.StartDate = start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate, loc)
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.EndDate = end
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budgetResponse(budget)})
}

// DeleteBudget handles deleting a budget. Transactions themselves are
// untouched; only the budget and its entry list go away.
// @Summary     Delete a budget
// @Description Delete a budget and its entry list without affecting transactions
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted"})
}

// GetBudgetProgress handles the current-period progress view of a budget.
// @Summary     Get budget progress
// @Description Get spending vs budget for the budget's current period window
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.BudgetProgress "Progress"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/progress [get]
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.budgetService.GetBudgetProgress(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// RecalculateBudget handles recomputing a budget's spent total from its
// entry list.
// @Summary     Recalculate budget spent
// @Description Recompute the spent counter from the budget's entries
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} BudgetResponse "Recalculated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets/{id}/recalculate [post]
func (h *BudgetHandler) RecalculateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.RecalculateSpent(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budgetResponse(budget)})
}
