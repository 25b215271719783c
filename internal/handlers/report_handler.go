package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"paisa/internal/clock"
	apperrors "paisa/internal/errors"
	"paisa/internal/models"
	"paisa/internal/money"
	"paisa/internal/services"
)

// ReportHandler handles reporting requests.
type ReportHandler struct {
	reportService services.ReportServicer
	clock         clock.Clock
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer, clk clock.Clock) *ReportHandler {
	return &ReportHandler{reportService: reportService, clock: clk}
}

// GetSummary handles the income vs expense summary.
// @Summary     Income vs expense summary
// @Description Get total income, total expense, and net flow for a date range
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from_date query string false "Start date (YYYY-MM-DD)"
// @Param       to_date   query string false "End date (YYYY-MM-DD)"
// @Success     200 {object} map[string]string "Summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/summary [get]
func (h *ReportHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	loc := h.clock.Location()
	from, err := parseDate(c.Query("from_date"), loc)
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseDate(c.Query("to_date"), loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.reportService.IncomeVsExpense(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_income":  money.Format(summary.TotalIncome),
		"total_expense": money.Format(summary.TotalExpense),
		"net_flow":      money.Format(summary.NetFlow),
	})
}

// GetCategoryBreakdown handles per-category totals for a transaction type.
// @Summary     Category breakdown
// @Description Get per-category totals for expenses or income over a date range
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type      query string false "Transaction type (default expense)"
// @Param       from_date query string false "Start date (YYYY-MM-DD)"
// @Param       to_date   query string false "End date (YYYY-MM-DD)"
// @Success     200 {object} map[string]string "Per-category totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/categories [get]
func (h *ReportHandler) GetCategoryBreakdown(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txType := models.TransactionTypeExpense
	if v := c.Query("type"); v != "" {
		t := models.TransactionType(v)
		if !t.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income, expense, or transfer"))
			return
		}
		txType = t
	}

	loc := h.clock.Location()
	from, err := parseDate(c.Query("from_date"), loc)
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseDate(c.Query("to_date"), loc)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.reportService.CategoryTotals(userID, txType, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	formatted := make(map[string]string, len(totals))
	for category, amount := range totals {
		formatted[category] = money.Format(amount)
	}

	c.JSON(http.StatusOK, gin.H{"categories": formatted})
}

// GetAccountBalances handles the per-account balance report.
// @Summary     Account balances
// @Description Get the current balance of each active account
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]string "Per-account balances"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/balances [get]
func (h *ReportHandler) GetAccountBalances(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.reportService.AccountBalances(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	formatted := make(map[string]string, len(balances))
	for name, balance := range balances {
		formatted[name] = money.Format(balance)
	}

	c.JSON(http.StatusOK, gin.H{"balances": formatted})
}

// GetCategories handles listing the built-in category suggestions.
// @Summary     Default categories
// @Description Get the built-in category names per transaction type
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]string "Default categories"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /categories [get]
func (h *ReportHandler) GetCategories(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": models.DefaultCategories})
}
