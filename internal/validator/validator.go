// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("account_type", validateAccountType)
		_ = v.RegisterValidation("budget_period", validateBudgetPeriod)
	}
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense", "transfer":
		return true
	}
	return false
}

func validateAccountType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "checking", "savings", "credit", "cash", "other":
		return true
	}
	return false
}

func validateBudgetPeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "daily", "weekly", "monthly", "yearly", "custom":
		return true
	}
	return false
}
