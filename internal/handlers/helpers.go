package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "paisa/internal/errors"
	"paisa/internal/logger"
	"paisa/internal/money"
	"paisa/internal/uuid"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", apperrors.ErrUnauthorized
	}
	return userID.(string), nil
}

// parsePathID parses a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id := c.Param(param)
	if !uuid.IsValid(id) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parseAmount converts a decimal string like "100.50" into minor units.
// Rejects zero, negative, and sub-paise precision.
func parseAmount(s string) (int64, error) {
	v, err := money.ParsePositive(s)
	if err != nil {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return v, nil
}

// parseDateTime combines a date string ("2006-01-02") and an optional time
// string ("15:04") into a time.Time interpreted in loc. An empty date returns
// the zero time with no error so callers can fall back to the current moment.
func parseDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if dateStr == "" {
		return time.Time{}, nil
	}
	layout := "2006-01-02"
	value := dateStr
	if timeStr != "" {
		layout = "2006-01-02 15:04"
		value = dateStr + " " + timeStr
	}
	t, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date or time format")
	}
	return t, nil
}

// parseDate parses an optional "2006-01-02" query value in loc.
// Returns nil for an empty value.
func parseDate(s string, loc *time.Location) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date format, expected YYYY-MM-DD")
	}
	return &t, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}
