package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "paisa/internal/errors"
	"paisa/internal/models"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new user
func (s *userService) CreateUser(email, password, name string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	var count int64
	s.db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count)
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:    strings.ToLower(email),
		Password: string(hashedPassword),
		Name:     name,
		IsActive: true,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(email), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin verifies credentials with progressive lockout. Failed
// attempts are counted; passing maxFailedLogins locks the account for
// lockoutDuration.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		// Do not reveal whether the email exists.
		return nil, apperrors.ErrInvalidCredentials
	}

	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		return nil, apperrors.ErrAccountLocked
	}

	if !s.VerifyPassword(user, password) {
		updates := map[string]interface{}{
			"failed_login_attempts": user.FailedLoginAttempts + 1,
		}
		if user.FailedLoginAttempts+1 >= maxFailedLogins {
			lockedUntil := time.Now().Add(lockoutDuration)
			updates["locked_until"] = lockedUntil
		}
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.db.Model(user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	return user, nil
}

// StoreRefreshTokenHash persists the hash of the user's current refresh token.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("refresh_token_hash", tokenHash)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash for a user.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}
