package services

import (
	"errors"
	"strings"

	"task-weather/backend/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrMissingCredentials = errors.New("username and password required")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordTooLong    = errors.New("password exceeds 72 bytes")
)

const (
	pgUniqueViolation = "23505"

	// bcrypt only reads the first 72 bytes of a password.
	maxPasswordBytes = 72
)

type AuthService interface {
	Register(db *gorm.DB, username, password string) (*models.User, error)
	Login(db *gorm.DB, username, password string) (string, error)
}

type AuthServiceImpl struct {
	hasher PasswordHasher
	tokens TokenService
}

func NewAuthService(hasher PasswordHasher, tokens TokenService) *AuthServiceImpl {
	return &AuthServiceImpl{hasher: hasher, tokens: tokens}
}

// Register stores a new user with a hashed password.
func (s *AuthServiceImpl) Register(db *gorm.DB, username, password string) (*models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := models.User{Username: username, HashedPassword: &hashed}
	err = db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateUsername
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	return &user, nil
}

// Login verifies the credentials and returns a signed access token.
func (s *AuthServiceImpl) Login(db *gorm.DB, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrMissingCredentials
	}

	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !user.HasPassword() || !s.hasher.Verify(password, user.HashedPassword) {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(user.ID)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
