package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"duo-journal-backend/internal/models"
	"duo-journal-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpDays        = 30
	minPasswordLength = 6
	maxNameLength     = 80
)

// UserService handles accounts, sessions and password recovery
type UserService struct {
	users     UserStore
	resets    PasswordResetStore
	jwtSecret string
	resetTTL  time.Duration
	now       func() time.Time
}

// NewUserService creates a new user service
func NewUserService(users UserStore, resets PasswordResetStore, jwtSecret string, resetTTL time.Duration) *UserService {
	return &UserService{
		users:     users,
		resets:    resets,
		jwtSecret: jwtSecret,
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

type sessionClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// RegisterRequest represents a sign-up request
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a sign-in request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned after sign-up and sign-in
type SessionResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and opens a session for it
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*SessionResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: name is required and must be at most %d characters", ErrInvalidInput, maxNameLength)
	}
	email := NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &SessionResponse{User: user, Token: token}, nil
}

// Login checks credentials and opens a session
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*SessionResponse, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &SessionResponse{User: user, Token: token}, nil
}

// GetUser returns the account of the logged-in user
func (s *UserService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdatePushToken stores or clears the device token used for push notifications
func (s *UserService) UpdatePushToken(ctx context.Context, userID int64, pushToken string) error {
	pushToken = strings.TrimSpace(pushToken)
	if pushToken == "" {
		return s.users.UpdatePushToken(ctx, userID, nil)
	}
	return s.users.UpdatePushToken(ctx, userID, &pushToken)
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID int64) (string, error) {
	now := s.now()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.AddDate(0, 0, jwtExpDays)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (int64, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

// RequestPasswordReset issues a single-use reset token for the account behind email
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (*models.PasswordReset, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	reset := &models.PasswordReset{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return nil, err
	}
	return reset, nil
}

// ResetPassword consumes a reset token and sets a new password
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	if _, err := uuid.Parse(token); err != nil {
		return ErrResetExpired
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	reset, err := s.resets.Get(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetExpired
		}
		return err
	}
	now := s.now()
	if reset.UsedAt != nil || now.After(reset.ExpiresAt) {
		return ErrResetExpired
	}

	if err := s.resets.MarkUsed(ctx, token, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResetExpired
		}
		return err
	}
	return s.users.UpdatePassword(ctx, reset.UserID, hash)
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}
