package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/hackathon-portal/models"
	"github.com/Dosada05/hackathon-portal/repositories"
	"github.com/Dosada05/hackathon-portal/utils"
)

const minPasswordLength = 8

var ErrInvalidToken = errors.New("invalid or expired session token")

// AdminClaims is the payload of an admin session token.
type AdminClaims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// Login checks credentials and issues a signed session token.
	Login(ctx context.Context, input models.Credentials) (token string, expiresAt time.Time, err error)
	// ParseToken verifies a session token and returns the admin email.
	ParseToken(token string) (string, error)
	ChangePassword(ctx context.Context, email, current, next string) error
	// Bootstrap stores the configured credential when none exists yet.
	Bootstrap(ctx context.Context, email, password, passwordHash string) error
}

type authService struct {
	store     repositories.Store
	jwtSecret []byte
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

func NewAuthService(store repositories.Store, jwtSecret string, ttl time.Duration, logger *slog.Logger) AuthService {
	return &authService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, input models.Credentials) (string, time.Time, error) {
	admin, err := s.store.LoadAdmin(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return "", time.Time{}, ErrAdminNotConfigured
		}
		return "", time.Time{}, fmt.Errorf("failed to load admin credential: %w", err)
	}

	emailOK := subtle.ConstantTimeCompare(
		[]byte(utils.NormalizeEmail(input.Email)),
		[]byte(utils.NormalizeEmail(admin.Email)),
	) == 1
	// bcrypt runs even when the email does not match.
	passwordOK := utils.CheckPasswordHash(input.Password, admin.PasswordHash)
	if !emailOK || !passwordOK {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := AdminClaims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *authService) ParseToken(tokenString string) (string, error) {
	claims := &AdminClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if !claims.Admin || claims.Subject == "" || claims.ExpiresAt == nil {
		return "", ErrInvalidToken
	}
	if !claims.ExpiresAt.After(s.now()) {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (s *authService) ChangePassword(ctx context.Context, email, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrPasswordTooShort
	}
	admin, err := s.store.LoadAdmin(ctx)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return ErrAdminNotConfigured
		}
		return fmt.Errorf("failed to load admin credential: %w", err)
	}
	if !strings.EqualFold(admin.Email, email) || !utils.CheckPasswordHash(current, admin.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin.PasswordHash = hash
	if err := s.store.SaveAdmin(ctx, admin); err != nil {
		return fmt.Errorf("failed to save admin credential: %w", err)
	}
	s.logger.InfoContext(ctx, "Admin password changed", slog.String("email", admin.Email))
	return nil
}

func (s *authService) Bootstrap(ctx context.Context, email, password, passwordHash string) error {
	_, err := s.store.LoadAdmin(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrAdminNotFound) {
		return fmt.Errorf("failed to load admin credential: %w", err)
	}

	email = strings.TrimSpace(email)
	if email == "" || (password == "" && passwordHash == "") {
		s.logger.WarnContext(ctx, "No admin credential stored and ADMIN_EMAIL/ADMIN_PASSWORD not set; admin login is disabled")
		return nil
	}
	if passwordHash == "" {
		if len(password) < minPasswordLength {
			return ErrPasswordTooShort
		}
		if passwordHash, err = utils.HashPassword(password); err != nil {
			return fmt.Errorf("failed to hash admin password: %w", err)
		}
	}

	if err := s.store.SaveAdmin(ctx, &models.AdminCredential{Email: email, PasswordHash: passwordHash}); err != nil {
		return fmt.Errorf("failed to save admin credential: %w", err)
	}
	s.logger.InfoContext(ctx, "Admin credential created", slog.String("email", email))
	return nil
}
