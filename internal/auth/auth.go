// Package auth registers users, checks their passwords and issues their tokens.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"trading-journal-go/internal/journal"
	"trading-journal-go/internal/models"
	"trading-journal-go/internal/validate"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service implements the account endpoints.
type Service struct {
	log    *zap.Logger
	db     *gorm.DB
	tokens *TokenService
	cost   int
}

func NewService(log *zap.Logger, db *gorm.DB, tokens *TokenService) *Service {
	return &Service{log: log.Named("auth"), db: db, tokens: tokens, cost: bcrypt.DefaultCost}
}

func (s *Service) Tokens() *TokenService { return s.tokens }

// Register creates a user with default settings and returns a token for it.
func (s *Service) Register(ctx context.Context, in validate.RegisterInput) (string, error) {
	if err := validate.Struct(&in); err != nil {
		return "", journal.Invalid(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        normalizeEmail(in.Email),
		PasswordHash: string(hash),
		Role:         "user",
		Settings:     models.DefaultSettings(),
	}
	if err := s.ensureEmailFree(ctx, u.Email, ""); err != nil {
		return "", err
	}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	s.log.Info("User registered", zap.String("id", u.ID))
	return s.tokens.Issue(u.ID)
}

// Login checks the credentials and returns a token.
func (s *Service) Login(ctx context.Context, in validate.LoginInput) (string, error) {
	if err := validate.Struct(&in); err != nil {
		return "", journal.Invalid(err)
	}

	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(in.Email)).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", journal.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)) != nil {
		return "", journal.Unauthorized("Invalid credentials")
	}
	return s.tokens.Issue(u.ID)
}

// Me loads the caller. A token for a deleted user is treated as unauthenticated.
func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, journal.Unauthorized("Not authorized to access this route")
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	return &u, nil
}

func (s *Service) UpdateDetails(ctx context.Context, userID string, in validate.UpdateDetailsInput) (*models.User, error) {
	if err := validate.Struct(&in); err != nil {
		return nil, journal.Invalid(err)
	}
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	u.Name = strings.TrimSpace(in.Name)
	u.Email = normalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, u.Email, u.ID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return nil, fmt.Errorf("update user %s: %w", userID, err)
	}
	return u, nil
}

// UpdatePassword replaces the password after checking the current one and returns a fresh token.
func (s *Service) UpdatePassword(ctx context.Context, userID string, in validate.UpdatePasswordInput) (string, error) {
	if err := validate.Struct(&in); err != nil {
		return "", journal.Invalid(err)
	}
	u, err := s.Me(ctx, userID)
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.CurrentPassword)) != nil {
		return "", journal.Unauthorized("Password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(u).Update("password_hash", string(hash)).Error; err != nil {
		return "", fmt.Errorf("update password %s: %w", userID, err)
	}
	return s.tokens.Issue(u.ID)
}

// UpdateSettings merges patch over the stored settings.
func (s *Service) UpdateSettings(ctx context.Context, userID string, patch []byte) (*models.User, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	in := validate.SettingsInputFrom(u.Settings)
	if err := json.Unmarshal(patch, &in); err != nil {
		return nil, journal.BadRequest("Invalid request body: " + err.Error())
	}
	if err := validate.Struct(&in); err != nil {
		return nil, journal.Invalid(err)
	}

	u.Settings = in.Settings()
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return nil, fmt.Errorf("update settings %s: %w", userID, err)
	}
	return u, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, exceptID string) error {
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return journal.Conflict("Duplicate field value entered")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
