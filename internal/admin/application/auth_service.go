package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/domainerr"
)

type authService struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	logger *log.Logger
	now    func() time.Time
}

func NewAuthService(users UserRepository, hasher PasswordHasher, tokens TokenIssuer, logger *log.Logger) AuthService {
	return &authService{users: users, hasher: hasher, tokens: tokens, logger: logger, now: time.Now}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	normalized, err := admindomain.NewEmail(email)
	if err != nil || normalized == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByEmail(ctx, normalized.String())
	if errors.Is(err, domainerr.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(*user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	now := s.now().UTC()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		if s.logger != nil {
			s.logger.Printf("lastLoginAt update failed for %s: %v", user.ID, err)
		}
	} else {
		user.LastLoginAt = &now
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: *user}, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*admindomain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domainerr.ErrNotFound
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, domainerr.ErrNotFound
	}
	return user, nil
}
