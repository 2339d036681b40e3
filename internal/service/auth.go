package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"library-backend/internal/clock"
	"library-backend/internal/domain"
	"library-backend/internal/logger"
	"library-backend/internal/repository"
	"library-backend/internal/security"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", domain.ErrUnauthorized)
	ErrAccountDisabled    = fmt.Errorf("%w: account is disabled", domain.ErrForbidden)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	ErrTokenRevoked       = fmt.Errorf("%w: token has been revoked", domain.ErrUnauthorized)
)

const MinPasswordLength = 8

type authService struct {
	store           repository.Store
	tokens          security.TokenManager
	clock           clock.Clock
	defaultMaxBooks int32
	bcryptCost      int
}

func NewAuthService(store repository.Store, tokens security.TokenManager, clk clock.Clock, defaultMaxBooks int32) AuthService {
	return &authService{
		store:           store,
		tokens:          tokens,
		clock:           clk,
		defaultMaxBooks: defaultMaxBooks,
		bcryptCost:      bcrypt.DefaultCost,
	}
}

func validateRegistration(in *RegisterInput) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" {
		return fmt.Errorf("%w: username is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", domain.ErrValidation)
	}
	if len(in.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrValidation, MinPasswordLength)
	}
	return nil
}

func (s *authService) createUser(ctx context.Context, in RegisterInput, staff bool) (*domain.User, error) {
	if err := validateRegistration(&in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		IsStaff:      staff,
		IsActive:     true,
		DateJoined:   now,
		Profile:      domain.NewMembershipProfile(s.defaultMaxBooks),
	}
	user.Profile.UpdatedOn = now

	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "User registered", "userID", user.ID, "username", user.Username, "staff", staff)
	return user, nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*domain.User, *TokenPair, error) {
	user, err := s.createUser(ctx, in, false)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.generateTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *authService) CreateStaffUser(ctx context.Context, in RegisterInput) (*domain.User, error) {
	return s.createUser(ctx, in, true)
}

func (s *authService) Login(ctx context.Context, username, password string) (*domain.User, *TokenPair, error) {
	user, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	pair, err := s.generateTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *authService) RefreshToken(ctx context.Context, refresh string) (string, error) {
	claims, err := s.validateRefresh(ctx, refresh)
	if err != nil {
		return "", err
	}

	user, err := s.store.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrAccountDisabled
	}
	return s.tokens.GenerateAccessToken(user.ID, user.Username, roles(user))
}

// Logout revokes the refresh token until it would have expired anyway.
func (s *authService) Logout(ctx context.Context, refresh string) error {
	claims, err := s.validateRefresh(ctx, refresh)
	if err != nil {
		return err
	}
	if err := s.store.Tokens().Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Refresh token revoked", "userID", claims.UserID)
	return nil
}

func (s *authService) validateRefresh(ctx context.Context, refresh string) (*security.UserClaims, error) {
	claims, err := s.tokens.ValidateToken(refresh)
	if err != nil || claims.Type != security.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	revoked, err := s.store.Tokens().IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (s *authService) generateTokens(user *domain.User) (*TokenPair, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Username, roles(user))
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func roles(user *domain.User) []string {
	if user.IsAdmin() {
		return []string{security.RoleMember, security.RoleStaff}
	}
	return []string{security.RoleMember}
}
