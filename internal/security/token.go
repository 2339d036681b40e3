package security

import (
	"errors"
	"strconv"
	"time"

	"library-backend/internal/clock"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const (
	RoleMember = "member"
	RoleStaff  = "staff"

	issuer = "library-backend"
)

// UserClaims defines the standard claims for our application
type UserClaims struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Type     TokenType `json:"type"`
	Roles    []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token was issued with role.
func (c *UserClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type TokenManager interface {
	GenerateAccessToken(userID int64, username string, roles []string) (string, error)
	GenerateRefreshToken(userID int64, username string) (string, error)
	ValidateToken(tokenString string) (*UserClaims, error)
	RefreshTTL() time.Duration
}

type tokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      clock.Clock
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration, clk clock.Clock) TokenManager {
	if clk == nil {
		clk = clock.System()
	}
	return &tokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		clock:      clk,
	}
}

func (m *tokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

func (m *tokenManager) GenerateAccessToken(userID int64, username string, roles []string) (string, error) {
	return m.sign(userID, username, TokenTypeAccess, roles, m.accessTTL, "api-access")
}

func (m *tokenManager) GenerateRefreshToken(userID int64, username string) (string, error) {
	return m.sign(userID, username, TokenTypeRefresh, nil, m.refreshTTL, "token-refresh")
}

func (m *tokenManager) sign(userID int64, username string, typ TokenType, roles []string, ttl time.Duration, audience string) (string, error) {
	now := m.clock.Now()
	claims := UserClaims{
		UserID:   userID,
		Username: username,
		Type:     typ,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.clock.Now), jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		if claims.UserID == 0 && claims.Subject != "" {
			uid, _ := strconv.ParseInt(claims.Subject, 10, 64)
			claims.UserID = uid
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}
