package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/nhasan-dev/wallet-ledger/internal/domain"
	"github.com/nhasan-dev/wallet-ledger/internal/models"
	"github.com/nhasan-dev/wallet-ledger/internal/repository"
)

// AuthService verifies credentials and mints signed access tokens.
type AuthService struct {
	store    repository.Store
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewAuthService(store repository.Store, secret []byte, issuer, audience string, ttl time.Duration) *AuthService {
	return &AuthService{store: store, secret: secret, issuer: issuer, audience: audience, ttl: ttl}
}

// Claims is the JWT payload carried by every authenticated request.
type Claims struct {
	UserID uuid.UUID   `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Login checks the password and account state, then returns the user plus a
// signed token. Wrong email and wrong password produce the same message so
// the endpoint does not leak which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", domain.E(domain.KindAuthorization, "invalid email or password")
		}
		return nil, "", err
	}
	if user.Deleted {
		return nil, "", domain.E(domain.KindAuthorization, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.E(domain.KindAuthorization, "invalid email or password")
	}
	switch user.ActiveStatus {
	case domain.UserBlocked:
		return nil, "", domain.E(domain.KindAuthorization, "this account is blocked")
	case domain.UserInactive:
		return nil, "", domain.E(domain.KindAuthorization, "this account is inactive")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken validates a bearer token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, domain.E(domain.KindAuthorization, "invalid or expired token")
	}
	return claims, nil
}
