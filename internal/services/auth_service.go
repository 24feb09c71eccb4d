package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"compliflow/internal/caching"
	"compliflow/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthService issues and refreshes JWT access tokens. Refresh tokens are
// opaque, hashed, and stored in the cache keyed by hash.
type AuthService interface {
	GenerateTokens(ctx context.Context, userID uuid.UUID, role string) (*models.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
}

type authService struct {
	cacheSvc   caching.CacheService
	jwtSecret  []byte
	tokenTTL   int // access token TTL in seconds
	refreshTTL int // refresh token TTL in seconds
}

// TokenClaims are the JWT claims on access tokens.
type TokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthService(cacheSvc caching.CacheService, jwtSecret string, tokenTTLSeconds, refreshTTLSeconds int) AuthService {
	return &authService{
		cacheSvc:   cacheSvc,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTLSeconds,
		refreshTTL: refreshTTLSeconds,
	}
}

func (s *authService) GenerateTokens(ctx context.Context, userID uuid.UUID, role string) (*models.TokenResponse, error) {
	now := time.Now()
	tokenID := uuid.NewString()

	claims := TokenClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "compliflow-auth",
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{"compliflow-api"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.tokenTTL) * time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessTokenString, err := accessToken.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign JWT: %w", err)
	}

	refreshToken, err := s.generateSecureToken()
	if err != nil {
		return nil, err
	}
	refreshTokenHash := s.hashToken(refreshToken)

	refreshData := fmt.Sprintf("%s:%s:%d", userID.String(), role, now.Unix()+int64(s.refreshTTL))
	cacheKey := refreshCacheKey(refreshTokenHash)
	if err := s.cacheSvc.SetString(ctx, cacheKey, refreshData, time.Duration(s.refreshTTL)*time.Second); err != nil {
		// Access token still works; only refresh is lost.
		log.Printf("WARN: failed to store refresh token: %v", err)
	}

	return &models.TokenResponse{
		AccessToken:  accessTokenString,
		TokenType:    "Bearer",
		ExpiresIn:    s.tokenTTL,
		RefreshToken: refreshToken,
		UserID:       userID.String(),
	}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	cacheKey := refreshCacheKey(s.hashToken(refreshToken))
	data, err := s.cacheSvc.GetString(ctx, cacheKey)
	if err != nil || data == "" {
		return nil, fmt.Errorf("invalid or expired refresh token")
	}

	parts := strings.SplitN(data, ":", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed refresh token record")
	}
	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, fmt.Errorf("malformed refresh token record: %w", err)
	}

	// One-shot rotation: the old token dies when the new pair is issued.
	if err := s.cacheSvc.Delete(ctx, cacheKey); err != nil {
		log.Printf("WARN: failed to revoke rotated refresh token: %v", err)
	}

	return s.GenerateTokens(ctx, userID, parts[1])
}

func (s *authService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return s.cacheSvc.Delete(ctx, refreshCacheKey(s.hashToken(refreshToken)))
}

func (s *authService) generateSecureToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *authService) hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func refreshCacheKey(hash string) string {
	return "refresh_token:" + hash
}
