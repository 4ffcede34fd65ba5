package security

import (
	"errors"
	"fmt"
	"time"

	"guardx/internal/common"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies HS256 bearer tokens whose subject is the
// username.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		auth: jwtauth.New("HS256", key, nil),
		ttl:  ttl,
		now:  time.Now,
	}
}

// JWTAuth exposes the underlying verifier for jwtauth.Verifier.
func (t *TokenIssuer) JWTAuth() *jwtauth.JWTAuth {
	return t.auth
}

func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// GenerateToken issues a token for username using the configured TTL.
func (t *TokenIssuer) GenerateToken(username string) (string, error) {
	return t.GenerateTokenWithTTL(username, t.ttl)
}

func (t *TokenIssuer) GenerateTokenWithTTL(username string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := jwt.MapClaims{
		"sub": username,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	_, tokenString, err := t.auth.Encode(claims)
	return tokenString, err
}

// VerifyToken checks signature and expiry and returns the subject.
func (t *TokenIssuer) VerifyToken(tokenString string) (string, error) {
	token, err := jwtauth.VerifyToken(t.auth, tokenString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	return GetSubjectFromClaims(jwt.MapClaims{"sub": token.Subject()})
}

// GetSubjectFromClaims extracts the username from decoded claims.
func GetSubjectFromClaims(claims jwt.MapClaims) (string, error) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: %v", common.ErrUnauthorized, errors.New("sub claim is missing or not a string"))
	}
	return sub, nil
}
