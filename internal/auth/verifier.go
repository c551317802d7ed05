// Package auth verifies bearer tokens and resolves the acting user. Tokens
// are HMAC-signed JWTs; issuing them is out of scope for the API itself, but
// IssueToken exists for dev setups and tests.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/teblo/teblo/internal/config"
	"go.uber.org/fx"
)

var (
	ErrMissingToken = errors.New("missing_token")
	ErrInvalidToken = errors.New("invalid_token")
)

const devUserID = "dev"

type Verifier struct {
	secret   []byte
	issuer   string
	disabled bool
}

var Module = fx.Provide(NewVerifier)

func NewVerifier(cfg config.Config) *Verifier {
	return &Verifier{
		secret:   []byte(cfg.AuthSecret),
		issuer:   cfg.AuthIssuer,
		disabled: cfg.AuthDisabled,
	}
}

// Disabled reports whether verification is bypassed. Dev-only; every request
// then acts as a single fixed user.
func (v *Verifier) Disabled() bool { return v.disabled }

// Verify parses the raw token and returns the user ID it carries. The user
// ID is read from "sub", falling back to "user_id".
func (v *Verifier) Verify(raw string) (string, error) {
	if v.disabled {
		return devUserID, nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrMissingToken
	}

	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if v.issuer != "" {
		if !claims.VerifyIssuer(v.issuer, true) {
			return "", ErrInvalidToken
		}
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrInvalidToken
	}

	return userID, nil
}

// IssueToken signs a token for userID valid for ttl.
func (v *Verifier) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if v.issuer != "" {
		claims["iss"] = v.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
