// Package auth issues and parses the signed bearer credentials used by the
// HTTP surface. Tokens carry the account identity and its role memberships.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/monkeyandriver/healthforge/internal/common"
	"github.com/monkeyandriver/healthforge/internal/server/models"
)

// Claims is the claim set embedded in every issued token: the registered
// claims (sub = account email, jti = fresh UUID, iss/aud/exp from config)
// plus the account id, display name, and role list.
type Claims struct {
	jwt.RegisteredClaims
	UserID string   `json:"uid"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
}

// IssueToken mints a signed HS256 token for an authenticated account. The
// roles slice may be empty. A missing signing key is a configuration error,
// not a runtime one.
func IssueToken(user *models.User, roles []string, secretKey []byte, issuer, audience string, validityDuration time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", fmt.Errorf("%w: JWT signing key is not configured", common.ErrConfiguration)
	}

	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: user.ID,
		Name:   user.Name,
		Roles:  roles,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates a bearer token and returns its claims. Expired tokens
// yield common.ErrTokenExpired; any other failure yields
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// HasRole reports whether the claim set includes the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
