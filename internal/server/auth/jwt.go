// Package auth implements the cryptographic half of session handling:
// JWT issuance/verification and password hashing. Business validity of a
// token (revocation, session epoch) is decided elsewhere.
package auth

import (
	"time"

	"github.com/dmitrijs2005/storeauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims — структура утверждений, которая включает стандартные утверждения и
// пользовательские UserID и Role
type Claims struct {
	jwt.RegisteredClaims
	UserID string
	Role   string
}

// Issuer creates and verifies signed session tokens. The signing key is fixed
// at construction and never regenerated at runtime.
type Issuer struct {
	secretKey []byte
	validity  time.Duration
}

// NewIssuer constructs an Issuer with the given HMAC secret and token lifetime.
func NewIssuer(secretKey []byte, validity time.Duration) *Issuer {
	return &Issuer{secretKey: secretKey, validity: validity}
}

// Create mints a signed token for the given subject and role and returns it
// together with the stamped issue time. The issue time is truncated to whole
// seconds because JWT NumericDate serializes with second precision and the
// caller persists this exact value as the user's session epoch.
func (i *Issuer) Create(userID string, role string) (string, time.Time, error) {
	issuedAt := time.Now().UTC().Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(i.validity)),
		},
		UserID: userID,
		Role:   role,
	})

	tokenString, err := token.SignedString(i.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, issuedAt, nil
}

// Verify checks the signature and expiry of a token and returns its claims.
// It does not consult the revocation blacklist or the session epoch.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secretKey, nil
	})
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
