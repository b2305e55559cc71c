// Package token issues and validates the bearer tokens that carry a caller's
// account address. The token proves control of the address to the registry
// API; which privileges that address holds is decided by the registry itself
// on every call.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
)

// CallerClaims are the JWT claims for registry API tokens.
type CallerClaims struct {
	Address string `json:"addr"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
}

func NewService(signingKey, issuer, audience string, tokenTTL time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

// Generate mints a signed token for the given caller address.
func (s *Service) Generate(addr domain.Address, ttl time.Duration) (string, error) {
	if addr.IsZero() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "caller address cannot be empty")
	}
	if ttl == 0 {
		ttl = s.tokenTTL
	}
	now := time.Now()
	claims := CallerClaims{
		Address: addr.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   addr.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// ValidateToken parses and validates a token, returning the caller address.
func (s *Service) ValidateToken(tokenString string) (domain.Address, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &CallerClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
			}
			return s.signingKey, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*CallerClaims)
	if !ok || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	addr, err := domain.ParseAddress(claims.Address)
	if err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "token carries a malformed address")
	}
	return addr, nil
}
