package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims carried by locally issued tokens
type Claims struct {
	Identity  string   `json:"identity"`
	WorkerSID string   `json:"worker_sid,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTValidator validates HS256 tokens signed with the account auth token.
// It stands in for the IAM check in local development and tests.
type JWTValidator struct {
	Issuer string
}

// NewJWTValidator creates a JWT validator
func NewJWTValidator() *JWTValidator {
	return &JWTValidator{Issuer: "twilio-functions-utils"}
}

// IssueToken signs a token for accountSID that JWTValidator accepts
func IssueToken(accountSID, authToken string, claims Claims, ttl time.Duration) (string, error) {
	if accountSID == "" || authToken == "" {
		return "", ErrMissingCredentials
	}
	if ttl == 0 {
		ttl = time.Hour
	}

	now := time.Now()
	claims.Subject = accountSID
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if claims.Issuer == "" {
		claims.Issuer = "twilio-functions-utils"
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString([]byte(authToken))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate implements Validator. Malformed, expired or foreign tokens yield a
// Validation with Valid false.
func (v *JWTValidator) Validate(_ context.Context, tokenString, accountSID, authToken string) (*Validation, error) {
	if err := checkInput(tokenString, accountSID, authToken); err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(accountSID),
	}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(authToken), nil
	}, opts...)
	if err != nil {
		return &Validation{Valid: false, Message: describe(err)}, nil
	}
	if !parsed.Valid {
		return &Validation{Valid: false, Message: "Invalid token"}, nil
	}

	validation := &Validation{
		Valid:     true,
		Identity:  claims.Identity,
		WorkerSID: claims.WorkerSID,
		Roles:     claims.Roles,
	}
	if claims.ExpiresAt != nil {
		validation.Expiration = claims.ExpiresAt.Format(time.RFC3339)
	}
	return validation, nil
}

func describe(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "Token signature is invalid"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "Token is malformed"
	case errors.Is(err, jwt.ErrTokenInvalidSubject):
		return "Token was issued for another account"
	default:
		return "Invalid token"
	}
}
