package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"go-med-predict/internal/model"
)

// Reason classifies why a token was rejected. The HTTP message stays uniform;
// the reason goes to logs and audit events.
type Reason string

const (
	ReasonMissing      Reason = "missing"
	ReasonMalformed    Reason = "malformed"
	ReasonExpired      Reason = "expired"
	ReasonBadSignature Reason = "bad_signature"
	ReasonInvalid      Reason = "invalid"
)

const DefaultTokenTTL = 24 * time.Hour

type TokenError struct {
	Reason Reason
	Err    error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return "token rejected: " + string(e.Reason)
	}
	return fmt.Sprintf("token rejected: %s: %v", e.Reason, e.Err)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the rejection reason, or "" when err is not a TokenError.
func ReasonOf(err error) Reason {
	var tokenErr *TokenError
	if errors.As(err, &tokenErr) {
		return tokenErr.Reason
	}
	return ""
}

type sessionClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies stateless HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// SetClock replaces the time source used for issuing and expiry checks.
func (s *TokenService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for user valid until now+TTL. There is no renewal.
func (s *TokenService) Issue(user model.User) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	claims := sessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks the signature first and the claims second; a token is live
// while now < exp. An optional "Bearer " prefix is accepted.
func (s *TokenService) Verify(raw string) (*model.AuthClaims, error) {
	token := strings.TrimSpace(raw)
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "bearer") {
		token = strings.TrimSpace(rest)
	} else if strings.EqualFold(token, "bearer") {
		token = ""
	}
	if token == "" {
		return nil, &TokenError{Reason: ReasonMissing}
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		reason := classify(err)
		if reason == ReasonMalformed && signatureUnreadable(token) {
			reason = ReasonBadSignature
		}
		return nil, &TokenError{Reason: reason, Err: err}
	}

	if claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, &TokenError{Reason: ReasonMalformed, Err: errors.New("token has no user id")}
	}

	out := &model.AuthClaims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}

	return out, nil
}

func classify(err error) Reason {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ReasonMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ReasonBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ReasonExpired
	default:
		return ReasonMalformed
	}
}

// signatureUnreadable reports whether the header and claims segments are
// well formed while the rest of the token is not a strict base64url
// signature. Everything after the second dot counts as the signature.
func signatureUnreadable(token string) bool {
	header, rest, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	claims, signature, ok := strings.Cut(rest, ".")
	if !ok {
		return false
	}

	for _, segment := range []string{header, claims} {
		raw, err := base64.RawURLEncoding.Strict().DecodeString(segment)
		if err != nil || !json.Valid(raw) {
			return false
		}
	}

	_, err := base64.RawURLEncoding.Strict().DecodeString(signature)
	return err != nil
}
