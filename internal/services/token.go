package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued access token stays valid.
const TokenTTL = 30 * time.Minute

type AuthErrorKind int

const (
	AuthMissing AuthErrorKind = iota
	AuthMalformed
	AuthExpired
	AuthUnexpected
)

func (k AuthErrorKind) String() string {
	switch k {
	case AuthMissing:
		return "missing"
	case AuthMalformed:
		return "malformed"
	case AuthExpired:
		return "expired"
	default:
		return "unexpected"
	}
}

type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

// Errors the jwt parser reports for tokens that are bad on their face. Anything
// outside this set is classified as unexpected.
var malformedTokenErrors = []error{
	jwt.ErrTokenMalformed,
	jwt.ErrTokenUnverifiable,
	jwt.ErrTokenSignatureInvalid,
	jwt.ErrTokenRequiredClaimMissing,
	jwt.ErrTokenInvalidAudience,
	jwt.ErrTokenNotValidYet,
	jwt.ErrTokenUsedBeforeIssued,
	jwt.ErrTokenInvalidIssuer,
	jwt.ErrTokenInvalidSubject,
	jwt.ErrTokenInvalidId,
	jwt.ErrTokenInvalidClaims,
	jwt.ErrInvalidKey,
	jwt.ErrInvalidKeyType,
	jwt.ErrHashUnavailable,
}

type TokenService interface {
	Issue(userID int64) (string, error)
	Validate(token string) (int64, error)
}

type JWTTokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *JWTTokenService {
	return &JWTTokenService{secret: []byte(secret), now: time.Now}
}

// WithClock replaces the time source used for issuing and validating tokens.
func (s *JWTTokenService) WithClock(now func() time.Time) *JWTTokenService {
	s.now = now
	return s
}

func (s *JWTTokenService) Issue(userID int64) (string, error) {
	issuedAt := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature and expiry of token and returns the user id
// it was issued for. Failures are always *AuthError.
func (s *JWTTokenService) Validate(token string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, classifyTokenError(err)
	}

	if claims.Subject == "" {
		return 0, &AuthError{Kind: AuthMalformed, Err: errors.New("token subject is missing")}
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, &AuthError{Kind: AuthMalformed, Err: fmt.Errorf("token subject %q is not a user id", claims.Subject)}
	}
	return userID, nil
}

func classifyTokenError(err error) *AuthError {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return &AuthError{Kind: AuthExpired, Err: err}
	}
	for _, known := range malformedTokenErrors {
		if errors.Is(err, known) {
			return &AuthError{Kind: AuthMalformed, Err: err}
		}
	}
	return &AuthError{Kind: AuthUnexpected, Err: err}
}
