package middleware

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"task-weather/backend/internal/services"

	"github.com/gin-gonic/gin"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

type TokenValidator interface {
	Validate(token string) (int64, error)
}

// AuthGate rejects requests without a valid "<scheme> <token>" Authorization
// header and stores the token's user id under UserIDKey.
func AuthGate(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.TrimSpace(header) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is missing!"})
			return
		}

		userID, err := validateHeader(tokens, header)
		if err != nil {
			abortWithAuthError(c, err)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func validateHeader(tokens TokenValidator, header string) (userID int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &services.AuthError{Kind: services.AuthUnexpected, Err: fmt.Errorf("%v", r)}
		}
	}()

	parts := strings.Fields(header)
	if len(parts) != 2 {
		return 0, &services.AuthError{
			Kind: services.AuthMalformed,
			Err:  errors.New("authorization header must be '<scheme> <token>'"),
		}
	}
	return tokens.Validate(parts[1])
}

func abortWithAuthError(c *gin.Context, err error) {
	var authErr *services.AuthError
	if !errors.As(err, &authErr) {
		authErr = &services.AuthError{Kind: services.AuthUnexpected, Err: err}
	}

	switch authErr.Kind {
	case services.AuthExpired:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token has expired"})
	case services.AuthMalformed, services.AuthMissing:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Token: " + authErr.Error()})
	default:
		log.Printf("auth: unexpected token validation failure on %s %s: %v", c.Request.Method, c.Request.URL.Path, authErr)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "An unexpected error occurred: " + authErr.Error()})
	}
}

// CurrentUserID returns the user id stored by AuthGate.
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
