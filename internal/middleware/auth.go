package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"orderdesk/internal/gateway"
	"orderdesk/pkg/response"
)

var errInvalidFormat = errors.New("Invalid authorization format. Expected 'Bearer <token>'")

// Context keys set by Identify.
const (
	KeyUserID   = "userID"
	KeyUserRole = "userRole"
)

// Identify attributes the request to the caller of a valid bearer token.
// A missing token is anonymous, an invalid one is rejected. With an empty
// secret no token is verified. The raw Authorization header is always
// forwarded to the backend through the request context.
func Identify(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth := c.GetHeader("Authorization"); auth != "" {
			ctx := gateway.WithAuthorization(c.Request.Context(), auth)
			c.Request = c.Request.WithContext(ctx)
		}

		if len(secret) == 0 {
			c.Next()
			return
		}

		tokenString, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token: "+err.Error()))
			return
		}

		if sub, ok := claims["sub"].(string); ok {
			c.Set(KeyUserID, sub)
		}
		if role, ok := claims["role"].(string); ok {
			c.Set(KeyUserRole, role)
		}

		c.Next()
	}
}

// ParseToken verifies an HMAC-signed token and returns its claims.
func ParseToken(tokenString string, secret []byte) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// UserID returns the attributed caller, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(KeyUserID)
}

// bearerToken reads the access_token cookie, then the Authorization header.
func bearerToken(c *gin.Context) (string, error) {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString, nil
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", nil
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errInvalidFormat
	}
	return parts[1], nil
}
