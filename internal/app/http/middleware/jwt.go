package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"venue-backend/internal/api/httpx"
	"venue-backend/internal/apperr"
)

var errNoToken = errors.New("authorization header missing")

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		claims, err := parseBearer(c.GetHeader("Authorization"), key)
		if err != nil {
			httpx.Unauthorized(c, err.Error())
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth is for routes guests may call too. A missing header passes
// through as a guest; a present but invalid token is still rejected.
func OptionalAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		claims, err := parseBearer(c.GetHeader("Authorization"), key)
		if errors.Is(err, errNoToken) {
			c.Next()
			return
		}
		if err != nil {
			httpx.Unauthorized(c, err.Error())
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(httpx.RoleKey)
		if !exists {
			httpx.Unauthorized(c, "role not found in token")
			return
		}
		if value != role {
			httpx.Fail(c, apperr.Forbidden("access denied"))
			return
		}
		c.Next()
	}
}

func parseBearer(header string, key []byte) (jwt.MapClaims, error) {
	if header == "" {
		return nil, errNoToken
	}
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return nil, errors.New("bearer token malformed")
	}

	token, err := jwt.Parse(strings.TrimSpace(tokenString), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims jwt.MapClaims) {
	if email, ok := claims["email"].(string); ok {
		c.Set(httpx.EmailKey, email)
	}
	if role, ok := claims["role"].(string); ok {
		c.Set(httpx.RoleKey, role)
	}
	if userIDFloat, ok := claims["user_id"].(float64); ok {
		c.Set(httpx.UserIDKey, uint(userIDFloat))
	}
}
