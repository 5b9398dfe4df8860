package mw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"equipment-visualizer-backend/internal/model"
	"equipment-visualizer-backend/internal/store"
)

const (
	userKey  = "cev.user"
	tokenKey = "cev.token"
)

// TokenFromHeader extracts the key from "Token <key>" or "Bearer <key>".
func TokenFromHeader(header string) (string, bool) {
	scheme, key, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	key = strings.TrimSpace(key)
	return key, key != ""
}

// TokenAuth resolves the caller from the Authorization header on every request
// and aborts with 401 when the token is missing or unknown.
func TokenAuth(s store.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := TokenFromHeader(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
			return
		}

		user, err := s.UserByToken(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token."})
				return
			}
			log.Error("failed to resolve token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(userKey, user)
		c.Set(tokenKey, key)
		c.Next()
	}
}

// CurrentUser returns the user stored by TokenAuth.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// CurrentToken returns the token key stored by TokenAuth.
func CurrentToken(c *gin.Context) string {
	return c.GetString(tokenKey)
}
