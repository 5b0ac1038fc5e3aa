package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pckassistant/graph-engine/internal/pkg/logger"
	"github.com/pckassistant/graph-engine/internal/pkg/reqctx"
)

// AuthMiddleware attaches the caller's account id to the request context.
// There is no identity provider here: the account id is an opaque string
// the caller already authenticated with upstream (a gateway, a signed
// cookie, whatever fronts this service), and this middleware only refuses
// to let a write endpoint through without one.
type AuthMiddleware struct {
	log *logger.Logger
}

func NewAuthMiddleware(log *logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware")}
}

// RequireAccount aborts with 401 unless the request carries an account id,
// via either a Bearer token or an X-Account-Id header, and stores it on
// the request context for handlers to read with reqctx.AccountID.
func (m *AuthMiddleware) RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := extractAccountID(c)
		if accountID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "missing account identity", "code": "unauthorized"},
			})
			return
		}
		c.Request = c.Request.WithContext(reqctx.WithAccountID(c.Request.Context(), accountID))
		c.Next()
	}
}

// AttachAccount is the read-path counterpart to RequireAccount: it stores
// whatever account id is present without rejecting the request when one
// is absent, since read endpoints like GetGraph still need account
// scoping but some are reasonably called anonymously in a dev setup.
func (m *AuthMiddleware) AttachAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		if accountID := extractAccountID(c); accountID != "" {
			c.Request = c.Request.WithContext(reqctx.WithAccountID(c.Request.Context(), accountID))
		}
		c.Next()
	}
}

func extractAccountID(c *gin.Context) string {
	if header := strings.TrimSpace(c.GetHeader("X-Account-Id")); header != "" {
		return header
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
