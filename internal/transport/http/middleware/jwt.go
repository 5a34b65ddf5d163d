package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"gopherai-docqa/internal/pkg/jwtutil"
	"gopherai-docqa/internal/transport/http/response"
)

const (
	ContextTenantIDKey = "tenant_id"
	ContextSubjectKey  = "subject"
)

// AuthJWT admits requests carrying a valid bearer token and scopes them to the
// token's tenant.
func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextTenantIDKey, claims.TenantID)
		c.Set(ContextSubjectKey, claims.Subject)
		c.Next()
	}
}
