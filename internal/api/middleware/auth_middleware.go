package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobportal/internal/auth"
	"jobportal/internal/errcode"
)

const identityKey = "identity"

// TokenValidator 校验访问令牌。
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.TokenClaims, error)
}

// IdentityResolver 将用户 ID 还原为 Identity。
type IdentityResolver interface {
	Resolve(ctx context.Context, userID uint) (auth.Identity, error)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// AuthMiddleware 校验访问令牌，从数据库解析调用方身份并注入上下文。
func AuthMiddleware(tokens TokenValidator, resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c)
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil || claims.TokenType != auth.TokenTypeAccess {
			abortUnauthorized(c)
			return
		}

		identity, err := resolver.Resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			if errcode.Is(err, errcode.NotFound) {
				abortUnauthorized(c)
				return
			}
			LoggerFromContext(c).Error("resolve identity failed",
				slog.Uint64("user_id", uint64(claims.UserID)),
				slog.Any("error", err),
			)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "identity lookup unavailable"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFromContext 返回 AuthMiddleware 注入的身份。
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}

// SetIdentity 供测试或上游中间件直接注入身份。
func SetIdentity(c *gin.Context, identity auth.Identity) {
	c.Set(identityKey, identity)
}
