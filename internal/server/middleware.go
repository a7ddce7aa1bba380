package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/config"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/logger"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/monitoring"
	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// AuthMiddleware validates the bearer token and loads the user identity
// into the request context.
func AuthMiddleware(cfg *config.JWTConfig, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			unauthorized(c, "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthorized(c, "Invalid authorization header format")
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.SecretKey), nil
		})
		if err != nil || !token.Valid {
			log.WithError(err).Debug("Token validation failed")
			unauthorized(c, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c, "Invalid token claims")
			return
		}
		if tokenType, _ := claims["type"].(string); tokenType == "refresh" {
			unauthorized(c, "Refresh tokens cannot be used for access")
			return
		}

		userID, _ := claims["user_id"].(string)
		role, _ := claims["role"].(string)
		email, _ := claims["email"].(string)
		if userID == "" || role == "" {
			unauthorized(c, "Invalid token claims")
			return
		}

		c.Set("user_id", userID)
		c.Set("user_role", role)
		c.Set("user_email", email)
		c.Next()
	}
}

// AdminOnly rejects callers without the admin role. It must run after
// AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("user_role") != string(types.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   types.ErrCodeForbidden,
				"message": "Administrator access required",
			})
			return
		}
		c.Next()
	}
}

// SecurityHeaders sets the standard browser hardening headers
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}

// RequestLogging logs every request and feeds the HTTP metrics
func RequestLogging(log *logger.Logger, metrics *monitoring.MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		log.HTTPRequest(c.Request.Method, path, c.Request.UserAgent(), c.ClientIP(), status, duration.Milliseconds())
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(status), duration)
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   types.ErrCodeInvalidToken,
		"message": message,
	})
}
