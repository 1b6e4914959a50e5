package auth

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	apierrors "github.com/safewalk/sos-dispatcher/internal/errors"
	"github.com/safewalk/sos-dispatcher/internal/logger"
)

type contextKey string

// UserIDKey is the gin context key holding the verified Firebase UID.
const UserIDKey contextKey = "user_id"

// CallableAuthMiddleware authenticates callable requests. A request without
// an Authorization header passes through unauthenticated so the handler can
// decide; a bad bearer token is rejected outright.
type CallableAuthMiddleware struct {
	validator TokenValidator
	logger    *logger.Logger
}

func NewCallableAuthMiddleware(validator TokenValidator, logger *logger.Logger) *CallableAuthMiddleware {
	return &CallableAuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// Authenticate attaches the caller's UID to the gin and request contexts.
func (m *CallableAuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		log := m.logger.WithContext(c.Request.Context()).WithComponent("auth")

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			log.Warn("malformed authorization header")
			apierrors.AbortWithCallableError(c, apierrors.Unauthenticated("Unauthenticated"))
			return
		}

		userID, err := m.validator.ExtractUserID(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			log.Warn("failed to validate id token", slog.String("error", err.Error()))
			apierrors.AbortWithCallableError(c, apierrors.Unauthenticated("Unauthenticated"))
			return
		}

		ctx := logger.WithUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(UserIDKey), userID)

		c.Next()
	}
}

// GetUserID extracts the Firebase UID from the gin context.
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(string(UserIDKey))
	if !exists {
		return "", false
	}

	id, ok := userID.(string)
	return id, ok && id != ""
}
