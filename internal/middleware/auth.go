package middleware

import (
	"net/http"
	"strings"

	"github.com/chervince/mon-projet/pkg/jwtutil"
	"github.com/chervince/mon-projet/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// JWTAuthMiddleware creates a middleware that validates JWT tokens. The
// settlement pipeline never re-validates credentials; this is the single
// place the caller identity is established.
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			// Extract the token from the Authorization header
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			// Check if the header format is valid
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid authorization header format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			tokenString := parts[1]

			// Validate the token
			claims, err := jwtUtil.ValidateToken(tokenString)
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			// Store the claims in the context for later use
			c.Set("user", claims)
			log.Debug("JWT token validated successfully",
				zap.Uint("user_id", claims.UserID),
				zap.String("email", claims.Email))

			return next(c)
		}
	}
}

// RequireAdmin rejects any caller whose validated claims lack the admin role.
// Privileged operations are authorized here, server-side, never by trusting
// the client.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			claims, ok := c.Get("user").(*jwtutil.UserClaims)
			if !ok {
				log.Error("Failed to get user claims from context")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			if claims.Role != "admin" {
				log.Warn("Non-admin access attempt on admin route",
					zap.Uint("user_id", claims.UserID),
					zap.String("role", claims.Role))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
			}

			return next(c)
		}
	}
}
