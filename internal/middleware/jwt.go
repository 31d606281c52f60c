package middleware

import (
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/talenter-ng/talenter/internal/apperr"
)

// JWT validates the bearer token and stores user_id and role on the context.
func JWT(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "missing bearer token"))
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "invalid or expired token"))
		}

		uid, _ := claims["user_id"].(string)
		role, _ := claims["role"].(string)
		if uid == "" {
			return apperr.Respond(c, apperr.E(apperr.KindUnauthorized, "invalid token claims"))
		}
		c.Set("user_id", uid)
		c.Set("role", role)
		return next(c)
	}
}

// RequireRoles ensures the requester's role is one of the allowed roles.
// Usage: route(..., RequireRoles("admin"))
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if role == "" {
				return apperr.Respond(c, apperr.E(apperr.KindForbidden, "role missing"))
			}
			for _, r := range roles {
				if role == r {
					return next(c)
				}
			}
			return apperr.Respond(c, apperr.E(apperr.KindForbidden, "access denied"))
		}
	}
}

// AdminGuard ensures only admin users can access admin routes.
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, ok := c.Get("role").(string)
		if !ok || role != "admin" {
			return apperr.Respond(c, apperr.E(apperr.KindForbidden, "admin access only"))
		}
		return next(c)
	}
}
