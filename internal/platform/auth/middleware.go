package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
	UserEmailKey contextKey = "user_email"
	TokenIDKey   contextKey = "token_id"
	TokenExpKey  contextKey = "token_exp"
)

// RevocationChecker reports whether a token id was revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) bool
}

type JWTConfig struct {
	Issuer      *TokenIssuer
	Revocations RevocationChecker
	Skipper     func(c echo.Context) bool
}

// JWTMiddleware authenticates bearer tokens and stores the caller's identity
// on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorized(c, "Not authenticated")
			}

			scheme, tokenStr, ok := strings.Cut(authHeader, " ")
			tokenStr = strings.TrimSpace(tokenStr)
			if !ok || !strings.EqualFold(scheme, "bearer") || tokenStr == "" {
				return unauthorized(c, "Not authenticated")
			}

			claims, err := cfg.Issuer.Parse(tokenStr)
			if err != nil {
				return unauthorized(c, "Could not validate credentials")
			}

			ctx := c.Request().Context()
			if cfg.Revocations != nil && claims.ID != "" && cfg.Revocations.IsRevoked(ctx, claims.ID) {
				return unauthorized(c, "Token has been revoked")
			}

			ctx = WithIdentity(ctx, claims.Subject, claims.Email, claims.Role)
			ctx = context.WithValue(ctx, TokenIDKey, claims.ID)
			if claims.ExpiresAt != nil {
				ctx = context.WithValue(ctx, TokenExpKey, claims.ExpiresAt.Time)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set("WWW-Authenticate", "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}

// WithIdentity stores an authenticated identity on ctx.
func WithIdentity(ctx context.Context, userID, email, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, UserEmailKey, email)
	ctx = context.WithValue(ctx, UserRolesKey, []string{role})
	return ctx
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(UserEmailKey).(string)
	return email
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}

// RoleFromContext returns the caller's primary role, or "".
func RoleFromContext(ctx context.Context) string {
	if roles := RolesFromContext(ctx); len(roles) > 0 {
		return roles[0]
	}
	return ""
}

// IsAdmin reports whether the caller holds the admin role.
func IsAdmin(ctx context.Context) bool {
	for _, r := range RolesFromContext(ctx) {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// TokenFromContext returns the current token id and expiry.
func TokenFromContext(ctx context.Context) (string, time.Time) {
	jti, _ := ctx.Value(TokenIDKey).(string)
	exp, _ := ctx.Value(TokenExpKey).(time.Time)
	return jti, exp
}
