package middleware

// identity.go holds the context keys written by JWTAuth and the accessors
// handlers and other middleware use to read them back.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	ctxUserID   = "user_id"
	ctxTenantID = "tenant_id"
	ctxRole     = "role"
	ctxEmail    = "email"
)

// UserID returns the authenticated user id, or false on a public route.
func UserID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(ctxUserID).(uint64)
	return v, ok && v != 0
}

// TenantID returns the authenticated user's tenant id, or false on a
// public route.
func TenantID(c echo.Context) (uint64, bool) {
	v, ok := c.Get(ctxTenantID).(uint64)
	return v, ok && v != 0
}

// Role returns the authenticated user's role name.
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// userKey renders the user id for rate-limit keys; "anon" when
// unauthenticated.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}

// tenantKey renders the tenant id for cache keys; "public" when
// unauthenticated.
func tenantKey(c echo.Context) string {
	if id, ok := TenantID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "public"
}
