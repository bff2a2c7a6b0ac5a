package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/nfc-tracker/internal/middleware"
	"github.com/iliyamo/nfc-tracker/internal/model"
	"github.com/iliyamo/nfc-tracker/internal/utils"
)

const testSecret = "handler-test-secret"

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func bearer(t *testing.T, userID, tenantID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, "user@example.com", role, tenantID, 60)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func authed() echo.MiddlewareFunc { return middleware.JWTAuth(testSecret) }

func superAdmin() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{authed(), middleware.RequireRole(model.RoleSuperAdmin)}
}

type reqOpt func(*http.Request)

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func withRemote(addr string) reqOpt {
	return func(r *http.Request) { r.RemoteAddr = addr }
}

func serve(e *echo.Echo, method, target, body string, opts ...reqOpt) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
