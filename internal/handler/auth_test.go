package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/config"
	"github.com/iliyamo/nfc-tracker/internal/model"
	"github.com/iliyamo/nfc-tracker/internal/utils"
)

func TestLogin(t *testing.T) {
	users := &memUsers{}
	u := users.add(t, model.User{Email: "root@acme.test", Role: model.RoleSuperAdmin, TenantID: 7}, "correct horse")
	h := NewAuthHandler(config.Config{JWTSecret: testSecret, AccessTTLMin: 60}, users, zap.NewNop())
	e := newTestEcho()
	e.POST("/api/auth/login", h.Login)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"ok with case and spaces", `{"email":" Root@Acme.test ","password":"correct horse"}`, http.StatusOK},
		{"wrong password", `{"email":"root@acme.test","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"ghost@acme.test","password":"correct horse"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"root@acme.test"}`, http.StatusBadRequest},
		{"malformed", `nope`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, http.MethodPost, "/api/auth/login", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				assert.Contains(t, rec.Body.String(), `"message"`)
				return
			}
			var resp struct {
				AccessToken string `json:"access_token"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			claims, err := utils.ParseAccessToken(testSecret, resp.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, u.ID, claims.UserID)
			assert.Equal(t, uint64(7), claims.TenantID)
			assert.Equal(t, model.RoleSuperAdmin, claims.Role)
		})
	}
}

func TestLoginStoreFailure(t *testing.T) {
	h := NewAuthHandler(config.Config{JWTSecret: testSecret}, failingUsers{}, zap.NewNop())
	e := newTestEcho()
	e.POST("/api/auth/login", h.Login)

	rec := serve(e, http.MethodPost, "/api/auth/login", `{"email":"a@b.test","password":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
