package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/config"
	"github.com/iliyamo/nfc-tracker/internal/model"
	"github.com/iliyamo/nfc-tracker/internal/repository"
	"github.com/iliyamo/nfc-tracker/internal/utils"
)

// UserFinder looks a user up by login email.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// AuthHandler issues access tokens.
type AuthHandler struct {
	Cfg   config.Config
	Users UserFinder
	Log   *zap.Logger
}

func NewAuthHandler(cfg config.Config, users UserFinder, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Log: log}
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login and returns {access_token}. Unknown
// emails and wrong passwords get the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return message(c, http.StatusBadRequest, validationMessage(err).Error())
	}
	email := req.Email

	ctx, cancel := dbContext(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// spend a bcrypt comparison anyway so timing does not reveal which emails exist
			utils.BurnPasswordCheck(req.Password)
			return message(c, http.StatusUnauthorized, "invalid credentials")
		}
		h.Log.Error("login: load user failed", zap.Error(err))
		return message(c, http.StatusInternalServerError, "server error")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return message(c, http.StatusUnauthorized, "invalid credentials")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, u.TenantID, h.Cfg.AccessTTLMin)
	if err != nil {
		h.Log.Error("login: issue token failed", zap.Error(err), zap.Uint64("user_id", u.ID))
		return message(c, http.StatusInternalServerError, "server error")
	}
	h.Log.Info("login", zap.Uint64("user_id", u.ID), zap.Uint64("empresa_id", u.TenantID))
	return c.JSON(http.StatusOK, echo.Map{"access_token": access.Token})
}
