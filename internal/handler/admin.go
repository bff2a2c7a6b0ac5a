package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/config"
	"github.com/iliyamo/nfc-tracker/internal/middleware"
	"github.com/iliyamo/nfc-tracker/internal/model"
	"github.com/iliyamo/nfc-tracker/internal/repository"
)

// UserStore is what the super admin panel needs from the user repository.
type UserStore interface {
	Create(ctx context.Context, name, email, password string, roleID uint8, tenantID uint64, cost int) (uint64, error)
	ListByTenant(ctx context.Context, tenantID uint64) ([]model.User, error)
	DeleteForTenant(ctx context.Context, id, tenantID uint64) error
}

// AdminHandler manages the users of the caller's tenant. Routes are
// guarded by RequireRole(super_admin).
type AdminHandler struct {
	Cfg   config.Config
	Users UserStore
	Log   *zap.Logger
}

func NewAdminHandler(cfg config.Config, users UserStore, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Cfg: cfg, Users: users, Log: log}
}

type registerReq struct {
	Name     string `json:"nombre" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type userResp struct {
	ID     uint64 `json:"id"`
	Name   string `json:"nombre"`
	Email  string `json:"email"`
	Role   string `json:"rol"`
	Tenant string `json:"empresa"`
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	users, err := h.Users.ListByTenant(ctx, tenantID)
	if err != nil {
		h.Log.Error("list users failed", zap.Error(err), zap.Uint64("empresa_id", tenantID))
		return message(c, http.StatusInternalServerError, "could not load users")
	}
	out := make([]userResp, 0, len(users))
	for _, u := range users {
		out = append(out, userResp{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Tenant: u.TenantName})
	}
	return c.JSON(http.StatusOK, out)
}

// Register handles POST /api/admin/register. New users are always plain
// admins of the caller's tenant.
func (h *AdminHandler) Register(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "unauthorized")
	}
	var req registerReq
	if err := bindValid(c, &req); err != nil {
		return message(c, http.StatusBadRequest, err.Error())
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := dbContext(c)
	defer cancel()

	id, err := h.Users.Create(ctx, strings.TrimSpace(req.Name), email, req.Password, model.RoleIDAdmin, tenantID, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return message(c, http.StatusConflict, "email already registered")
		}
		h.Log.Error("register user failed", zap.Error(err))
		return message(c, http.StatusInternalServerError, "could not create user")
	}
	h.Log.Info("user registered", zap.Uint64("user_id", id), zap.Uint64("empresa_id", tenantID))
	return c.JSON(http.StatusCreated, echo.Map{"message": "user created", "id": id})
}

// DeleteUser handles DELETE /api/admin/users/:id.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := idParam(c)
	if !ok {
		return message(c, http.StatusBadRequest, "invalid id")
	}
	if self, _ := middleware.UserID(c); self == id {
		return message(c, http.StatusConflict, "you cannot delete your own account")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Users.DeleteForTenant(ctx, id, tenantID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return message(c, http.StatusNotFound, "user not found")
		}
		h.Log.Error("delete user failed", zap.Error(err), zap.Uint64("id", id))
		return message(c, http.StatusInternalServerError, "could not delete user")
	}
	return message(c, http.StatusOK, "user deleted")
}
