package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/middleware"
	"github.com/iliyamo/nfc-tracker/internal/model"
	"github.com/iliyamo/nfc-tracker/internal/repository"
)

type TenantFinder interface {
	GetByID(ctx context.Context, id uint64) (model.Tenant, error)
}

type TenantHandler struct {
	Tenants TenantFinder
	Log     *zap.Logger
}

func NewTenantHandler(tenants TenantFinder, log *zap.Logger) *TenantHandler {
	return &TenantHandler{Tenants: tenants, Log: log}
}

// Get handles GET /api/empresa and returns the caller's tenant name.
func (h *TenantHandler) Get(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	t, err := h.Tenants.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrTenantNotFound) {
			return message(c, http.StatusNotFound, "tenant not found")
		}
		h.Log.Error("load tenant failed", zap.Error(err), zap.Uint64("empresa_id", tenantID))
		return message(c, http.StatusInternalServerError, "could not load tenant")
	}
	return c.JSON(http.StatusOK, echo.Map{"nombre": t.Name})
}
