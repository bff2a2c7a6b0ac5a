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

// TagStore is the tenant-scoped CRUD side of the tag directory.
type TagStore interface {
	ListByTenant(ctx context.Context, tenantID uint64) ([]model.Tag, error)
	Create(ctx context.Context, t *model.Tag) error
	DeleteForTenant(ctx context.Context, id, tenantID uint64) error
}

type TagHandler struct {
	Tags TagStore
	Log  *zap.Logger
}

func NewTagHandler(tags TagStore, log *zap.Logger) *TagHandler {
	return &TagHandler{Tags: tags, Log: log}
}

type createTagReq struct {
	TagID     string `json:"tagId" validate:"required,max=255"`
	TagName   string `json:"tagName" validate:"required,max=255"`
	PublicURL string `json:"publicUrl" validate:"required,http_url,max=2048"`
}

type tagResp struct {
	ID        uint64 `json:"id"`
	TagID     string `json:"tag_id"`
	Data      string `json:"data"`
	PublicURL string `json:"public_url"`
}

// ListTags handles GET /api/nfc-tags.
func (h *TagHandler) ListTags(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	tags, err := h.Tags.ListByTenant(ctx, tenantID)
	if err != nil {
		h.Log.Error("list tags failed", zap.Error(err), zap.Uint64("empresa_id", tenantID))
		return message(c, http.StatusInternalServerError, "could not load tags")
	}
	out := make([]tagResp, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagResp{ID: t.ID, TagID: t.TagID, Data: t.Label, PublicURL: t.PublicURL})
	}
	return c.JSON(http.StatusOK, out)
}

// CreateTag handles POST /api/nfc-tags. The tag id is kept exactly as
// sent because taps match it byte for byte.
func (h *TagHandler) CreateTag(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createTagReq
	if err := bindValid(c, &req); err != nil {
		return message(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	tag := &model.Tag{TagID: req.TagID, Label: req.TagName, PublicURL: req.PublicURL, TenantID: tenantID}
	if err := h.Tags.Create(ctx, tag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return message(c, http.StatusConflict, "tag id already registered")
		}
		h.Log.Error("create tag failed", zap.Error(err), zap.String("tag_id", req.TagID))
		return message(c, http.StatusInternalServerError, "could not create tag")
	}
	return message(c, http.StatusCreated, "NFC tag created")
}

// DeleteTag handles DELETE /api/nfc-tags/:id. Recorded taps stay.
func (h *TagHandler) DeleteTag(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "unauthorized")
	}
	id, ok := idParam(c)
	if !ok {
		return message(c, http.StatusBadRequest, "invalid id")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Tags.DeleteForTenant(ctx, id, tenantID); err != nil {
		if errors.Is(err, repository.ErrTagNotFound) {
			return message(c, http.StatusNotFound, "NFC tag not found")
		}
		h.Log.Error("delete tag failed", zap.Error(err), zap.Uint64("id", id))
		return message(c, http.StatusInternalServerError, "could not delete tag")
	}
	return message(c, http.StatusOK, "NFC tag deleted")
}
