package handler // public tap endpoints plus the tenant tap listing

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/metrics"
	"github.com/iliyamo/nfc-tracker/internal/middleware"
	"github.com/iliyamo/nfc-tracker/internal/model"
	"github.com/iliyamo/nfc-tracker/internal/queue"
	"github.com/iliyamo/nfc-tracker/internal/repository"
)

// TapStore records and lists taps. RecordForTag resolves the owning
// tenant and inserts atomically, returning repository.ErrTagNotFound for
// unknown tags.
type TapStore interface {
	RecordForTag(ctx context.Context, ev *model.TapEvent) error
	ListByTenant(ctx context.Context, tenantID uint64) ([]model.TapEvent, error)
}

// URLResolver is the redirect read path of the tag directory.
type URLResolver interface {
	ResolvePublicURL(ctx context.Context, tagID string) (string, error)
}

// EventPublisher fans recorded taps out to the broker.
type EventPublisher interface {
	PublishTapRecorded(ctx context.Context, ev queue.TapRecordedEvent) error
}

// TapHandler serves the unauthenticated tap flow and the tenant's tap
// history.
type TapHandler struct {
	Taps   TapStore
	Tags   URLResolver
	Events EventPublisher // optional
	Log    *zap.Logger
}

func NewTapHandler(taps TapStore, tags URLResolver, events EventPublisher, log *zap.Logger) *TapHandler {
	if taps == nil || tags == nil || log == nil {
		panic("nil dependency passed to NewTapHandler")
	}
	return &TapHandler{Taps: taps, Tags: tags, Events: events, Log: log}
}

type tapEventReq struct {
	TagID        string  `json:"tagId"`
	LocationData *string `json:"locationData"`
	ClientInfo   *string `json:"clientInfo"`
}

// RecordTap handles POST /api/tap-event.
func (h *TapHandler) RecordTap(c echo.Context) error {
	var req tapEventReq
	if err := c.Bind(&req); err != nil { // malformed JSON
		metrics.RecordTap(metrics.OutcomeInvalid)
		return message(c, http.StatusBadRequest, "invalid request body")
	}
	if req.TagID == "" { // the id is matched exactly, so no trimming here
		metrics.RecordTap(metrics.OutcomeInvalid)
		return message(c, http.StatusBadRequest, "tagId is required")
	}

	ev := model.TapEvent{
		TagID:        req.TagID,
		IPAddress:    clientIP(c.Request()),        // proxy header first, then the socket peer
		UserAgent:    c.Request().UserAgent(),      // may be empty
		LocationData: emptyToNil(req.LocationData), // opaque JSON string from the tap page
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	if err := h.Taps.RecordForTag(ctx, &ev); err != nil {
		if errors.Is(err, repository.ErrTagNotFound) {
			metrics.RecordTap(metrics.OutcomeNotFound)
			h.Log.Info("tap for unknown tag", zap.String("tag_id", req.TagID), zap.String("ip", ev.IPAddress))
			return message(c, http.StatusNotFound, "NFC tag not found")
		}
		metrics.RecordTap(metrics.OutcomeError)
		h.Log.Error("record tap failed", zap.Error(err), zap.String("tag_id", req.TagID))
		return message(c, http.StatusInternalServerError, "could not record tap event")
	}
	metrics.RecordTap(metrics.OutcomeOK)
	h.Log.Info("tap recorded",
		zap.Uint64("tap_id", ev.ID),
		zap.String("tag_id", ev.TagID),
		zap.Uint64("empresa_id", ev.TenantID),
		zap.Bool("has_location", ev.LocationData != nil),
	)

	// Queued fan-out; the tap is already committed.
	if h.Events != nil {
		_ = h.Events.PublishTapRecorded(ctx, queue.NewTapRecordedEvent(ev, emptyToNil(req.ClientInfo)))
	}
	return message(c, http.StatusCreated, "tap event recorded")
}

// TagInfo handles GET /api/public/tag-info/:tagId. The stored URL is
// returned byte for byte, with no scheme or host checks.
func (h *TapHandler) TagInfo(c echo.Context) error {
	tagID := c.Param("tagId")

	ctx, cancel := dbContext(c)
	defer cancel()

	url, err := h.Tags.ResolvePublicURL(ctx, tagID)
	if err != nil {
		if errors.Is(err, repository.ErrTagNotFound) {
			metrics.RecordTagLookup(metrics.OutcomeNotFound)
			return message(c, http.StatusNotFound, "NFC tag not found")
		}
		metrics.RecordTagLookup(metrics.OutcomeError)
		h.Log.Error("resolve public url failed", zap.Error(err), zap.String("tag_id", tagID))
		return message(c, http.StatusInternalServerError, "could not load tag info")
	}
	metrics.RecordTagLookup(metrics.OutcomeOK)
	return c.JSON(http.StatusOK, echo.Map{"public_url": url})
}

type tapResp struct {
	ID           uint64  `json:"id"`
	TagID        string  `json:"tag_id"`
	Timestamp    string  `json:"timestamp"`
	IPAddress    string  `json:"ip_address"`
	UserAgent    string  `json:"user_agent"`
	LocationData *string `json:"location_data"`
	TenantID     uint64  `json:"empresa_id"`
}

// ListTaps handles GET /api/nfc-taps for the caller's tenant.
func (h *TapHandler) ListTaps(c echo.Context) error {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "unauthorized")
	}

	ctx, cancel := dbContext(c)
	defer cancel()

	taps, err := h.Taps.ListByTenant(ctx, tenantID)
	if err != nil {
		h.Log.Error("list taps failed", zap.Error(err), zap.Uint64("empresa_id", tenantID))
		return message(c, http.StatusInternalServerError, "could not load tap events")
	}
	out := make([]tapResp, 0, len(taps))
	for _, t := range taps {
		out = append(out, tapResp{
			ID:           t.ID,
			TagID:        t.TagID,
			Timestamp:    t.Timestamp.UTC().Format(time.RFC3339),
			IPAddress:    t.IPAddress,
			UserAgent:    t.UserAgent,
			LocationData: t.LocationData,
			TenantID:     t.TenantID,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// clientIP returns the first X-Forwarded-For entry when it parses as an
// IP address, else the host part of the peer address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
