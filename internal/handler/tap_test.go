package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/model"
)

func newTapTest(t *testing.T, tags ...model.Tag) (*echo.Echo, *memStore, *recordingPublisher) {
	t.Helper()
	store := newMemStore(tags...)
	pub := &recordingPublisher{}
	h := NewTapHandler(store, store, pub, zap.NewNop())

	e := newTestEcho()
	e.POST("/api/tap-event", h.RecordTap)
	e.GET("/api/public/tag-info/:tagId", h.TagInfo)
	e.GET("/api/nfc-taps", h.ListTaps, authed())
	return e, store, pub
}

var menuTag = model.Tag{TagID: "tag-001", Label: "Menu", PublicURL: "https://example.com/menu", TenantID: 7}

func TestUnknownTagIsNotFoundAndWritesNothing(t *testing.T) {
	e, store, pub := newTapTest(t, menuTag)

	for _, id := range []string{"tag-999", "TAG-001", " tag-001"} {
		body, _ := json.Marshal(map[string]any{"tagId": id})
		rec := serve(e, http.MethodPost, "/api/tap-event", string(body))
		assert.Equal(t, http.StatusNotFound, rec.Code, id)
		assert.Contains(t, rec.Body.String(), `"message"`)
	}
	rec := serve(e, http.MethodGet, "/api/public/tag-info/tag-999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Empty(t, store.taps)
	assert.Empty(t, pub.events)
}

func TestRecordTapAppendsOneRowPerCall(t *testing.T) {
	other := model.Tag{TagID: "tag-002", PublicURL: "https://example.org", TenantID: 8}
	e, store, pub := newTapTest(t, menuTag, other)

	body := `{"tagId":"tag-001","locationData":"{\"latitude\":1.5}","clientInfo":"{\"platform\":\"iPhone\"}"}`
	for i := 1; i <= 2; i++ {
		rec := serve(e, http.MethodPost, "/api/tap-event", body, withHeader("User-Agent", "ua/1"))
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"message":"tap event recorded"}`, rec.Body.String())
		assert.Equal(t, i, store.tapsFor(7))
	}
	assert.Equal(t, 0, store.tapsFor(8))

	require.Len(t, store.taps, 2)
	assert.NotEqual(t, store.taps[0].ID, store.taps[1].ID)
	for _, tap := range store.taps {
		assert.Equal(t, uint64(7), tap.TenantID)
		assert.Equal(t, "ua/1", tap.UserAgent)
		require.NotNil(t, tap.LocationData)
		assert.Equal(t, `{"latitude":1.5}`, *tap.LocationData)
	}

	require.Len(t, pub.events, 2)
	require.NotNil(t, pub.events[0].ClientInfo)
	assert.Equal(t, `{"platform":"iPhone"}`, *pub.events[0].ClientInfo)
	assert.Equal(t, uint64(7), pub.events[0].TenantID)
}

func TestRecordTapNullLocation(t *testing.T) {
	e, store, _ := newTapTest(t, menuTag)

	rec := serve(e, http.MethodPost, "/api/tap-event", `{"tagId":"tag-001","locationData":null}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.taps, 1)
	assert.Nil(t, store.taps[0].LocationData)
}

func TestRecordTapBadRequests(t *testing.T) {
	e, store, _ := newTapTest(t, menuTag)

	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/api/tap-event", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/api/tap-event", `{"tagId":`).Code)
	assert.Empty(t, store.taps)
}

func TestRecordTapStorageFailure(t *testing.T) {
	e, store, pub := newTapTest(t, menuTag)
	store.fail = errBoom

	rec := serve(e, http.MethodPost, "/api/tap-event", `{"tagId":"tag-001"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)
	assert.Empty(t, pub.events)

	rec = serve(e, http.MethodGet, "/api/public/tag-info/tag-001", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecordTapIgnoresPublishFailure(t *testing.T) {
	e, store, pub := newTapTest(t, menuTag)
	pub.err = errBoom

	rec := serve(e, http.MethodPost, "/api/tap-event", `{"tagId":"tag-001"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, store.taps, 1)
}

func TestRecordTapWithoutPublisher(t *testing.T) {
	store := newMemStore(menuTag)
	h := NewTapHandler(store, store, nil, zap.NewNop())
	e := newTestEcho()
	e.POST("/api/tap-event", h.RecordTap)

	rec := serve(e, http.MethodPost, "/api/tap-event", `{"tagId":"tag-001"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRecordTapClientIP(t *testing.T) {
	tests := []struct {
		name string
		opts []reqOpt
		want string
	}{
		{
			name: "forwarded for wins",
			opts: []reqOpt{withHeader("X-Forwarded-For", "203.0.113.5, 10.0.0.1"), withRemote("10.0.0.1:4000")},
			want: "203.0.113.5",
		},
		{
			name: "socket peer",
			opts: []reqOpt{withRemote("198.51.100.7:51000")},
			want: "198.51.100.7",
		},
		{
			name: "empty forwarded header",
			opts: []reqOpt{withHeader("X-Forwarded-For", " "), withRemote("[2001:db8::1]:443")},
			want: "2001:db8::1",
		},
		{
			name: "oversized forwarded entry",
			opts: []reqOpt{withHeader("X-Forwarded-For", strings.Repeat("a", 60)+", 10.0.0.1"), withRemote("198.51.100.7:51000")},
			want: "198.51.100.7",
		},
		{
			name: "forwarded entry is not an address",
			opts: []reqOpt{withHeader("X-Forwarded-For", "unknown"), withRemote("198.51.100.7:51000")},
			want: "198.51.100.7",
		},
		{
			name: "forwarded ipv6",
			opts: []reqOpt{withHeader("X-Forwarded-For", " 2001:db8::5 "), withRemote("10.0.0.1:4000")},
			want: "2001:db8::5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, store, _ := newTapTest(t, menuTag)
			rec := serve(e, http.MethodPost, "/api/tap-event", `{"tagId":"tag-001"}`, tt.opts...)
			require.Equal(t, http.StatusCreated, rec.Code)
			require.Len(t, store.taps, 1)
			assert.Equal(t, tt.want, store.taps[0].IPAddress)
		})
	}
}

func TestTagInfoReturnsStoredURLVerbatim(t *testing.T) {
	urls := []string{
		"https://example.com/menu",
		"https://example.com/a b?x=%20&y=ü#frag",
		"javascript:alert(1)",
		"",
	}
	for _, u := range urls {
		t.Run(u, func(t *testing.T) {
			e, _, _ := newTapTest(t, model.Tag{TagID: "t", PublicURL: u, TenantID: 1})

			rec := serve(e, http.MethodGet, "/api/public/tag-info/t", "")
			require.Equal(t, http.StatusOK, rec.Code)
			var resp struct {
				PublicURL string `json:"public_url"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, u, resp.PublicURL)
		})
	}
}

func TestListTapsScopedToTenant(t *testing.T) {
	other := model.Tag{TagID: "tag-002", PublicURL: "https://example.org", TenantID: 8}
	e, _, _ := newTapTest(t, menuTag, other)

	for _, id := range []string{"tag-001", "tag-002", "tag-001"} {
		require.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/api/tap-event", `{"tagId":"`+id+`"}`).Code)
	}

	rec := serve(e, http.MethodGet, "/api/nfc-taps", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodGet, "/api/nfc-taps", "", withHeader(echo.HeaderAuthorization, bearer(t, 1, 7, model.RoleAdmin)))
	require.Equal(t, http.StatusOK, rec.Code)
	var taps []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &taps))
	require.Len(t, taps, 2)
	assert.Equal(t, float64(3), taps[0]["id"])
	assert.Equal(t, float64(1), taps[1]["id"])
	assert.Equal(t, float64(7), taps[0]["empresa_id"])
}

func TestClientIPHelper(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "not-an-address"
	assert.Equal(t, "not-an-address", clientIP(r))
}
