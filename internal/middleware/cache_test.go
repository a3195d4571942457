package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/experience-booking/internal/config"
	"github.com/iliyamo/experience-booking/internal/logger"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled: true,
		Methods: []string{http.MethodGet},
		TTL:     30 * time.Second,
		Prefix:  "cache:experiences",
	}
}

func keyFor(rc *ResponseCache, path, target string) string {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
	c.SetPath(path)
	return rc.cacheKey(c)
}

func TestResponseCacheHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewResponseCache(testCacheConfig(), db, logger.Discard())

	payload, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {"application/json"}}, []byte(`[{"name":"cached"}]`))
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectGet(keyFor(rc, "/api/experiences", "/api/experiences?search=sky")).SetVal(string(payload))

	e := echo.New()
	called := false
	e.GET("/api/experiences", func(c echo.Context) error {
		called = true
		return c.JSON(http.StatusOK, []string{})
	}, rc.Middleware())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/experiences?search=sky", nil))

	if called {
		t.Error("handler ran on a cache hit")
	}
	if rec.Code != http.StatusOK || rec.Body.String() != `[{"name":"cached"}]` {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") != "HIT" {
		t.Errorf("X-Cache = %q", rec.Header().Get("X-Cache"))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestResponseCacheMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewResponseCache(testCacheConfig(), db, logger.Discard())
	mock.ExpectGet(keyFor(rc, "/api/experiences", "/api/experiences")).RedisNil()

	e := echo.New()
	called := false
	e.GET("/api/experiences", func(c echo.Context) error {
		called = true
		return c.JSON(http.StatusOK, []string{"fresh"})
	}, rc.Middleware())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/experiences", nil))

	if !called {
		t.Error("handler not called on a miss")
	}
	if rec.Header().Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q", rec.Header().Get("X-Cache"))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestResponseCacheKeepsPerRequestHeaders(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cfg := testCacheConfig()
	rc := NewResponseCache(cfg, db, logger.Discard())
	key := keyFor(rc, "/api/experiences", "/api/experiences")

	stored, err := encodePayload(http.StatusOK, http.Header{"Content-Type": {echo.MIMETextPlainCharsetUTF8}}, []byte("catalog"))
	if err != nil {
		t.Fatal(err)
	}
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSetEx(key, stored, cfg.TTL).SetVal("OK")
	mock.ExpectGet(key).SetVal(string(stored))

	e := echo.New()
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: []string{"*"}}))
	e.GET("/api/experiences", func(c echo.Context) error {
		return c.String(http.StatusOK, "catalog")
	}, rc.Middleware())

	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/experiences", nil)
		req.Header.Set(echo.HeaderOrigin, "https://app.example.com")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	miss := serve()
	hit := serve()
	if hit.Header().Get("X-Cache") != "HIT" || hit.Body.String() != "catalog" {
		t.Fatalf("expected cached body, got %q %q", hit.Header().Get("X-Cache"), hit.Body.String())
	}
	if got := hit.Header().Values(echo.HeaderAccessControlAllowOrigin); len(got) != 1 || got[0] != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	ids := hit.Header().Values(echo.HeaderXRequestID)
	if len(ids) != 1 || ids[0] == miss.Header().Get(echo.HeaderXRequestID) {
		t.Errorf("X-Request-Id = %q, miss had %q", ids, miss.Header().Get(echo.HeaderXRequestID))
	}
	if got := hit.Header().Values(echo.HeaderContentType); len(got) != 1 {
		t.Errorf("Content-Type = %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCacheableHeadersDropsRequestScoped(t *testing.T) {
	h := http.Header{}
	h.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	h.Set(echo.HeaderAccessControlAllowOrigin, "*")
	h.Set(echo.HeaderVary, echo.HeaderOrigin)
	h.Set(echo.HeaderXRequestID, "abc")
	h.Set("X-Ratelimit-Remaining", "3")

	got := cacheableHeaders(h)
	if len(got) != 1 || got.Get(echo.HeaderContentType) != echo.MIMEApplicationJSON {
		t.Errorf("cacheableHeaders = %v", got)
	}
}

func TestResponseCacheKeyIncludesParams(t *testing.T) {
	rc := NewResponseCache(testCacheConfig(), nil, logger.Discard())
	e := echo.New()

	key := func(id string) string {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/experiences/"+id, nil), httptest.NewRecorder())
		c.SetPath("/api/experiences/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
		return rc.cacheKey(c)
	}
	if key("a") == key("b") {
		t.Error("different ids share a cache key")
	}
}

func TestResponseCacheInvalidate(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewResponseCache(testCacheConfig(), db, logger.Discard())

	mock.ExpectScan(0, "cache:experiences:*", 100).SetVal([]string{"cache:experiences:a", "cache:experiences:b"}, 7)
	mock.ExpectDel("cache:experiences:a", "cache:experiences:b").SetVal(2)
	mock.ExpectScan(7, "cache:experiences:*", 100).SetVal([]string{}, 0)

	if err := rc.Invalidate(t.Context()); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestResponseCacheDisabledPassThrough(t *testing.T) {
	rc := NewResponseCache(testCacheConfig(), nil, logger.Discard())
	if err := rc.Invalidate(t.Context()); err != nil {
		t.Errorf("disabled Invalidate: %v", err)
	}

	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, rc.Middleware())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Body.String() != "ok" || rec.Header().Get("X-Cache") != "" {
		t.Errorf("pass-through altered response: %q %v", rec.Body.String(), rec.Header())
	}
}

func TestPayloadRoundTripRejectsShortInput(t *testing.T) {
	if _, _, _, ok := decodePayload([]byte{1, 2, 3}); ok {
		t.Error("short payload decoded")
	}
}
