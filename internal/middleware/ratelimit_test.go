package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/experience-booking/internal/config"
	"github.com/iliyamo/experience-booking/internal/logger"
)

var fixedNow = time.UnixMilli(1_700_000_000_000)

func testRateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       30,
		RefillTokens:   1,
		RefillInterval: 2 * time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func newRateContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/bookings")
	return c, rec
}

func expectBucket(mock redismock.ClientMock) *redismock.ExpectedCmd {
	return mock.ExpectEvalSha(tokenBucketScript.Hash(), []string{"rl:ip:10.0.0.1:route:POST /api/bookings"},
		fixedNow.UnixMilli(), 30, 1, int64(2000), int64(600))
}

func TestTokenBucketAllows(t *testing.T) {
	db, mock := redismock.NewClientMock()
	tb := &tokenBucket{cfg: testRateConfig(), rdb: db, log: logger.Discard(), now: func() time.Time { return fixedNow }}
	expectBucket(mock).SetVal([]interface{}{int64(1), int64(29), int64(0)})

	c, rec := newRateContext()
	called := false
	err := tb.middleware(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusCreated)
	})(c)
	if err != nil {
		t.Fatal(err)
	}
	if !called || rec.Code != http.StatusCreated {
		t.Errorf("request not passed through: called=%v code=%d", called, rec.Code)
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "29" {
		t.Errorf("remaining = %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTokenBucketBlocks(t *testing.T) {
	db, mock := redismock.NewClientMock()
	tb := &tokenBucket{cfg: testRateConfig(), rdb: db, log: logger.Discard(), now: func() time.Time { return fixedNow }}
	expectBucket(mock).SetVal([]interface{}{int64(0), int64(0), int64(1500)})

	c, rec := newRateContext()
	err := tb.middleware(func(c echo.Context) error {
		t.Error("handler called while rate limited")
		return nil
	})(c)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("code = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "2" {
		t.Errorf("Retry-After = %q, want 2", rec.Header().Get("Retry-After"))
	}
}

func TestTokenBucketFailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	tb := &tokenBucket{cfg: testRateConfig(), rdb: db, log: logger.Discard(), now: func() time.Time { return fixedNow }}
	expectBucket(mock).SetErr(errors.New("connection refused"))

	c, _ := newRateContext()
	called := false
	_ = tb.middleware(func(c echo.Context) error {
		called = true
		return nil
	})(c)
	if !called {
		t.Error("redis failure should let the request through")
	}
}

func TestBuildRateKey(t *testing.T) {
	c, _ := newRateContext()
	cfg := testRateConfig()

	cases := map[string]string{
		"ip":       "rl:ip:10.0.0.1",
		"route":    "rl:route:POST /api/bookings",
		"ip_route": "rl:ip:10.0.0.1:route:POST /api/bookings",
		"":         "rl:ip:10.0.0.1:route:POST /api/bookings",
	}
	for strategy, want := range cases {
		cfg.KeyStrategy = strategy
		if got := buildRateKey(cfg, c); got != want {
			t.Errorf("strategy %q: key = %q, want %q", strategy, got, want)
		}
	}
}
