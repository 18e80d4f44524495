package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vdparikh/radix/internal/catalog"
	"github.com/vdparikh/radix/internal/config"
	"github.com/vdparikh/radix/internal/metrics"
)

func newTestServer(t *testing.T) (*Server, *metrics.Metrics) {
	t.Helper()
	cfg := &config.Config{
		Addr:     "127.0.0.1:0",
		Systems:  []config.System{{Name: "abc", Digits: "abc"}},
		Tokens:   []config.Token{{Name: "orders", System: "base62", Tweak: "orders.v1"}},
		TokenKey: []byte(strings.Repeat("k", 16)),
	}
	cat, err := catalog.New(cfg)
	require.NoError(t, err)

	m := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg.Addr, cat, m, logger), m
}

func get(t *testing.T, h http.Handler, target string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil {
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)
	h := s.Handler()

	testCases := []struct {
		name  string
		query string
		value int64
		text  string
		label string
	}{
		{"default decimal", "value=-42", -42, "-42", "decimal"},
		{"named system", "system=hex_upper&value=255", 255, "FF", "hex_upper"},
		{"configured system", "system=abc&value=5", 5, "bc", "abc"},
		{"custom digits", "digits=" + url.QueryEscape("👎👍") + "&value=5", 5, "👍👎👍", "custom"},
		{"custom digits win", "system=binary&digits=xyz&value=3", 3, "yx", "custom"},
		{"plus sign value", "system=binary&value=%2B2", 2, "10", "binary"},
		{"unary", "system=unary&value=-3", -3, "-|||", "unary"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var enc conversionResponse
			require.Equal(t, http.StatusOK, get(t, h, "/v1/encode?"+tc.query, &enc))
			assert.Equal(t, conversionResponse{System: tc.label, Value: tc.value, Text: tc.text}, enc)

			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)
			q.Del("value")
			q.Set("text", enc.Text)

			var dec conversionResponse
			require.Equal(t, http.StatusOK, get(t, h, "/v1/decode?"+q.Encode(), &dec))
			assert.Equal(t, tc.value, dec.Value)
			assert.Equal(t, tc.label, dec.System)
		})
	}
}

func TestErrors(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)
	h := s.Handler()

	testCases := []struct {
		name       string
		target     string
		wantStatus int
		wantKind   string
	}{
		{"unknown system", "/v1/encode?system=nope&value=1", http.StatusNotFound, KindNotFound},
		{"duplicate digits", "/v1/encode?digits=aa&value=1", http.StatusBadRequest, KindInvalidAlphabet},
		{"missing value", "/v1/encode", http.StatusBadRequest, KindEmptyInput},
		{"bad value", "/v1/encode?value=12x", http.StatusBadRequest, KindInvalidDigit},
		{"value too large", "/v1/encode?value=9007199254740992", http.StatusBadRequest, KindOutOfRange},
		{"bad symbol", "/v1/decode?system=binary&text=102", http.StatusBadRequest, KindInvalidDigit},
		{"empty text", "/v1/decode?system=binary", http.StatusBadRequest, KindEmptyInput},
		{"sign only", "/v1/decode?text=-", http.StatusBadRequest, KindEmptyInput},
		{"unary too long", "/v1/encode?system=unary&value=70000000000000", http.StatusBadRequest, KindOutOfRange},
		{"unary max safe", "/v1/encode?system=unary&value=9007199254740991", http.StatusBadRequest, KindOutOfRange},
		{"literal plus is a space", "/v1/decode?system=hex_lower&text=+ff", http.StatusBadRequest, KindInvalidDigit},
		{"decode too large", "/v1/decode?text=9007199254740992", http.StatusBadRequest, KindOutOfRange},
		{"unknown token", "/v1/tokens/nope/seal?value=1", http.StatusNotFound, KindNotFound},
		{"short token", "/v1/tokens/orders/open?token=abc", http.StatusBadRequest, KindInvalidToken},
		{"token bad symbol", "/v1/tokens/orders/open?token=" + url.QueryEscape("!!!!!!!!!!"), http.StatusBadRequest, KindInvalidDigit},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var resp errorResponse
			assert.Equal(t, tc.wantStatus, get(t, h, tc.target, &resp))
			assert.Equal(t, tc.wantKind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestSealOpen(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)
	h := s.Handler()

	for _, v := range []string{"0", "-1", "123456789", "9007199254740991", "-9007199254740991"} {
		var sealed conversionResponse
		require.Equal(t, http.StatusOK, get(t, h, "/v1/tokens/orders/seal?value="+url.QueryEscape(v), &sealed))
		assert.Equal(t, "orders", sealed.Token)
		assert.Len(t, sealed.Text, 10)
		assert.NotContains(t, sealed.Text, "-")

		var opened conversionResponse
		require.Equal(t, http.StatusOK, get(t, h, "/v1/tokens/orders/open?token="+url.QueryEscape(sealed.Text), &opened))
		assert.Equal(t, sealed.Value, opened.Value)
	}
}

func TestSystems(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	var resp systemsResponse
	require.Equal(t, http.StatusOK, get(t, s.Handler(), "/v1/systems", &resp))
	require.Len(t, resp.Systems, 10)
	assert.Equal(t, systemInfo{Name: "abc", Base: 3, Digits: "abc"}, resp.Systems[0])
	assert.Equal(t, []string{"orders"}, resp.Tokens)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()
	s, m := newTestServer(t)
	h := s.Handler()

	var health map[string]string
	require.Equal(t, http.StatusOK, get(t, h, "/healthz", &health))
	assert.Equal(t, "ok", health["status"])

	get(t, h, "/v1/encode?value=1", nil)
	get(t, h, "/v1/encode?value=x", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("encode", metrics.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("encode", metrics.OutcomeClientError)))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.SystemsLoaded))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "radix_request_duration_seconds")
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/encode?value=1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRun_Shutdown(t *testing.T) {
	t.Parallel()

	// Reserve a free port, then release it for the server.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cat, err := catalog.New(config.Default())
	require.NoError(t, err)
	s := New(addr, cat, metrics.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
