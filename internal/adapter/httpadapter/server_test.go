package httpadapter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/diary-location-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/diary-location-service/internal/adapter/userconfig"
	"github.com/couchcryptid/diary-location-service/internal/domain"
	"github.com/couchcryptid/diary-location-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, fmt.Errorf("connection refused")
}
func (failingStore) Set(context.Context, string, string) error { return fmt.Errorf("connection refused") }
func (failingStore) Delete(context.Context, string) error      { return fmt.Errorf("connection refused") }

type testEnv struct {
	srv     *httpadapter.Server
	store   domain.UserConfigStore
	metrics *observability.Metrics
}

func newTestEnv(t *testing.T, store domain.UserConfigStore, readyErr error) testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dict, err := domain.DefaultDictionary()
	require.NoError(t, err)
	if store == nil {
		store = userconfig.NewMemoryStore()
	}
	resolver, err := domain.NewResolver(dict, store, "Shanghai", logger)
	require.NoError(t, err)

	tz, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC))

	metrics := observability.NewMetricsForTesting()
	api := httpadapter.API{
		Resolver: resolver,
		Store:    store,
		Titles:   domain.NewTitleBuilder(dict, tz, clock),
		Metrics:  metrics,
	}
	srv := httpadapter.NewServer(":0", api, &mockReadiness{err: readyErr}, logger)
	return testEnv{srv: srv, store: store, metrics: metrics}
}

func do(srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealthzReturns200(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := do(env.srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := do(env.srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	env := newTestEnv(t, nil, fmt.Errorf("dictionary not loaded"))
	rec := do(env.srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := do(env.srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestResolve_FromMessage(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := do(env.srv, http.MethodPost, "/v1/resolve",
		`{"user_id":"42","message":"今天在杭州的西湖散步","sent_at":"2026-02-18T20:00:00Z"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "Hangzhou", body["location"])
	assert.Equal(t, "杭州", body["display"])
	assert.Equal(t, "message", body["tier"])
	assert.Equal(t, "杭州", body["matched"])
	assert.Equal(t, "2026年2月19日 星期四 · 杭州", body["title"])
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Resolutions.WithLabelValues("message", "bare")))
}

func TestResolve_FromUserConfig(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	require.NoError(t, env.store.Set(context.Background(), "42", "Puer"))

	rec := do(env.srv, http.MethodPost, "/v1/resolve", `{"user_id":"42","message":"今天喝了很多茶"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "Puer", body["location"])
	assert.Equal(t, "user_config", body["tier"])
	assert.NotContains(t, body, "matched")
	assert.Equal(t, "2026年10月19日 星期一 · 普洱", body["title"])
}

func TestResolve_FromSystemDefault(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := do(env.srv, http.MethodPost, "/v1/resolve", `{"user_id":"42","message":"   "}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "Shanghai", body["location"])
	assert.Equal(t, "system_default", body["tier"])
	assert.Equal(t, "2026年10月19日 星期一", body["title"])
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.Resolutions.WithLabelValues("system_default", "none")))
}

func TestResolve_StoreFailureFallsBack(t *testing.T) {
	env := newTestEnv(t, failingStore{}, nil)
	rec := do(env.srv, http.MethodPost, "/v1/resolve", `{"user_id":"42","message":"nothing here"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "system_default", body["tier"])
}

func TestResolve_BadBody(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := do(env.srv, http.MethodPost, "/v1/resolve", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "invalid request body", decode[map[string]string](t, rec)["error"])
}

func TestUserLocation_Lifecycle(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := do(env.srv, http.MethodGet, "/v1/users/42/location", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(env.srv, http.MethodPut, "/v1/users/42/location", `{"location":"  杭州市 "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hangzhou", decode[map[string]string](t, rec)["location"])

	rec = do(env.srv, http.MethodGet, "/v1/users/42/location", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "42", body["user_id"])
	assert.Equal(t, "Hangzhou", body["location"])

	rec = do(env.srv, http.MethodDelete, "/v1/users/42/location", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(env.srv, http.MethodGet, "/v1/users/42/location", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetLocation_FreeTextKept(t *testing.T) {
	env := newTestEnv(t, nil, nil)

	rec := do(env.srv, http.MethodPut, "/v1/users/42/location", `{"location":"Reykjavik"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	loc, ok, err := env.store.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Reykjavik", loc)
}

func TestSetLocation_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", `{"location":""}`},
		{"whitespace", `{"location":"   "}`},
		{"too long", fmt.Sprintf(`{"location":%q}`, strings.Repeat("长", 65))},
		{"bad json", `{"location":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, nil)
			rec := do(env.srv, http.MethodPut, "/v1/users/42/location", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			_, ok, _ := env.store.Get(context.Background(), "42")
			assert.False(t, ok)
		})
	}
}

func TestUserLocation_StoreErrors(t *testing.T) {
	env := newTestEnv(t, failingStore{}, nil)

	assert.Equal(t, http.StatusInternalServerError, do(env.srv, http.MethodGet, "/v1/users/42/location", "").Code)
	assert.Equal(t, http.StatusInternalServerError, do(env.srv, http.MethodPut, "/v1/users/42/location", `{"location":"Beijing"}`).Code)
	assert.Equal(t, http.StatusInternalServerError, do(env.srv, http.MethodDelete, "/v1/users/42/location", "").Code)
}

func TestListLocations(t *testing.T) {
	env := newTestEnv(t, nil, nil)
	rec := do(env.srv, http.MethodGet, "/v1/locations", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	entries := decode[[]domain.LocationEntry](t, rec)
	assert.Contains(t, entries, domain.LocationEntry{DisplayName: "杭州", CanonicalID: "Hangzhou"})
	assert.Contains(t, entries, domain.LocationEntry{DisplayName: "Puer", CanonicalID: "Puer"})
}
