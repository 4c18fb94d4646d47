package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"pokedex-api/internal/cache"
	"pokedex-api/internal/catalog"
	"pokedex-api/internal/enrich"
	"pokedex-api/internal/favorites"
	"pokedex-api/internal/identity"
	"pokedex-api/internal/logging"
	"pokedex-api/internal/middleware"
	"pokedex-api/internal/realtime"
	"pokedex-api/internal/testutil"
	"pokedex-api/internal/upstream"
)

type testEnv struct {
	stub   *testutil.StubUpstream
	store  *cache.TTLCache[any]
	hub    *realtime.Hub
	issuer *identity.Issuer
	h      *Handler
	r      *gin.Engine
}

func newTestEnv(t *testing.T, names ...string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.Discard()
	stub := testutil.NewStubUpstream(t, names)
	store := cache.New[any](cache.Options{})
	client := upstream.New(store, upstream.Options{
		BaseURL:      stub.URL(),
		Timeout:      200 * time.Millisecond,
		ProbeTimeout: 200 * time.Millisecond,
		Logger:       log,
	})
	hub := realtime.NewHub()
	issuer := identity.NewIssuer("test-secret")

	h := &Handler{
		Catalog:      catalog.NewService(client, enrich.New(client, 4, log), store, catalog.Options{SnapshotSize: 100, Logger: log}),
		Favorites:    favorites.NewService(favorites.NewMemoryStore(), hub, log),
		Cache:        store,
		Upstream:     client,
		Hub:          hub,
		Identity:     issuer,
		MaxPageLimit: 100,
		Log:          log,
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity(issuer))
	return &testEnv{stub: stub, store: store, hub: hub, issuer: issuer, h: h, r: r}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, w)["error"]
}

func (e *testEnv) bearer(t *testing.T, user string) []string {
	t.Helper()
	tok, _, err := e.issuer.Issue(user)
	require.NoError(t, err)
	return []string{"Authorization", "Bearer " + tok}
}
