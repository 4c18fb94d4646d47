package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"pokedex-api/internal/cache"
	"pokedex-api/internal/catalog"
	"pokedex-api/internal/enrich"
	"pokedex-api/internal/favorites"
	"pokedex-api/internal/handlers"
	"pokedex-api/internal/identity"
	"pokedex-api/internal/logging"
	"pokedex-api/internal/realtime"
	"pokedex-api/internal/testutil"
	"pokedex-api/internal/upstream"
)

func newRouter(t *testing.T) (*gin.Engine, *identity.Issuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.Discard()
	stub := testutil.NewStubUpstream(t, []string{"bulbasaur", "ivysaur", "pikachu"})
	store := cache.New[any](cache.Options{})
	client := upstream.New(store, upstream.Options{BaseURL: stub.URL(), Logger: log})
	hub := realtime.NewHub()
	issuer := identity.NewIssuer("routes-secret")

	h := &handlers.Handler{
		Catalog:      catalog.NewService(client, enrich.New(client, 4, log), store, catalog.Options{SnapshotSize: 100, Logger: log}),
		Favorites:    favorites.NewService(favorites.NewMemoryStore(), hub, log),
		Cache:        store,
		Upstream:     client,
		Hub:          hub,
		Identity:     issuer,
		MaxPageLimit: 100,
		Log:          log,
	}
	return SetupRoutes(h, issuer, log), issuer
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestNoRoute(t *testing.T) {
	r, _ := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.JSONEq(t, `{"error":"Route not found"}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/pokemon", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSearchQueryParamRoute(t *testing.T) {
	r, _ := newRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search?q=saur", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, 2, res.Count)
}

func TestFavoritesWithIssuedIdentity(t *testing.T) {
	r, _ := newRouter(t)

	body, _ := json.Marshal(map[string]string{"userId": "ash"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/identity", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	var ident handlers.IdentityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ident))

	body, _ = json.Marshal(map[string]int{"pokemonId": 3})
	req := httptest.NewRequest(http.MethodPost, "/api/favorites", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+ident.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/favorites?token="+ident.Token, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"name":"pikachu"`)

	// the default partition is untouched
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/favorites", nil))
	require.JSONEq(t, `{"count":0,"results":[]}`, w.Body.String())
}

func TestFavorites_BadToken(t *testing.T) {
	r, _ := newRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/favorites", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
