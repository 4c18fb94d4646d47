package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"pokedex-api/internal/models"
)

func TestListPokemon_Success(t *testing.T) {
	env := newTestEnv(t, "bulbasaur", "ivysaur", "venusaur")
	env.r.GET("/api/pokemon", env.h.ListPokemon)

	w := env.do(t, http.MethodGet, "/api/pokemon?offset=0&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	page := decode[models.Page](t, w)
	require.Equal(t, 3, page.Count)
	require.NotNil(t, page.Next)
	require.Nil(t, page.Previous)
	require.Len(t, page.Results, 2)
	require.Equal(t, "bulbasaur", page.Results[0].Name)
	require.Equal(t, []string{"run-away"}, page.Results[0].Abilities)
}

func TestListPokemon_DefaultsAndClamp(t *testing.T) {
	env := newTestEnv(t, "bulbasaur")
	env.r.GET("/api/pokemon", env.h.ListPokemon)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/pokemon?offset=abc&limit=-4", nil).Code)
	require.Equal(t, 1, env.stub.Calls("/pokemon?limit=20&offset=0"))

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/pokemon?limit=5000", nil).Code)
	require.Equal(t, 1, env.stub.Calls("/pokemon?limit=100&offset=0"))
}

func TestListPokemon_DropsFailedItems(t *testing.T) {
	env := newTestEnv(t, "bulbasaur", "ivysaur", "venusaur")
	env.stub.Hang("ivysaur")
	env.r.GET("/api/pokemon", env.h.ListPokemon)

	w := env.do(t, http.MethodGet, "/api/pokemon?limit=3", nil)
	require.Equal(t, http.StatusOK, w.Code)

	page := decode[models.Page](t, w)
	require.Equal(t, 3, page.Count)
	require.Len(t, page.Results, 2)
}

func TestListPokemon_UpstreamDown(t *testing.T) {
	env := newTestEnv(t, "bulbasaur")
	env.stub.Server.Close()
	env.r.GET("/api/pokemon", env.h.ListPokemon)

	w := env.do(t, http.MethodGet, "/api/pokemon", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Error fetching Pokémon list", errorBody(t, w))
}

func TestListPokemon_ListNotFoundIsServerError(t *testing.T) {
	env := newTestEnv(t, "bulbasaur")
	env.stub.FailList(http.StatusNotFound)
	env.r.GET("/api/pokemon", env.h.ListPokemon)

	w := env.do(t, http.MethodGet, "/api/pokemon", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Error fetching Pokémon list", errorBody(t, w))
}

func TestGetPokemon(t *testing.T) {
	env := newTestEnv(t, "bulbasaur", "pikachu")
	env.r.GET("/api/pokemon/:nameOrId", env.h.GetPokemon)

	w := env.do(t, http.MethodGet, "/api/pokemon/PIKACHU", nil)
	require.Equal(t, http.StatusOK, w.Code)

	p := decode[map[string]any](t, w)
	require.Equal(t, float64(2), p["id"])
	require.Equal(t, "pikachu", p["name"])
	require.Contains(t, p, "sprites")
	require.Contains(t, p, "stats")
	require.Equal(t, float64(64), p["base_experience"])
}

func TestGetPokemon_NotFound(t *testing.T) {
	env := newTestEnv(t, "bulbasaur")
	env.r.GET("/api/pokemon/:nameOrId", env.h.GetPokemon)

	w := env.do(t, http.MethodGet, "/api/pokemon/missingno", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "Pokémon not found", errorBody(t, w))
}

func TestGetPokemon_UpstreamError(t *testing.T) {
	env := newTestEnv(t, "bulbasaur")
	env.stub.Fail("bulbasaur", http.StatusInternalServerError)
	env.r.GET("/api/pokemon/:nameOrId", env.h.GetPokemon)

	w := env.do(t, http.MethodGet, "/api/pokemon/bulbasaur", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Error fetching Pokémon details", errorBody(t, w))
}

func TestSearchPokemon(t *testing.T) {
	env := newTestEnv(t, "pikachu", "raichu", "bulbasaur")
	env.r.GET("/api/search/:query", env.h.SearchPokemon)

	w := env.do(t, http.MethodGet, "/api/search/chu", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.SearchResult](t, w)
	require.Equal(t, 2, res.Count)
	require.Len(t, res.Results, 2)
	require.Equal(t, "pikachu", res.Results[0].Name)

	// q takes precedence over the path segment
	w = env.do(t, http.MethodGet, "/api/search/chu?q=bulba", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[models.SearchResult](t, w)
	require.Equal(t, 1, res.Count)
	require.Equal(t, "bulbasaur", res.Results[0].Name)
}

func TestSearchPokemon_ShortQuery(t *testing.T) {
	env := newTestEnv(t, "pikachu")
	env.r.GET("/api/search/:query", env.h.SearchPokemon)

	w := env.do(t, http.MethodGet, "/api/search/p", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Query must be at least 2 characters", errorBody(t, w))
	require.Equal(t, 0, env.stub.TotalCalls())
}

func TestSearchPokemon_SnapshotNotFoundIsServerError(t *testing.T) {
	env := newTestEnv(t, "pikachu")
	env.stub.FailList(http.StatusNotFound)
	env.r.GET("/api/search/:query", env.h.SearchPokemon)

	w := env.do(t, http.MethodGet, "/api/search/pika", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Error searching Pokémon", errorBody(t, w))
}
