package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// StubUpstream is an in-process stand-in for the catalog API. It serves
// /pokemon (paged list) and /pokemon/{name-or-id} (detail) from a list of names,
// counts calls per canonical request, and can fail or hang selected items.
type StubUpstream struct {
	Server *httptest.Server

	mu      sync.Mutex
	names   []string
	total   int
	failing map[string]int
	listErr int
	hanging map[string]bool
	calls   map[string]int
}

// NewStubUpstream starts a stub serving names; ids are 1-based positions.
func NewStubUpstream(t testing.TB, names []string) *StubUpstream {
	t.Helper()
	s := &StubUpstream{
		names:   names,
		total:   len(names),
		failing: make(map[string]int),
		hanging: make(map[string]bool),
		calls:   make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Server.Close)
	return s
}

// URL is the base URL to configure the upstream client with.
func (s *StubUpstream) URL() string {
	return s.Server.URL
}

// SetTotal overrides the count reported by list calls.
func (s *StubUpstream) SetTotal(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = n
}

// Fail makes detail calls for name answer with status.
func (s *StubUpstream) Fail(name string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[name] = status
}

// FailList makes every /pokemon list call answer with status.
func (s *StubUpstream) FailList(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = status
}

// Hang makes detail calls for name block until the client gives up.
func (s *StubUpstream) Hang(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hanging[name] = true
}

// Calls returns how many requests hit key (path plus sorted query).
func (s *StubUpstream) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// TotalCalls returns the number of requests served.
func (s *StubUpstream) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *StubUpstream) serve(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Path
	if q := r.URL.Query().Encode(); q != "" {
		key += "?" + q
	}
	s.mu.Lock()
	s.calls[key]++
	s.mu.Unlock()

	switch {
	case r.URL.Path == "/pokemon":
		s.serveList(w, r)
	case strings.HasPrefix(r.URL.Path, "/pokemon/"):
		s.serveDetail(w, r, strings.TrimPrefix(r.URL.Path, "/pokemon/"))
	default:
		http.NotFound(w, r)
	}
}

func (s *StubUpstream) serveList(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	s.mu.Lock()
	names, total, status := s.names, s.total, s.listErr
	s.mu.Unlock()
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	type ref struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	results := []ref{}
	for i := offset; i < len(names) && i < offset+limit; i++ {
		results = append(results, ref{Name: names[i], URL: fmt.Sprintf("%s/pokemon/%d/", s.Server.URL, i+1)})
	}

	var next, previous *string
	if offset+limit < total {
		n := fmt.Sprintf("%s/pokemon?offset=%d&limit=%d", s.Server.URL, offset+limit, limit)
		next = &n
	}
	if offset > 0 {
		p := fmt.Sprintf("%s/pokemon?offset=%d&limit=%d", s.Server.URL, max(offset-limit, 0), limit)
		previous = &p
	}

	writeJSON(w, map[string]any{
		"count":    total,
		"next":     next,
		"previous": previous,
		"results":  results,
	})
}

func (s *StubUpstream) serveDetail(w http.ResponseWriter, r *http.Request, handle string) {
	s.mu.Lock()
	names := s.names
	s.mu.Unlock()

	idx := -1
	if id, err := strconv.Atoi(handle); err == nil {
		if id >= 1 && id <= len(names) {
			idx = id - 1
		}
	} else {
		for i, n := range names {
			if n == handle {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		http.NotFound(w, r)
		return
	}
	name := names[idx]

	s.mu.Lock()
	status, fail := s.failing[name]
	hang := s.hanging[name]
	s.mu.Unlock()

	if hang {
		<-r.Context().Done()
		return
	}
	if fail {
		w.WriteHeader(status)
		return
	}

	writeJSON(w, map[string]any{
		"id":              idx + 1,
		"name":            name,
		"height":          10,
		"weight":          100,
		"base_experience": 64,
		"sprites": map[string]any{
			"front_default": fmt.Sprintf("https://sprites.example/%d.png", idx+1),
			"front_shiny":   nil,
			"back_default":  nil,
			"back_shiny":    nil,
		},
		"types": []map[string]any{
			{"slot": 1, "type": map[string]string{"name": "normal", "url": ""}},
		},
		"abilities": []map[string]any{
			{"ability": map[string]string{"name": "run-away", "url": ""}, "is_hidden": false, "slot": 1},
		},
		"stats": []map[string]any{
			{"base_stat": 50, "stat": map[string]string{"name": "hp", "url": ""}},
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
