package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokedex-api/internal/cache"
	"pokedex-api/internal/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts Options) (*Client, *cache.TTLCache[any]) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := cache.New[any](cache.Options{})
	opts.BaseURL = srv.URL
	opts.Logger = logging.Discard()
	return New(store, opts), store
}

func TestEndpoint_Key_Canonical(t *testing.T) {
	a := Endpoint{Path: "/pokemon", Query: url.Values{"offset": {"0"}, "limit": {"20"}}}
	b := Endpoint{Path: "/pokemon", Query: url.Values{"limit": {"20"}, "offset": {"0"}}}
	require.Equal(t, a.Key(), b.Key())
	require.Equal(t, "/pokemon?limit=20&offset=0", a.Key())
	require.Equal(t, ListEndpoint(0, 20).Key(), a.Key())
	require.Equal(t, "/pokemon/pikachu", DetailEndpoint("pikachu").Key())
}

func TestFetch_CachesSuccess(t *testing.T) {
	var calls atomic.Int32
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/pokemon/pikachu", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":25}`))
	}, Options{})

	for i := 0; i < 3; i++ {
		payload, err := c.Fetch(context.Background(), DetailEndpoint("pikachu"))
		require.NoError(t, err)
		require.JSONEq(t, `{"id":25}`, string(payload))
	}
	require.Equal(t, int32(1), calls.Load())

	s := store.Stats()
	require.Equal(t, uint64(2), s.Hits)
	require.Equal(t, uint64(1), s.Misses)
}

func TestFetch_NotFoundIsNotCached(t *testing.T) {
	var calls atomic.Int32
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}, Options{})

	for i := 0; i < 2; i++ {
		_, err := c.Fetch(context.Background(), DetailEndpoint("missingno"))
		require.Error(t, err)
		require.True(t, IsNotFound(err))

		var upErr *UpstreamError
		require.True(t, errors.As(err, &upErr))
		require.Equal(t, http.StatusNotFound, upErr.Status)
		require.Equal(t, "/pokemon/missingno", upErr.Endpoint)
	}
	require.Equal(t, int32(2), calls.Load())
	require.Equal(t, 0, store.Len())
}

func TestFetch_ServerError(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, Options{})

	_, err := c.Fetch(context.Background(), ListEndpoint(0, 20))
	require.Error(t, err)
	require.False(t, IsNotFound(err))

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	require.Equal(t, http.StatusBadGateway, upErr.Status)
	require.Equal(t, 0, store.Len())
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, Options{Timeout: 50 * time.Millisecond})

	_, err := c.Fetch(context.Background(), DetailEndpoint("slowpoke"))
	require.Error(t, err)

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	require.Contains(t, upErr.Message, "timeout")
	require.Equal(t, 0, store.Len())
}

func TestFetch_CoalescesConcurrentMisses(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(`{"count":1}`))
	}, Options{})

	const callers = 20
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Fetch(context.Background(), ListEndpoint(0, 20))
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int32(1), calls.Load())
}

func TestFetch_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		_, _ = w.Write([]byte(`{}`))
	}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Fetch(ctx, DetailEndpoint("abra"))
		done <- err
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	err := <-done
	require.ErrorIs(t, err, context.Canceled)

	// the detached flight still completes and populates the cache
	close(release)
	require.Eventually(t, func() bool { return store.Has(DetailEndpoint("abra").Key()) }, time.Second, 5*time.Millisecond)
}

func TestFetchJSON_Malformed(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}, Options{})

	var v map[string]any
	err := c.FetchJSON(context.Background(), DetailEndpoint("x"), &v)
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	require.Equal(t, "malformed payload", upErr.Message)
}

func TestPing(t *testing.T) {
	var calls atomic.Int32
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{}`))
	}, Options{})

	require.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Ping(context.Background()))
	require.Equal(t, int32(2), calls.Load())
	require.Equal(t, 0, store.Len())
}

func TestPing_Unreachable(t *testing.T) {
	c := New(cache.New[any](cache.Options{}), Options{
		BaseURL:      "http://127.0.0.1:1",
		ProbeTimeout: 200 * time.Millisecond,
		Logger:       logging.Discard(),
	})
	err := c.Ping(context.Background())
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
}
