// Package upstream wraps outbound calls to the catalog API through the cache.
package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/felixgeelhaar/bolt/v3"
	"golang.org/x/sync/singleflight"

	"pokedex-api/internal/logging"
)

const (
	// DefaultTimeout bounds every outbound call.
	DefaultTimeout = 10 * time.Second

	// DefaultProbeTimeout bounds liveness probes.
	DefaultProbeTimeout = 2 * time.Second

	// DefaultTTL is how long a successful payload stays cached.
	DefaultTTL = time.Hour

	maxPayloadBytes = 16 << 20
)

// Store is the part of the cache the client needs.
type Store interface {
	Get(key string) (any, bool)
	Peek(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL      string
	TTL          time.Duration
	Timeout      time.Duration
	ProbeTimeout time.Duration
	HTTPClient   *http.Client
	Logger       *bolt.Logger
}

// Client fetches upstream payloads through the cache. Concurrent fetches of the
// same uncached key share a single outbound call.
type Client struct {
	baseURL      string
	ttl          time.Duration
	timeout      time.Duration
	probeTimeout time.Duration
	http         *http.Client
	store        Store
	group        singleflight.Group
	log          *bolt.Logger
}

// New creates a Client backed by store.
func New(store Store, opts Options) *Client {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Get()
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		ttl:          opts.TTL,
		timeout:      opts.Timeout,
		probeTimeout: opts.ProbeTimeout,
		http:         opts.HTTPClient,
		store:        store,
		log:          opts.Logger,
	}
}

// Fetch returns the payload for ep, from the cache when possible.
// Failures are never cached and are reported as *UpstreamError.
func (c *Client) Fetch(ctx context.Context, ep Endpoint) ([]byte, error) {
	key := ep.Key()
	if v, ok := c.store.Get(key); ok {
		if payload, ok := v.([]byte); ok {
			logging.With(c.log.Debug(), logging.Endpoint(key), logging.Cached(true)).Msg("cache hit")
			return payload, nil
		}
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// a previous flight may have completed between our miss and joining the group
		if v, ok := c.store.Peek(key); ok {
			if payload, ok := v.([]byte); ok {
				return payload, nil
			}
		}
		payload, err := c.get(ctx, key, c.timeout)
		if err != nil {
			return nil, err
		}
		c.store.Set(key, payload, c.ttl)
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return nil, &UpstreamError{Endpoint: key, Message: ctx.Err().Error(), Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// FetchJSON fetches ep and decodes the payload into v.
func (c *Client) FetchJSON(ctx context.Context, ep Endpoint, v any) error {
	payload, err := c.Fetch(ctx, ep)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return &UpstreamError{Endpoint: ep.Key(), Message: "malformed payload", Err: err}
	}
	return nil
}

// Ping checks that the upstream answers within the probe timeout. It bypasses the cache.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, ListEndpoint(0, 1).Key(), c.probeTimeout)
	return err
}

// get performs one outbound call. The call is detached from the caller's
// cancellation because its result may be shared by other waiters; it is bounded
// by timeout instead.
func (c *Client) get(ctx context.Context, key string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+key, nil)
	if err != nil {
		return nil, &UpstreamError{Endpoint: key, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "timeout after " + timeout.String()
		}
		logging.With(c.log.Warn(), logging.Endpoint(key), logging.Duration(time.Since(start)), logging.ErrorField(err)).Msg("upstream call failed")
		return nil, &UpstreamError{Endpoint: key, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, &UpstreamError{Endpoint: key, Status: resp.StatusCode, Message: "reading body", Err: err}
	}

	logging.With(c.log.Info(), logging.Endpoint(key), logging.Status(resp.StatusCode), logging.Duration(time.Since(start)), logging.Cached(false)).Msg("upstream call")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &UpstreamError{Endpoint: key, Status: resp.StatusCode, Message: "not found", Err: ErrNotFound}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &UpstreamError{Endpoint: key, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return body, nil
}
