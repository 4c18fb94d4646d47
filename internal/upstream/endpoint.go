package upstream

import (
	"net/url"
	"strconv"
)

// Endpoint identifies one upstream GET request. Its Key is the cache key.
type Endpoint struct {
	Path  string
	Query url.Values
}

// Key canonicalizes the endpoint: query parameters are sorted by name
// so equivalent requests map to the same key.
func (e Endpoint) Key() string {
	if len(e.Query) == 0 {
		return e.Path
	}
	return e.Path + "?" + e.Query.Encode()
}

// ListEndpoint is the page-of-references request.
func ListEndpoint(offset, limit int) Endpoint {
	return Endpoint{
		Path: "/pokemon",
		Query: url.Values{
			"offset": {strconv.Itoa(offset)},
			"limit":  {strconv.Itoa(limit)},
		},
	}
}

// DetailEndpoint is the single-item request for a name or numeric id.
func DetailEndpoint(handle string) Endpoint {
	return Endpoint{Path: "/pokemon/" + url.PathEscape(handle)}
}
