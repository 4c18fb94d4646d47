// Package favorites keeps per-identity sets of favorited item ids.
package favorites

import (
	"context"

	"github.com/cockroachdb/errors"
)

// DefaultUser is the partition used when a request carries no identity.
const DefaultUser = "default"

// ErrNoFavorites is returned by Remove when the partition has never been written.
var ErrNoFavorites = errors.New("no favorites found")

// Store persists favorites. Partitions are created lazily on first Add.
// List returns ids in insertion order.
type Store interface {
	List(ctx context.Context, user string) ([]int, error)
	Add(ctx context.Context, user string, id int) (total int, err error)
	Remove(ctx context.Context, user string, id int) (removed bool, total int, err error)
	Contains(ctx context.Context, user string, id int) (bool, error)
	Toggle(ctx context.Context, user string, id int) (added bool, total int, err error)
}
