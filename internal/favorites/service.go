package favorites

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/felixgeelhaar/bolt/v3"

	"pokedex-api/internal/logging"
	"pokedex-api/internal/models"
	"pokedex-api/internal/realtime"
)

// Publisher receives an event after every successful mutation.
type Publisher interface {
	Publish(ev realtime.Event) (int, error)
}

// Result is the outcome of a mutation.
type Result struct {
	Success        bool   `json:"success"`
	PokemonID      int    `json:"pokemonId,omitempty"`
	TotalFavorites int    `json:"totalFavorites"`
	Message        string `json:"message,omitempty"`
	IsFavorite     *bool  `json:"isFavorite,omitempty"`
}

// Service validates requests against a Store and publishes the changes.
type Service struct {
	store Store
	pub   Publisher
	log   *bolt.Logger
}

// NewService creates a Service. pub may be nil.
func NewService(store Store, pub Publisher, log *bolt.Logger) *Service {
	if log == nil {
		log = logging.Get()
	}
	return &Service{store: store, pub: pub, log: log}
}

func partition(user string) string {
	if u := strings.TrimSpace(user); u != "" {
		return u
	}
	return DefaultUser
}

func validID(id int) error {
	if id <= 0 {
		return errors.Wrapf(models.ErrInvalidInput, "pokemonId %d", id)
	}
	return nil
}

// List returns the favorited ids of user in insertion order.
func (s *Service) List(ctx context.Context, user string) ([]int, error) {
	return s.store.List(ctx, partition(user))
}

// IsFavorite reports whether id is in user's set.
func (s *Service) IsFavorite(ctx context.Context, user string, id int) (bool, error) {
	if err := validID(id); err != nil {
		return false, err
	}
	return s.store.Contains(ctx, partition(user), id)
}

// Add inserts id. Adding an existing id succeeds without changing the set.
func (s *Service) Add(ctx context.Context, user string, id int) (Result, error) {
	if err := validID(id); err != nil {
		return Result{}, err
	}
	user = partition(user)
	total, err := s.store.Add(ctx, user, id)
	if err != nil {
		return Result{}, err
	}
	s.publish(realtime.FavoriteAdded, user, id, total)
	return Result{Success: true, PokemonID: id, TotalFavorites: total}, nil
}

// Remove deletes id. Success is false when id was not in the set.
func (s *Service) Remove(ctx context.Context, user string, id int) (Result, error) {
	if err := validID(id); err != nil {
		return Result{}, err
	}
	user = partition(user)
	removed, total, err := s.store.Remove(ctx, user, id)
	if errors.Is(err, ErrNoFavorites) {
		return Result{Success: false, Message: "No favorites found"}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if removed {
		s.publish(realtime.FavoriteRemoved, user, id, total)
	}
	return Result{Success: removed, PokemonID: id, TotalFavorites: total}, nil
}

// Toggle removes id when present and adds it otherwise.
func (s *Service) Toggle(ctx context.Context, user string, id int) (Result, error) {
	if err := validID(id); err != nil {
		return Result{}, err
	}
	user = partition(user)
	added, total, err := s.store.Toggle(ctx, user, id)
	if err != nil {
		return Result{}, err
	}
	kind := realtime.FavoriteRemoved
	if added {
		kind = realtime.FavoriteAdded
	}
	s.publish(kind, user, id, total)
	return Result{Success: true, PokemonID: id, TotalFavorites: total, IsFavorite: &added}, nil
}

func (s *Service) publish(kind, user string, id, total int) {
	if s.pub == nil {
		return
	}
	n, err := s.pub.Publish(realtime.Event{Type: kind, UserID: user, PokemonID: id, TotalFavorites: total})
	if err != nil {
		logging.With(s.log.Warn(), logging.User(user), logging.ErrorField(err)).Msg("publishing favorite event failed")
		return
	}
	logging.With(s.log.Debug(), logging.User(user)).Str("type", kind).Int("pokemon_id", id).Int("subscribers", n).Msg("favorite event published")
}
