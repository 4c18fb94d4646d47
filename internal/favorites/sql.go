package favorites

import (
	"context"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pokedex-api/internal/models"
)

// SQLStore keeps favorites in the favorites table. A partition exists while
// it has at least one row.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore wraps a migrated database.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) List(ctx context.Context, user string) ([]int, error) {
	ids := []int{}
	err := s.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ?", user).
		Order("id ASC").
		Pluck("pokemon_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing favorites")
	}
	return ids, nil
}

func (s *SQLStore) Add(ctx context.Context, user string, id int) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		total, err = add(tx, user, id)
		return err
	})
	return total, err
}

func (s *SQLStore) Remove(ctx context.Context, user string, id int) (bool, int, error) {
	var (
		removed bool
		total   int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := count(tx, user)
		if err != nil {
			return err
		}
		if before == 0 {
			return ErrNoFavorites
		}
		removed, total, err = remove(tx, user, id)
		return err
	})
	return removed, total, err
}

func (s *SQLStore) Contains(ctx context.Context, user string, id int) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND pokemon_id = ?", user, id).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "checking favorite")
	}
	return n > 0, nil
}

func (s *SQLStore) Toggle(ctx context.Context, user string, id int) (bool, int, error) {
	var (
		added bool
		total int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, n, err := remove(tx, user, id)
		if err != nil {
			return err
		}
		if removed {
			total = n
			return nil
		}
		added = true
		total, err = add(tx, user, id)
		return err
	})
	return added, total, err
}

func add(tx *gorm.DB, user string, id int) (int, error) {
	fav := models.Favorite{UserID: user, PokemonID: id}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error; err != nil {
		return 0, errors.Wrap(err, "adding favorite")
	}
	return count(tx, user)
}

func remove(tx *gorm.DB, user string, id int) (bool, int, error) {
	res := tx.Where("user_id = ? AND pokemon_id = ?", user, id).Delete(&models.Favorite{})
	if res.Error != nil {
		return false, 0, errors.Wrap(res.Error, "removing favorite")
	}
	total, err := count(tx, user)
	return res.RowsAffected > 0, total, err
}

func count(tx *gorm.DB, user string) (int, error) {
	var n int64
	if err := tx.Model(&models.Favorite{}).Where("user_id = ?", user).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "counting favorites")
	}
	return int(n), nil
}

var _ Store = (*SQLStore)(nil)
