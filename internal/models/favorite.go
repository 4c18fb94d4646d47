package models

import "time"

// Favorite is one favorited item inside an identity partition.
type Favorite struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:idx_favorites_user_pokemon"`
	PokemonID int       `gorm:"column:pokemon_id;not null;uniqueIndex:idx_favorites_user_pokemon"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for Favorite Model
func (Favorite) TableName() string {
	return "favorites"
}
