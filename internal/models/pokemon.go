package models

import (
	"strings"
)

// Reference is a lightweight listing entry from the upstream list call.
// It is not enough for display and must be resolved through the detail endpoint.
type Reference struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Handle returns the path segment used to fetch the reference's details:
// the name when present, otherwise the trailing id of its URL.
func (r Reference) Handle() string {
	if r.Name != "" {
		return strings.ToLower(r.Name)
	}
	parts := strings.Split(strings.TrimRight(r.URL, "/"), "/")
	return parts[len(parts)-1]
}

// ReferencePage is the upstream shape of a paged list call.
type ReferencePage struct {
	Count    int         `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  []Reference `json:"results"`
}

// DetailRecord is the display-ready record of one catalog item.
type DetailRecord struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Types     []string `json:"types"`
	Sprite    *string  `json:"sprite"`
	Height    int      `json:"height"`
	Weight    int      `json:"weight"`
	Abilities []string `json:"abilities"`
}

// Sprites holds the image URLs exposed by the detail endpoint.
type Sprites struct {
	FrontDefault *string `json:"front_default"`
	FrontShiny   *string `json:"front_shiny"`
	BackDefault  *string `json:"back_default"`
	BackShiny    *string `json:"back_shiny"`
}

// Ability is one ability slot of a Pokemon.
type Ability struct {
	Name     string `json:"name"`
	IsHidden bool   `json:"is_hidden"`
}

// Stat is one base stat of a Pokemon.
type Stat struct {
	Name     string `json:"name"`
	BaseStat int    `json:"base_stat"`
}

// Pokemon is the full detail shape served for a single item.
type Pokemon struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	Types          []string  `json:"types"`
	Sprites        Sprites   `json:"sprites"`
	Height         int       `json:"height"`
	Weight         int       `json:"weight"`
	Abilities      []Ability `json:"abilities"`
	Stats          []Stat    `json:"stats"`
	BaseExperience *int      `json:"base_experience"`
}

type namedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// RawPokemon mirrors the subset of the upstream detail payload we read.
type RawPokemon struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Height         int     `json:"height"`
	Weight         int     `json:"weight"`
	BaseExperience *int    `json:"base_experience"`
	Sprites        Sprites `json:"sprites"`
	Types          []struct {
		Slot int           `json:"slot"`
		Type namedResource `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability  namedResource `json:"ability"`
		IsHidden bool          `json:"is_hidden"`
		Slot     int           `json:"slot"`
	} `json:"abilities"`
	Stats []struct {
		BaseStat int           `json:"base_stat"`
		Stat     namedResource `json:"stat"`
	} `json:"stats"`
}

// Valid reports whether the payload carries the fields every record is keyed by.
func (r RawPokemon) Valid() bool {
	return r.ID != 0 && r.Name != ""
}

func (r RawPokemon) typeNames() []string {
	types := make([]string, 0, len(r.Types))
	for _, t := range r.Types {
		types = append(types, t.Type.Name)
	}
	return types
}

// Record maps the raw payload into a DetailRecord.
func (r RawPokemon) Record() DetailRecord {
	abilities := make([]string, 0, len(r.Abilities))
	for _, a := range r.Abilities {
		abilities = append(abilities, a.Ability.Name)
	}
	return DetailRecord{
		ID:        r.ID,
		Name:      r.Name,
		Types:     r.typeNames(),
		Sprite:    r.Sprites.FrontDefault,
		Height:    r.Height,
		Weight:    r.Weight,
		Abilities: abilities,
	}
}

// Details maps the raw payload into the full Pokemon shape.
func (r RawPokemon) Details() Pokemon {
	abilities := make([]Ability, 0, len(r.Abilities))
	for _, a := range r.Abilities {
		abilities = append(abilities, Ability{Name: a.Ability.Name, IsHidden: a.IsHidden})
	}
	stats := make([]Stat, 0, len(r.Stats))
	for _, s := range r.Stats {
		stats = append(stats, Stat{Name: s.Stat.Name, BaseStat: s.BaseStat})
	}
	return Pokemon{
		ID:             r.ID,
		Name:           r.Name,
		Types:          r.typeNames(),
		Sprites:        r.Sprites,
		Height:         r.Height,
		Weight:         r.Weight,
		Abilities:      abilities,
		Stats:          stats,
		BaseExperience: r.BaseExperience,
	}
}

// Page is the List Pipeline result: upstream paging metadata plus enriched records.
// Results may be shorter than the requested limit when items fail to resolve.
type Page struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []DetailRecord `json:"results"`
}

// SearchResult carries the total match count and the enriched, capped subset.
type SearchResult struct {
	Count   int            `json:"count"`
	Results []DetailRecord `json:"results"`
}
