package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fortuna/scout/internal/apperr"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = apperr.ErrNotFound

// Category is a stat group: hitting, pitching or fielding.
type Category string

const (
	Hitting  Category = "hitting"
	Pitching Category = "pitching"
	Fielding Category = "fielding"
)

// ParseCategory validates a category name. An empty string is hitting.
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case "", Hitting:
		return Hitting, nil
	case Pitching:
		return Pitching, nil
	case Fielding:
		return Fielding, nil
	}
	return "", apperr.Validation("unknown stat group %q", s)
}

// CategoryForPosition picks the natural stat group for a position abbreviation.
func CategoryForPosition(position string) Category {
	switch strings.ToUpper(position) {
	case "SP", "RP", "P", "CL", "CP":
		return Pitching
	}
	return Hitting
}

// PlayerProfile is a cached player identity and bio.
type PlayerProfile struct {
	PlayerID     int       `json:"player_id" db:"player_id"`
	FullName     string    `json:"full_name" db:"full_name"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Position     string    `json:"position" db:"position"`
	TeamName     string    `json:"team_name" db:"team_name"`
	TeamID       int       `json:"team_id,omitempty" db:"team_id"`
	Bats         string    `json:"bats" db:"bats"`
	Throws       string    `json:"throws" db:"throws"`
	BirthDate    string    `json:"birth_date,omitempty" db:"birth_date"`
	BirthCity    string    `json:"birth_city,omitempty" db:"birth_city"`
	BirthCountry string    `json:"birth_country,omitempty" db:"birth_country"`
	Height       string    `json:"height,omitempty" db:"height"`
	Weight       int       `json:"weight,omitempty" db:"weight"`
	DebutDate    string    `json:"debut_date,omitempty" db:"debut_date"`
	Active       bool      `json:"active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// StatMap holds allow-listed stats keyed by upstream field name.
// Values are numbers or preformatted strings such as ".285".
type StatMap map[string]interface{}

// Value implements driver.Valuer for JSONB columns.
func (m StatMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB columns.
func (m *StatMap) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = StatMap{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scanning stats: unsupported type %T", src)
	}
	out := StatMap{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("scanning stats: %w", err)
	}
	*m = out
	return nil
}

// SeasonStatLine is one player's stats for a season, team and category.
type SeasonStatLine struct {
	PlayerID  int       `json:"player_id" db:"player_id"`
	Season    int       `json:"season" db:"season"`
	Team      string    `json:"team" db:"team"`
	Category  Category  `json:"category" db:"category"`
	Stats     StatMap   `json:"stats" db:"stats"`
	FetchedAt time.Time `json:"fetched_at,omitempty" db:"fetched_at"`
}

// NarrativeReport is a cached scouting report for a player and season.
type NarrativeReport struct {
	PlayerID    int       `json:"player_id" db:"player_id"`
	Season      int       `json:"season" db:"season"`
	Report      string    `json:"report" db:"report"`
	GeneratedAt time.Time `json:"generated_at" db:"generated_at"`
}
