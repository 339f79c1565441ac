package mlb

import "github.com/fortuna/scout/internal/store"

// StatType selects the shape of a people/{id}/stats response.
type StatType string

const (
	StatSeason     StatType = "season"
	StatYearByYear StatType = "yearByYear"
	StatGameLog    StatType = "gameLog"
)

// PersonSummary is one people/search hit.
type PersonSummary struct {
	PlayerID int    `json:"player_id"`
	FullName string `json:"full_name"`
	Position string `json:"position"`
	Team     string `json:"team"`
	Active   bool   `json:"active"`
}

// StatSplit is one row of a stats response: a season, a team stint or a game.
type StatSplit struct {
	Season   int           `json:"season"`
	Team     string        `json:"team"`
	TeamID   int           `json:"team_id,omitempty"`
	Date     string        `json:"date,omitempty"`
	Opponent string        `json:"opponent,omitempty"`
	IsHome   bool          `json:"is_home"`
	Stats    store.StatMap `json:"stats"`
}

// ScheduledGame is a schedule entry with probable pitchers when announced.
type ScheduledGame struct {
	GameID              int    `json:"game_id"`
	GameDateTime        string `json:"game_datetime"`
	GameType            string `json:"game_type"`
	Status              string `json:"status"`
	VenueName           string `json:"venue_name"`
	AwayName            string `json:"away_name"`
	AwayID              int    `json:"away_id"`
	HomeName            string `json:"home_name"`
	HomeID              int    `json:"home_id"`
	AwayProbablePitcher string `json:"away_probable_pitcher"`
	AwayPitcherID       int    `json:"away_pitcher_id,omitempty"`
	HomeProbablePitcher string `json:"home_probable_pitcher"`
	HomePitcherID       int    `json:"home_pitcher_id,omitempty"`
}

// PitchLocation is a single tracked pitch crossing the plate.
type PitchLocation struct {
	PlateX      float64  `json:"plate_x"`
	PlateZ      float64  `json:"plate_z"`
	PitchName   string   `json:"pitch_name"`
	StartSpeed  *float64 `json:"start_speed"`
	Zone        *int     `json:"zone"`
	Description string   `json:"description"`
}

// RosterEntry is one active-roster player.
type RosterEntry struct {
	PlayerID int    `json:"player_id"`
	FullName string `json:"full_name"`
	Position string `json:"position"`
}

// VsSplit is a batter's career line against one pitcher.
type VsSplit struct {
	AtBats          int    `json:"at_bats"`
	Hits            int    `json:"hits"`
	HomeRuns        int    `json:"home_runs"`
	Walks           int    `json:"walks"`
	StrikeOuts      int    `json:"strike_outs"`
	Avg             string `json:"avg"`
	OBP             string `json:"obp"`
	SLG             string `json:"slg"`
	OPS             string `json:"ops"`
	NumberOfPitches int    `json:"number_of_pitches"`
}
