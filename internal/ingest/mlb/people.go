package mlb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fortuna/scout/internal/apperr"
	"github.com/fortuna/scout/internal/store"
)

// SearchPeople looks players up by name fragment.
func (c *Client) SearchPeople(ctx context.Context, name string) ([]PersonSummary, error) {
	q := url.Values{}
	q.Set("names", name)
	q.Set("sportIds", "1")
	q.Set("hydrate", "currentTeam")

	data, err := c.fetch(ctx, "people_search", c.metaHTTP, "/api/v1/people/search", q)
	if err != nil {
		return nil, fmt.Errorf("searching people: %w", err)
	}

	people := asMaps(extractArray(data, "people"))
	out := make([]PersonSummary, 0, len(people))
	for _, p := range people {
		active := true
		if v, ok := p["active"].(bool); ok {
			active = v
		}
		out = append(out, PersonSummary{
			PlayerID: extractInt(p, "id"),
			FullName: extractString(p, "fullName"),
			Position: extractString(extractMap(p, "primaryPosition"), "abbreviation"),
			Team:     extractString(extractMap(p, "currentTeam"), "name"),
			Active:   active,
		})
	}
	return out, nil
}

// Person fetches one player's identity and bio.
func (c *Client) Person(ctx context.Context, id int) (*store.PlayerProfile, error) {
	q := url.Values{}
	q.Set("hydrate", "currentTeam")

	data, err := c.fetch(ctx, "person", c.metaHTTP, "/api/v1/people/"+strconv.Itoa(id), q)
	if err != nil {
		return nil, fmt.Errorf("fetching person %d: %w", id, err)
	}

	people := asMaps(extractArray(data, "people"))
	if len(people) == 0 {
		return nil, apperr.NotFound("player %d", id)
	}
	return parsePerson(id, people[0]), nil
}

func parsePerson(id int, p map[string]interface{}) *store.PlayerProfile {
	team := extractMap(p, "currentTeam")
	return &store.PlayerProfile{
		PlayerID:     id,
		FullName:     extractString(p, "fullName"),
		FirstName:    extractString(p, "firstName"),
		LastName:     extractString(p, "lastName"),
		Position:     extractString(extractMap(p, "primaryPosition"), "abbreviation"),
		TeamName:     extractString(team, "name"),
		TeamID:       extractInt(team, "id"),
		Bats:         extractString(extractMap(p, "batSide"), "code"),
		Throws:       extractString(extractMap(p, "pitchHand"), "code"),
		BirthDate:    extractString(p, "birthDate"),
		BirthCity:    extractString(p, "birthCity"),
		BirthCountry: extractString(p, "birthCountry"),
		Height:       extractString(p, "height"),
		Weight:       extractInt(p, "weight"),
		DebutDate:    extractString(p, "mlbDebutDate"),
		Active:       extractBool(p, "active"),
	}
}

// PlayerStats fetches season, yearByYear or gameLog splits for one category.
func (c *Client) PlayerStats(ctx context.Context, id int, statType StatType, category store.Category) ([]StatSplit, error) {
	return c.playerStats(ctx, id, statType, category, 0)
}

// GameLog fetches game-by-game splits for one season.
func (c *Client) GameLog(ctx context.Context, id, season int, category store.Category) ([]StatSplit, error) {
	splits, err := c.playerStats(ctx, id, StatGameLog, category, season)
	if err != nil {
		return nil, err
	}
	// The API can return neighbouring seasons when the season filter is ignored.
	out := splits[:0]
	for _, s := range splits {
		if s.Season == season {
			out = append(out, s)
		}
	}
	return out, nil
}

func (c *Client) playerStats(ctx context.Context, id int, statType StatType, category store.Category, season int) ([]StatSplit, error) {
	q := url.Values{}
	q.Set("stats", string(statType))
	q.Set("group", string(category))
	q.Set("sportId", "1")
	if season > 0 {
		q.Set("season", strconv.Itoa(season))
	}

	op := "stats_" + string(statType)
	data, err := c.fetch(ctx, op, c.metaHTTP, fmt.Sprintf("/api/v1/people/%d/stats", id), q)
	if err != nil {
		return nil, fmt.Errorf("fetching %s %s stats for %d: %w", statType, category, id, err)
	}
	return parseSplits(data, category), nil
}

// parseSplits flattens every stats group's splits. Rows without a season are dropped.
func parseSplits(data map[string]interface{}, category store.Category) []StatSplit {
	out := []StatSplit{}
	for _, group := range asMaps(extractArray(data, "stats")) {
		for _, split := range asMaps(extractArray(group, "splits")) {
			season, err := strconv.Atoi(extractString(split, "season"))
			if err != nil {
				continue
			}
			team := extractMap(split, "team")
			out = append(out, StatSplit{
				Season:   season,
				Team:     extractString(team, "name"),
				TeamID:   extractInt(team, "id"),
				Date:     extractString(split, "date"),
				Opponent: extractString(extractMap(split, "opponent"), "name"),
				IsHome:   extractBool(split, "isHome"),
				Stats:    FilterStats(category, extractMap(split, "stat")),
			})
		}
	}
	return out
}

// VsPlayer returns a batter's career totals against a pitcher, or nil when
// they have never faced each other.
func (c *Client) VsPlayer(ctx context.Context, pitcherID, batterID int) (*VsSplit, error) {
	q := url.Values{}
	q.Set("stats", "vsPlayerTotal")
	q.Set("opposingPlayerId", strconv.Itoa(batterID))
	q.Set("group", "pitching")
	q.Set("sportId", "1")

	data, err := c.fetch(ctx, "stats_vs_player", c.metaHTTP, fmt.Sprintf("/api/v1/people/%d/stats", pitcherID), q)
	if err != nil {
		return nil, fmt.Errorf("fetching %d vs %d: %w", pitcherID, batterID, err)
	}

	for _, group := range asMaps(extractArray(data, "stats")) {
		if extractString(extractMap(group, "type"), "displayName") != "vsPlayerTotal" {
			continue
		}
		splits := asMaps(extractArray(group, "splits"))
		if len(splits) == 0 {
			return nil, nil
		}
		s := extractMap(splits[0], "stat")
		return &VsSplit{
			AtBats:          extractInt(s, "atBats"),
			Hits:            extractInt(s, "hits"),
			HomeRuns:        extractInt(s, "homeRuns"),
			Walks:           extractInt(s, "baseOnBalls"),
			StrikeOuts:      extractInt(s, "strikeOuts"),
			Avg:             stringOr(s, "avg", ".000"),
			OBP:             stringOr(s, "obp", ".000"),
			SLG:             stringOr(s, "slg", ".000"),
			OPS:             stringOr(s, "ops", ".000"),
			NumberOfPitches: extractInt(s, "numberOfPitches"),
		}, nil
	}
	return nil, nil
}

func stringOr(m map[string]interface{}, key, fallback string) string {
	if v := extractString(m, key); v != "" {
		return v
	}
	return fallback
}
