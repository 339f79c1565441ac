package mlb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Schedule returns every game on date (YYYY-MM-DD) with probable pitchers.
func (c *Client) Schedule(ctx context.Context, date string) ([]ScheduledGame, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("sportId", "1")
	q.Set("hydrate", "probablePitcher")

	data, err := c.fetch(ctx, "schedule", c.metaHTTP, "/api/v1/schedule", q)
	if err != nil {
		return nil, fmt.Errorf("fetching schedule for %s: %w", date, err)
	}

	games := []ScheduledGame{}
	for _, d := range asMaps(extractArray(data, "dates")) {
		for _, g := range asMaps(extractArray(d, "games")) {
			teams := extractMap(g, "teams")
			away, home := extractMap(teams, "away"), extractMap(teams, "home")
			awayTeam, homeTeam := extractMap(away, "team"), extractMap(home, "team")
			awayP, homeP := extractMap(away, "probablePitcher"), extractMap(home, "probablePitcher")

			games = append(games, ScheduledGame{
				GameID:              extractInt(g, "gamePk"),
				GameDateTime:        extractString(g, "gameDate"),
				GameType:            extractString(g, "gameType"),
				Status:              extractString(extractMap(g, "status"), "detailedState"),
				VenueName:           extractString(extractMap(g, "venue"), "name"),
				AwayName:            extractString(awayTeam, "name"),
				AwayID:              extractInt(awayTeam, "id"),
				HomeName:            extractString(homeTeam, "name"),
				HomeID:              extractInt(homeTeam, "id"),
				AwayProbablePitcher: extractString(awayP, "fullName"),
				AwayPitcherID:       extractInt(awayP, "id"),
				HomeProbablePitcher: extractString(homeP, "fullName"),
				HomePitcherID:       extractInt(homeP, "id"),
			})
		}
	}
	return games, nil
}

// TeamGamePks lists a team's regular-season game ids, April 1 through October 15.
func (c *Client) TeamGamePks(ctx context.Context, teamID, season int) ([]int, error) {
	q := url.Values{}
	q.Set("teamId", strconv.Itoa(teamID))
	q.Set("startDate", fmt.Sprintf("%d-04-01", season))
	q.Set("endDate", fmt.Sprintf("%d-10-15", season))
	q.Set("sportId", "1")
	q.Set("gameType", "R")

	data, err := c.fetch(ctx, "team_schedule", c.metaHTTP, "/api/v1/schedule", q)
	if err != nil {
		return nil, fmt.Errorf("fetching team %d schedule: %w", teamID, err)
	}

	pks := []int{}
	for _, d := range asMaps(extractArray(data, "dates")) {
		for _, g := range asMaps(extractArray(d, "games")) {
			if pk := extractInt(g, "gamePk"); pk != 0 {
				pks = append(pks, pk)
			}
		}
	}
	return pks, nil
}

// GamePitches returns every tracked pitch pitcherID threw in one game.
// Pitch events without both plate coordinates are skipped.
func (c *Client) GamePitches(ctx context.Context, gamePk, pitcherID int) ([]PitchLocation, error) {
	data, err := c.fetch(ctx, "game_feed", c.feedHTTP, fmt.Sprintf("/api/v1.1/game/%d/feed/live", gamePk), nil)
	if err != nil {
		return nil, fmt.Errorf("fetching game %d feed: %w", gamePk, err)
	}

	plays := extractArray(extractMap(extractMap(data, "liveData"), "plays"), "allPlays")
	pitches := []PitchLocation{}
	for _, play := range asMaps(plays) {
		if extractInt(extractMap(extractMap(play, "matchup"), "pitcher"), "id") != pitcherID {
			continue
		}
		for _, ev := range asMaps(extractArray(play, "playEvents")) {
			if !extractBool(ev, "isPitch") {
				continue
			}
			pd := extractMap(ev, "pitchData")
			coords := extractMap(pd, "coordinates")
			px, pz := extractFloatPtr(coords, "pX"), extractFloatPtr(coords, "pZ")
			if px == nil || pz == nil {
				continue
			}
			details := extractMap(ev, "details")
			pitches = append(pitches, PitchLocation{
				PlateX:      *px,
				PlateZ:      *pz,
				PitchName:   extractString(extractMap(details, "type"), "description"),
				StartSpeed:  extractFloatPtr(pd, "startSpeed"),
				Zone:        extractIntPtr(pd, "zone"),
				Description: extractString(details, "description"),
			})
		}
	}
	return pitches, nil
}

// Roster returns a team's active roster.
func (c *Client) Roster(ctx context.Context, teamID int) ([]RosterEntry, error) {
	q := url.Values{}
	q.Set("rosterType", "active")

	data, err := c.fetch(ctx, "roster", c.metaHTTP, fmt.Sprintf("/api/v1/teams/%d/roster", teamID), q)
	if err != nil {
		return nil, fmt.Errorf("fetching team %d roster: %w", teamID, err)
	}

	entries := []RosterEntry{}
	for _, r := range asMaps(extractArray(data, "roster")) {
		person := extractMap(r, "person")
		entries = append(entries, RosterEntry{
			PlayerID: extractInt(person, "id"),
			FullName: extractString(person, "fullName"),
			Position: extractString(extractMap(r, "position"), "abbreviation"),
		})
	}
	return entries, nil
}
