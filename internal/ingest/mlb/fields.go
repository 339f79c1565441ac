package mlb

import "github.com/fortuna/scout/internal/store"

var hittingFields = []string{
	"gamesPlayed", "atBats", "runs", "hits", "doubles", "triples", "homeRuns",
	"rbi", "stolenBases", "caughtStealing", "walks", "strikeOuts", "avg", "obp",
	"slg", "ops", "leftOnBase", "plateAppearances", "sacBunts", "sacFlies",
	"hitByPitch", "groundOuts", "airOuts", "groundIntoDoublePlay",
}

var pitchingFields = []string{
	"gamesPlayed", "gamesStarted", "wins", "losses", "era", "inningsPitched",
	"hits", "runs", "earnedRuns", "homeRuns", "walks", "strikeOuts", "whip",
	"strikeoutsPer9Inn", "walksPer9Inn", "hitsPer9Inn", "avg", "obp", "slg", "ops",
	"saves", "saveOpportunities", "holds", "blownSaves", "completeGames", "shutouts",
	"qualityStarts", "battersFaced", "strikes", "balls",
}

var fieldingFields = []string{
	"gamesPlayed", "gamesStarted", "innings", "chances", "putOuts", "assists",
	"errors", "doublePlays", "fielding", "rangeFactorPerGame", "rangeFactorPer9Inn",
}

// Fields returns the allow-list for a category.
func Fields(category store.Category) []string {
	switch category {
	case store.Pitching:
		return pitchingFields
	case store.Fielding:
		return fieldingFields
	default:
		return hittingFields
	}
}

// FilterStats keeps only allow-listed keys present in raw. Absent fields are
// omitted rather than zero-filled. The API reports walks as baseOnBalls, so
// that key stands in when walks itself is missing.
func FilterStats(category store.Category, raw map[string]interface{}) store.StatMap {
	out := store.StatMap{}
	for _, k := range Fields(category) {
		v, ok := raw[k]
		if !ok && k == "walks" {
			v, ok = raw["baseOnBalls"]
		}
		if ok && v != nil {
			out[k] = v
		}
	}
	return out
}
