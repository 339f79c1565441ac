package narrative

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fortuna/scout/internal/store"
)

// WindowYears is how many seasons before the report season the prompt covers.
const WindowYears = 4

type statLabel struct {
	key   string
	label string
	// rate fields are skipped when zero or blank; counts only when absent.
	rate bool
}

var hittingLabels = []statLabel{
	{"avg", "AVG", true},
	{"obp", "OBP", true},
	{"slg", "SLG", true},
	{"ops", "OPS", true},
	{"homeRuns", "HR", false},
	{"rbi", "RBI", false},
	{"runs", "R", false},
	{"hits", "H", false},
	{"stolenBases", "SB", false},
	{"strikeOuts", "K", false},
	{"walks", "BB", false},
	{"gamesPlayed", "G", false},
}

var pitchingLabels = []statLabel{
	{"era", "ERA", true},
	{"whip", "WHIP", true},
	{"wins", "W", false},
	{"losses", "L", false},
	{"saves", "SV", false},
	{"strikeOuts", "K", false},
	{"inningsPitched", "IP", true},
	{"strikeoutsPer9Inn", "K/9", true},
	{"walksPer9Inn", "BB/9", true},
	{"gamesStarted", "GS", false},
}

var fieldingLabels = []statLabel{
	{"fielding", "FLD%", true},
	{"errors", "E", false},
	{"assists", "A", false},
	{"putOuts", "PO", false},
	{"chances", "CH", false},
	{"doublePlays", "DP", false},
	{"gamesPlayed", "G", false},
}

// FormatHitting renders the hitting line, e.g. "AVG: .311 | HR: 62".
func FormatHitting(stats store.StatMap) string { return formatStats(stats, hittingLabels) }

// FormatPitching renders the pitching line.
func FormatPitching(stats store.StatMap) string { return formatStats(stats, pitchingLabels) }

// FormatFielding renders the fielding line.
func FormatFielding(stats store.StatMap) string { return formatStats(stats, fieldingLabels) }

// FormatStats dispatches on category.
func FormatStats(category store.Category, stats store.StatMap) string {
	switch category {
	case store.Pitching:
		return FormatPitching(stats)
	case store.Fielding:
		return FormatFielding(stats)
	default:
		return FormatHitting(stats)
	}
}

func formatStats(stats store.StatMap, labels []statLabel) string {
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		v, ok := stats[l.key]
		if !ok || v == nil {
			continue
		}
		if l.rate && isZero(v) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", l.label, formatValue(v)))
	}
	return strings.Join(parts, " | ")
}

func isZero(v interface{}) bool {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val) == ""
	case float64:
		return val == 0
	case int:
		return val == 0
	}
	return false
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	}
	return fmt.Sprint(v)
}

// InWindow reports whether s falls in the prompt window ending at season.
func InWindow(s, season int) bool {
	return s >= season-WindowYears && s <= season
}

const reportOutline = `Write a professional scouting report with these sections:

## Overview
2-3 sentences on who this player is and their role.

## Strengths
3 specific, data-backed strengths.

## Weaknesses / Areas of Concern
2-3 honest weaknesses or red flags.

## Statistical Trends
Analysis of how their numbers have trended over recent seasons.

## Role & Value
What role do they fill? Starting caliber, platoon, depth? Contract value assessment.

## Comparable Players
2 comps: one current player, one historical.

## Bottom Line
One paragraph summary. Would you sign this player? What's a fair contract?

Be specific, analytical, and honest. Reference the actual stats. Avoid generic platitudes.`

// BuildPrompt assembles the report prompt from a profile and its stat history.
// Only seasons in [season-4, season] are included; question is appended verbatim.
func BuildPrompt(p *store.PlayerProfile, lines []store.SeasonStatLine, category store.Category, season int, question string) string {
	var b strings.Builder

	b.WriteString("You are a professional MLB scout writing a detailed scouting report.\n\n")
	fmt.Fprintf(&b, "PLAYER: %s\n", p.FullName)
	fmt.Fprintf(&b, "POSITION: %s\n", orDefault(p.Position, "Unknown"))
	fmt.Fprintf(&b, "TEAM: %s\n", orDefault(p.TeamName, "Unknown"))
	fmt.Fprintf(&b, "BATS/THROWS: %s/%s\n", orDefault(p.Bats, "?"), orDefault(p.Throws, "?"))
	weight := "?"
	if p.Weight > 0 {
		weight = strconv.Itoa(p.Weight)
	}
	fmt.Fprintf(&b, "HEIGHT/WEIGHT: %s / %s lbs\n", orDefault(p.Height, "?"), weight)
	fmt.Fprintf(&b, "MLB DEBUT: %s\n\n", orDefault(p.DebutDate, "Unknown"))

	fmt.Fprintf(&b, "RECENT STATS (%s):\n", strings.ToUpper(string(category)))
	n := 0
	for _, l := range lines {
		if !InWindow(l.Season, season) {
			continue
		}
		fmt.Fprintf(&b, "  %d (%s): %s\n", l.Season, l.Team, FormatStats(category, l.Stats))
		n++
	}
	if n == 0 {
		b.WriteString("No stats available\n")
	}
	b.WriteString("\n")

	if q := strings.TrimSpace(question); q != "" {
		fmt.Fprintf(&b, "USER QUESTION: %s\n\n", question)
	}

	b.WriteString(reportOutline)
	return b.String()
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
