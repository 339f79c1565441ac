package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/scout/internal/apperr"
	"github.com/fortuna/scout/internal/ingest/mlb"
	"github.com/fortuna/scout/internal/service"
	"github.com/fortuna/scout/internal/store"
)

// ResultStatusHeader reports whether a list response is ok, empty or failed.
const ResultStatusHeader = "X-Result-Status"

// Players is the player lookup surface the handlers need.
type Players interface {
	SearchPlayers(ctx context.Context, query string) (service.Result[mlb.PersonSummary], error)
	GetOrFetchProfile(ctx context.Context, playerID int) (*store.PlayerProfile, error)
	RefreshProfile(ctx context.Context, playerID int) (*store.PlayerProfile, error)
	GetSeasonStats(ctx context.Context, playerID int, seasons []int, category store.Category) service.Result[store.SeasonStatLine]
	RefreshSeasonStats(ctx context.Context, playerID int, seasons []int, category store.Category) service.Result[store.SeasonStatLine]
	GetCareerStats(ctx context.Context, playerID int, category store.Category) service.Result[store.SeasonStatLine]
	CachedSeasons(ctx context.Context, playerID int, category store.Category) ([]store.SeasonStatLine, error)
	GetGameLog(ctx context.Context, playerID, season int, category store.Category) service.Result[mlb.StatSplit]
	ComparePlayers(ctx context.Context, playerIDs []int, season int) ([]service.PlayerComparison, error)
}

// Reports is the scouting report surface the handlers need.
type Reports interface {
	GetCachedReport(ctx context.Context, playerID, season int) (*store.NarrativeReport, error)
	ReportForPlayer(ctx context.Context, playerID, season int, question string, force bool) (string, error)
}

// Games is the schedule and matchup surface the handlers need.
type Games interface {
	TodayGames(ctx context.Context, date string) ([]mlb.ScheduledGame, error)
	PitchLocations(ctx context.Context, pitcherID, season int) (*service.PitchLocations, error)
	OpponentSplits(ctx context.Context, pitcherID, teamID int) service.Result[service.OpponentSplit]
}

// HealthChecker reports database reachability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	players       Players
	reports       Reports
	games         Games
	health        HealthChecker
	defaultSeason int
	log           logrus.FieldLogger
}

// NewHandler creates a new handler. health may be nil.
func NewHandler(players Players, reports Reports, games Games, health HealthChecker, defaultSeason int, log logrus.FieldLogger) *Handler {
	return &Handler{
		players:       players,
		reports:       reports,
		games:         games,
		health:        health,
		defaultSeason: defaultSeason,
		log:           log,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status":   "healthy",
		"service":  "scout",
		"database": "ok",
	}
	if h.health != nil {
		if err := h.health.HealthCheck(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}
	respondJSON(w, http.StatusOK, status)
}

// SearchPlayers searches upstream by name fragment
func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	res, err := h.players.SearchPlayers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, "Failed to search players", err)
		return
	}
	respondResult(w, res)
}

// GetPlayer returns a cached or freshly fetched profile
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		h.fail(w, "Invalid player ID", err)
		return
	}

	p, err := h.players.GetOrFetchProfile(r.Context(), playerID)
	if err != nil {
		h.fail(w, "Failed to fetch player", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// RefreshPlayer re-fetches a profile from upstream and overwrites the cache
func (h *Handler) RefreshPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		h.fail(w, "Invalid player ID", err)
		return
	}

	p, err := h.players.RefreshProfile(r.Context(), playerID)
	if err != nil {
		h.fail(w, "Failed to refresh player", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GetSeasonStats returns cached-or-fetched stat lines for ?season (comma separated)
func (h *Handler) GetSeasonStats(w http.ResponseWriter, r *http.Request) {
	h.seasonStats(w, r, h.players.GetSeasonStats)
}

// RefreshSeasonStats is GetSeasonStats without the cache read
func (h *Handler) RefreshSeasonStats(w http.ResponseWriter, r *http.Request) {
	h.seasonStats(w, r, h.players.RefreshSeasonStats)
}

type seasonLookup func(ctx context.Context, playerID int, seasons []int, category store.Category) service.Result[store.SeasonStatLine]

func (h *Handler) seasonStats(w http.ResponseWriter, r *http.Request, lookup seasonLookup) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		h.fail(w, "Invalid player ID", err)
		return
	}
	seasons, err := h.seasonList(r)
	if err != nil {
		h.fail(w, "Invalid season", err)
		return
	}
	category, err := store.ParseCategory(r.URL.Query().Get("group"))
	if err != nil {
		h.fail(w, "Invalid stat group", err)
		return
	}

	if _, err := h.players.GetOrFetchProfile(r.Context(), playerID); err != nil {
		h.fail(w, "Failed to fetch player", err)
		return
	}

	respondResult(w, lookup(r.Context(), playerID, seasons, category))
}

// GetCareerStats returns every season the player has, oldest first
func (h *Handler) GetCareerStats(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		h.fail(w, "Invalid player ID", err)
		return
	}
	category, err := store.ParseCategory(r.URL.Query().Get("group"))
	if err != nil {
		h.fail(w, "Invalid stat group", err)
		return
	}

	if _, err := h.players.GetOrFetchProfile(r.Context(), playerID); err != nil {
		h.fail(w, "Failed to fetch player", err)
		return
	}

	respondResult(w, h.players.GetCareerStats(r.Context(), playerID, category))
}

// GetCachedSeasons lists the stored season lines for a player without
// contacting the upstream.
func (h *Handler) GetCachedSeasons(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		h.fail(w, "Invalid player ID", err)
		return
	}
	category, err := store.ParseCategory(r.URL.Query().Get("group"))
	if err != nil {
		h.fail(w, "Invalid stat group", err)
		return
	}

	lines, err := h.players.CachedSeasons(r.Context(), playerID, category)
	if err != nil {
		h.fail(w, "Failed to list cached seasons", err)
		return
	}
	respondJSON(w, http.StatusOK, lines)
}

// GetGameLog returns game-by-game rows for one season
func (h *Handler) GetGameLog(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		h.fail(w, "Invalid player ID", err)
		return
	}
	season, err := h.season(r)
	if err != nil {
		h.fail(w, "Invalid season", err)
		return
	}
	category, err := store.ParseCategory(r.URL.Query().Get("group"))
	if err != nil {
		h.fail(w, "Invalid stat group", err)
		return
	}

	respondResult(w, h.players.GetGameLog(r.Context(), playerID, season, category))
}

// ComparePlayers lines up 2 or 3 players from ?ids=a,b[,c]
func (h *Handler) ComparePlayers(w http.ResponseWriter, r *http.Request) {
	ids, err := intList(r.URL.Query().Get("ids"))
	if err != nil {
		h.fail(w, "Invalid player IDs", err)
		return
	}
	season, err := h.season(r)
	if err != nil {
		h.fail(w, "Invalid season", err)
		return
	}

	out, err := h.players.ComparePlayers(r.Context(), ids, season)
	if err != nil {
		h.fail(w, "Failed to compare players", err)
		return
	}
	if out == nil {
		out = []service.PlayerComparison{}
	}
	respondJSON(w, http.StatusOK, out)
}

type reportResponse struct {
	PlayerID int     `json:"player_id"`
	Season   int     `json:"season"`
	Report   *string `json:"report"`
}

// GetReport returns the cached report, with report=null when none exists
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		h.fail(w, "Invalid player ID", err)
		return
	}
	season, err := h.season(r)
	if err != nil {
		h.fail(w, "Invalid season", err)
		return
	}

	rep, err := h.reports.GetCachedReport(r.Context(), playerID, season)
	if err != nil {
		h.fail(w, "Failed to read report", err)
		return
	}

	resp := reportResponse{PlayerID: playerID, Season: season}
	if rep != nil {
		resp.Report = &rep.Report
	}
	respondJSON(w, http.StatusOK, resp)
}

// ReportRequest is the body of POST /players/{id}/report.
type ReportRequest struct {
	Season   int    `json:"season"`
	Question string `json:"question"`
	Force    bool   `json:"force"`
}

// GenerateReport serves the cached report or generates a new one
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		h.fail(w, "Invalid player ID", err)
		return
	}

	var req ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.fail(w, "Invalid request body", apperr.Validation("decoding body: %v", err))
		return
	}
	if req.Season == 0 {
		req.Season = h.defaultSeason
	}

	text, err := h.reports.ReportForPlayer(r.Context(), playerID, req.Season, req.Question, req.Force)
	if err != nil {
		h.fail(w, "Failed to generate report", err)
		return
	}
	respondJSON(w, http.StatusOK, reportResponse{PlayerID: playerID, Season: req.Season, Report: &text})
}

// GetTodaysGames returns the schedule for ?date or today
func (h *Handler) GetTodaysGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.TodayGames(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.fail(w, "Failed to fetch today's games", err)
		return
	}
	if games == nil {
		games = []mlb.ScheduledGame{}
	}
	respondJSON(w, http.StatusOK, games)
}

// GetPitchLocations returns sampled pitch locations for a pitcher
func (h *Handler) GetPitchLocations(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathInt(r, "playerID")
	if err != nil {
		h.fail(w, "Invalid player ID", err)
		return
	}
	season, err := h.season(r)
	if err != nil {
		h.fail(w, "Invalid season", err)
		return
	}

	out, err := h.games.PitchLocations(r.Context(), playerID, season)
	if err != nil {
		h.fail(w, "Failed to fetch pitch locations", err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

// GetPitcherVsTeam returns each batter's career line against a pitcher
func (h *Handler) GetPitcherVsTeam(w http.ResponseWriter, r *http.Request) {
	pitcherID, err := pathInt(r, "pitcherID")
	if err != nil {
		h.fail(w, "Invalid pitcher ID", err)
		return
	}
	teamID, err := pathInt(r, "teamID")
	if err != nil {
		h.fail(w, "Invalid team ID", err)
		return
	}

	respondResult(w, h.games.OpponentSplits(r.Context(), pitcherID, teamID))
}

func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError && h.log != nil {
		h.log.WithError(err).WithField("cause", failureCause(err)).Error(message)
	}
	respondError(w, status, message, err)
}

func failureCause(err error) string {
	switch {
	case apperr.IsUpstream(err):
		return "upstream"
	case apperr.IsGeneration(err):
		return "generation"
	default:
		return "internal"
	}
}

func (h *Handler) season(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("season")
	if raw == "" {
		return h.defaultSeason, nil
	}
	return parseSeason(raw)
}

func (h *Handler) seasonList(r *http.Request) ([]int, error) {
	raw := r.URL.Query().Get("season")
	if raw == "" {
		return []int{h.defaultSeason}, nil
	}
	var out []int
	for _, part := range strings.Split(raw, ",") {
		s, err := parseSeason(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func parseSeason(raw string) (int, error) {
	s, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || s < 1876 || s > 2100 {
		return 0, apperr.Validation("invalid season %q", raw)
	}
	return s, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperr.Validation("invalid %s %q", name, raw)
	}
	return n, nil
}

func intList(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, apperr.Validation("invalid id %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// respondResult writes a list result with its status in ResultStatusHeader
func respondResult[T any](w http.ResponseWriter, res service.Result[T]) {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	w.Header().Set(ResultStatusHeader, string(res.Status))
	respondJSON(w, http.StatusOK, items)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
