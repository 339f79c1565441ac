package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/scout/internal/apperr"
	"github.com/fortuna/scout/internal/ingest/mlb"
	"github.com/fortuna/scout/internal/metrics"
	"github.com/fortuna/scout/internal/service"
	"github.com/fortuna/scout/internal/store"
)

type MockPlayers struct{ mock.Mock }

func (m *MockPlayers) SearchPlayers(ctx context.Context, q string) (service.Result[mlb.PersonSummary], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(service.Result[mlb.PersonSummary]), args.Error(1)
}

func (m *MockPlayers) GetOrFetchProfile(ctx context.Context, id int) (*store.PlayerProfile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*store.PlayerProfile)
	return p, args.Error(1)
}

func (m *MockPlayers) RefreshProfile(ctx context.Context, id int) (*store.PlayerProfile, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*store.PlayerProfile)
	return p, args.Error(1)
}

func (m *MockPlayers) GetSeasonStats(ctx context.Context, id int, seasons []int, c store.Category) service.Result[store.SeasonStatLine] {
	return m.Called(ctx, id, seasons, c).Get(0).(service.Result[store.SeasonStatLine])
}

func (m *MockPlayers) RefreshSeasonStats(ctx context.Context, id int, seasons []int, c store.Category) service.Result[store.SeasonStatLine] {
	return m.Called(ctx, id, seasons, c).Get(0).(service.Result[store.SeasonStatLine])
}

func (m *MockPlayers) GetCareerStats(ctx context.Context, id int, c store.Category) service.Result[store.SeasonStatLine] {
	return m.Called(ctx, id, c).Get(0).(service.Result[store.SeasonStatLine])
}

func (m *MockPlayers) CachedSeasons(ctx context.Context, id int, c store.Category) ([]store.SeasonStatLine, error) {
	args := m.Called(ctx, id, c)
	lines, _ := args.Get(0).([]store.SeasonStatLine)
	return lines, args.Error(1)
}

func (m *MockPlayers) GetGameLog(ctx context.Context, id, season int, c store.Category) service.Result[mlb.StatSplit] {
	return m.Called(ctx, id, season, c).Get(0).(service.Result[mlb.StatSplit])
}

func (m *MockPlayers) ComparePlayers(ctx context.Context, ids []int, season int) ([]service.PlayerComparison, error) {
	args := m.Called(ctx, ids, season)
	out, _ := args.Get(0).([]service.PlayerComparison)
	return out, args.Error(1)
}

type MockReports struct{ mock.Mock }

func (m *MockReports) GetCachedReport(ctx context.Context, id, season int) (*store.NarrativeReport, error) {
	args := m.Called(ctx, id, season)
	rep, _ := args.Get(0).(*store.NarrativeReport)
	return rep, args.Error(1)
}

func (m *MockReports) ReportForPlayer(ctx context.Context, id, season int, question string, force bool) (string, error) {
	args := m.Called(ctx, id, season, question, force)
	return args.String(0), args.Error(1)
}

type MockGames struct{ mock.Mock }

func (m *MockGames) TodayGames(ctx context.Context, date string) ([]mlb.ScheduledGame, error) {
	args := m.Called(ctx, date)
	games, _ := args.Get(0).([]mlb.ScheduledGame)
	return games, args.Error(1)
}

func (m *MockGames) PitchLocations(ctx context.Context, id, season int) (*service.PitchLocations, error) {
	args := m.Called(ctx, id, season)
	out, _ := args.Get(0).(*service.PitchLocations)
	return out, args.Error(1)
}

func (m *MockGames) OpponentSplits(ctx context.Context, pitcherID, teamID int) service.Result[service.OpponentSplit] {
	return m.Called(ctx, pitcherID, teamID).Get(0).(service.Result[service.OpponentSplit])
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

type testServer struct {
	players *MockPlayers
	reports *MockReports
	games   *MockGames
	metrics *metrics.Manager
	logs    *logtest.Hook
	handler http.Handler
}

func newTestServer(t *testing.T, health HealthChecker) *testServer {
	t.Helper()
	log, hook := logtest.NewNullLogger()

	ts := &testServer{
		players: &MockPlayers{},
		reports: &MockReports{},
		games:   &MockGames{},
		metrics: metrics.NewManager(),
		logs:    hook,
	}
	h := NewHandler(ts.players, ts.reports, ts.games, health, 2024, log)
	ts.handler = NewServer(":0", h, ts.metrics, log).Handler()
	return ts
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, fakeHealth{})
	rec := ts.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	ts = newTestServer(t, fakeHealth{err: errors.New("connection refused")})
	rec = ts.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestGetPlayer(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.players.On("GetOrFetchProfile", mock.Anything, 660271).
		Return(&store.PlayerProfile{PlayerID: 660271, FullName: "Shohei Ohtani"}, nil)

	rec := ts.do(http.MethodGet, "/api/v1/players/660271", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var p store.PlayerProfile
	decode(t, rec, &p)
	assert.Equal(t, "Shohei Ohtani", p.FullName)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperr.NotFound("player %d", 1), http.StatusNotFound},
		{"validation", apperr.Validation("bad"), http.StatusBadRequest},
		{"upstream", apperr.Upstream("person", errors.New("timeout")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			ts.players.On("GetOrFetchProfile", mock.Anything, 1).Return(nil, tt.err)

			rec := ts.do(http.MethodGet, "/api/v1/players/1", "")
			assert.Equal(t, tt.want, rec.Code)

			var body map[string]interface{}
			decode(t, rec, &body)
			assert.Equal(t, float64(tt.want), body["status"])
			assert.Equal(t, tt.err.Error(), body["details"])
		})
	}
}

func TestRefreshPlayer(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.players.On("RefreshProfile", mock.Anything, 5).Return(&store.PlayerProfile{PlayerID: 5}, nil).Once()

	rec := ts.do(http.MethodPost, "/api/v1/players/5", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	ts.players.AssertExpectations(t)
}

func TestSearchRouteIsNotShadowed(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.players.On("SearchPlayers", mock.Anything, "judge").Return(service.Result[mlb.PersonSummary]{
		Items:  []mlb.PersonSummary{{PlayerID: 592450, FullName: "Aaron Judge"}},
		Status: service.StatusOK,
	}, nil)

	rec := ts.do(http.MethodGet, "/api/v1/players/search?q=judge", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Header().Get(ResultStatusHeader))

	var out []mlb.PersonSummary
	decode(t, rec, &out)
	require.Len(t, out, 1)
	assert.Equal(t, 592450, out[0].PlayerID)
}

func TestFailedListStillReturnsEmptyArray(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.players.On("GetOrFetchProfile", mock.Anything, 7).Return(&store.PlayerProfile{PlayerID: 7}, nil)
	ts.players.On("GetCareerStats", mock.Anything, 7, store.Pitching).Return(service.Result[store.SeasonStatLine]{
		Status: service.StatusFailed,
		Err:    errors.New("timeout"),
	})

	rec := ts.do(http.MethodGet, "/api/v1/players/7/stats/career?group=pitching", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "failed", rec.Header().Get(ResultStatusHeader))
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSeasonStatsParsesSeasons(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.players.On("GetOrFetchProfile", mock.Anything, 1).Return(&store.PlayerProfile{PlayerID: 1}, nil)
	ts.players.On("GetSeasonStats", mock.Anything, 1, []int{2022, 2023}, store.Hitting).Return(service.Result[store.SeasonStatLine]{
		Items:  []store.SeasonStatLine{{PlayerID: 1, Season: 2022}, {PlayerID: 1, Season: 2023}},
		Status: service.StatusOK,
	})
	ts.players.On("RefreshSeasonStats", mock.Anything, 1, []int{2024}, store.Fielding).Return(service.Result[store.SeasonStatLine]{
		Status: service.StatusEmpty,
	})

	rec := ts.do(http.MethodGet, "/api/v1/players/1/stats/season?season=2022,2023", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var lines []store.SeasonStatLine
	decode(t, rec, &lines)
	assert.Len(t, lines, 2)

	rec = ts.do(http.MethodPost, "/api/v1/players/1/stats/season?group=fielding", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "empty", rec.Header().Get(ResultStatusHeader))

	rec = ts.do(http.MethodGet, "/api/v1/players/1/stats/season?group=running", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/players/1/stats/season?season=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComparePlayers(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.players.On("ComparePlayers", mock.Anything, []int{592450, 660271}, 2023).
		Return([]service.PlayerComparison{{Season: 2023}, {Season: 2023}}, nil)
	ts.players.On("ComparePlayers", mock.Anything, []int{1}, 2024).
		Return(nil, apperr.Validation("compare needs 2 or 3 players, got 1"))

	rec := ts.do(http.MethodGet, "/api/v1/players/compare?ids=592450,660271&season=2023", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/players/compare?ids=1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/players/compare?ids=1,x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetReport(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.reports.On("GetCachedReport", mock.Anything, 592450, 2024).Return(nil, nil)
	ts.reports.On("GetCachedReport", mock.Anything, 592450, 2023).
		Return(&store.NarrativeReport{PlayerID: 592450, Season: 2023, Report: "stored"}, nil)

	rec := ts.do(http.MethodGet, "/api/v1/players/592450/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"player_id":592450,"season":2024,"report":null}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/v1/players/592450/report?season=2023", "")
	assert.JSONEq(t, `{"player_id":592450,"season":2023,"report":"stored"}`, rec.Body.String())
}

func TestGenerateReport(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.reports.On("ReportForPlayer", mock.Anything, 592450, 2023, "Can Judge hit lefties?", true).Return("fresh", nil).Once()
	ts.reports.On("ReportForPlayer", mock.Anything, 592450, 2024, "", false).Return("", &apperr.GenerationError{Err: errors.New("overloaded")}).Once()

	rec := ts.do(http.MethodPost, "/api/v1/players/592450/report", `{"season":2023,"question":"Can Judge hit lefties?","force":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"player_id":592450,"season":2023,"report":"fresh"}`, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/v1/players/592450/report", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "overloaded")

	rec = ts.do(http.MethodPost, "/api/v1/players/592450/report", `{"season":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.reports.AssertExpectations(t)
}

func TestGames(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.games.On("TodayGames", mock.Anything, "").Return(nil, nil)
	ts.games.On("PitchLocations", mock.Anything, 543037, 2023).
		Return(&service.PitchLocations{Pitches: []mlb.PitchLocation{{PitchName: "Slider"}}, TotalPitches: 1, GamesSampled: 1}, nil)
	ts.games.On("OpponentSplits", mock.Anything, 543037, 117).Return(service.Result[service.OpponentSplit]{
		Items:  []service.OpponentSplit{{PlayerID: 2, AtBats: 21}},
		Status: service.StatusOK,
	})

	rec := ts.do(http.MethodGet, "/api/v1/games/today", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/v1/games/pitch-locations/543037?season=2023", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var locs service.PitchLocations
	decode(t, rec, &locs)
	assert.Equal(t, 1, locs.TotalPitches)

	rec = ts.do(http.MethodGet, "/api/v1/games/pitcher-vs-team/543037/117", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var splits []service.OpponentSplit
	decode(t, rec, &splits)
	require.Len(t, splits, 1)
	assert.Equal(t, 21, splits[0].AtBats)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodOptions, "/api/v1/players/1", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryAndMetrics(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.players.On("GetOrFetchProfile", mock.Anything, 13).Panic("boom")

	rec := ts.do(http.MethodGet, "/api/v1/players/13", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = ts.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `scout_http_requests_total{method="GET",route="/api/v1/players/{playerID}",status="500"} 1`)
}

func TestNonNumericIDsReturnJSONBadRequest(t *testing.T) {
	targets := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/api/v1/players/abc"},
		{http.MethodPost, "/api/v1/players/abc"},
		{http.MethodGet, "/api/v1/players/abc/stats/season"},
		{http.MethodGet, "/api/v1/players/-4/stats/career"},
		{http.MethodGet, "/api/v1/players/abc/report"},
		{http.MethodPost, "/api/v1/players/abc/report"},
		{http.MethodGet, "/api/v1/games/pitch-locations/x1"},
		{http.MethodGet, "/api/v1/games/pitcher-vs-team/12/nyy"},
	}
	for _, tt := range targets {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			ts := newTestServer(t, nil)

			rec := ts.do(tt.method, tt.target, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			decode(t, rec, &body)
			assert.Equal(t, float64(http.StatusBadRequest), body["status"])
			assert.NotEmpty(t, body["error"])
			ts.players.AssertNotCalled(t, "GetOrFetchProfile", mock.Anything, mock.Anything)
		})
	}
}

func TestServerErrorsLogCause(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"upstream", apperr.Upstream("person", errors.New("timeout")), "upstream"},
		{"generation", fmt.Errorf("report: %w", &apperr.GenerationError{Err: errors.New("overloaded")}), "generation"},
		{"internal", errors.New("disk full"), "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			ts.players.On("GetOrFetchProfile", mock.Anything, 3).Return(nil, tt.err)

			rec := ts.do(http.MethodGet, "/api/v1/players/3", "")
			require.Equal(t, http.StatusInternalServerError, rec.Code)

			var logged *logrus.Entry
			for _, e := range ts.logs.AllEntries() {
				if e.Level == logrus.ErrorLevel {
					logged = e
				}
			}
			require.NotNil(t, logged)
			assert.Equal(t, "Failed to fetch player", logged.Message)
			assert.Equal(t, tt.want, logged.Data["cause"])
		})
	}
}

func TestClientErrorsAreNotLogged(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.players.On("GetOrFetchProfile", mock.Anything, 3).Return(nil, apperr.NotFound("player %d", 3))

	rec := ts.do(http.MethodGet, "/api/v1/players/3", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	for _, e := range ts.logs.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, e.Level)
	}
}

func TestGetCachedSeasons(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.players.On("CachedSeasons", mock.Anything, 592450, store.Hitting).Return([]store.SeasonStatLine{
		{PlayerID: 592450, Season: 2023, Category: store.Hitting},
		{PlayerID: 592450, Season: 2024, Category: store.Hitting},
	}, nil)
	ts.players.On("CachedSeasons", mock.Anything, 1, store.Pitching).Return([]store.SeasonStatLine{}, nil)

	rec := ts.do(http.MethodGet, "/api/v1/players/592450/stats/cached", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var lines []store.SeasonStatLine
	decode(t, rec, &lines)
	require.Len(t, lines, 2)
	assert.Equal(t, 2023, lines[0].Season)

	rec = ts.do(http.MethodGet, "/api/v1/players/1/stats/cached?group=pitching", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/v1/players/1/stats/cached?group=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.players.AssertExpectations(t)
}
