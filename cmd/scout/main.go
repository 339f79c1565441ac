package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fortuna/scout/internal/api/rest"
	"github.com/fortuna/scout/internal/config"
	"github.com/fortuna/scout/internal/ingest/mlb"
	"github.com/fortuna/scout/internal/logger"
	"github.com/fortuna/scout/internal/metrics"
	"github.com/fortuna/scout/internal/narrative"
	"github.com/fortuna/scout/internal/publisher"
	"github.com/fortuna/scout/internal/service"
	"github.com/fortuna/scout/internal/store"
)

const (
	serviceName    = "scout"
	serviceVersion = "1.0.0"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          serviceName,
		Short:        "scout - MLB player stats cache and scouting reports",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), playerCmd(), reportCmd())
	return root
}

// app holds everything built from configuration.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	metrics *metrics.Manager
	db      *store.Database
	pub     publisher.Publisher
	closers []func() error

	players *service.PlayerService
	reports *service.ReportService
	games   *service.GameService
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.Init(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())
	a := &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.NewManager(
			metrics.WithNamespace(cfg.MetricsNamespace),
			metrics.WithHistogramBuckets(cfg.LatencyBuckets),
		),
	}

	db, err := store.NewDatabase(cfg.DatabaseURL, logger.WithComponent("store"))
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	if err := db.RunMigrations(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	a.pub = publisher.Nop{}
	if cfg.RedisURL != "" {
		rp, err := publisher.NewRedisPublisher(cfg.RedisURL, log)
		if err != nil {
			// Events are optional; the service runs without them.
			log.WithError(err).Warn("Redis unavailable, events disabled")
		} else {
			a.pub = rp
			a.closers = append(a.closers, rp.Close)
		}
	}

	api := mlb.New(mlb.Config{
		BaseURL:         cfg.MLBBaseURL,
		MetadataTimeout: cfg.MetadataTimeout,
		FeedTimeout:     cfg.FeedTimeout,
	}, log, a.metrics)

	var gen narrative.Generator
	if cfg.AnthropicAPIKey != "" {
		ag, err := narrative.NewAnthropicGenerator(narrative.AnthropicConfig{
			APIKey:  cfg.AnthropicAPIKey,
			BaseURL: cfg.AnthropicBaseURL,
			Model:   cfg.AnthropicModel,
			Timeout: cfg.GenerationTimeout,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("creating report generator: %w", err)
		}
		gen = ag
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, report generation disabled")
	}

	deps := service.NewDeps(db, api, gen, a.pub, a.metrics, log)
	a.players = service.NewPlayerService(deps)
	a.reports = service.NewReportService(deps, a.players, cfg.ReportMaxTokens)
	a.games = service.NewGameService(deps, a.players)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Warn("Close failed")
		}
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			a.log.WithFields(logrus.Fields{"version": serviceVersion, "addr": a.cfg.Addr}).Infof("Starting %s", serviceName)

			handler := rest.NewHandler(a.players, a.reports, a.games, a.db, a.cfg.DefaultSeason, logger.WithComponent("rest"))
			srv := rest.NewServer(a.cfg.Addr, handler, a.metrics, logger.WithComponent("http"))

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.log.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func playerCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "player <id>",
		Short: "Print a player profile, fetching it if not cached",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var p *store.PlayerProfile
			if refresh {
				p, err = a.players.RefreshProfile(cmd.Context(), id)
			} else {
				p, err = a.players.GetOrFetchProfile(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-fetch from the MLB API and overwrite the cache")
	return cmd
}

func reportCmd() *cobra.Command {
	var (
		season   int
		question string
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Print a scouting report for a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if season == 0 {
				season = a.cfg.DefaultSeason
			}
			text, err := a.reports.ReportForPlayer(cmd.Context(), id, season, question, force)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season year (defaults to the configured season)")
	cmd.Flags().StringVar(&question, "question", "", "Ask a specific question; the answer is not cached")
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate even when a cached report exists")
	return cmd
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid player id %q", raw)
	}
	return id, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
