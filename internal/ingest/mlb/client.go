// Package mlb is a thin client for the public MLB Stats API.
//
// Every call is a single GET with a bounded timeout. Responses are decoded
// generically and reduced to the small set of fields scout stores or serves.
// Nothing is retried; a circuit breaker fails calls fast while the upstream
// is unhealthy.
package mlb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/fortuna/scout/internal/apperr"
	"github.com/fortuna/scout/internal/logger"
	"github.com/fortuna/scout/internal/metrics"
)

const (
	// BaseURL is the public stats API host.
	BaseURL = "https://statsapi.mlb.com"

	defaultMetadataTimeout = 10 * time.Second
	defaultFeedTimeout     = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL         string
	MetadataTimeout time.Duration
	FeedTimeout     time.Duration
}

// Client handles MLB Stats API requests
type Client struct {
	baseURL  string
	metaHTTP *http.Client
	feedHTTP *http.Client
	breaker  *gobreaker.CircuitBreaker
	log      logrus.FieldLogger
	metrics  *metrics.Manager
}

// New creates a stats API client. log and m may be nil.
func New(cfg Config, log logrus.FieldLogger, m *metrics.Manager) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseURL
	}
	if cfg.MetadataTimeout <= 0 {
		cfg.MetadataTimeout = defaultMetadataTimeout
	}
	if cfg.FeedTimeout <= 0 {
		cfg.FeedTimeout = defaultFeedTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	log = log.WithField("component", "mlb-client")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mlb-stats-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Warn("Stats API circuit breaker state changed")
		},
	})

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		metaHTTP: &http.Client{Timeout: cfg.MetadataTimeout},
		feedHTTP: &http.Client{Timeout: cfg.FeedTimeout},
		breaker:  cb,
		log:      log,
		metrics:  m,
	}
}

type fetchResult struct {
	body     map[string]interface{}
	notFound bool
}

// fetch issues one GET and decodes a JSON object. A 404 is reported as
// apperr.ErrNotFound and does not count against the breaker.
func (c *Client) fetch(ctx context.Context, op string, hc *http.Client, path string, query url.Values) (map[string]interface{}, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	start := time.Now()
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, hc, endpoint)
	})
	elapsed := time.Since(start)

	if err != nil {
		if IsBreakerOpen(err) {
			c.metrics.RecordUpstream(op, metrics.OutcomeBreakerOpen, elapsed)
			c.log.WithFields(logrus.Fields{"op": op, "url": endpoint}).Debug("Stats API call rejected by open breaker")
			return nil, apperr.Upstream(op, err)
		}
		c.metrics.RecordUpstream(op, metrics.OutcomeError, elapsed)
		c.log.WithFields(logrus.Fields{"op": op, "url": endpoint, "error": err}).Warn("Stats API call failed")
		return nil, apperr.Upstream(op, err)
	}

	res := out.(*fetchResult)
	if res.notFound {
		c.metrics.RecordUpstream(op, metrics.OutcomeNotFound, elapsed)
		return nil, apperr.NotFound("%s %s", op, path)
	}

	c.metrics.RecordUpstream(op, metrics.OutcomeOK, elapsed)
	c.log.WithFields(logrus.Fields{"op": op, "duration_ms": elapsed.Milliseconds()}).Debug("Stats API call")
	return res.body, nil
}

func (c *Client) do(ctx context.Context, hc *http.Client, endpoint string) (*fetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &fetchResult{notFound: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &fetchResult{body: body}, nil
}

// IsBreakerOpen reports whether err came from an open or saturated circuit breaker.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
