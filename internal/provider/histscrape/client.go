package histscrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"github.com/mkowalczk/footsync/internal/domain/statrecord"
	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
	"github.com/mkowalczk/footsync/internal/platform/logging"
	"github.com/mkowalczk/footsync/internal/platform/resilience"
	"github.com/mkowalczk/footsync/internal/provider"
)

const maxFeedBytes = 6 << 20

// ClientConfig carries the connection settings for the legacy scrape feed.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RateEvery      time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads the legacy provider's scrape feed. The feed is the JSON
// export of the historical scrape pipeline and is the only source for
// advanced derived metrics (xG, xA, npxG, progressive passes). The feed
// host throttles aggressively, so requests are paced well below the
// primary provider's rate.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	limiter        *rate.Limiter
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger
}

func NewClient(cfg ClientConfig, logger *logging.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	every := cfg.RateEvery
	if every <= 0 {
		every = 3 * time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		limiter:        rate.NewLimiter(rate.Every(every), 1),
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		logger:         logger,
	}
}

func (c *Client) Name() string {
	return provider.NameHistScrape
}

func (c *Client) RefFor(p trackedplayer.Player) (string, bool) {
	if p.HistScrapeSlug == nil || strings.TrimSpace(*p.HistScrapeSlug) == "" {
		return "", false
	}
	return strings.TrimSpace(*p.HistScrapeSlug), true
}

type feedResponse struct {
	Slug    string          `json:"slug"`
	Season  int             `json:"season"`
	Tables  []feedStatTable `json:"tables"`
	Partial bool            `json:"partial"`
}

type feedStatTable struct {
	CompetitionCategory string `json:"competition_category"`
	CompetitionName     string `json:"competition_name"`

	Matches *int `json:"matches"`
	Minutes *int `json:"minutes"`
	Goals   *int `json:"goals"`
	Assists *int `json:"assists"`

	ExpectedGoals     *float64 `json:"xg"`
	ExpectedAssists   *float64 `json:"xa"`
	NonPenaltyXG      *float64 `json:"npxg"`
	ProgressivePasses *int     `json:"progressive_passes"`
}

func (c *Client) FetchPlayerSeason(ctx context.Context, ref string, season int) ([]provider.Record, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("%w: empty histscrape slug", provider.ErrNotFound)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "histscrape circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: circuit open", provider.ErrTransient)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: wait for rate limiter: %v", provider.ErrTransient, err)
	}

	requestURL := fmt.Sprintf("%s/feed/players/%s/%d.json", c.baseURL, ref, season)

	decoded, err := c.fetchFeed(ctx, requestURL)
	if err != nil {
		c.recordCircuitResult(err)
		return nil, err
	}
	c.recordCircuitResult(nil)

	// A partial feed means the scrape pipeline aborted mid-page. Dropping
	// the whole payload keeps partially scraped tables out of the merge.
	if decoded.Partial {
		return nil, crerr.Wrapf(provider.ErrMalformed, "histscrape feed for %s is marked partial", ref)
	}

	out := make([]provider.Record, 0, len(decoded.Tables))
	for _, table := range decoded.Tables {
		category := strings.ToLower(strings.TrimSpace(table.CompetitionCategory))
		name := strings.TrimSpace(table.CompetitionName)
		if category == "" || name == "" {
			return nil, crerr.Wrapf(provider.ErrMalformed, "histscrape table missing competition identity for %s", ref)
		}

		out = append(out, provider.Record{
			Provider:            provider.NameHistScrape,
			Season:              decoded.Season,
			CompetitionCategory: category,
			CompetitionName:     name,
			Metrics: statrecord.Metrics{
				Appearances:       table.Matches,
				MinutesPlayed:     table.Minutes,
				Goals:             table.Goals,
				Assists:           table.Assists,
				ExpectedGoals:     table.ExpectedGoals,
				ExpectedAssists:   table.ExpectedAssists,
				NonPenaltyXG:      table.NonPenaltyXG,
				ProgressivePasses: table.ProgressivePasses,
			},
		})
	}

	return out, nil
}

func (c *Client) fetchFeed(ctx context.Context, requestURL string) (feedResponse, error) {
	var decoded feedResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return decoded, crerr.Wrap(err, "create histscrape request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decoded, fmt.Errorf("%w: call histscrape: %v", provider.ErrTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return decoded, fmt.Errorf("%w: read histscrape response: %v", provider.ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return decoded, fmt.Errorf("%w: histscrape status=404", provider.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return decoded, fmt.Errorf("%w: histscrape status=429", provider.ErrRateLimited)
	case resp.StatusCode >= http.StatusInternalServerError:
		return decoded, fmt.Errorf("%w: histscrape status=%d", provider.ErrTransient, resp.StatusCode)
	case resp.StatusCode/100 != 2:
		return decoded, crerr.Wrapf(provider.ErrMalformed, "histscrape unexpected status=%d", resp.StatusCode)
	}

	if err := sonic.Unmarshal(body, &decoded); err != nil {
		return decoded, crerr.Wrapf(provider.ErrMalformed, "decode histscrape feed: %v", err)
	}

	return decoded, nil
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err == nil {
		c.breaker.RecordSuccess()
		return
	}
	if crerr.Is(err, provider.ErrTransient) || crerr.Is(err, provider.ErrRateLimited) {
		c.breaker.RecordFailure()
		return
	}
	c.breaker.RecordSuccess()
}
