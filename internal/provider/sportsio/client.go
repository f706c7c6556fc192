package sportsio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
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

const maxResponseBytes = 6 << 20

// ClientConfig carries the connection settings for the primary provider.
type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	RatePerSecond  float64
	RateBurst      int
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches player season statistics from the sportsio REST API. It
// performs exactly one outbound attempt per call; retries belong to the
// sync service so each attempt reserves quota.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	limiter        *rate.Limiter
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	logger         *logging.Logger
}

func NewClient(cfg ClientConfig, logger *logging.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	ratePerSecond := cfg.RatePerSecond
	if ratePerSecond <= 0 {
		ratePerSecond = 2
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:         strings.TrimSpace(cfg.APIKey),
		limiter:        rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
		logger:         logger,
	}
}

func (c *Client) Name() string {
	return provider.NameSportsIO
}

func (c *Client) RefFor(p trackedplayer.Player) (string, bool) {
	if p.SportsIOID == nil || *p.SportsIOID <= 0 {
		return "", false
	}
	return strconv.FormatInt(*p.SportsIOID, 10), true
}

type playerSeasonResponse struct {
	PlayerID     int64                    `json:"player_id"`
	Season       int                      `json:"season"`
	Competitions []competitionStatsRecord `json:"competitions"`
}

type competitionStatsRecord struct {
	Category string `json:"category"`
	Name     string `json:"name"`

	Appearances   *int `json:"appearances"`
	MinutesPlayed *int `json:"minutes_played"`
	Goals         *int `json:"goals"`
	Assists       *int `json:"assists"`

	YellowCards *int `json:"yellow_cards"`
	RedCards    *int `json:"red_cards"`
	FoulsDrawn  *int `json:"fouls_drawn"`

	Saves         *int `json:"saves"`
	CleanSheets   *int `json:"clean_sheets"`
	GoalsConceded *int `json:"goals_conceded"`
}

func (c *Client) FetchPlayerSeason(ctx context.Context, ref string, season int) ([]provider.Record, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("%w: empty sportsio player ref", provider.ErrNotFound)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sportsio circuit breaker rejected request", "state", c.breaker.State())
			return nil, fmt.Errorf("%w: circuit open", provider.ErrTransient)
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: wait for rate limiter: %v", provider.ErrTransient, err)
	}

	requestURL := fmt.Sprintf("%s/v1/players/%s/statistics?season=%d", c.baseURL, ref, season)

	var decoded playerSeasonResponse
	if err := c.doJSON(ctx, requestURL, &decoded); err != nil {
		c.recordCircuitResult(err)
		return nil, err
	}
	c.recordCircuitResult(nil)

	out := make([]provider.Record, 0, len(decoded.Competitions))
	for _, row := range decoded.Competitions {
		category := strings.ToLower(strings.TrimSpace(row.Category))
		name := strings.TrimSpace(row.Name)
		if category == "" || name == "" {
			return nil, crerr.Wrapf(provider.ErrMalformed, "sportsio row missing competition identity for player %s", ref)
		}

		out = append(out, provider.Record{
			Provider:            provider.NameSportsIO,
			Season:              decoded.Season,
			CompetitionCategory: category,
			CompetitionName:     name,
			Metrics: statrecord.Metrics{
				Appearances:   row.Appearances,
				MinutesPlayed: row.MinutesPlayed,
				Goals:         row.Goals,
				Assists:       row.Assists,
				YellowCards:   row.YellowCards,
				RedCards:      row.RedCards,
				FoulsDrawn:    row.FoulsDrawn,
				Saves:         row.Saves,
				CleanSheets:   row.CleanSheets,
				GoalsConceded: row.GoalsConceded,
			},
		})
	}

	return out, nil
}

func (c *Client) doJSON(ctx context.Context, requestURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return crerr.Wrap(err, "create sportsio request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: call sportsio: %v", provider.ErrTransient, c.sanitize(err.Error()))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read sportsio response: %v", provider.ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: sportsio status=404", provider.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: sportsio status=429", provider.ErrRateLimited)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: sportsio status=%d body=%s", provider.ErrTransient, resp.StatusCode, c.sanitize(truncate(string(body), 512)))
	case resp.StatusCode/100 != 2:
		return crerr.Wrapf(provider.ErrMalformed, "sportsio unexpected status=%d body=%s", resp.StatusCode, c.sanitize(truncate(string(body), 512)))
	}

	if err := sonic.Unmarshal(body, target); err != nil {
		return crerr.Wrapf(provider.ErrMalformed, "decode sportsio response: %v", err)
	}

	return nil
}

var apiKeyPattern = regexp.MustCompile(`(?i)(x-api-key[=:]\s*)[^\s&"]+`)

func (c *Client) sanitize(text string) string {
	out := apiKeyPattern.ReplaceAllString(text, "${1}***")
	if c.apiKey != "" {
		out = strings.ReplaceAll(out, c.apiKey, "***")
	}
	return out
}

func truncate(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
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
