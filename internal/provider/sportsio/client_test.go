package sportsio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mkowalczk/footsync/internal/domain/trackedplayer"
	"github.com/mkowalczk/footsync/internal/platform/logging"
	"github.com/mkowalczk/footsync/internal/platform/resilience"
	"github.com/mkowalczk/footsync/internal/provider"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{
		BaseURL:        srv.URL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		RatePerSecond:  1000,
		RateBurst:      1000,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	}, logging.NewNop())

	return client, srv
}

func TestFetchPlayerSeason_NormalizesCompetitionRows(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/players/881/statistics" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("expected api key header, got=%q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"player_id": 881,
			"season": 2025,
			"competitions": [
				{
					"category": "League",
					"name": "Premier League",
					"appearances": 30,
					"minutes_played": 2612,
					"goals": 5,
					"assists": 3,
					"yellow_cards": 4,
					"red_cards": 0,
					"fouls_drawn": 21
				},
				{
					"category": "cup",
					"name": "FA Cup",
					"appearances": 4,
					"goals": 0
				}
			]
		}`))
	})

	records, err := client.FetchPlayerSeason(context.Background(), "881", 2025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got=%d", len(records))
	}

	league := records[0]
	if league.Provider != provider.NameSportsIO {
		t.Fatalf("expected provider sportsio, got=%q", league.Provider)
	}
	if league.CompetitionCategory != "league" {
		t.Fatalf("expected lowercased category, got=%q", league.CompetitionCategory)
	}
	if league.Metrics.Goals == nil || *league.Metrics.Goals != 5 {
		t.Fatalf("expected goals=5, got=%v", league.Metrics.Goals)
	}
	if league.Metrics.RedCards == nil || *league.Metrics.RedCards != 0 {
		t.Fatal("expected red_cards present with zero, got absent")
	}
	if league.Metrics.ExpectedGoals != nil {
		t.Fatal("sportsio must never supply advanced metrics")
	}

	cup := records[1]
	if cup.Metrics.MinutesPlayed != nil {
		t.Fatal("expected omitted minutes_played to stay absent")
	}
	if cup.Metrics.Goals == nil || *cup.Metrics.Goals != 0 {
		t.Fatal("expected goals present with zero for cup row")
	}
}

func TestFetchPlayerSeason_ErrorClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, wantErr: provider.ErrNotFound},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: provider.ErrRateLimited},
		{name: "server error", status: http.StatusBadGateway, wantErr: provider.ErrTransient},
		{name: "bad json", status: http.StatusOK, body: `{"competitions": [`, wantErr: provider.ErrMalformed},
		{name: "row without identity", status: http.StatusOK, body: `{"season":2025,"competitions":[{"goals":1}]}`, wantErr: provider.ErrMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := client.FetchPlayerSeason(context.Background(), "1", 2025)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFetchPlayerSeason_CircuitOpensAfterTransientFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{
		BaseURL:       srv.URL,
		APIKey:        "test-key",
		RatePerSecond: 1000,
		RateBurst:     1000,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	}, logging.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := client.FetchPlayerSeason(context.Background(), "1", 2025); !errors.Is(err, provider.ErrTransient) {
			t.Fatalf("attempt %d: expected transient error, got %v", i, err)
		}
	}

	_, err := client.FetchPlayerSeason(context.Background(), "1", 2025)
	if !errors.Is(err, provider.ErrTransient) {
		t.Fatalf("expected transient error while circuit open, got %v", err)
	}
	if got := client.breaker.State(); got != resilience.CircuitStateOpen {
		t.Fatalf("expected open circuit, got=%s", got)
	}
}

func TestRefFor(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{BaseURL: "http://unused"}, logging.NewNop())

	if _, ok := client.RefFor(trackedplayer.Player{ID: "p1"}); ok {
		t.Fatal("expected unmapped player to have no ref")
	}

	id := int64(881)
	ref, ok := client.RefFor(trackedplayer.Player{ID: "p1", SportsIOID: &id})
	if !ok || ref != "881" {
		t.Fatalf("expected ref=881, got=%q ok=%t", ref, ok)
	}
}
