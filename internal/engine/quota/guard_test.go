package quota

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mkowalczk/footsync/internal/infrastructure/repository/memory"
	"github.com/mkowalczk/footsync/internal/notify"
	"github.com/mkowalczk/footsync/internal/platform/logging"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) byType(eventType string) []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]notify.Event, 0)
	for _, e := range n.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestGuard(ceiling, softDaily int64) (*Guard, *recordingNotifier) {
	notifier := &recordingNotifier{}
	guard := NewGuard(
		Config{MonthlyCeiling: ceiling, SoftDailyLimit: softDaily},
		memory.NewUsageRepository(),
		notifier,
		logging.NewNop(),
	)
	return guard, notifier
}

func TestTryReserve_CeilingOfOneHundred(t *testing.T) {
	t.Parallel()

	guard, _ := newTestGuard(100, 0)
	ctx := context.Background()

	for i := int64(1); i <= 100; i++ {
		reservation, err := guard.TryReserve(ctx)
		if err != nil {
			t.Fatalf("reservation %d: unexpected error: %v", i, err)
		}
		if reservation.MonthUsed != i {
			t.Fatalf("reservation %d: expected month_used=%d, got=%d", i, i, reservation.MonthUsed)
		}
	}

	_, err := guard.TryReserve(ctx)
	if !errors.Is(err, ErrMonthlyQuotaExhausted) {
		t.Fatalf("expected ErrMonthlyQuotaExhausted on 101st attempt, got %v", err)
	}

	counter, err := guard.CurrentUsage(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter.Used != 100 {
		t.Fatalf("denied attempt must not increment: expected used=100, got=%d", counter.Used)
	}
}

func TestTryReserve_ConcurrentCallersNeverOverrun(t *testing.T) {
	t.Parallel()

	const ceiling = 50
	const callers = 200

	guard, _ := newTestGuard(ceiling, 0)
	ctx := context.Background()

	var allowed atomic.Int32
	var denied atomic.Int32
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := guard.TryReserve(ctx); err != nil {
				denied.Add(1)
				return
			}
			allowed.Add(1)
		}()
	}
	close(start)
	wg.Wait()

	if got := allowed.Load(); got != ceiling {
		t.Fatalf("expected exactly %d allowed reservations, got=%d", ceiling, got)
	}
	if got := denied.Load(); got != callers-ceiling {
		t.Fatalf("expected %d denials, got=%d", callers-ceiling, got)
	}
}

func TestTryReserve_ThresholdAlertsFireOncePerMonth(t *testing.T) {
	t.Parallel()

	guard, notifier := newTestGuard(10, 0)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := guard.TryReserve(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	alerts := notifier.byType(notify.EventQuotaThreshold)
	if len(alerts) != 2 {
		t.Fatalf("expected one 80%% and one 90%% alert, got %d alerts", len(alerts))
	}
	if alerts[0].Fields["threshold_pct"] != int64(80) {
		t.Fatalf("expected first alert at 80%%, got %v", alerts[0].Fields["threshold_pct"])
	}
	if alerts[1].Fields["threshold_pct"] != int64(90) {
		t.Fatalf("expected second alert at 90%%, got %v", alerts[1].Fields["threshold_pct"])
	}

	// Exhaustion notifies once as well, not per denied attempt.
	for i := 0; i < 3; i++ {
		if _, err := guard.TryReserve(ctx); !errors.Is(err, ErrMonthlyQuotaExhausted) {
			t.Fatalf("expected exhaustion, got %v", err)
		}
	}
	if got := len(notifier.byType(notify.EventQuotaExhausted)); got != 1 {
		t.Fatalf("expected one exhaustion event, got=%d", got)
	}
}

func TestTryReserve_SoftDailyAdvisoryIsNonFatal(t *testing.T) {
	t.Parallel()

	guard, _ := newTestGuard(1000, 2)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		reservation, err := guard.TryReserve(ctx)
		if err != nil {
			t.Fatalf("attempt %d: soft limit must not deny: %v", i, err)
		}
		exceeded := i > 2
		if reservation.SoftDailyExceeded != exceeded {
			t.Fatalf("attempt %d: expected soft_daily_exceeded=%t", i, exceeded)
		}
	}
}

func TestTryReserve_MonthRollsOver(t *testing.T) {
	t.Parallel()

	guard, _ := newTestGuard(1, 0)
	current := time.Date(2026, time.August, 31, 23, 0, 0, 0, time.UTC)
	guard.now = func() time.Time { return current }
	ctx := context.Background()

	if _, err := guard.TryReserve(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := guard.TryReserve(ctx); !errors.Is(err, ErrMonthlyQuotaExhausted) {
		t.Fatalf("expected exhaustion in same month, got %v", err)
	}

	current = time.Date(2026, time.September, 1, 0, 5, 0, 0, time.UTC)
	reservation, err := guard.TryReserve(ctx)
	if err != nil {
		t.Fatalf("expected fresh month to allow, got %v", err)
	}
	if reservation.MonthUsed != 1 {
		t.Fatalf("expected month counter reset to 1, got=%d", reservation.MonthUsed)
	}
}
