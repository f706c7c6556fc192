package usage

import (
	"context"
	"errors"
)

var ErrCeilingReached = errors.New("monthly usage ceiling reached")

// Repository provides atomic read-increment on usage counters.
//
// TryIncrement must serialize concurrent callers: it increments the month
// and day counters together and returns ErrCeilingReached, without
// incrementing, once the month counter is at ceiling. Lost updates here
// translate directly into quota overruns against the provider.
type Repository interface {
	TryIncrement(ctx context.Context, month, day string, ceiling int64) (Stamp, error)
	CurrentMonth(ctx context.Context, month string) (Counter, error)
}
