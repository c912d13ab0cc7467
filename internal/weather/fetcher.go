package weather

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/innatolkaneva/weather/internal/weather/types"
)

type Fetcher interface {
	FetchDay(ctx context.Context, city string, day time.Time) (types.Record, error)
}

// Collector walks every (city, day) pair of a window through a Fetcher,
// one request at a time, pausing for delay after each request.
type Collector struct {
	fetcher Fetcher
	delay   time.Duration
	logger  *zap.Logger
}

// NewCollector constructs a Collector.
func NewCollector(fetcher Fetcher, delay time.Duration, logger *zap.Logger) *Collector {
	return &Collector{
		fetcher: fetcher,
		delay:   delay,
		logger:  logger,
	}
}

// Collect fetches cities in the given order and, for each, every day of the
// window in ascending order. A failed fetch is logged and its pair is left
// out of the result. The only error returned is ctx's, together with the
// records gathered before cancellation.
func (c *Collector) Collect(ctx context.Context, cities []string, window types.Window) ([]types.Record, error) {
	days := window.Days()
	records := make([]types.Record, 0, len(cities)*len(days))

	for _, city := range cities {
		c.logger.Info("collecting data for city", zap.String("city", city))

		for _, day := range days {
			rec, err := c.fetcher.FetchDay(ctx, city, day)
			if err != nil {
				c.logger.Error("failed to get data",
					zap.String("city", city),
					zap.String("date", day.Format(types.DateLayout)),
					zap.Error(err),
				)
			} else {
				records = append(records, rec)
			}

			if err := wait(ctx, c.delay); err != nil {
				return records, err
			}
		}
	}

	c.logger.Info("collection finished",
		zap.Int("requested", len(cities)*len(days)),
		zap.Int("fetched", len(records)),
	)
	return records, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
