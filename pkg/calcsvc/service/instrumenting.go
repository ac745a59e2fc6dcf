package service

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"
)

type instrumentingMiddleware struct {
	requestCount   metrics.Counter   `json:""`
	requestLatency metrics.Histogram `json:""`
	next           CalcsvcService    `json:""`
}

// InstrumentingMiddleware records the number of calculations and their
// latency, labelled by operation and error kind.
func InstrumentingMiddleware(requestCount metrics.Counter, requestLatency metrics.Histogram) Middleware {
	return func(next CalcsvcService) CalcsvcService {
		return instrumentingMiddleware{requestCount, requestLatency, next}
	}
}

func (im instrumentingMiddleware) Calculate(ctx context.Context, a float64, b float64, op Operation) (rs Result, err error) {
	defer func(begin time.Time) {
		lvs := []string{"method", "Calculate", "operation", op.String(), "error", errorLabel(err)}
		im.requestCount.With(lvs...).Add(1)
		im.requestLatency.With(lvs...).Observe(time.Since(begin).Seconds())
	}(time.Now())

	return im.next.Calculate(ctx, a, b, op)
}

func errorLabel(err error) string {
	if err == nil {
		return "none"
	}
	return KindOf(err).String()
}
