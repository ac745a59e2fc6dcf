package service

import (
	"context"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

type loggingMiddleware struct {
	logger log.Logger     `json:""`
	next   CalcsvcService `json:""`
}

// LoggingMiddleware takes a logger as a dependency
// and returns a ServiceMiddleware.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next CalcsvcService) CalcsvcService {
		return loggingMiddleware{logger, next}
	}
}

func (lm loggingMiddleware) Calculate(ctx context.Context, a float64, b float64, op Operation) (rs Result, err error) {
	defer func(begin time.Time) {
		logger := level.Info(lm.logger)
		if IsHandled(err) {
			logger = level.Warn(lm.logger)
		} else if err != nil {
			logger = level.Error(lm.logger)
		}
		logger.Log("method", "Calculate", "a", a, "b", b, "op", op, "result", rs.Result, "err", err, "took", time.Since(begin))
	}(time.Now())

	return lm.next.Calculate(ctx, a, b, op)
}
