package service

import (
	"context"
	"math"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics"
)

// Middleware describes a service (as opposed to endpoint) middleware.
type Middleware func(CalcsvcService) CalcsvcService

// CalcsvcService evaluates a single binary arithmetic operation.
type CalcsvcService interface {
	Calculate(ctx context.Context, a float64, b float64, op Operation) (rs Result, err error)
}

// Result is the outcome of a successful calculation.
type Result struct {
	Result        float64 `json:"result"`
	Operation     string  `json:"operation"`
	Operand1      float64 `json:"operand1"`
	Operand2      float64 `json:"operand2"`
	ExecutionTime int64   `json:"executionTime"`
}

// the concrete implementation of service interface
type stubCalcsvcService struct {
	logger log.Logger
}

// New return a new instance of the service.
// If you want to add service middleware this is the place to put them.
func New(logger log.Logger, requestCount metrics.Counter, requestLatency metrics.Histogram) (s CalcsvcService) {
	var svc CalcsvcService
	{
		svc = &stubCalcsvcService{logger: logger}
		svc = LoggingMiddleware(logger)(svc)
		svc = InstrumentingMiddleware(requestCount, requestLatency)(svc)
	}
	return svc
}

// Implement the business logic of Calculate
func (ca *stubCalcsvcService) Calculate(ctx context.Context, a float64, b float64, op Operation) (rs Result, err error) {
	begin := time.Now()
	v, err := op.Apply(a, b)
	if err != nil {
		if err == ErrDivisionByZero {
			level.Warn(ca.logger).Log("msg", "division by zero attempt", "a", a, "b", b)
		}
		return Result{}, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Result{}, ErrNumericOverflow
	}

	return Result{
		Result:        v,
		Operation:     op.String(),
		Operand1:      a,
		Operand2:      b,
		ExecutionTime: time.Since(begin).Milliseconds(),
	}, nil
}
