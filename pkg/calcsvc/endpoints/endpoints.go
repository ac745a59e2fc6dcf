package endpoints

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/ratelimit"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"
	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/cage1016/calcfn/pkg/calcsvc/service"
)

// Endpoints collects all of the endpoints that compose the calcsvc service. It's
// meant to be used as a helper struct, to collect all of the endpoints into a
// single parameter.
type Endpoints struct {
	CalculateEndpoint endpoint.Endpoint `json:""`
}

// DefaultRateLimit leaves the calculate endpoint unthrottled.
const DefaultRateLimit = rate.Inf

// New return a new instance of the endpoint that wraps the provided service.
// limit is the sustained number of calls per second; the burst matches it.
func New(svc service.CalcsvcService, logger log.Logger, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, limit rate.Limit) (ep Endpoints) {
	var calculateEndpoint endpoint.Endpoint
	{
		method := "calculate"
		calculateEndpoint = MakeCalculateEndpoint(svc)
		calculateEndpoint = ratelimit.NewErroringLimiter(rate.NewLimiter(limit, burst(limit)))(calculateEndpoint)
		calculateEndpoint = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: method}))(calculateEndpoint)
		calculateEndpoint = opentracing.TraceServer(otTracer, method)(calculateEndpoint)
		calculateEndpoint = zipkin.TraceEndpoint(zipkinTracer, method)(calculateEndpoint)
		calculateEndpoint = LoggingMiddleware(log.With(logger, "method", method))(calculateEndpoint)
		ep.CalculateEndpoint = calculateEndpoint
	}

	return ep
}

// ParseRateLimit reads a calls-per-second limit. "inf" (any case) disables
// throttling; anything else must be a positive number.
func ParseRateLimit(s string) (rate.Limit, error) {
	if strings.EqualFold(strings.TrimSpace(s), "inf") {
		return rate.Inf, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || f <= 0 {
		return 0, fmt.Errorf("invalid rate limit %q: want a positive number or inf", s)
	}
	if math.IsInf(f, 1) {
		return rate.Inf, nil
	}
	return rate.Limit(f), nil
}

func burst(limit rate.Limit) int {
	if limit == rate.Inf || limit > math.MaxInt32 {
		return math.MaxInt32
	}
	if b := int(math.Ceil(float64(limit))); b > 1 {
		return b
	}
	return 1
}

// MakeCalculateEndpoint returns an endpoint that invokes Calculate on the service.
// Validation and calculation failures are returned inside the response so
// they never count against the circuit breaker.
func MakeCalculateEndpoint(svc service.CalcsvcService) (ep endpoint.Endpoint) {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(CalculateRequest)
		op, err := req.validate()
		if err != nil {
			return CalculateResponse{Err: err}, nil
		}
		rs, err := svc.Calculate(ctx, req.A, req.B, op)
		if err != nil && !service.IsHandled(err) {
			return nil, err
		}
		return CalculateResponse{Rs: rs, Err: err}, nil
	}
}

// Calculate implements the service interface by calling CalculateEndpoint.
func (e Endpoints) Calculate(ctx context.Context, a float64, b float64, op service.Operation) (rs service.Result, err error) {
	resp, err := e.CalculateEndpoint(ctx, CalculateRequest{A: a, B: b, Op: op.String()})
	if err != nil {
		return
	}
	response := resp.(CalculateResponse)
	return response.Rs, response.Err
}
