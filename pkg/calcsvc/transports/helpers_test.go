package transports_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/discard"
	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	"github.com/openzipkin/zipkin-go/reporter"
	"github.com/stretchr/testify/require"

	"github.com/cage1016/calcfn/pkg/calcsvc/endpoints"
	"github.com/cage1016/calcfn/pkg/calcsvc/service"
)

// payload holds either shape of the JSON answer.
type payload struct {
	Result        *float64 `json:"result"`
	Operation     string   `json:"operation"`
	Operand1      float64  `json:"operand1"`
	Operand2      float64  `json:"operand2"`
	ExecutionTime *int64   `json:"executionTime"`
	Error         string   `json:"error"`
	Timestamp     int64    `json:"timestamp"`
}

func decodePayload(t *testing.T, b []byte) payload {
	t.Helper()
	var p payload
	require.NoError(t, json.Unmarshal(b, &p), string(b))
	return p
}

func newTracers(t *testing.T) (stdopentracing.Tracer, *stdzipkin.Tracer) {
	t.Helper()
	zipkinTracer, err := stdzipkin.NewTracer(reporter.NewNoopReporter())
	require.NoError(t, err)
	return stdopentracing.NoopTracer{}, zipkinTracer
}

func newEndpoints(t *testing.T) endpoints.Endpoints {
	t.Helper()
	otTracer, zipkinTracer := newTracers(t)
	logger := log.NewNopLogger()
	svc := service.New(logger, discard.NewCounter(), discard.NewHistogram())
	return endpoints.New(svc, logger, otTracer, zipkinTracer, endpoints.DefaultRateLimit)
}

// faultyEndpoints fail every call the way an overloaded or broken
// dependency would.
func faultyEndpoints() endpoints.Endpoints {
	return endpoints.Endpoints{
		CalculateEndpoint: func(context.Context, interface{}) (interface{}, error) {
			return nil, errors.New("boom")
		},
	}
}
