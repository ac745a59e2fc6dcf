package service_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cage1016/calcfn/pkg/calcsvc/service"
)

func newService() service.CalcsvcService {
	return service.New(log.NewNopLogger(), discard.NewCounter(), discard.NewHistogram())
}

func TestCalculate(t *testing.T) {
	cases := []struct {
		name string
		a, b float64
		op   service.Operation
		want float64
	}{
		{"add", 2, 3, service.Add, 5},
		{"add negative", -1.5, 1, service.Add, -0.5},
		{"subtract", 5, 8, service.Subtract, -3},
		{"multiply", 2.5, 4, service.Multiply, 10},
		{"multiply by zero", 7, 0, service.Multiply, 0},
		{"divide", 6, 3, service.Divide, 2},
		{"divide fraction", 1, 4, service.Divide, 0.25},
		{"divide just above epsilon", 1, 1e-9, service.Divide, 1e9},
	}

	svc := newService()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs, err := svc.Calculate(context.Background(), tc.a, tc.b, tc.op)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, rs.Result, 1e-9)
			assert.Equal(t, tc.op.String(), rs.Operation)
			assert.Equal(t, tc.a, rs.Operand1)
			assert.Equal(t, tc.b, rs.Operand2)
			assert.GreaterOrEqual(t, rs.ExecutionTime, int64(0))
		})
	}
}

func TestCalculateDivisionByZero(t *testing.T) {
	svc := newService()
	for _, b := range []float64{0, math.Copysign(0, -1), 1e-11, -5e-11, 9.99e-11} {
		for _, a := range []float64{0, 1, -42, 1e300} {
			_, err := svc.Calculate(context.Background(), a, b, service.Divide)
			require.Error(t, err, "a=%v b=%v", a, b)
			assert.Equal(t, service.DivisionByZero, service.KindOf(err))
			assert.Equal(t, "Division by zero is not allowed", err.Error())
		}
	}
}

func TestCalculateOverflow(t *testing.T) {
	_, err := newService().Calculate(context.Background(), math.MaxFloat64, 10, service.Multiply)
	require.Error(t, err)
	assert.Equal(t, service.NumericOverflow, service.KindOf(err))
}

func TestCalculateUnknownOperation(t *testing.T) {
	_, err := newService().Calculate(context.Background(), 1, 2, service.Operation(42))
	require.Error(t, err)
	assert.Equal(t, service.InvalidOperation, service.KindOf(err))
}

type recordingCounter struct {
	lvs   []string
	total float64
}

func (c *recordingCounter) With(labelValues ...string) metrics.Counter {
	c.lvs = labelValues
	return c
}

func (c *recordingCounter) Add(delta float64) { c.total += delta }

func TestInstrumentingMiddleware(t *testing.T) {
	counter := &recordingCounter{}
	svc := service.New(log.NewNopLogger(), counter, discard.NewHistogram())

	_, err := svc.Calculate(context.Background(), 1, 2, service.Add)
	require.NoError(t, err)
	assert.Equal(t, []string{"method", "Calculate", "operation", "+", "error", "none"}, counter.lvs)

	_, err = svc.Calculate(context.Background(), 1, 0, service.Divide)
	require.Error(t, err)
	assert.Equal(t, []string{"method", "Calculate", "operation", "/", "error", "division_by_zero"}, counter.lvs)
	assert.Equal(t, float64(2), counter.total)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, service.UnexpectedFault, service.KindOf(errors.New("boom")))
	assert.Equal(t, service.MalformedJSON, service.KindOf(service.Errorf(service.MalformedJSON, "bad")))
	assert.False(t, service.IsHandled(nil))
	assert.False(t, service.IsHandled(errors.New("boom")))
	assert.True(t, service.IsHandled(service.ErrDivisionByZero))
}
