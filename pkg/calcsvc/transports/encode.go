package transports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/transport"

	"github.com/cage1016/calcfn/pkg/calcsvc/endpoints"
	"github.com/cage1016/calcfn/pkg/calcsvc/service"
)

var _ transport.ErrorHandler = errorLogger{}

// errorLogger logs handled failures at warn and faults at error level.
type errorLogger struct {
	logger log.Logger
}

func (l errorLogger) Handle(ctx context.Context, err error) {
	logger := level.Error(l.logger)
	if service.IsHandled(err) {
		logger = level.Warn(l.logger)
	}
	logger.Log("request_id", endpoints.RequestIDFromContext(ctx), "kind", service.KindOf(err), "err", err)
}

// errorPayload renders err as an ErrorResponse. Unexpected faults report
// false so the caller can answer with a 500.
func errorPayload(err error) ([]byte, bool) {
	if service.IsHandled(err) {
		b, _ := json.Marshal(endpoints.NewErrorResponse(err.Error(), time.Now()))
		return b, true
	}
	b, _ := json.Marshal(endpoints.NewErrorResponse("Error processing request: "+err.Error(), time.Now()))
	return b, false
}

func encodeCalculateBody(resp endpoints.CalculateResponse) ([]byte, error) {
	return json.Marshal(resp.Body(time.Now()))
}
