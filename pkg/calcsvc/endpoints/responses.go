package endpoints

import (
	"net/http"
	"time"

	httptransport "github.com/go-kit/kit/transport/http"

	"github.com/cage1016/calcfn/pkg/calcsvc/service"
)

// CORS values attached to every handled response.
const (
	AllowOrigin  = "*"
	AllowMethods = "GET, POST, OPTIONS"
	AllowHeaders = "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token"
)

var (
	_ httptransport.Headerer = (*CalculateResponse)(nil)

	_ httptransport.StatusCoder = (*CalculateResponse)(nil)
)

// CalculateResponse collects the response values for the Calculate method.
// Handled failures travel in Err; the endpoint itself only fails on faults.
type CalculateResponse struct {
	Rs  service.Result `json:"rs"`
	Err error          `json:"err"`
}

// StatusCode is 200 for results and handled failures alike.
func (r CalculateResponse) StatusCode() int {
	return http.StatusOK
}

func (r CalculateResponse) Headers() http.Header {
	return http.Header{
		"Content-Type":                 {"application/json"},
		"Access-Control-Allow-Origin":  {AllowOrigin},
		"Access-Control-Allow-Methods": {AllowMethods},
		"Access-Control-Allow-Headers": {AllowHeaders},
	}
}

// Body returns the JSON payload for the response: the result, or an
// ErrorResponse stamped with now.
func (r CalculateResponse) Body(now time.Time) interface{} {
	if r.Err != nil {
		return NewErrorResponse(r.Err.Error(), now)
	}
	return r.Rs
}

// ErrorResponse is the payload of every failed calculation.
type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp int64  `json:"timestamp"`
}

func NewErrorResponse(msg string, now time.Time) ErrorResponse {
	return ErrorResponse{Error: msg, Timestamp: now.UnixNano() / int64(time.Millisecond)}
}

// FaultHeaders are the headers sent along with a 500 response.
func FaultHeaders() http.Header {
	return http.Header{
		"Content-Type":                {"application/json"},
		"Access-Control-Allow-Origin": {AllowOrigin},
	}
}
