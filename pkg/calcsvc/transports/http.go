package transports

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/tracing/opentracing"
	"github.com/go-kit/kit/tracing/zipkin"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"

	"github.com/cage1016/calcfn/pkg/calcsvc/endpoints"
	"github.com/cage1016/calcfn/pkg/calcsvc/service"
)

const (
	requestIDHeader = "X-Request-Id"

	// maxBodyBytes caps a /calculate body; a valid one is well under 1 KiB.
	maxBodyBytes = 16 << 10
)

// NewHTTPHandler returns a handler that makes a set of endpoints available on
// predefined paths.
func NewHTTPHandler(endpoints endpoints.Endpoints, otTracer stdopentracing.Tracer, zipkinTracer *stdzipkin.Tracer, logger log.Logger) http.Handler {
	// Zipkin HTTP Server Trace can either be instantiated per endpoint with a
	// provided operation name or a global tracing service can be instantiated
	// without an operation name and fed to each Go kit endpoint as ServerOption.
	// We use the global form here.
	zipkinServer := zipkin.HTTPServerTrace(zipkinTracer)

	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(httpEncodeError),
		httptransport.ServerErrorHandler(errorLogger{logger}),
		httptransport.ServerBefore(httpRequestIDToContext),
		zipkinServer,
	}

	m := mux.NewRouter()
	m.Methods(http.MethodGet, http.MethodPost).Path("/calculate").Handler(limitBody(httptransport.NewServer(
		endpoints.CalculateEndpoint,
		decodeHTTPCalculateRequest,
		encodeHTTPCalculateResponse,
		append(options, httptransport.ServerBefore(opentracing.HTTPToContext(otTracer, "Calculate", logger)))...,
	)))
	m.Methods(http.MethodOptions).Path("/calculate").HandlerFunc(preflight)
	return m
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// httpRequestIDToContext keeps the caller's request id, or mints one.
func httpRequestIDToContext(ctx context.Context, r *http.Request) context.Context {
	id := r.Header.Get(requestIDHeader)
	if id == "" {
		id = uuid.New().String()
	}
	return endpoints.ContextWithRequestID(ctx, id)
}

// decodeHTTPCalculateRequest is a transport/http.DecodeRequestFunc that reads
// operands from a JSON body, or from the query string when the body is empty.
func decodeHTTPCalculateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, service.Errorf(service.MalformedJSON, msgMalformedJSON)
		}
		return nil, err
	}

	inv := Invocation{Body: string(body)}
	if q := r.URL.Query(); len(q) > 0 {
		inv.Params = make(map[string]string, len(q))
		for k := range q {
			inv.Params[k] = q.Get(k)
		}
	}
	return DecodeInvocation(inv)
}

// encodeHTTPCalculateResponse writes the result or the handled failure as a
// 200 JSON payload together with the CORS headers.
func encodeHTTPCalculateResponse(_ context.Context, w http.ResponseWriter, response interface{}) error {
	resp := response.(endpoints.CalculateResponse)
	body, err := encodeCalculateBody(resp)
	if err != nil {
		return err
	}
	writeHeaders(w, resp.Headers())
	w.WriteHeader(resp.StatusCode())
	_, err = w.Write(body)
	return err
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	writeHeaders(w, endpoints.CalculateResponse{}.Headers())
	w.WriteHeader(http.StatusOK)
}

func httpEncodeError(_ context.Context, err error, w http.ResponseWriter) {
	body, handled := errorPayload(err)
	if handled {
		resp := endpoints.CalculateResponse{Err: err}
		writeHeaders(w, resp.Headers())
		w.WriteHeader(resp.StatusCode())
	} else {
		writeHeaders(w, endpoints.FaultHeaders())
		w.WriteHeader(http.StatusInternalServerError)
	}
	w.Write(body)
}

func writeHeaders(w http.ResponseWriter, h http.Header) {
	for k, values := range h {
		for _, v := range values {
			w.Header().Set(k, v)
		}
	}
}
