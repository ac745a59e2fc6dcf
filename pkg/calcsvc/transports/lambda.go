package transports

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/transport/awslambda"
	"github.com/google/uuid"

	"github.com/cage1016/calcfn/pkg/calcsvc/endpoints"
	"github.com/cage1016/calcfn/pkg/calcsvc/service"
)

// bodyParam carries the JSON body of a direct invocation.
const bodyParam = "body"

// NewAPIGatewayHandler returns a Lambda handler for API Gateway v2 HTTP
// events. Handled failures are answered with 200, faults with 500.
func NewAPIGatewayHandler(endpoints endpoints.Endpoints, logger log.Logger) *awslambda.Handler {
	return awslambda.NewHandler(
		endpoints.CalculateEndpoint,
		decodeGatewayCalculateRequest,
		encodeGatewayCalculateResponse,
		awslambda.HandlerBefore(lambdaRequestIDToContext),
		awslambda.HandlerErrorHandler(errorLogger{logger}),
		awslambda.HandlerErrorEncoder(gatewayEncodeError),
	)
}

// NewDirectHandler returns a Lambda handler for direct invocations carrying a
// flat parameter object. It always answers with the JSON payload itself.
func NewDirectHandler(endpoints endpoints.Endpoints, logger log.Logger) *awslambda.Handler {
	return awslambda.NewHandler(
		endpoints.CalculateEndpoint,
		decodeDirectCalculateRequest,
		encodeDirectCalculateResponse,
		awslambda.HandlerBefore(lambdaRequestIDToContext),
		awslambda.HandlerErrorHandler(errorLogger{logger}),
		awslambda.HandlerErrorEncoder(directEncodeError),
	)
}

// lambdaRequestIDToContext uses the AWS request id when running inside Lambda.
func lambdaRequestIDToContext(ctx context.Context, _ []byte) context.Context {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return endpoints.ContextWithRequestID(ctx, lc.AwsRequestID)
	}
	return endpoints.ContextWithRequestID(ctx, uuid.New().String())
}

func decodeGatewayCalculateRequest(_ context.Context, payload []byte) (interface{}, error) {
	var event events.APIGatewayV2HTTPRequest
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}

	body := event.Body
	if event.IsBase64Encoded && body != "" {
		b, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, service.Errorf(service.MalformedJSON, msgMalformedJSON)
		}
		body = string(b)
	}
	return DecodeInvocation(Invocation{Body: body, Params: event.QueryStringParameters})
}

func encodeGatewayCalculateResponse(_ context.Context, response interface{}) ([]byte, error) {
	resp := response.(endpoints.CalculateResponse)
	body, err := encodeCalculateBody(resp)
	if err != nil {
		return nil, err
	}
	return json.Marshal(events.APIGatewayV2HTTPResponse{
		StatusCode: resp.StatusCode(),
		Headers:    flatten(resp.Headers()),
		Body:       string(body),
	})
}

func gatewayEncodeError(_ context.Context, err error) ([]byte, error) {
	body, handled := errorPayload(err)
	if handled {
		resp := endpoints.CalculateResponse{Err: err}
		return json.Marshal(events.APIGatewayV2HTTPResponse{
			StatusCode: resp.StatusCode(),
			Headers:    flatten(resp.Headers()),
			Body:       string(body),
		})
	}
	return json.Marshal(events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusInternalServerError,
		Headers:    flatten(endpoints.FaultHeaders()),
		Body:       string(body),
	})
}

// decodeDirectCalculateRequest reads a flat JSON object. A string member named
// body is treated as the JSON body, every other member as a parameter.
func decodeDirectCalculateRequest(_ context.Context, payload []byte) (interface{}, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, service.Errorf(service.MalformedJSON, msgMalformedJSON)
	}

	var inv Invocation
	for k, raw := range fields {
		text, ok := rawText(raw)
		if !ok {
			continue
		}
		if k == bodyParam {
			inv.Body = text
			continue
		}
		if inv.Params == nil {
			inv.Params = make(map[string]string, len(fields))
		}
		inv.Params[k] = text
	}
	return DecodeInvocation(inv)
}

func encodeDirectCalculateResponse(_ context.Context, response interface{}) ([]byte, error) {
	return encodeCalculateBody(response.(endpoints.CalculateResponse))
}

func directEncodeError(_ context.Context, err error) ([]byte, error) {
	body, _ := errorPayload(err)
	return body, nil
}

func flatten(h http.Header) map[string]string {
	m := make(map[string]string, len(h))
	for k := range h {
		m[k] = h.Get(k)
	}
	return m
}
