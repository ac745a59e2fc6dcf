package transports_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cage1016/calcfn/pkg/calcsvc/endpoints"
	"github.com/cage1016/calcfn/pkg/calcsvc/transports"
)

func invokeGateway(t *testing.T, eps endpoints.Endpoints, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, payload) {
	t.Helper()
	in, err := json.Marshal(event)
	require.NoError(t, err)

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "test-request"})
	out, err := transports.NewAPIGatewayHandler(eps, log.NewNopLogger()).Invoke(ctx, in)
	require.NoError(t, err)

	var resp events.APIGatewayV2HTTPResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	return resp, decodePayload(t, []byte(resp.Body))
}

func TestAPIGatewayCalculate(t *testing.T) {
	cases := []struct {
		name  string
		event events.APIGatewayV2HTTPRequest
		want  float64
		op    string
	}{
		{
			name:  "json body",
			event: events.APIGatewayV2HTTPRequest{Body: `{"a":6,"b":3,"op":"/"}`},
			want:  2,
			op:    "/",
		},
		{
			name:  "base64 body",
			event: events.APIGatewayV2HTTPRequest{Body: base64.StdEncoding.EncodeToString([]byte(`{"a":4,"b":5,"op":"*"}`)), IsBase64Encoded: true},
			want:  20,
			op:    "*",
		},
		{
			name:  "query params",
			event: events.APIGatewayV2HTTPRequest{QueryStringParameters: map[string]string{"a": "10", "b": "4", "op": "-"}},
			want:  6,
			op:    "-",
		},
		{
			name:  "legacy query params",
			event: events.APIGatewayV2HTTPRequest{QueryStringParameters: map[string]string{"number1": "1", "number2": "2", "operation": "add"}},
			want:  3,
			op:    "+",
		},
	}

	eps := newEndpoints(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, p := invokeGateway(t, eps, tc.event)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Headers["Content-Type"])
			assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
			assert.Equal(t, endpoints.AllowMethods, resp.Headers["Access-Control-Allow-Methods"])
			assert.Equal(t, endpoints.AllowHeaders, resp.Headers["Access-Control-Allow-Headers"])
			require.NotNil(t, p.Result)
			assert.Equal(t, tc.want, *p.Result)
			assert.Equal(t, tc.op, p.Operation)
		})
	}
}

func TestAPIGatewayHandledFailures(t *testing.T) {
	cases := []struct {
		name  string
		event events.APIGatewayV2HTTPRequest
		msg   string
	}{
		{
			name:  "invalid operation",
			event: events.APIGatewayV2HTTPRequest{Body: `{"a":1,"b":2,"op":"%"}`},
			msg:   "Invalid operation '%'. Supported operations are '+', '-', '*', '/'",
		},
		{
			name:  "division by near zero",
			event: events.APIGatewayV2HTTPRequest{QueryStringParameters: map[string]string{"a": "3", "b": "0.00000000001", "op": "/"}},
			msg:   "Division by zero is not allowed",
		},
		{
			name:  "malformed json",
			event: events.APIGatewayV2HTTPRequest{Body: `not json`},
			msg:   "Invalid JSON format in request body",
		},
		{
			name:  "bad base64",
			event: events.APIGatewayV2HTTPRequest{Body: "%%%", IsBase64Encoded: true},
			msg:   "Invalid JSON format in request body",
		},
		{
			name:  "no parameters",
			event: events.APIGatewayV2HTTPRequest{},
			msg:   "No calculation parameters provided",
		},
	}

	eps := newEndpoints(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, p := invokeGateway(t, eps, tc.event)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, endpoints.AllowMethods, resp.Headers["Access-Control-Allow-Methods"])
			assert.Equal(t, tc.msg, p.Error)
			assert.NotZero(t, p.Timestamp)
		})
	}
}

func TestAPIGatewayFault(t *testing.T) {
	resp, p := invokeGateway(t, faultyEndpoints(), events.APIGatewayV2HTTPRequest{Body: `{"a":1,"b":2,"op":"+"}`})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	_, ok := resp.Headers["Access-Control-Allow-Methods"]
	assert.False(t, ok)
	assert.Equal(t, "Error processing request: boom", p.Error)
}

func TestAPIGatewayUndecodableEvent(t *testing.T) {
	out, err := transports.NewAPIGatewayHandler(newEndpoints(t), log.NewNopLogger()).Invoke(context.Background(), []byte(`[]`))
	require.NoError(t, err)

	var resp events.APIGatewayV2HTTPResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestDirectHandler(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    float64
		msg     string
	}{
		{name: "current params", payload: `{"a":"8","b":"2","op":"/"}`, want: 4},
		{name: "numeric params", payload: `{"a":8,"b":2.5,"op":"*"}`, want: 20},
		{name: "legacy params", payload: `{"number1":"5","number2":"3","operation":"subtract"}`, want: 2},
		{name: "body member", payload: `{"body":"{\"a\":1,\"b\":2,\"op\":\"+\"}"}`, want: 3},
		{name: "legacy division by zero", payload: `{"number1":"5","number2":"0","operation":"divide"}`, msg: "Division by zero is not allowed"},
		{name: "legacy unknown word", payload: `{"number1":"5","number2":"1","operation":"mod"}`, msg: "Invalid operation 'mod'. Supported operations are '+', '-', '*', '/'"},
		{name: "empty object", payload: `{}`, msg: "No calculation parameters provided"},
		{name: "not an object", payload: `"a=1"`, msg: "Invalid JSON format in request body"},
	}

	h := transports.NewDirectHandler(newEndpoints(t), log.NewNopLogger())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := h.Invoke(context.Background(), []byte(tc.payload))
			require.NoError(t, err)
			p := decodePayload(t, out)
			if tc.msg != "" {
				assert.Equal(t, tc.msg, p.Error)
				assert.NotZero(t, p.Timestamp)
				return
			}
			require.NotNil(t, p.Result, string(out))
			assert.Equal(t, tc.want, *p.Result)
		})
	}
}

func TestDirectHandlerFault(t *testing.T) {
	out, err := transports.NewDirectHandler(faultyEndpoints(), log.NewNopLogger()).Invoke(context.Background(), []byte(`{"a":1,"b":2,"op":"+"}`))
	require.NoError(t, err)
	assert.Equal(t, "Error processing request: boom", decodePayload(t, out).Error)
}

func TestDirectHandlerWarmContainer(t *testing.T) {
	h := transports.NewDirectHandler(newEndpoints(t), log.NewNopLogger())
	for i := 0; i < 200; i++ {
		out, err := h.Invoke(context.Background(), []byte(`{"a":"1","b":2,"op":"+"}`))
		require.NoError(t, err)
		p := decodePayload(t, out)
		require.Empty(t, p.Error, "invocation %d", i)
		require.NotNil(t, p.Result)
		assert.Equal(t, 3.0, *p.Result)
	}
}
