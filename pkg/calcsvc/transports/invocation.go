package transports

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/cage1016/calcfn/pkg/calcsvc/endpoints"
	"github.com/cage1016/calcfn/pkg/calcsvc/service"
)

const (
	msgNoParameters      = "No calculation parameters provided"
	msgMissingParameters = "Missing required parameters. Please provide 'a', 'b', and 'op' or 'number1', 'number2', and 'operation'"
	msgMissingJSON       = "Missing required parameters. Please provide 'a', 'b', and 'op'"
	msgMalformedJSON     = "Invalid JSON format in request body"
)

// Invocation is a raw calculator request as handed over by a trigger: an
// optional JSON body and a flat set of parameters.
type Invocation struct {
	Body   string
	Params map[string]string
}

// paramSet names one calling convention.
type paramSet struct {
	a, b, op string
	legacy   bool
}

var conventions = []paramSet{
	{a: "a", b: "b", op: "op"},
	{a: "number1", b: "number2", op: "operation", legacy: true},
}

func (ps paramSet) request(a, b, op string) (endpoints.CalculateRequest, error) {
	x, okA := parseOperand(a)
	y, okB := parseOperand(b)
	if !okA || !okB {
		return endpoints.CalculateRequest{}, service.Errorf(service.MalformedNumber, "Parameters '%s' and '%s' must be valid numbers", ps.a, ps.b)
	}
	if ps.legacy {
		op = service.NormalizeLegacy(op)
	}
	return endpoints.CalculateRequest{A: x, B: y, Op: op}, nil
}

// DecodeInvocation extracts the operands and operator of inv. A non-empty
// body wins over parameters; the current convention wins over the legacy one.
func DecodeInvocation(inv Invocation) (endpoints.CalculateRequest, error) {
	if inv.Body != "" {
		return decodeJSONBody(inv.Body)
	}
	if len(inv.Params) == 0 {
		return endpoints.CalculateRequest{}, service.Errorf(service.MissingParameters, msgNoParameters)
	}

	for _, ps := range conventions {
		a, okA := inv.Params[ps.a]
		b, okB := inv.Params[ps.b]
		op, okOp := inv.Params[ps.op]
		if okA && okB && okOp {
			return ps.request(a, b, op)
		}
	}
	return endpoints.CalculateRequest{}, service.Errorf(service.MissingParameters, msgMissingParameters)
}

func decodeJSONBody(body string) (endpoints.CalculateRequest, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil || fields == nil {
		return endpoints.CalculateRequest{}, service.Errorf(service.MalformedJSON, msgMalformedJSON)
	}

	for _, ps := range conventions {
		a, okA := rawText(fields[ps.a])
		b, okB := rawText(fields[ps.b])
		op, okOp := rawText(fields[ps.op])
		if okA && okB && okOp {
			return ps.request(a, b, op)
		}
	}
	return endpoints.CalculateRequest{}, service.Errorf(service.MissingParameters, msgMissingJSON)
}

// rawText renders a JSON value as parameter text: strings are unquoted,
// anything else is kept verbatim. Absent and null values report false.
func rawText(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return text, true
}

func parseOperand(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
