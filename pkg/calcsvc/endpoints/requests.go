package endpoints

import "github.com/cage1016/calcfn/pkg/calcsvc/service"

// CalculateRequest collects the request parameters for the Calculate method.
// Op carries the operator symbol; legacy words are normalized before a
// request is built.
type CalculateRequest struct {
	A  float64 `json:"a"`
	B  float64 `json:"b"`
	Op string  `json:"op"`
}

// validate resolves Op, which is the only field that can be invalid once the
// operands have been parsed.
func (r CalculateRequest) validate() (service.Operation, error) {
	return service.ParseOperation(r.Op)
}
