package service

import (
	"fmt"
	"math"
)

// DivisionEpsilon is the divisor magnitude below which a division is refused.
// It is a tolerance policy, not an exact zero test.
const DivisionEpsilon = 1e-10

const supportedOperations = "'+', '-', '*', '/'"

// Operation is one of the four supported binary operations.
type Operation int

const (
	Add Operation = iota + 1
	Subtract
	Multiply
	Divide
)

// String returns the operator symbol.
func (o Operation) String() string {
	switch o {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// ParseOperation maps an operator symbol onto its Operation.
func ParseOperation(symbol string) (Operation, error) {
	switch symbol {
	case "+":
		return Add, nil
	case "-":
		return Subtract, nil
	case "*":
		return Multiply, nil
	case "/":
		return Divide, nil
	}
	return 0, Errorf(InvalidOperation, "Invalid operation '%s'. Supported operations are %s", symbol, supportedOperations)
}

// NormalizeLegacy translates a legacy operation word into its symbol. Unknown
// words come back unchanged and are rejected by ParseOperation.
func NormalizeLegacy(word string) string {
	switch word {
	case "add":
		return "+"
	case "subtract":
		return "-"
	case "multiply":
		return "*"
	case "divide":
		return "/"
	default:
		return word
	}
}

// Apply evaluates a <o> b.
func (o Operation) Apply(a, b float64) (float64, error) {
	switch o {
	case Add:
		return a + b, nil
	case Subtract:
		return a - b, nil
	case Multiply:
		return a * b, nil
	case Divide:
		if math.Abs(b) < DivisionEpsilon {
			return 0, ErrDivisionByZero
		}
		return a / b, nil
	}
	return 0, Errorf(InvalidOperation, "Invalid operation. Supported operations are %s", supportedOperations)
}
