package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics/discard"
	stdopentracing "github.com/opentracing/opentracing-go"
	"github.com/openzipkin/zipkin-go"
	"github.com/openzipkin/zipkin-go/reporter"
	"github.com/spf13/cobra"

	"github.com/cage1016/calcfn/pkg/calcsvc/endpoints"
	"github.com/cage1016/calcfn/pkg/calcsvc/service"
	"github.com/cage1016/calcfn/pkg/calcsvc/transports"
)

// errCalculation is returned when the evaluator answered with an error payload.
var errCalculation = errors.New("calculation failed")

// paramFlags are passed through to the evaluator as invocation parameters.
var paramFlags = []struct {
	name  string
	usage string
}{
	{"a", "first operand"},
	{"b", "second operand"},
	{"op", "operator: +, -, * or /"},
	{"number1", "first operand (legacy)"},
	{"number2", "second operand (legacy)"},
	{"operation", "operator: add, subtract, multiply or divide (legacy)"},
	{"body", "JSON request body, e.g. {\"a\":1,\"b\":2,\"op\":\"+\"}"},
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if err != errCalculation {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Evaluate a single arithmetic operation",
		Long: `Evaluate a single arithmetic operation and print the JSON result.

Operands and operator are given either as --a/--b/--op, as the legacy
--number1/--number2/--operation, or as a JSON --body.`,
		Example: `  calc --a 6 --b 3 --op /
  calc --number1 5 --number2 2 --operation multiply
  calc --body '{"a":1,"b":2,"op":"+"}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := make(map[string]string)
			for _, f := range paramFlags {
				if cmd.Flags().Changed(f.name) {
					v, _ := cmd.Flags().GetString(f.name)
					params[f.name] = v
				}
			}

			out, err := invoke(cmd.Context(), newLogger(verbose), params)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			var rs endpoints.ErrorResponse
			if err := json.Unmarshal(out, &rs); err == nil && rs.Error != "" {
				return errCalculation
			}
			return nil
		},
	}

	for _, f := range paramFlags {
		cmd.Flags().String(f.name, "", f.usage)
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log evaluation details to stderr")
	return cmd
}

func newLogger(verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(os.Stderr)
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	if verbose {
		return level.NewFilter(logger, level.AllowDebug())
	}
	return level.NewFilter(logger, level.AllowError())
}

// invoke runs params through the same direct-invocation handler the Lambda
// function uses.
func invoke(ctx context.Context, logger log.Logger, params map[string]string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	zipkinTracer, err := zipkin.NewTracer(reporter.NewNoopReporter(), zipkin.WithNoopTracer(true))
	if err != nil {
		return nil, err
	}

	svc := service.New(logger, discard.NewCounter(), discard.NewHistogram())
	eps := endpoints.New(svc, logger, stdopentracing.NoopTracer{}, zipkinTracer, endpoints.DefaultRateLimit)

	payload, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return transports.NewDirectHandler(eps, logger).Invoke(ctx, payload)
}
