package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/go-kit/kit/metrics/discard"
	stdopentracing "github.com/opentracing/opentracing-go"
	"github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"

	"github.com/cage1016/calcfn/pkg/calcsvc/endpoints"
	"github.com/cage1016/calcfn/pkg/calcsvc/service"
	"github.com/cage1016/calcfn/pkg/calcsvc/transports"
)

const (
	defZipkinV2URL string = ""
	defServiceName string = "calcfn"
	defLogLevel    string = "info"
	defHandler     string = handlerGateway
	defRateLimit   string = "inf"
	envZipkinV2URL string = "QS_ZIPKIN_V2_URL"
	envServiceName string = "QS_CALCFN_SERVICE_NAME"
	envLogLevel    string = "QS_CALCFN_LOG_LEVEL"
	envHandler     string = "QS_CALCFN_HANDLER"
	envRateLimit   string = "QS_CALCFN_RATE_LIMIT"

	handlerGateway = "gateway"
	handlerDirect  = "direct"
)

type config struct {
	serviceName string
	logLevel    string
	handler     string
	zipkinV2URL string
	rateLimit   string
}

// Env reads specified environment variable. If no value has been found,
// fallback is returned.
func env(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}
	cfg := loadConfig(logger)
	logger = level.NewFilter(logger, levelOption(cfg.logLevel))
	logger = log.With(logger, "service", cfg.serviceName, "handler", cfg.handler)

	var zipkinTracer *zipkin.Tracer
	{
		var (
			err           error
			useNoopTracer = (cfg.zipkinV2URL == "")
			reporter      = zipkinhttp.NewReporter(cfg.zipkinV2URL)
		)
		defer reporter.Close()
		zEP, _ := zipkin.NewEndpoint(cfg.serviceName, "")
		zipkinTracer, err = zipkin.NewTracer(reporter, zipkin.WithLocalEndpoint(zEP), zipkin.WithNoopTracer(useNoopTracer))
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
	}

	limit, err := endpoints.ParseRateLimit(cfg.rateLimit)
	if err != nil {
		level.Error(logger).Log(envRateLimit, cfg.rateLimit, "err", err)
		os.Exit(1)
	}

	// Lambda instances are not scraped, so metrics are discarded.
	svc := service.New(logger, discard.NewCounter(), discard.NewHistogram())
	eps := endpoints.New(svc, logger, stdopentracing.GlobalTracer(), zipkinTracer, limit)

	var handler lambda.Handler
	switch cfg.handler {
	case handlerGateway:
		handler = transports.NewAPIGatewayHandler(eps, logger)
	case handlerDirect:
		handler = transports.NewDirectHandler(eps, logger)
	default:
		level.Error(logger).Log("err", fmt.Sprintf("unknown handler %q", cfg.handler))
		os.Exit(1)
	}

	level.Info(logger).Log("msg", "starting lambda handler")
	lambda.Start(handler)
}

func loadConfig(logger log.Logger) (cfg config) {
	cfg.serviceName = env(envServiceName, defServiceName)
	cfg.logLevel = env(envLogLevel, defLogLevel)
	cfg.handler = env(envHandler, defHandler)
	cfg.zipkinV2URL = env(envZipkinV2URL, defZipkinV2URL)
	cfg.rateLimit = env(envRateLimit, defRateLimit)
	return cfg
}

func levelOption(l string) level.Option {
	switch l {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}
