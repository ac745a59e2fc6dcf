package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	consulsd "github.com/go-kit/kit/sd/consul"
	kitgrpc "github.com/go-kit/kit/transport/grpc"
	"github.com/google/uuid"
	consulapi "github.com/hashicorp/consul/api"
	stdopentracing "github.com/opentracing/opentracing-go"
	"github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/cage1016/calcfn/pkg/calcsvc/endpoints"
	"github.com/cage1016/calcfn/pkg/calcsvc/service"
	"github.com/cage1016/calcfn/pkg/calcsvc/transports"
	routertransport "github.com/cage1016/calcfn/pkg/router/transport"
)

const (
	defZipkinV2URL string = ""
	defConsulAddr  string = ""
	defNameSpace   string = "calcfn"
	defServiceName string = "calcsvc"
	defLogLevel    string = "info"
	defServiceHost string = "localhost"
	defHTTPPort    string = "8180"
	defGRPCPort    string = "8181"
	defRateLimit   string = "inf"
	envZipkinV2URL string = "QS_ZIPKIN_V2_URL"
	envConsulAddr  string = "QS_CONSUL_ADDR"
	envNameSpace   string = "QS_CALCSVC_NAMESPACE"
	envServiceName string = "QS_CALCSVC_SERVICE_NAME"
	envLogLevel    string = "QS_CALCSVC_LOG_LEVEL"
	envServiceHost string = "QS_CALCSVC_SERVICE_HOST"
	envHTTPPort    string = "QS_CALCSVC_HTTP_PORT"
	envGRPCPort    string = "QS_CALCSVC_GRPC_PORT"
	envRateLimit   string = "QS_CALCSVC_RATE_LIMIT"
)

type config struct {
	nameSpace   string
	serviceName string
	logLevel    string
	serviceHost string
	httpPort    string
	grpcPort    string
	zipkinV2URL string
	consulAddr  string
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
	logger = log.With(logger, "service", cfg.serviceName)

	errs := make(chan error, 2)
	httpHandler := NewServer(cfg, logger)
	hs := health.NewServer()
	hs.SetServingStatus(cfg.serviceName, healthgrpc.HealthCheckResponse_SERVING)

	if cfg.consulAddr != "" {
		registrar, err := newRegistrar(cfg, logger)
		if err != nil {
			level.Error(logger).Log("consul", cfg.consulAddr, "err", err)
			os.Exit(1)
		}
		registrar.Register()
		defer registrar.Deregister()
	}

	go startHTTPServer(cfg, httpHandler, logger, errs)
	go startGRPCServer(cfg, hs, logger, errs)

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	err := <-errs
	hs.Shutdown()
	level.Info(logger).Log("serviceName", cfg.serviceName, "terminated", err)
}

func loadConfig(logger log.Logger) (cfg config) {
	cfg.nameSpace = env(envNameSpace, defNameSpace)
	cfg.serviceName = env(envServiceName, defServiceName)
	cfg.logLevel = env(envLogLevel, defLogLevel)
	cfg.serviceHost = env(envServiceHost, defServiceHost)
	cfg.httpPort = env(envHTTPPort, defHTTPPort)
	cfg.grpcPort = env(envGRPCPort, defGRPCPort)
	cfg.zipkinV2URL = env(envZipkinV2URL, defZipkinV2URL)
	cfg.consulAddr = env(envConsulAddr, defConsulAddr)
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

func NewServer(cfg config, logger log.Logger) http.Handler {
	var tracer stdopentracing.Tracer
	{
		tracer = stdopentracing.GlobalTracer()
	}

	var zipkinTracer *zipkin.Tracer
	{
		var (
			err           error
			hostPort      = fmt.Sprintf("localhost:%s", cfg.httpPort)
			serviceName   = cfg.serviceName
			useNoopTracer = (cfg.zipkinV2URL == "")
			reporter      = zipkinhttp.NewReporter(cfg.zipkinV2URL)
		)
		zEP, _ := zipkin.NewEndpoint(serviceName, hostPort)
		zipkinTracer, err = zipkin.NewTracer(reporter, zipkin.WithLocalEndpoint(zEP), zipkin.WithNoopTracer(useNoopTracer))
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
		if !useNoopTracer {
			logger.Log("tracer", "Zipkin", "type", "Native", "URL", cfg.zipkinV2URL)
		}
	}

	fieldKeys := []string{"method", "operation", "error"}
	requestCount := kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Namespace: cfg.nameSpace,
		Subsystem: cfg.serviceName,
		Name:      "request_count",
		Help:      "Number of calculations received.",
	}, fieldKeys)
	requestLatency := kitprometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
		Namespace: cfg.nameSpace,
		Subsystem: cfg.serviceName,
		Name:      "request_latency_seconds",
		Help:      "Total duration of calculations in seconds.",
	}, fieldKeys)

	limit, err := endpoints.ParseRateLimit(cfg.rateLimit)
	if err != nil {
		level.Error(logger).Log(envRateLimit, cfg.rateLimit, "err", err)
		os.Exit(1)
	}

	service := service.New(logger, requestCount, requestLatency)
	endpoints := endpoints.New(service, logger, tracer, zipkinTracer, limit)

	r := routertransport.NewHandlerBuilder()
	r.AddHandler(cfg.serviceName, transports.NewHTTPHandler(endpoints, tracer, zipkinTracer, logger))
	return r.Router
}

func newRegistrar(cfg config, logger log.Logger) (*consulsd.Registrar, error) {
	consulConfig := consulapi.DefaultConfig()
	consulConfig.Address = cfg.consulAddr
	client, err := consulapi.NewClient(consulConfig)
	if err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(cfg.httpPort)
	if err != nil {
		return nil, err
	}

	registration := &consulapi.AgentServiceRegistration{
		ID:      fmt.Sprintf("%s-%s", cfg.serviceName, uuid.New().String()),
		Name:    cfg.serviceName,
		Tags:    []string{cfg.nameSpace},
		Address: cfg.serviceHost,
		Port:    port,
		Check: &consulapi.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%s/health", cfg.serviceHost, cfg.httpPort),
			Interval: "10s",
			Timeout:  "2s",
		},
	}
	return consulsd.NewRegistrar(consulsd.NewClient(client), registration, logger), nil
}

func startHTTPServer(cfg config, httpHandler http.Handler, logger log.Logger, errs chan error) {
	p := fmt.Sprintf(":%s", cfg.httpPort)
	level.Info(logger).Log("serviceName", cfg.serviceName, "protocol", "HTTP", "exposed", cfg.httpPort)
	errs <- http.ListenAndServe(p, httpHandler)
}

// startGRPCServer exposes the standard gRPC health service so orchestrators
// can probe the calculator the same way as the other services.
func startGRPCServer(cfg config, hs *health.Server, logger log.Logger, errs chan error) {
	p := fmt.Sprintf(":%s", cfg.grpcPort)
	listener, err := net.Listen("tcp", p)
	if err != nil {
		level.Error(logger).Log("serviceName", cfg.serviceName, "protocol", "GRPC", "listen", cfg.grpcPort, "err", err)
		errs <- err
		return
	}

	var server *grpc.Server
	level.Info(logger).Log("serviceName", cfg.serviceName, "protocol", "GRPC", "exposed", cfg.grpcPort)
	server = grpc.NewServer(grpc.UnaryInterceptor(kitgrpc.Interceptor))
	healthgrpc.RegisterHealthServer(server, hs)
	reflection.Register(server)
	errs <- server.Serve(listener)
}
