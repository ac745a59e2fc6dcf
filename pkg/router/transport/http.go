package transport

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type TransportRouter struct {
	Router *mux.Router
}

// NewHandlerBuilder returns a router serving /health and /metrics; services
// are mounted under their own prefix with AddHandler.
func NewHandlerBuilder() TransportRouter {
	r := mux.NewRouter()

	r.Methods(http.MethodGet).Path("/health").HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(`{"status":"ok"}`))
	})
	r.Methods(http.MethodGet).Path("/metrics").Handler(promhttp.Handler())

	return TransportRouter{r}
}

func (tr TransportRouter) AddHandler(prefix string, h http.Handler) {
	buf := fmt.Sprintf("/%s", prefix)
	tr.Router.PathPrefix(buf).Handler(http.StripPrefix(buf, h))
}
