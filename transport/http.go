package transport

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Debug serves the diagnostics surface of a run: prometheus metrics and a
// liveness probe. It is not a query API.
type Debug struct {
	log *zerolog.Logger
}

func NewDebug(log *zerolog.Logger) *Debug {
	return &Debug{log: log}
}

func (d *Debug) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", d.health).Methods(http.MethodGet)
	return r
}

// Serve listens on addr in the background for the duration of the run.
func (d *Debug) Serve(addr string) {
	if addr == "" {
		return
	}
	go func() {
		if err := http.ListenAndServe(addr, d.Router()); err != nil {
			d.log.Error().Err(err).Msg("debug server failed")
		}
	}()
}

func (d *Debug) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
