package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/raymyers/stepc/pkg/stepc"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	prometheus.MustRegister(stepc.Collectors()...)
}

// serveMetrics starts the metrics server. It runs until the process exits.
func serveMetrics(addr string, errOut io.Writer) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(rw http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/" {
			fmt.Fprintln(rw, "stepc metrics server; see /metrics")
		} else {
			http.NotFound(rw, req)
		}
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := http.Server{
		Addr:    addr,
		Handler: mux,
	}
	if err := server.ListenAndServe(); err != nil {
		fmt.Fprintf(errOut, "stepc: metrics server: %v\n", err)
	}
}
