// Package metric assembles the Prometheus registry for authtoken.
//
// Components register their own collectors (the Badger backend, the token
// store); this package provides the shared registry plus process-level
// collectors and the build info gauge.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// NewRegistry creates the application registry with runtime collectors
// installed.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// RegisterBuildInfo publishes a constant build info metric.
func RegisterBuildInfo(registry *prometheus.Registry, version, commit string) {
	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "authtoken",
		Name:      "build_info",
		Help:      "Build information, value is always 1",
		ConstLabels: prometheus.Labels{
			"version": version,
			"commit":  commit,
		},
	})
	info.Set(1)
	registry.MustRegister(info)
}
