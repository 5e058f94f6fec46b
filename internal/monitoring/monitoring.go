// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package monitoring

import (
	"fmt"
	"log/slog"

	"github.com/cobaltcore-dev/netplace/internal/conf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

// Prometheus registry adding the configured labels to every metric.
type Registry struct {
	*prometheus.Registry
	config conf.MonitoringConfig
}

// Create a new registry with the go and process collectors registered.
func NewRegistry(config conf.MonitoringConfig) *Registry {
	registry := &Registry{
		Registry: prometheus.NewRegistry(),
		config:   config,
	}
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return registry
}

// Custom gather method that adds custom labels to all metrics.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	families, err := r.Registry.Gather()
	if err != nil {
		return nil, err
	}
	for name, value := range r.config.Labels {
		for _, family := range families {
			for _, metric := range family.Metric {
				metric.Label = append(metric.Label, &dto.LabelPair{
					Name:  &name,
					Value: &value,
				})
			}
		}
	}
	return families, nil
}

// Write all gathered metrics to the configured textfile, so that a node
// exporter can pick up the results of a batch run. Does nothing if no
// textfile path is configured.
func (r *Registry) WriteTextfile() error {
	if r.config.TextfilePath == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(r.config.TextfilePath, r); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", r.config.TextfilePath, err)
	}
	slog.Info("monitoring: wrote metrics textfile", "path", r.config.TextfilePath)
	return nil
}
