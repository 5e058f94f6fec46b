// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package monitoring

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cobaltcore-dev/netplace/internal/conf"
	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry_Gather(t *testing.T) {
	registry := NewRegistry(conf.MonitoringConfig{
		Labels: map[string]string{"env": "test"},
	})
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netplace_test_counter",
		Help: "A test counter",
	})
	registry.MustRegister(counter)
	counter.Inc()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected gathered metric families")
	}
	for _, family := range families {
		for _, metric := range family.Metric {
			found := false
			for _, label := range metric.Label {
				if label.GetName() == "env" && label.GetValue() == "test" {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected label env=test on metric %s", family.GetName())
			}
		}
	}
}

func TestRegistry_WriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "netplace.prom")
	registry := NewRegistry(conf.MonitoringConfig{
		Labels:       map[string]string{"instance_file": "ring"},
		TextfilePath: path,
	})
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "netplace_test_fitness",
		Help: "A test gauge",
	})
	registry.MustRegister(gauge)
	gauge.Set(17.5)

	if err := registry.WriteTextfile(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected textfile to exist, got %v", err)
	}
	if !strings.Contains(string(data), `netplace_test_fitness{instance_file="ring"} 17.5`) {
		t.Errorf("expected labeled gauge in textfile, got:\n%s", data)
	}
}

func TestRegistry_WriteTextfile_Disabled(t *testing.T) {
	registry := NewRegistry(conf.MonitoringConfig{})
	if err := registry.WriteTextfile(); err != nil {
		t.Errorf("expected no error without a textfile path, got %v", err)
	}
}
