// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"database/sql"

	"github.com/cobaltcore-dev/netplace/internal/conf"
	"github.com/cobaltcore-dev/netplace/internal/monitoring"
	"github.com/dlmiddlecote/sqlstats"
	"github.com/prometheus/client_golang/prometheus"
)

// Database metrics. All methods are safe to call on a monitor
// created without a registry.
type monitor struct {
	registry           *monitoring.Registry
	database           string
	connectionAttempts prometheus.Counter
}

func newMonitor(c conf.DBConfig, registry *monitoring.Registry) monitor {
	m := monitor{registry: registry, database: c.Database}
	if m.database == "" {
		m.database = c.Path
	}
	if registry == nil {
		return m
	}
	m.connectionAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "netplace_db_connection_attempts_total",
		Help:        "Total number of attempts to connect to the database",
		ConstLabels: prometheus.Labels{"driver": c.Driver},
	})
	registry.MustRegister(m.connectionAttempts)
	return m
}

func (m monitor) attempt() {
	if m.connectionAttempts != nil {
		m.connectionAttempts.Inc()
	}
}

// Export connection pool statistics of the opened database.
func (m monitor) observePool(db *sql.DB) {
	if m.registry == nil {
		return
	}
	m.registry.MustRegister(sqlstats.NewStatsCollector(m.database, db))
}
