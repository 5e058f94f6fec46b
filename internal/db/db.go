// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cobaltcore-dev/netplace/internal/conf"
	"github.com/cobaltcore-dev/netplace/internal/monitoring"
	"github.com/go-gorp/gorp"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sapcc/go-bits/easypg"
)

// Wrapper around gorp.DbMap that adds some convenience functions.
type DB struct {
	*gorp.DbMap
	DBConfig conf.DBConfig
}

// A model that knows its table name.
type Table interface {
	TableName() string
}

// Open the database given in the config and wait until it is reachable.
//
// If a registry is given, connection attempts and connection pool
// statistics are exported through it.
func Open(ctx context.Context, c conf.DBConfig, registry *monitoring.Registry) (*DB, error) {
	monitor := newMonitor(c, registry)
	var (
		sqlDB   *sql.DB
		dialect gorp.Dialect
		err     error
	)
	switch c.Driver {
	case "sqlite3":
		slog.Info("opening sqlite database", "path", c.Path)
		sqlDB, err = sql.Open("sqlite3", c.Path)
		dialect = gorp.SqliteDialect{}
	case "postgres":
		sqlDB, err = openPostgres(c)
		dialect = gorp.PostgresDialect{}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := waitForConnection(ctx, sqlDB, monitor); err != nil {
		sqlDB.Close()
		return nil, err
	}
	if c.Driver == "sqlite3" {
		// Sqlite does not support concurrent writers.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(16)
	}
	monitor.observePool(sqlDB)
	slog.Info("database is ready", "driver", c.Driver)
	return &DB{DbMap: &gorp.DbMap{Db: sqlDB, Dialect: dialect}, DBConfig: c}, nil
}

func openPostgres(c conf.DBConfig) (*sql.DB, error) {
	stripYaml := func(s string) string { return strings.ReplaceAll(s, "\n", "") }
	dbURL, err := easypg.URLFrom(easypg.URLParts{
		HostName:          stripYaml(c.Host),
		Port:              strconv.Itoa(c.Port),
		UserName:          stripYaml(c.User),
		Password:          stripYaml(c.Password),
		ConnectionOptions: "sslmode=disable",
		DatabaseName:      stripYaml(c.Database),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build database url: %w", err)
	}
	slog.Info("connecting to database", "host", c.Host, "database", c.Database)
	return sql.Open("postgres", dbURL.String())
}

// Ping the database until it answers, giving up after ten attempts.
func waitForConnection(ctx context.Context, db *sql.DB, m monitor) error {
	const maxRetries = 10
	var err error
	for i := range maxRetries {
		m.attempt()
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}
		slog.Error("failed to connect to database, retrying...", "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return fmt.Errorf("giving up connecting to database: %w", err)
}

// Create the given tables if they do not exist yet, in one transaction.
func (d *DB) CreateTable(tables ...*gorp.TableMap) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, t := range tables {
		slog.Debug("creating table", "table", t.TableName)
		// true means to add IF NOT EXISTS
		if _, err := tx.Exec(t.SqlForCreate(true)); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.Error("failed to roll back", "error", rbErr)
			}
			return fmt.Errorf("failed to create table %s: %w", t.TableName, err)
		}
	}
	return tx.Commit()
}

// Add a model table to the database mapping.
func (d *DB) AddTable(t Table) *gorp.TableMap {
	slog.Debug("adding table", "table", t.TableName())
	return d.AddTableWithName(t, t.TableName())
}

// Convenience function to close the database connection.
func (d *DB) Close() {
	if err := d.Db.Close(); err != nil {
		slog.Error("failed to close database connection", "error", err)
	}
}
