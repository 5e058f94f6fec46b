// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/cobaltcore-dev/netplace/internal/conf"
	"github.com/cobaltcore-dev/netplace/internal/db"
	"github.com/cobaltcore-dev/netplace/internal/db/testing/containers"
	"github.com/go-gorp/gorp"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Set up a database for a test.
//
// To run tests faster, the default is a sqlite file in a temporary
// directory. With POSTGRES_CONTAINER=1 a real postgres container is
// started instead. The database is closed when the test ends.
func SetupDBEnv(t *testing.T) *db.DB {
	t.Helper()
	var env *db.DB
	if os.Getenv("POSTGRES_CONTAINER") == "1" {
		slog.Info("using real postgres container")
		container := containers.PostgresContainer{}
		container.Init(t)
		dbURL, err := container.URL()
		if err != nil {
			t.Fatal(err)
		}
		sqlDB, err := sql.Open("postgres", dbURL)
		if err != nil {
			t.Fatal(err)
		}
		env = &db.DB{
			DbMap:    &gorp.DbMap{Db: sqlDB, Dialect: gorp.PostgresDialect{}},
			DBConfig: conf.DBConfig{Driver: "postgres", Host: "localhost", Database: "postgres"},
		}
	} else {
		path := filepath.Join(t.TempDir(), "test.db")
		sqlDB, err := sql.Open("sqlite3", path)
		if err != nil {
			t.Fatal(err)
		}
		sqlDB.SetMaxOpenConns(1)
		env = &db.DB{
			DbMap:    &gorp.DbMap{Db: sqlDB, Dialect: gorp.SqliteDialect{}},
			DBConfig: conf.DBConfig{Driver: "sqlite3", Path: path},
		}
	}
	// Registered after the container cleanup in Init, so it runs first.
	t.Cleanup(env.Close)
	return env
}
