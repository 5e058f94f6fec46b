// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package containers

import (
	"database/sql"
	"log/slog"
	"testing"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
	"github.com/sapcc/go-bits/easypg"
)

const (
	postgresImage    = "postgres"
	postgresTag      = "17"
	postgresUser     = "postgres"
	postgresPassword = "secret"
	postgresDatabase = "postgres"
	// Seconds after which docker kills a container a crashed test left behind.
	postgresExpiry = 120
)

// A throwaway postgres server running in docker for the lifetime of one test.
type PostgresContainer struct {
	pool     *dockertest.Pool
	resource *dockertest.Resource
}

// Host port mapped to the container's postgres port.
func (c *PostgresContainer) GetPort() string {
	return c.resource.GetPort("5432/tcp")
}

// Connection url of the containerized database.
func (c *PostgresContainer) URL() (string, error) {
	u, err := easypg.URLFrom(easypg.URLParts{
		HostName:          "localhost",
		Port:              c.GetPort(),
		UserName:          postgresUser,
		Password:          postgresPassword,
		ConnectionOptions: "sslmode=disable",
		DatabaseName:      postgresDatabase,
	})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Start the container and wait until postgres accepts connections.
// The container is purged when the test ends.
func (c *PostgresContainer) Init(t *testing.T) {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("failed to connect to docker: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Fatalf("docker is not reachable: %v", err)
	}
	c.pool = pool
	c.resource, err = pool.RunWithOptions(&dockertest.RunOptions{
		Repository: postgresImage,
		Tag:        postgresTag,
		Env: []string{
			"POSTGRES_USER=" + postgresUser,
			"POSTGRES_PASSWORD=" + postgresPassword,
			"POSTGRES_DB=" + postgresDatabase,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(c.Close)
	if err := c.resource.Expire(postgresExpiry); err != nil {
		t.Fatalf("failed to set container expiry: %v", err)
	}
	u, err := c.URL()
	if err != nil {
		t.Fatalf("failed to build database url: %v", err)
	}
	sqlDB, err := sql.Open("postgres", u)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer sqlDB.Close()
	if err := pool.Retry(sqlDB.Ping); err != nil {
		t.Fatalf("postgres did not become ready: %v", err)
	}
}

// Remove the container. Safe to call more than once.
func (c *PostgresContainer) Close() {
	if c.pool == nil || c.resource == nil {
		return
	}
	if err := c.pool.Purge(c.resource); err != nil {
		slog.Warn("failed to purge postgres container", "error", err)
	}
	c.resource = nil
}
