// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package conf

import (
	"errors"
	"fmt"
	"slices"
)

// Check the config for invalid values and fill in defaults where
// values were left empty.
func (c *Config) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if c.Logging.LevelStr == "" {
		c.Logging.LevelStr = "info"
	}
	if !slices.Contains(validLevels, c.Logging.LevelStr) {
		return fmt.Errorf("invalid log level %s, expected one of %v", c.Logging.LevelStr, validLevels)
	}
	validFormats := []string{"text", "json"}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if !slices.Contains(validFormats, c.Logging.Format) {
		return fmt.Errorf("invalid log format %s, expected one of %v", c.Logging.Format, validFormats)
	}

	if c.Solver.Algorithm == "" {
		c.Solver.Algorithm = "greedy"
	}
	if c.Solver.Attempts < 1 {
		return fmt.Errorf("solver attempts must be at least 1, got %d", c.Solver.Attempts)
	}
	if c.Solver.Parallelism < 1 {
		return fmt.Errorf("solver parallelism must be at least 1, got %d", c.Solver.Parallelism)
	}

	if !c.Output.Persist {
		return nil
	}
	switch c.DB.Driver {
	case "sqlite3":
		if c.DB.Path == "" {
			return errors.New("sqlite3 database needs a path")
		}
	case "postgres":
		if c.DB.Host == "" || c.DB.Database == "" {
			return errors.New("postgres database needs a host and a database name")
		}
		if c.DB.Port == 0 {
			c.DB.Port = 5432
		}
	default:
		return fmt.Errorf("invalid database driver %q, expected sqlite3 or postgres", c.DB.Driver)
	}
	return nil
}
