// Copyright SAP SE
// SPDX-License-Identifier: Apache-2.0

package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configuration for the logger.
type LoggingConfig struct {
	// The log level: debug, info, warn or error.
	LevelStr string `json:"level"`
	// The log format: text or json.
	Format string `json:"format"`
}

// Configuration for the metrics exported after a run.
type MonitoringConfig struct {
	// Labels attached to every exported metric.
	Labels map[string]string `json:"labels,omitempty"`
	// If set, metrics are written to this file in the
	// node exporter textfile format after each run.
	TextfilePath string `json:"textfilePath,omitempty"`
}

// Database configuration.
type DBConfig struct {
	// Either sqlite3 or postgres.
	Driver string `json:"driver"`
	// Path of the sqlite database file.
	Path string `json:"path,omitempty"`

	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`
}

// Configuration for the placement search.
type SolverConfig struct {
	// Name of the placement heuristic to run.
	Algorithm string `json:"algorithm"`
	// Number of independent attempts, the best one is kept.
	Attempts int `json:"attempts"`
	// Maximum number of attempts running at the same time.
	Parallelism int `json:"parallelism"`
	// Seed for randomized heuristics. Attempt i uses Seed+i.
	Seed uint64 `json:"seed"`
}

// Configuration of where results go.
type OutputConfig struct {
	// File to write the solution to. Stdout if empty.
	SolutionPath string `json:"solutionPath,omitempty"`
	// Persist the evaluated assignment to the database.
	Persist bool `json:"persist"`
}

// Configuration of a netplace run.
type Config struct {
	Logging    LoggingConfig    `json:"logging"`
	Monitoring MonitoringConfig `json:"monitoring"`
	DB         DBConfig         `json:"db"`
	Solver     SolverConfig     `json:"solver"`
	Output     OutputConfig     `json:"output"`
}

// Configuration used when no file overrides a value.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{LevelStr: "info", Format: "text"},
		DB:      DBConfig{Driver: "sqlite3", Path: "netplace.db"},
		Solver: SolverConfig{
			Algorithm:   "greedy",
			Attempts:    1,
			Parallelism: 1,
		},
	}
}

// Load the configuration from a base file and an optional override file.
//
// Both files may be json or yaml, decided by their extension. Values from
// the override file (usually holding secrets) replace those of the base
// file, nested objects are merged key by key. Values missing in both files
// keep their defaults. An empty path skips the respective file.
func LoadConfig(path, overridePath string) (Config, error) {
	base := map[string]any{}
	if path != "" {
		raw, err := readRawConfig(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		base = raw
	}
	if overridePath != "" {
		override, err := readRawConfig(overridePath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config override %s: %w", overridePath, err)
		}
		base = mergeMaps(base, override)
	}
	c, err := newConfigFromMap(base)
	if err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// Note: the config is read as a raw map first, so that merging does not
// override values with the zero values of absent fields.
func newConfigFromMap(raw map[string]any) (Config, error) {
	merged, err := json.Marshal(raw)
	if err != nil {
		return Config{}, err
	}
	c := DefaultConfig()
	if err := json.Unmarshal(merged, &c); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return c, nil
}

// Read the json or yaml file at the given path as a map.
func readRawConfig(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return readRawConfigFromBytes(data, filepath.Ext(path))
}

func readRawConfigFromBytes(data []byte, ext string) (map[string]any, error) {
	conf := map[string]any{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &conf); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &conf); err != nil {
			return nil, err
		}
	}
	return conf, nil
}

// Recursively override dst with src (in-place).
func mergeMaps(dst, src map[string]any) map[string]any {
	result := dst
	for k, v := range src {
		if v == nil {
			continue
		}
		if dstVal, ok := dst[k]; ok {
			dstMap, dstIsMap := dstVal.(map[string]any)
			srcMap, srcIsMap := v.(map[string]any)
			if dstIsMap && srcIsMap {
				result[k] = mergeMaps(dstMap, srcMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}
