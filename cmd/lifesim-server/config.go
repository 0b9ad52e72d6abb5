package main

import (
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/mauro3422/lifesim/internal/sim"
)

// ServerConfig holds the server configuration
type ServerConfig struct {
	Addr               string
	DefaultWorldID     string
	CatalogFile        string
	SnapshotDir        string
	SnapshotEveryTicks int
	JournalFile        string
	LogLevel           string
}

// configResolver defines how to resolve a single configuration value
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// loadServerConfig loads server configuration from CLI flags and environment variables.
// Uses a resolver pattern to make it easy to add new configuration options.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	// Define all configuration resolvers
	// To add a new option, just add a new resolver here
	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "LIFESIM_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "world-id",
			envVarName:  "LIFESIM_WORLD_ID",
			defaultVal:  "default",
			description: "default world ID for the initial catalog",
			setter:      func(c *ServerConfig, v string) { c.DefaultWorldID = v },
		},
		{
			flagName:    "catalog-file",
			envVarName:  "LIFESIM_CATALOG_FILE",
			defaultVal:  "",
			description: "optional path to a JSON catalog config file to load at startup",
			setter:      func(c *ServerConfig, v string) { c.CatalogFile = v },
		},
		{
			flagName:    "snapshot-dir",
			envVarName:  "LIFESIM_SNAPSHOT_DIR",
			defaultVal:  "./data",
			description: "Directory where world snapshots are stored",
			setter:      func(c *ServerConfig, v string) { c.SnapshotDir = v },
		},
		{
			flagName:    "snapshot-every-ticks",
			envVarName:  "LIFESIM_SNAPSHOT_EVERY_TICKS",
			defaultVal:  "1000",
			description: "How often to write snapshots (in number of ticks); 0 disables periodic snapshots",
			setter: func(c *ServerConfig, v string) {
				// Parse int value, with error handling
				if val, err := strconv.Atoi(v); err == nil {
					c.SnapshotEveryTicks = val
				} else {
					log.Printf("Invalid value for snapshot-every-ticks: %s, using default 1000", v)
					c.SnapshotEveryTicks = 1000
				}
			},
		},
		{
			flagName:    "journal-file",
			envVarName:  "LIFESIM_JOURNAL_FILE",
			defaultVal:  "",
			description: "optional path to a SQLite bond-event journal; empty disables journaling",
			setter:      func(c *ServerConfig, v string) { c.JournalFile = v },
		},
		{
			flagName:    "log-level",
			envVarName:  "LIFESIM_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}

	// Register string flags first
	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	// Parse flags once
	flag.Parse()

	// Resolve values for each resolver
	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}

// loadInitialCatalogFromFile loads a catalog configuration from a JSON file.
// Returns the CatalogConfig, the built Catalog and zones, or an error.
func loadInitialCatalogFromFile(path string) (sim.CatalogConfig, *sim.Catalog, sim.ZoneSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sim.CatalogConfig{}, nil, nil, err
	}

	cfg, err := sim.ParseCatalogConfig(data)
	if err != nil {
		return sim.CatalogConfig{}, nil, nil, err
	}

	// Validation happens inside BuildCatalog
	catalog, zones, err := sim.BuildCatalog(cfg)
	if err != nil {
		return sim.CatalogConfig{}, nil, nil, err
	}

	return cfg, catalog, zones, nil
}
