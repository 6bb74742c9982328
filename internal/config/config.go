package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds process-level settings. Defaults come from the struct
// values below; FLATFINDER_* environment variables override them, with
// underscores mapping to config-key dots (FLATFINDER_SERVER_ADDR,
// FLATFINDER_DATA_TRANSACTIONS, ...).
type Config struct {
	Server struct {
		Addr string `koanf:"addr"`
	} `koanf:"server"`

	Data struct {
		Transactions string `koanf:"transactions"` // resale dataset CSV, optional
		DBPath       string `koanf:"dbpath"`       // sqlite path, ":memory:" by default
		AmenityDir   string `koanf:"amenitydir"`   // mrt/schools/malls/hawkers CSVs
		MappingsDir  string `koanf:"mappingsdir"`  // code-table CSVs
		TrendTable   string `koanf:"trendtable"`   // year->multiplier JSON, optional
		Weights      string `koanf:"weights"`      // scoring weights JSON, optional
	} `koanf:"data"`

	// Ranking tunables. Zero values defer to the engine defaults.
	Ranking struct {
		AppreciationRate float64 `koanf:"appreciationrate"`
		MaxProcess       int     `koanf:"maxprocess"`
		MaxAccepted      int     `koanf:"maxaccepted"`
		TimeoutSeconds   int     `koanf:"timeoutseconds"`
		TopN             int     `koanf:"topn"`
		CacheSize        int     `koanf:"cachesize"`
	} `koanf:"ranking"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func defaults() Config {
	var c Config
	c.Server.Addr = ":8080"
	c.Data.DBPath = ":memory:"
	c.Data.AmenityDir = "data"
	c.Data.MappingsDir = "data/mappings"
	c.Log.Level = "info"
	return c
}

// Load merges defaults with FLATFINDER_-prefixed environment variables.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(env.Provider("FLATFINDER_", ".", func(s string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, "FLATFINDER_")), "_", ".", 1)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
