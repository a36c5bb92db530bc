package main

import (
	"fmt"
	"time"

	"github.com/pelletier/go-toml"
)

// Config is the daemon configuration, loaded from a toml file.
type Config struct {
	// Addr is the address the HTTP API binds.
	Addr string `toml:"addr"`

	// DB is the sqlite database path. The db is created when it
	// doesn't exist yet.
	DB string `toml:"db"`

	// WorkDir is the root of every pipeline's output directory.
	WorkDir string `toml:"workdir"`

	// Profiles is the yaml file defining the resource profiles.
	Profiles string `toml:"profiles"`

	// Hosts is the json file the bare metal host registry lives in.
	Hosts string `toml:"hosts"`

	// Sbatch, Squeue and Sacct override the slurm executables.
	Sbatch string `toml:"sbatch"`
	Squeue string `toml:"squeue"`
	Sacct  string `toml:"sacct"`

	// Poll is the reconcile interval, eg. "30s".
	Poll string `toml:"poll"`
}

func loadConfig(path string) (*Config, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	err = tree.Unmarshal(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Addr == "" {
		cfg.Addr = "localhost:8282"
	}
	if cfg.DB == "" {
		cfg.DB = "jobrunner.db"
	}
	if cfg.Profiles == "" {
		cfg.Profiles = "config/profiles.yaml"
	}
	if cfg.Hosts == "" {
		cfg.Hosts = "config/hosts.json"
	}
	if cfg.Poll == "" {
		cfg.Poll = "30s"
	}
	return cfg, nil
}

func (c *Config) pollInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Poll)
	if err != nil {
		return 0, fmt.Errorf("invalid poll interval: %v", err)
	}
	return d, nil
}
