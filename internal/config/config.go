package config

import (
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"lbsim/internal/dispatch"
	"lbsim/internal/sched"
)

// Config mirrors config.yml
type Config struct {
	QuantumMS        int    `yaml:"quantum_ms"`         // 100 (by default)
	Hosts            int    `yaml:"hosts"`              // 3 (by default)
	Policy           string `yaml:"policy"`             // ROUND_ROBIN (by default)
	NoiseThresholdMS int    `yaml:"noise_threshold_ms"` // 10 quanta (by default)
	CSVPath          string `yaml:"csv_path"`           // event log, off when empty
	Listen           string `yaml:"listen"`             // status API address, off when empty
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		QuantumMS:        int(sched.DefaultQuantum / time.Millisecond),
		Hosts:            3,
		Policy:           dispatch.RoundRobin.String(),
		NoiseThresholdMS: int(dispatch.DefaultNoiseThreshold / time.Millisecond),
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}

	cfg.clamp()
	return cfg, nil
}

// sanity clamps
func (c *Config) clamp() {
	if c.QuantumMS <= 0 {
		c.QuantumMS = int(sched.DefaultQuantum / time.Millisecond)
	}
	if c.NoiseThresholdMS < 0 {
		c.NoiseThresholdMS = 0
	}
	if c.Policy == "" {
		c.Policy = dispatch.RoundRobin.String()
	}
}

// Validate reports every problem with the configuration at once.
func (c Config) Validate() error {
	var errs *multierror.Error

	if c.Hosts <= 0 {
		errs = multierror.Append(errs, errors.Wrapf(dispatch.ErrNoHosts, "hosts = %d", c.Hosts))
	}
	policy, err := dispatch.ParsePolicy(c.Policy)
	if err != nil {
		errs = multierror.Append(errs, err)
	} else if policy == dispatch.StaticSizePartition && c.Hosts > 0 && c.Hosts < sched.NumCategories {
		errs = multierror.Append(errs, errors.Wrapf(dispatch.ErrPartitionHosts, "hosts = %d", c.Hosts))
	}

	return errs.ErrorOrNil()
}

// Quantum returns the configured quantum as a duration.
func (c Config) Quantum() time.Duration {
	return time.Duration(c.QuantumMS) * time.Millisecond
}

// NoiseThreshold returns the LEAST_WORK_LEFT tie threshold as a duration.
func (c Config) NoiseThreshold() time.Duration {
	return time.Duration(c.NoiseThresholdMS) * time.Millisecond
}

// DispatchPolicy returns the parsed policy. Call Validate first.
func (c Config) DispatchPolicy() dispatch.Policy {
	p, _ := dispatch.ParsePolicy(c.Policy)
	return p
}
