// Package config holds the mumblelink command configuration.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/srediag/mumblelink/pkg/mumble"
)

const (
	minInterval = time.Millisecond
	maxWorkers  = 256
)

// Config is the mumblelink command configuration.
type Config struct {
	// Names are the link regions to sample. Empty means the name resolved from
	// the game's own -mumble argument convention, i.e. mumble.DefaultName.
	Names []string `env:"MUMBLELINK_NAMES" envSeparator:","`
	// Interval is the sampling period.
	Interval time.Duration `env:"MUMBLELINK_INTERVAL" envDefault:"100ms"`
	// HTTPAddr serves /metrics, /live, /ready and /snapshot. Empty disables the server.
	HTTPAddr string `env:"MUMBLELINK_HTTP_ADDR" envDefault:":9424"`
	// StaleAfter fails readiness when a link tick has not moved for this long.
	StaleAfter time.Duration `env:"MUMBLELINK_STALE_AFTER" envDefault:"5s"`
	// Workers bounds concurrent link samples.
	Workers int `env:"MUMBLELINK_WORKERS" envDefault:"4"`
	// OpenRetries bounds attempts to map each region at start-up.
	OpenRetries uint64 `env:"MUMBLELINK_OPEN_RETRIES" envDefault:"5"`
	// Print writes every tick change to stdout.
	Print bool `env:"MUMBLELINK_PRINT"`
	// Dump prints the region image file at this path and exits.
	Dump string
}

// DefaultConfig returns the configuration used when neither env nor flags override it.
func DefaultConfig() Config {
	return Config{
		Names:       []string{mumble.DefaultName},
		Interval:    100 * time.Millisecond,
		HTTPAddr:    ":9424",
		StaleAfter:  5 * time.Second,
		Workers:     4,
		OpenRetries: 5,
	}
}

type nameFlags []string

func (n *nameFlags) String() string {
	return strings.Join(*n, ",")
}

func (n *nameFlags) Set(value string) error {
	*n = append(*n, value)
	return nil
}

// ParseConfig loads env into a Config, then applies flags from args.
// Repeated -mumble flags replace MUMBLELINK_NAMES.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	var names nameFlags
	fs.Var(&names, strings.TrimPrefix(mumble.NameFlag, "-"), "link region name (repeatable, 0 disables)")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "sampling interval")
	fs.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "HTTP listen address, empty to disable")
	fs.DurationVar(&cfg.StaleAfter, "stale-after", cfg.StaleAfter, "readiness fails after a link stops ticking this long")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent link samples")
	fs.Uint64Var(&cfg.OpenRetries, "open-retries", cfg.OpenRetries, "attempts to map each region")
	fs.BoolVar(&cfg.Print, "print", cfg.Print, "print tick changes")
	fs.StringVar(&cfg.Dump, "dump", "", "print the region image at this path and exit")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if len(names) > 0 {
		cfg.Names = names
	}
	if len(cfg.Names) == 0 {
		cfg.Names = []string{mumble.DefaultName}
	}
	return cfg, nil
}

// Verify reports the first invalid setting.
func Verify(cfg Config) error {
	if cfg.Dump != "" {
		return nil
	}
	if len(cfg.Names) == 0 {
		return errors.New("no link names")
	}
	seen := make(map[string]bool, len(cfg.Names))
	for _, name := range cfg.Names {
		if name == "" {
			return errors.New("empty link name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate link name %q", name)
		}
		seen[name] = true
	}
	if cfg.Interval < minInterval {
		return fmt.Errorf("interval %s below %s", cfg.Interval, minInterval)
	}
	if cfg.StaleAfter < cfg.Interval {
		return fmt.Errorf("stale-after %s shorter than interval %s", cfg.StaleAfter, cfg.Interval)
	}
	if cfg.Workers < 1 || cfg.Workers > maxWorkers {
		return fmt.Errorf("workers %d outside [1, %d]", cfg.Workers, maxWorkers)
	}
	if cfg.OpenRetries < 1 {
		return errors.New("open-retries must be at least 1")
	}
	return nil
}
