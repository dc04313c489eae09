// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stress

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Strategy selects how each worker interleaves pushes and pops.
type Strategy string

const (
	// PushAllPopAll pushes every item of a worker, then pops the same count.
	PushAllPopAll Strategy = "push-all-pop-all"
	// PingPong alternates one push and one pop.
	PingPong Strategy = "ping-pong"
	// Random lets every worker pick PushAllPopAll or PingPong.
	Random Strategy = "random"
	// Bounded pushes Burst items then pops Burst items, and checks that the
	// size never exceeds Burst times Goroutines.
	Bounded Strategy = "bounded"
)

// Structure selects the container under test.
type Structure string

const (
	StructureQueue Structure = "queue"
	StructureStack Structure = "stack"
)

// Config describes one validation run.
type Config struct {
	Goroutines int           `yaml:"goroutines"`
	Items      int           `yaml:"items"` // Per goroutine
	Strategy   Strategy      `yaml:"strategy"`
	Structure  Structure     `yaml:"structure"`
	Burst      int           `yaml:"burst"`
	Seed       uint64        `yaml:"seed"`
	EventLog   int           `yaml:"event_log"`   // Trace entries kept; 0 disables tracing
	RetryLimit uint64        `yaml:"retry_limit"` // 0 selects msq.DefaultRetryLimit
	Timeout    time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the configuration of the two-goroutine
// push-all-pop-all run.
func DefaultConfig() Config {
	return Config{
		Goroutines: 2,
		Items:      1000000,
		Strategy:   PushAllPopAll,
		Structure:  StructureQueue,
		Burst:      2,
		Seed:       1,
		Timeout:    5 * time.Minute,
	}
}

var errConfig = errors.New("stress: invalid config")

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.Goroutines < 1:
		return fmt.Errorf("%w: goroutines must be >= 1, got %d", errConfig, c.Goroutines)
	case c.Items < 1 || uint64(c.Items) > math.MaxUint32:
		return fmt.Errorf("%w: items out of range: %d", errConfig, c.Items)
	case c.Timeout < 0:
		return fmt.Errorf("%w: negative timeout %v", errConfig, c.Timeout)
	case c.EventLog < 0:
		return fmt.Errorf("%w: negative event log size %d", errConfig, c.EventLog)
	}
	switch c.Strategy {
	case PushAllPopAll, PingPong, Random:
	case Bounded:
		if c.Burst < 1 {
			return fmt.Errorf("%w: burst must be >= 1, got %d", errConfig, c.Burst)
		}
	default:
		return fmt.Errorf("%w: unknown strategy %q", errConfig, c.Strategy)
	}
	switch c.Structure {
	case StructureQueue, StructureStack:
	default:
		return fmt.Errorf("%w: unknown structure %q", errConfig, c.Structure)
	}
	return nil
}

// LoadConfig reads a YAML file over the defaults. Unknown keys are errors.
func LoadConfig(file string) (Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(file)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f, yaml.Strict())
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("stress: parse %s: %w", file, err)
	}
	return cfg, cfg.Validate()
}
