package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"go.uber.org/multierr"
)

const (
	GroundFloor      = 1
	MinFloor         = 1
	MaxFloor         = 15
	TravelDuration   = 2 * time.Second // per floor
	DoorOpenDuration = 3 * time.Second
	EventBuffer      = 256
)

// Config holds the building and timing parameters shared by every unit.
type Config struct {
	// GroundFloor is where new units start and where an emergency sends them.
	GroundFloor int `yaml:"GroundFloor"`
	// MinFloor and MaxFloor bound the floors the harness accepts. The units do not check them.
	MinFloor       int           `yaml:"MinFloor"`
	MaxFloor       int           `yaml:"MaxFloor"`
	TravelDuration time.Duration `yaml:"TravelDuration"`
	DwellDuration  time.Duration `yaml:"DwellDuration"`
	EventBuffer    int           `yaml:"EventBuffer"`
}

func Default() Config {
	return Config{
		GroundFloor:    GroundFloor,
		MinFloor:       MinFloor,
		MaxFloor:       MaxFloor,
		TravelDuration: TravelDuration,
		DwellDuration:  DoorOpenDuration,
		EventBuffer:    EventBuffer,
	}
}

// Load reads a YAML file on top of the defaults. Keys missing from the file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()
	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	// An empty file decodes to io.EOF and leaves the defaults in place.
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports every problem in the config at once.
func (c Config) Validate() error {
	var err error
	if c.MinFloor > c.MaxFloor {
		err = multierr.Append(err, fmt.Errorf("MinFloor (%d) > MaxFloor (%d)", c.MinFloor, c.MaxFloor))
	}
	if !c.InBounds(c.GroundFloor) {
		err = multierr.Append(err, fmt.Errorf("GroundFloor %d outside [%d, %d]", c.GroundFloor, c.MinFloor, c.MaxFloor))
	}
	if c.TravelDuration < 0 {
		err = multierr.Append(err, fmt.Errorf("TravelDuration must not be negative, got %s", c.TravelDuration))
	}
	if c.DwellDuration < 0 {
		err = multierr.Append(err, fmt.Errorf("DwellDuration must not be negative, got %s", c.DwellDuration))
	}
	if c.EventBuffer < 0 {
		err = multierr.Append(err, fmt.Errorf("EventBuffer must not be negative, got %d", c.EventBuffer))
	}
	return err
}

func (c Config) InBounds(floor int) bool {
	return floor >= c.MinFloor && floor <= c.MaxFloor
}
