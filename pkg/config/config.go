// Package config loads server configuration from defaults, a yaml file and
// ROBOT_* environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	yml "gopkg.in/yaml.v2"

	"github.com/ankithreddypati/so101arm-mcp/pkg/pose"
)

// DefaultFile is the config file name looked for in the working directory.
const DefaultFile = "so101arm.yml"

// Config holds everything the serve command needs.
type Config struct {
	// Port is the serial device of the arm, e.g. /dev/ttyACM0. Required.
	Port string `koanf:"port" yaml:"port"`

	// ID names this robot; it selects the calibration file when
	// Calibration is not set explicitly. Required.
	ID string `koanf:"id" yaml:"id"`

	// Calibration is the calibration JSON path. Defaults to <id>.json.
	Calibration string `koanf:"calibration" yaml:"calibration"`

	// Poses is the pose file path.
	Poses string `koanf:"poses" yaml:"poses"`

	// Addr is the HTTP listen address.
	Addr string `koanf:"addr" yaml:"addr"`

	// MoveMS is the default single-leg move duration in milliseconds.
	MoveMS int `koanf:"move_ms" yaml:"move_ms"`

	// SampleHz is the trajectory sample rate.
	SampleHz int `koanf:"sample_hz" yaml:"sample_hz"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Poses:    pose.DefaultFile,
		Addr:     ":8000",
		MoveMS:   1500,
		SampleHz: 30,
	}
}

// Load reads the config file at path (missing file is fine, defaults
// apply) and overlays ROBOT_* environment variables: ROBOT_PORT,
// ROBOT_ID, ROBOT_CALIBRATION, ROBOT_POSES, ROBOT_ADDR.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !strings.Contains(err.Error(), "no such") { // file missing is fine
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("ROBOT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ROBOT_"))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if c.Calibration == "" && c.ID != "" {
		c.Calibration = c.ID + ".json"
	}
	return c, nil
}

// Validate checks the fields the serve command cannot run without.
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("config missing robot port (set port: in %s or ROBOT_PORT)", DefaultFile)
	}
	if c.ID == "" {
		return fmt.Errorf("config missing robot id (set id: in %s or ROBOT_ID)", DefaultFile)
	}
	return nil
}

// Write writes the config as yaml, used by the conf command to scaffold a
// file the user can edit.
func (c Config) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()
	if err := yml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}
