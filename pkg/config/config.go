// Package config holds the run configuration for the clustering engine.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config is the run configuration. Zero PreferredNumberOfModules disables
// the module-count bias.
type Config struct {
	PreferredNumberOfModules uint    `yaml:"preferred_number_of_modules"`
	Directed                 bool    `yaml:"directed"`
	Damping                  float64 `yaml:"damping" validate:"gt=0,lt=1"`
	Trials                   int     `yaml:"trials" validate:"min=1,max=10000"`
	Workers                  int     `yaml:"workers" validate:"min=1,max=1024"`
	Seed                     int64   `yaml:"seed"`
	MaxSweeps                int     `yaml:"max_sweeps" validate:"min=1"`
	MinImprovement           float64 `yaml:"min_improvement" validate:"gte=0"`
	Accumulator              string  `yaml:"accumulator" validate:"oneof=dense ordered"`
	LogLevel                 string  `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Damping:        0.85,
		Trials:         1,
		Workers:        1,
		Seed:           123,
		MaxSweeps:      50,
		MinImprovement: 1e-10,
		Accumulator:    "dense",
		LogLevel:       "info",
	}
}

// Load reads a YAML file on top of Default and validates the result
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s: must be one of [%s], got %v", fe.Field(), fe.Param(), fe.Value()))
		case "min", "gte", "gt":
			msgs = append(msgs, fmt.Sprintf("%s: must be %s %s, got %v", fe.Field(), boundWord(fe.Tag()), fe.Param(), fe.Value()))
		case "max", "lt":
			msgs = append(msgs, fmt.Sprintf("%s: must be %s %s, got %v", fe.Field(), boundWord(fe.Tag()), fe.Param(), fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func boundWord(tag string) string {
	switch tag {
	case "gt":
		return "greater than"
	case "lt":
		return "less than"
	case "max":
		return "at most"
	default:
		return "at least"
	}
}
