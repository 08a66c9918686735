package scanconfig

import (
	"fmt"

	"github.com/wonny/pocscan/internal/universe"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	if cfg.Version != 1 {
		return ValidationError{"version", "must be 1"}
	}

	if len(cfg.Presets) == 0 {
		return ValidationError{"presets", "at least one preset required"}
	}

	for name, p := range cfg.Presets {
		if name == "" {
			return ValidationError{"presets", "preset name must not be empty"}
		}
		if err := p.Conditions.Validate(); err != nil {
			return ValidationError{"presets." + name + ".conditions", err.Error()}
		}
	}

	if _, ok := cfg.Presets[cfg.Default]; !ok {
		return ValidationError{"default", fmt.Sprintf("preset %q not defined", cfg.Default)}
	}

	if len(cfg.Universe) > 0 {
		if _, err := universe.New(cfg.Universe); err != nil {
			return ValidationError{"universe", err.Error()}
		}
	}

	return nil
}

// Registry returns the configured universe, or the built-in one
func (c *Config) Registry() (*universe.Registry, error) {
	if len(c.Universe) == 0 {
		return universe.Default(), nil
	}
	return universe.New(c.Universe)
}
