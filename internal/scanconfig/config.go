package scanconfig

import (
	"sort"

	"github.com/wonny/pocscan/internal/contracts"
)

// DefaultPresetName is used when the file names no default
const DefaultPresetName = "standard"

// Config is the scan presets file
type Config struct {
	Version  int                    `yaml:"version" json:"version"`
	Default  string                 `yaml:"default" json:"default"`
	Presets  map[string]Preset      `yaml:"presets" json:"presets"`
	Universe []contracts.Instrument `yaml:"universe,omitempty" json:"universe,omitempty"` // 비어 있으면 기본 20종목
}

// Preset is a named set of scan conditions
type Preset struct {
	Description string                   `yaml:"description" json:"description"`
	Conditions  contracts.ScanConditions `yaml:"conditions" json:"conditions"`
}

// Builtin returns the configuration used when no presets file is given
func Builtin() *Config {
	return &Config{
		Version: 1,
		Default: DefaultPresetName,
		Presets: map[string]Preset{
			DefaultPresetName: {
				Description: "기본 조건",
				Conditions:  contracts.DefaultScanConditions(),
			},
		},
	}
}

// Preset returns the conditions of a named preset; "" selects the default
func (c *Config) Preset(name string) (contracts.ScanConditions, error) {
	if name == "" {
		name = c.Default
	}
	p, ok := c.Presets[name]
	if !ok {
		return contracts.ScanConditions{}, ValidationError{"presets", "unknown preset " + name}
	}
	return p.Conditions, nil
}

// Names returns preset names in sorted order
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
