// Package config loads the YAML configuration file named by the cardlink
// CLI's --config flag. The CLI parses the file at startup but does not
// apply its values: subcommand flags and the logrus setup keep their own
// defaults.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level cardlink configuration file.
type Config struct {
	Reader  ReaderConfig `yaml:"reader"`
	VCard   VCardConfig  `yaml:"vcard"`
	RSAP    RSAPConfig   `yaml:"rsap"`
	Logging LoggingConfig `yaml:"logging"`
}

// ReaderConfig configures the physical-card reader role.
type ReaderConfig struct {
	Device   string `yaml:"device"`
	ClockHz  int    `yaml:"clock_hz"`
	ResetPin string `yaml:"reset_pin"`
	Profile  string `yaml:"profile"`
	NoPPS    bool   `yaml:"no_pps"`
}

// VCardConfig configures the virtual-card emulation role.
type VCardConfig struct {
	Device  string `yaml:"device"`
	ClockHz int    `yaml:"clock_hz"`
	NoPPS   bool   `yaml:"no_pps"`
	Handler string `yaml:"handler"`
}

// RSAPConfig configures the rSAP Bluetooth client.
type RSAPConfig struct {
	MAC     string `yaml:"mac"`
	Channel int    `yaml:"channel"`
}

// LoggingConfig holds logrus formatter settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	JSON      bool   `yaml:"json"`
	Timestamp bool   `yaml:"timestamp"`
}

// Load reads and parses a YAML config file, applying defaults for any
// field left unset.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Reader: ReaderConfig{
			ClockHz:  3571200,
			ResetPin: "+rts",
			Profile:  "uicc+sim",
		},
		VCard: VCardConfig{
			ClockHz: 3571200,
			Handler: "built-in-echo",
		},
		RSAP: RSAPConfig{
			Channel: 1,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Timestamp: true,
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
