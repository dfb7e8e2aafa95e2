package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Adapter AdapterConfig `yaml:"adapter"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Web     WebConfig     `yaml:"web"`
	PPS     PPSConfig     `yaml:"pps"`
}

// SourceConfig selects where NMEA lines come from.
type SourceConfig struct {
	// Kind is one of "serial", "tcp" or "replay".
	Kind string `yaml:"kind"`

	// Device and Baud apply to kind=serial.
	Device string `yaml:"device"`
	Baud   uint   `yaml:"baud"`

	// Addr applies to kind=tcp (host:port of an NMEA line feed, e.g. a
	// gpsd raw export on port 10110).
	Addr           string        `yaml:"addr"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`

	// Path, Pace and Loop apply to kind=replay.
	Path string        `yaml:"path"`
	Pace time.Duration `yaml:"pace"`
	Loop bool          `yaml:"loop"`
}

// AdapterConfig carries the sentence-decoding policies.
type AdapterConfig struct {
	// DatestampPolicy is one of "intelligent", "19xx" or "20xx".
	DatestampPolicy string `yaml:"datestamp_policy"`
	DateThreshold   int    `yaml:"date_threshold"`
}

type MQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Prefix   string `yaml:"prefix"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

type PPSConfig struct {
	Enable bool   `yaml:"enable"`
	Chip   string `yaml:"chip"`
	Line   int    `yaml:"line"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	switch cfg.Source.Kind {
	case "serial", "":
		cfg.Source.Kind = "serial"
		if cfg.Source.Device == "" {
			return Config{}, fmt.Errorf("source.device is required for source.kind=serial")
		}
		if cfg.Source.Baud == 0 {
			cfg.Source.Baud = 9600
		}
	case "tcp":
		if cfg.Source.Addr == "" {
			return Config{}, fmt.Errorf("source.addr is required for source.kind=tcp")
		}
		if cfg.Source.ReconnectDelay <= 0 {
			cfg.Source.ReconnectDelay = 1 * time.Second
		}
	case "replay":
		if cfg.Source.Path == "" {
			return Config{}, fmt.Errorf("source.path is required for source.kind=replay")
		}
	default:
		return Config{}, fmt.Errorf("unknown source.kind %q", cfg.Source.Kind)
	}

	switch cfg.Adapter.DatestampPolicy {
	case "":
		cfg.Adapter.DatestampPolicy = "intelligent"
	case "intelligent", "19xx", "20xx":
	default:
		return Config{}, fmt.Errorf("unknown adapter.datestamp_policy %q", cfg.Adapter.DatestampPolicy)
	}
	if cfg.Adapter.DateThreshold < 0 || cfg.Adapter.DateThreshold >= 100 {
		return Config{}, fmt.Errorf("adapter.date_threshold must be in [0, 100)")
	}

	if cfg.MQTT.Enable {
		if cfg.MQTT.Broker == "" {
			cfg.MQTT.Broker = "tcp://localhost:1883"
		}
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = "gpsfeed"
		}
		if cfg.MQTT.Prefix == "" {
			cfg.MQTT.Prefix = "gpsfeed"
		}
	}

	if cfg.Web.Enable && cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}

	if cfg.PPS.Enable {
		if cfg.PPS.Chip == "" {
			cfg.PPS.Chip = "gpiochip0"
		}
		if cfg.PPS.Line <= 0 {
			return Config{}, fmt.Errorf("pps.line is required when pps.enable is true")
		}
	}

	return cfg, nil
}
