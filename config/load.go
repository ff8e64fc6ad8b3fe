package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

type (
	yamlRead struct {
		Length  string `yaml:"length"`
		Period  string `yaml:"period"`
		Timeout string `yaml:"timeout"`
	}

	yamlConfig struct {
		Body struct {
			Read yamlRead `yaml:",inline"`
		} `yaml:"body"`
		Form struct {
			Read      yamlRead `yaml:",inline"`
			FlagValue *string  `yaml:"flag_value"`
		} `yaml:"form"`
		Multipart struct {
			Headers yamlRead `yaml:"headers"`
			Body    yamlRead `yaml:"body"`
		} `yaml:"multipart"`
		Headers struct {
			Server  *string           `yaml:"server"`
			Default map[string]string `yaml:"default"`
		} `yaml:"headers"`
	}
)

// FromFile reads the YAML file and overlays it onto the defaults.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return FromYAML(data)
}

// FromYAML overlays the YAML document onto the defaults. Omitted fields keep their default
// values. Lengths accept both plain integers and human-readable sizes (e.g. 64KB, 8MB), periods
// and timeouts are Go durations (e.g. 5s, 1m30s).
func FromYAML(data []byte) (*Config, error) {
	var doc yamlConfig
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg := Default()

	for _, section := range []struct {
		name string
		src  yamlRead
		dst  *Read
	}{
		{"body", doc.Body.Read, &cfg.Body.Read},
		{"form", doc.Form.Read, &cfg.Form.Read},
		{"multipart.headers", doc.Multipart.Headers, &cfg.Multipart.Headers},
		{"multipart.body", doc.Multipart.Body, &cfg.Multipart.Body},
	} {
		if err := section.src.overlay(section.dst); err != nil {
			return nil, fmt.Errorf("config: %s: %w", section.name, err)
		}
	}

	if doc.Form.FlagValue != nil {
		cfg.Form.FlagValue = *doc.Form.FlagValue
	}

	if doc.Headers.Server != nil {
		cfg.Headers.Server = *doc.Headers.Server
	}

	for key, value := range doc.Headers.Default {
		cfg.Headers.Default[key] = value
	}

	return cfg, nil
}

func (y yamlRead) overlay(dst *Read) error {
	if len(y.Length) > 0 {
		length, err := humanize.ParseBytes(y.Length)
		if err != nil {
			return fmt.Errorf("length: %w", err)
		}

		if length == 0 || length > uint64(maxInt) {
			return fmt.Errorf("length: %d is out of range", length)
		}

		dst.Length = int(length)
	}

	for _, field := range []struct {
		name string
		src  string
		dst  *time.Duration
	}{
		{"period", y.Period, &dst.Period},
		{"timeout", y.Timeout, &dst.Timeout},
	} {
		if len(field.src) == 0 {
			continue
		}

		value, err := time.ParseDuration(field.src)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}

		if value <= 0 {
			return fmt.Errorf("%s: must be positive", field.name)
		}

		*field.dst = value
	}

	return nil
}

const maxInt = int(^uint(0) >> 1)
