package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meigma/arc/typetag"
)

// Config is the optional YAML configuration file.
//
//	unknown_tag_fallback: bin
//	output: ./extracted
//	tag_files:
//	  - ./lp2-tags.yaml
//	tags:
//	  "0x12345678": dds
type Config struct {
	// UnknownTagFallback is used for type tags missing from the registry.
	// Empty means unknown tags are an error.
	UnknownTagFallback string `yaml:"unknown_tag_fallback"`

	// Output is the default unpack destination.
	Output string `yaml:"output"`

	// TagFiles are additional tag files merged into the registry in order.
	TagFiles []string `yaml:"tag_files"`

	// Tags are merged into the registry after TagFiles.
	Tags map[string]string `yaml:"tags"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{Output: "."}
}

// LoadConfig reads the YAML configuration at path on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Registry builds the type tag registry: the defaults, then each tag file,
// then inline tags. Later sources win.
func (c *Config) Registry(extraFiles ...string) (*typetag.Registry, error) {
	reg := typetag.Default()
	for _, path := range append(append([]string(nil), c.TagFiles...), extraFiles...) {
		r, err := typetag.Load(path)
		if err != nil {
			return nil, err
		}
		reg = reg.Merge(r)
	}
	if len(c.Tags) > 0 {
		r, err := typetag.FromStrings(c.Tags)
		if err != nil {
			return nil, fmt.Errorf("config tags: %w", err)
		}
		reg = reg.Merge(r)
	}
	return reg, nil
}
