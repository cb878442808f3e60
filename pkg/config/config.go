// Package config loads project settings for the Verilog preprocessor from
// a YAML file.
//
//	search_dirs: [rtl/include, /opt/cells/]
//	defines:
//	  SIM: ""
//	  WIDTH: "32"
//	undefines: [FPGA]
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/eedesignhouse/QtVerilog/pkg/preproc"
)

// Config is the contents of a project file.
type Config struct {
	SearchDirs []string          `yaml:"search_dirs"`
	Defines    map[string]string `yaml:"defines"` // name -> value, empty for a plain define
	Undefines  []string          `yaml:"undefines"`
}

// Load reads and parses a project file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses project file contents. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// DefineList returns the defines in NAME or NAME=VALUE form, sorted by name.
func (c *Config) DefineList() []string {
	names := make([]string, 0, len(c.Defines))
	for name := range c.Defines {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		if v := c.Defines[name]; v != "" {
			out = append(out, name+"="+v)
		} else {
			out = append(out, name)
		}
	}
	return out
}

// Apply puts the project settings ahead of whatever opts already holds.
// Search dirs from the file are tried first and command line defines
// override file defines of the same name.
func (c *Config) Apply(opts *preproc.Options) {
	opts.SearchDirs = append(append([]string(nil), c.SearchDirs...), opts.SearchDirs...)
	opts.Defines = append(c.DefineList(), opts.Defines...)
	opts.Undefines = append(append([]string(nil), c.Undefines...), opts.Undefines...)
}
