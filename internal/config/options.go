package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Colour modes of the diagnostics printer.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Options is the parsed classinfer.yaml file.
//
// Example:
//
//	max_literal_bits: 1024
//	trace: true
//	color: never
//	database: runs.db
type Options struct {
	// MaxLiteralBits bounds the bit size of exact literal values.
	MaxLiteralBits int `yaml:"max_literal_bits,omitempty"`

	// Trace enables debug logging of the inference core.
	Trace bool `yaml:"trace,omitempty"`

	// Color is one of auto, always, never.
	Color string `yaml:"color,omitempty"`

	// Database is an optional SQLite file receiving every analysis report.
	Database string `yaml:"database,omitempty"`
}

// DefaultOptions returns the options used when no file is present.
func DefaultOptions() *Options {
	o := &Options{}
	o.setDefaults()
	return o
}

// LoadOptions reads and parses an options file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading options %s: %w", path, err)
	}
	return ParseOptions(data, path)
}

// ParseOptions parses options from YAML bytes.
func ParseOptions(data []byte, path string) (*Options, error) {
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := o.validate(path); err != nil {
		return nil, err
	}
	o.setDefaults()
	if o.Database != "" && !filepath.IsAbs(o.Database) && path != "" {
		o.Database = filepath.Join(filepath.Dir(path), o.Database)
	}
	return &o, nil
}

// FindOptions looks for classinfer.yaml in dir.
// Returns the path if found, empty string otherwise.
func FindOptions(dir string) string {
	p := filepath.Join(dir, OptionsFileName)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

func (o *Options) validate(path string) error {
	if o.MaxLiteralBits < 0 {
		return fmt.Errorf("%s: max_literal_bits must not be negative, got %d", path, o.MaxLiteralBits)
	}
	switch o.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%s: color must be one of auto, always, never, got %q", path, o.Color)
	}
	return nil
}

func (o *Options) setDefaults() {
	if o.MaxLiteralBits == 0 {
		o.MaxLiteralBits = DefaultMaxLiteralBits
	}
	if o.Color == "" {
		o.Color = ColorAuto
	}
}
