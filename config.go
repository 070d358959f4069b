package suitejson

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the .suitejson.yaml configuration file.
type Config struct {
	// ReporterOptions is the flat options bag read by ParseOptions.
	ReporterOptions map[string]any `yaml:"reporterOptions,omitempty"`

	// Spec lists the suite files or directories to run when none are given
	// on the command line.
	Spec []string `yaml:"spec,omitempty"`

	// Output is a file the document is written to instead of stdout.
	Output string `yaml:"output,omitempty"`

	// Runner settings.
	FailFast bool   `yaml:"failFast,omitempty"`
	Grep     string `yaml:"grep,omitempty"`
	Progress string `yaml:"progress,omitempty"`
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".suitejson.yaml", ".suitejson.yml", "suitejson.yaml", "suitejson.yml"}

// LoadConfig finds and loads the nearest .suitejson.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Options returns the reporter options described by the file.
func (c *Config) Options() Options {
	if c == nil {
		return DefaultOptions()
	}

	return ParseOptions(c.ReporterOptions)
}
