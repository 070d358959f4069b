package main

import (
	"errors"
	"path/filepath"

	"github.com/rlch/suitejson"
)

// loadConfigWithDir loads config and returns both the config and the directory it was found in.
// A missing .suitejson.yaml is not an error; the defaults apply.
func loadConfigWithDir(startDir string) (*suitejson.Config, string, error) {
	path, err := suitejson.FindConfig(startDir)
	if errors.Is(err, suitejson.ErrConfigNotFound) {
		return &suitejson.Config{}, startDir, nil
	}

	if err != nil {
		return nil, startDir, err
	}

	cfg, err := suitejson.LoadConfigFile(path)
	if err != nil {
		return nil, startDir, err
	}

	return cfg, filepath.Dir(path), nil
}
