package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// LoadDirectory loads every YAML and JSON suite file under a directory
// and combines them into a single Config. Files are merged in
// lexicographical order; later files override top-level settings and
// contribute scenarios, with same-named scenarios replaced.
func LoadDirectory(dirPath string) (*Config, error) {
	fsys := os.DirFS(dirPath)
	var configFiles []string
	for _, pattern := range []string{"*.yml", "*.yaml", "*.json"} {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory: %w", err)
		}
		configFiles = append(configFiles, matches...)
	}
	sort.Strings(configFiles)

	if len(configFiles) == 0 {
		return nil, fmt.Errorf("no yaml or json files found in directory: %s", dirPath)
	}

	var merged *Config
	for _, file := range configFiles {
		config, err := ParseFile(dirPath + "/" + file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse file %s: %w", file, err)
		}
		if merged == nil {
			merged = config
		} else {
			merged = Merge(merged, config)
		}
	}
	return merged, nil
}

// Merge combines two suites, with the second taking precedence for
// top-level settings. Scenarios are keyed by name; an override scenario
// replaces the base one wholesale.
func Merge(base, override *Config) *Config {
	result := *base

	if override.Endpoint != "" {
		result.Endpoint = override.Endpoint
	}
	if override.Region != "" {
		result.Region = override.Region
	}
	if override.StateMachineARN != "" {
		result.StateMachineARN = override.StateMachineARN
	}
	if override.LogLevel != "" {
		result.LogLevel = override.LogLevel
	}
	if override.MaxConcurrency != 0 {
		result.MaxConcurrency = override.MaxConcurrency
	}

	scenarioMap := make(map[string]Scenario)
	for _, scenario := range result.Scenarios {
		scenarioMap[scenario.Name] = scenario
	}
	for _, scenario := range override.Scenarios {
		scenarioMap[scenario.Name] = scenario
	}
	scenarios := make([]Scenario, 0, len(scenarioMap))
	for _, scenario := range scenarioMap {
		scenarios = append(scenarios, scenario)
	}
	sort.Slice(scenarios, func(i, j int) bool {
		return scenarios[i].Name < scenarios[j].Name
	})
	result.Scenarios = scenarios

	return &result
}
