// Package config holds the two configuration surfaces of the panel: the
// experiment parameters the form edits, and the server's own settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ExperimentConfig carries the five parameters an experiment runs with.
// The YAML keys are the long-standing on-disk format for saved
// configurations; files written years ago still load.
type ExperimentConfig struct {
	Dataset       string `yaml:"Data Set" json:"dataset"`
	Query         string `yaml:"Query" json:"query"`
	Heterogeneity string `yaml:"Hardware Heterogeneity" json:"heterogeneity"`
	Topology      string `yaml:"Network Topology" json:"topology"`
	Nodes         int    `yaml:"Number of Nodes" json:"nodes"`
}

// Missing returns the display names of fields that are empty. Zero nodes
// counts as missing, matching the form's required check.
func (c *ExperimentConfig) Missing() []string {
	var missing []string
	if c.Dataset == "" {
		missing = append(missing, "Data Set")
	}
	if c.Query == "" {
		missing = append(missing, "Query")
	}
	if c.Heterogeneity == "" {
		missing = append(missing, "Hardware Heterogeneity")
	}
	if c.Topology == "" {
		missing = append(missing, "Network Topology")
	}
	if c.Nodes <= 0 {
		missing = append(missing, "Number of Nodes")
	}
	return missing
}

// Complete reports whether every field is filled in.
func (c *ExperimentConfig) Complete() bool {
	return len(c.Missing()) == 0
}

// Args renders the benchmark command line flags in their fixed order.
func (c *ExperimentConfig) Args() []string {
	return []string{
		"--dataset", c.Dataset,
		"--query", c.Query,
		"--heterogeneity", c.Heterogeneity,
		"--topology", c.Topology,
		"--nodes", strconv.Itoa(c.Nodes),
	}
}

// Marshal renders the config as YAML in the legacy key format.
func (c *ExperimentConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseExperiment decodes YAML content, as uploaded or read from disk.
// Unknown keys are ignored and absent keys stay zero, so partial files
// load with empty fields rather than failing.
func ParseExperiment(data []byte) (*ExperimentConfig, error) {
	var c ExperimentConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse experiment config: %w", err)
	}
	return &c, nil
}

// LoadExperiment reads an experiment config file.
func LoadExperiment(path string) (*ExperimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read experiment config: %w", err)
	}
	return ParseExperiment(data)
}

// Save writes the config into dir and returns the file name used. Names
// carry a minute-resolution timestamp; collisions within the same minute
// get a " (n)" suffix rather than overwriting an earlier save.
func (c *ExperimentConfig) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return "", fmt.Errorf("marshal experiment config: %w", err)
	}

	base := fmt.Sprintf("experiment_config_%s", time.Now().Format(TimestampLayout))
	name := uniqueName(dir, base, ".yaml")
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write experiment config: %w", err)
	}
	return name, nil
}

// TimestampLayout is the dd-mm-yy_HH_MM stamp used in saved config and
// result file names.
const TimestampLayout = "02-01-06_15_04"

// uniqueName returns base+ext, or base+" (n)"+ext for the first n that
// does not collide with an existing file in dir.
func uniqueName(dir, base, ext string) string {
	name := base + ext
	for n := 1; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s (%d)%s", base, n, ext)
	}
}

// ListSaved returns the experiment config file names in dir, newest first
// by modification time.
func ListSaved(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config dir: %w", err)
	}

	type stamped struct {
		name    string
		modTime time.Time
	}
	var files []stamped
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, stamped{name: entry.Name(), modTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.After(files[j].modTime)
	})

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.name)
	}
	return names, nil
}
