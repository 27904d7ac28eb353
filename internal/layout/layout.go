// Package layout creates the output directories of a run and saves its
// settings alongside them.
package layout

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// RunFile is the name of the saved run settings
	RunFile = "run.yaml"

	// TargetFile is the name of the saved target settings
	TargetFile = "target.yaml"
)

// Layout is the set of directories belonging to one run.
type Layout struct {
	Root         string
	Trajectories string
	Accepted     string
	Redesign     string
	Config       string
}

// Path is the root dir of a run. An empty runConfig is dropped.
func Path(projectDir, resultsDir, experimentName, runConfig string) string {
	return filepath.Join(projectDir, resultsDir, experimentName, runConfig)
}

// New returns the layout rooted at root without touching the filesystem.
func New(root string) *Layout {
	return &Layout{
		Root:         root,
		Trajectories: filepath.Join(root, "trajectories"),
		Accepted:     filepath.Join(root, "accepted"),
		Redesign:     filepath.Join(root, "redesign_candidates"),
		Config:       filepath.Join(root, "config"),
	}
}

// Create makes every directory of the layout rooted at root.
func Create(root string) (*Layout, error) {
	l := New(root)
	for _, dir := range l.dirs() {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create run dir %s: %w", dir, err)
		}
	}
	return l, nil
}

func (l *Layout) dirs() []string {
	return []string{l.Root, l.Trajectories, l.Accepted, l.Redesign, l.Config}
}

// Save writes the run and target settings as YAML to the config dir.
func (l *Layout) Save(run, target interface{}) error {
	if err := l.write(RunFile, run); err != nil {
		return err
	}
	return l.write(TargetFile, target)
}

// Load reads a saved settings file (RunFile or TargetFile) into v.
func (l *Layout) Load(name string, v interface{}) error {
	path := filepath.Join(l.Config, name)
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(contents, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func (l *Layout) write(name string, v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", name, err)
	}

	path := filepath.Join(l.Config, name)
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
