// Package tuning loads server-level defaults from tuning.yaml. Request
// configuration merges over these; these merge over the compiled defaults.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	Gravity      float64 `yaml:"gravity"`
	TimeStep     float64 `yaml:"time_step"`
	TicksPerStep int     `yaml:"ticks_per_step"`
	MaxSteps     int     `yaml:"max_steps"`
	Seed         int64   `yaml:"seed"`

	DefaultTask    string `yaml:"default_task"`
	DefaultVersion string `yaml:"default_version"`

	IdleTTLSec int `yaml:"idle_ttl_sec"`
}

func Defaults() Tuning {
	return Tuning{
		Gravity:        9.81,
		TimeStep:       1.0 / 60.0,
		TicksPerStep:   10,
		MaxSteps:       500,
		Seed:           42,
		DefaultTask:    "gap",
		DefaultVersion: "v1",
		IdleTTLSec:     600,
	}
}

// Load reads path and fills unset fields from Defaults. A missing file is an
// error; callers decide whether to fall back.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	var file Tuning
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.merge(file)
	return t, nil
}

func (t *Tuning) merge(o Tuning) {
	if o.Gravity > 0 {
		t.Gravity = o.Gravity
	}
	if o.TimeStep > 0 {
		t.TimeStep = o.TimeStep
	}
	if o.TicksPerStep > 0 {
		t.TicksPerStep = o.TicksPerStep
	}
	if o.MaxSteps > 0 {
		t.MaxSteps = o.MaxSteps
	}
	if o.Seed != 0 {
		t.Seed = o.Seed
	}
	if o.DefaultTask != "" {
		t.DefaultTask = o.DefaultTask
	}
	if o.DefaultVersion != "" {
		t.DefaultVersion = o.DefaultVersion
	}
	if o.IdleTTLSec > 0 {
		t.IdleTTLSec = o.IdleTTLSec
	}
}
