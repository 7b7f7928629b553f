// Package config loads the single Config struct that wires every
// resource cap, model setting, and mode switch used across the rest of
// the module, using a YAML-plus-env-override pattern built on
// gopkg.in/yaml.v3: defaults are baked in, a YAML file overrides them, and
// CODEFORGE_-prefixed environment variables override the YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"codeforge.dev/agentcore/crit"
	"codeforge.dev/agentcore/dod"
)

// Config is the complete set of tunables for one agentcore run.
type Config struct {
	Model struct {
		Name           string  `yaml:"name"`
		Temperature    float64 `yaml:"temperature"`
		ContextWindow  int     `yaml:"context_window"`
		SupportsTools  *bool   `yaml:"supports_tools"`
		Ultrathink     bool    `yaml:"ultrathink"`
	} `yaml:"model"`

	Limits struct {
		MaxConsecutiveReads          int `yaml:"max_consecutive_reads"`
		MaxFileReadCount             int `yaml:"max_file_read_count"`
		MaxFailureSignatureRepeats   int `yaml:"max_failure_signature_repeats"`
		MaxAdaptivePromptImprovements int `yaml:"max_adaptive_prompt_improvements"`
		MaxSteps                     int `yaml:"max_steps"`
		MaxRetries                   int `yaml:"max_retries"`
	} `yaml:"limits"`

	AutoApprove bool `yaml:"auto_approve"`

	DoDMode dod.Mode `yaml:"dod_mode"`

	CRIT struct {
		ApproveConfidence float64 `yaml:"approve_confidence"`
		RejectConfidence  float64 `yaml:"reject_confidence"`
	} `yaml:"crit"`
}

// Default returns the built-in configuration, matching the resource caps
// named across the rest of the module (e.g. runctx's consecutive-read
// guardrail, the Orchestrator's failure-signature escalation).
func Default() Config {
	var c Config
	c.Model.Name = "claude-sonnet-4-5"
	c.Model.Temperature = 0.1
	c.Model.ContextWindow = 200_000
	c.Model.Ultrathink = false

	c.Limits.MaxConsecutiveReads = 5
	c.Limits.MaxFileReadCount = 2
	c.Limits.MaxFailureSignatureRepeats = 3
	c.Limits.MaxAdaptivePromptImprovements = 3
	c.Limits.MaxSteps = 10
	c.Limits.MaxRetries = 8

	c.AutoApprove = false
	c.DoDMode = dod.ModeHeuristic

	c.CRIT.ApproveConfidence = crit.DefaultThresholds().ApproveConfidence
	c.CRIT.RejectConfidence = crit.DefaultThresholds().RejectConfidence

	return c
}

// CRITThresholds projects the CRIT-specific fields into a crit.Thresholds.
func (c Config) CRITThresholds() crit.Thresholds {
	return crit.Thresholds{ApproveConfidence: c.CRIT.ApproveConfidence, RejectConfidence: c.CRIT.RejectConfidence}
}

// Load reads the built-in defaults, merges in path (if non-empty and the
// file exists), then applies CODEFORGE_<FIELD> environment overrides.
// A missing path is not an error: the caller may rely on defaults plus
// env vars alone.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	applyEnvOverrides(&c)

	if err := validate(c); err != nil {
		return Config{}, err
	}

	return c, nil
}

func validate(c Config) error {
	if c.Model.Temperature < 0.0 || c.Model.Temperature > 2.0 {
		return fmt.Errorf("config: model.temperature %.2f out of range [0.0, 2.0]", c.Model.Temperature)
	}
	if c.Limits.MaxSteps < 1 || c.Limits.MaxSteps > 50 {
		return fmt.Errorf("config: limits.max_steps %d out of range [1, 50]", c.Limits.MaxSteps)
	}
	if c.DoDMode != dod.ModeHeuristic && c.DoDMode != dod.ModeLLM {
		return fmt.Errorf("config: dod_mode %q is neither %q nor %q", c.DoDMode, dod.ModeHeuristic, dod.ModeLLM)
	}
	return nil
}

// applyEnvOverrides maps CODEFORGE_<FIELD> suffixes to setter functions, kept
// as an explicit table rather than reflection over yaml tags so the set
// of overridable fields is easy to audit.
func applyEnvOverrides(c *Config) {
	overrides := map[string]func(string){
		"MODEL_NAME":                           func(v string) { c.Model.Name = v },
		"MODEL_TEMPERATURE":                    func(v string) { setFloat(&c.Model.Temperature, v) },
		"MODEL_CONTEXT_WINDOW":                 func(v string) { setInt(&c.Model.ContextWindow, v) },
		"MODEL_ULTRATHINK":                     func(v string) { setBool(&c.Model.Ultrathink, v) },
		"MAX_CONSECUTIVE_READS":                func(v string) { setInt(&c.Limits.MaxConsecutiveReads, v) },
		"MAX_FILE_READ_COUNT":                  func(v string) { setInt(&c.Limits.MaxFileReadCount, v) },
		"MAX_FAILURE_SIGNATURE_REPEATS":        func(v string) { setInt(&c.Limits.MaxFailureSignatureRepeats, v) },
		"MAX_ADAPTIVE_PROMPT_IMPROVEMENTS":     func(v string) { setInt(&c.Limits.MaxAdaptivePromptImprovements, v) },
		"MAX_STEPS":                            func(v string) { setInt(&c.Limits.MaxSteps, v) },
		"MAX_RETRIES":                          func(v string) { setInt(&c.Limits.MaxRetries, v) },
		"AUTO_APPROVE":                         func(v string) { setBool(&c.AutoApprove, v) },
		"DOD_MODE":                             func(v string) { c.DoDMode = dod.Mode(v) },
		"CRIT_APPROVE_CONFIDENCE":              func(v string) { setFloat(&c.CRIT.ApproveConfidence, v) },
		"CRIT_REJECT_CONFIDENCE":               func(v string) { setFloat(&c.CRIT.RejectConfidence, v) },
	}
	for suffix, set := range overrides {
		if v, ok := os.LookupEnv("CODEFORGE_" + suffix); ok {
			set(strings.TrimSpace(v))
		}
	}
}

func setInt(dst *int, v string) {
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func setFloat(dst *float64, v string) {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = f
	}
}

func setBool(dst *bool, v string) {
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}
