package phpmd

import (
	"strings"
	"time"
)

// DefaultExecutable is used when no executable path is configured.
const DefaultExecutable = "phpmd"

// ReportFormatText is the only report format understood by the parser.
const ReportFormatText = "text"

// DefaultDebounce is the quiet period between a save and the run it triggers.
const DefaultDebounce = 1000 * time.Millisecond

// RunMode selects which document event triggers validation.
type RunMode uint8

const (
	// RunOnSave validates after a document is saved.
	RunOnSave RunMode = iota
	// RunOnType is declared for editors that want validation while typing.
	// It is not connected to any event yet.
	RunOnType
)

// String returns the setting spelling of the mode.
func (m RunMode) String() string {
	switch m {
	case RunOnSave:
		return "onSave"
	case RunOnType:
		return "onType"
	default:
		return "unknown"
	}
}

// Config holds the analyzer settings. It is built once at startup.
type Config struct {
	Enabled        bool
	ExecutablePath string
	Rulesets       []string
	ReportFormat   string
	RunMode        RunMode
}

// Overrides carries optional values from one configuration source.
// Nil fields leave the current value untouched.
type Overrides struct {
	Enabled        *bool
	ExecutablePath *string
	Rulesets       *string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		Rulesets:     ParseRulesets(DefaultRulesets),
		ReportFormat: ReportFormatText,
		RunMode:      RunOnSave,
	}
}

// Apply returns a copy of c with the non-nil overrides applied.
func (c Config) Apply(o Overrides) Config {
	if o.Enabled != nil {
		c.Enabled = *o.Enabled
	}
	if o.ExecutablePath != nil {
		c.ExecutablePath = *o.ExecutablePath
	}
	if o.Rulesets != nil {
		c.Rulesets = ParseRulesets(*o.Rulesets)
	}
	return c
}

// Executable returns the configured executable or DefaultExecutable.
func (c Config) Executable() string {
	if c.ExecutablePath == "" {
		return DefaultExecutable
	}
	return c.ExecutablePath
}

// Args builds the positional arguments for one file.
func (c Config) Args(path string) []string {
	format := c.ReportFormat
	if format == "" {
		format = ReportFormatText
	}
	rulesets := c.Rulesets
	if len(rulesets) == 0 {
		rulesets = ParseRulesets(DefaultRulesets)
	}
	return []string{path, format, strings.Join(rulesets, ",")}
}
