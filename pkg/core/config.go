package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WireRC holds per-unit-length resistance and capacitance for signal and
// clock nets under one corner. Set once per corner before a resize pass.
type WireRC struct {
	Res    float64 `yaml:"wire_res"`
	Cap    float64 `yaml:"wire_cap"`
	ClkRes float64 `yaml:"wire_clk_res"`
	ClkCap float64 `yaml:"wire_clk_cap"`
	Corner Corner  `yaml:"-"`
}

// Options is the validated configuration surface every public entry point
// reads. It is read-only once constructed -- the CORE never mutates it.
type Options struct {
	WireRC               WireRC   `yaml:",inline"`
	CornerName           string   `yaml:"corner"`
	MaxUtilization       float64  `yaml:"max_utilization"`
	DontUse              []string `yaml:"dont_use"`
	SeparationMeters     float64  `yaml:"separation"`
	MaxWireLengthMeters  float64  `yaml:"max_wire_length"`
	AllowSetupViolations bool     `yaml:"allow_setup_violations"`
}

// DefaultOptions returns the zero-ish configuration a caller can further
// tune programmatically -- max_utilization defaults to 1.0 (unconstrained).
func DefaultOptions() Options {
	return Options{MaxUtilization: 1.0}
}

// LoadOptions reads Options from a YAML file at path. A missing file is an
// error (unlike ployz's context config, there is no sensible empty default
// for wire RC or the resize corner).
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read options: %w", err)
	}
	var o Options
	if err := yaml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("parse options: %w", err)
	}
	return o, nil
}

// Validate enforces the missing-input half of the error taxonomy: no
// corner, no area budget that can never be reached, a nonsensical
// separation or max wire length. Resize-library and buffer-cell presence
// are checked by the entry points that actually require them (resize
// needs a library, bufferInputs needs a buffer cell) since Options alone
// doesn't carry those.
func (o Options) Validate() error {
	if o.CornerName == "" {
		return configErrorf("no active corner set")
	}
	if o.MaxUtilization <= 0 || o.MaxUtilization > 1 {
		return configErrorf("max_utilization %.3f outside (0,1]", o.MaxUtilization)
	}
	if o.SeparationMeters < 0 {
		return configErrorf("separation %.3g must be >= 0", o.SeparationMeters)
	}
	if o.MaxWireLengthMeters < 0 {
		return configErrorf("max_wire_length %.3g must be >= 0", o.MaxWireLengthMeters)
	}
	return nil
}

// dontUseSet resolves the configured don't-use cell names against a
// Netlist/library and returns the CellID set the sizer must never select.
func dontUseSet(nl Netlist, libs []LibID, names []string) map[CellID]bool {
	set := make(map[CellID]bool, len(names))
	wanted := make(map[string]bool, len(names))
	for _, nm := range names {
		wanted[nm] = true
	}
	if len(wanted) == 0 {
		return set
	}
	for _, lib := range libs {
		for _, c := range nl.CellsInLib(lib) {
			if wanted[nl.CellName(c)] {
				set[c] = true
			}
		}
	}
	return set
}
