// Package rangecheck is the verification backend: every declared and
// provided value is scanned for NaNs and against optional per-variable
// bounds from a rules file. A violation aborts the process. That is
// deliberate: once a captured value is known bad, every result computed
// after it is suspect, so stopping beats continuing.
package rangecheck

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"kerndata/capture"
)

// #region rules

// Rule bounds the values a variable may take. Empty Module, Region or Name
// match anything, so one rule can cover a variable across all regions.
type Rule struct {
	Module string `yaml:"module,omitempty"`
	Region string `yaml:"region,omitempty"`
	Name   string `yaml:"name,omitempty"`

	Min      *float64 `yaml:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty"`
	AllowNaN bool     `yaml:"allow_nan,omitempty"`
}

func (r Rule) matches(module, region, name string) bool {
	if r.Module != "" && r.Module != module {
		return false
	}
	if r.Region != "" && r.Region != region {
		return false
	}
	if r.Name != "" && r.Name != name {
		return false
	}
	return true
}

// Rules is the parsed rules file.
type Rules struct {
	// CheckNaN rejects NaN elements in float variables even without a
	// matching rule. Defaults to true.
	CheckNaN *bool  `yaml:"check_nan,omitempty"`
	Checks   []Rule `yaml:"checks,omitempty"`
}

func (r *Rules) checkNaN() bool {
	return r.CheckNaN == nil || *r.CheckNaN
}

// LoadRules reads and parses a YAML rules file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return &rules, nil
}

// #endregion rules

// #region backend

// Backend embeds the base protocol and checks both declared and provided
// values. With the gate stopped only the bookkeeping runs.
type Backend struct {
	*capture.Base
	rules *Rules
}

// New returns a checking backend on the default gate and diagnostic
// stream. A nil rules value checks NaNs only.
func New(rules *Rules) *Backend {
	return NewWith(rules, capture.NewBase())
}

// NewWith returns a checking backend over an explicitly configured base.
func NewWith(rules *Rules, base *capture.Base) *Backend {
	if rules == nil {
		rules = &Rules{}
	}
	return &Backend{Base: base, rules: rules}
}

// Declare checks a pre-region value.
func (b *Backend) Declare(name string, v capture.Value) {
	b.Base.Declare(name, v)
	b.check("declared", name, v)
}

// Provide checks a post-region value.
func (b *Backend) Provide(name string, v capture.Value) {
	b.Base.Provide(name, v)
	b.check("provided", name, v)
}

func (b *Backend) check(phase, name string, v capture.Value) {
	if !b.Enabled() {
		return
	}

	allowNaN := !b.rules.checkNaN()
	var min, max *float64
	for _, rule := range b.rules.Checks {
		if !rule.matches(b.ModuleName(), b.RegionName(), name) {
			continue
		}
		if rule.AllowNaN {
			allowNaN = true
		}
		if rule.Min != nil {
			min = rule.Min
		}
		if rule.Max != nil {
			max = rule.Max
		}
	}

	for i, x := range v.Floats() {
		if v.IsFloat() && !allowNaN && math.IsNaN(x) {
			b.Abort(fmt.Sprintf("%s variable %d %q: NaN at element %d", phase, b.LastIndex(), name, i))
		}
		if min != nil && x < *min {
			b.Abort(fmt.Sprintf("%s variable %d %q: element %d is %v, below minimum %v", phase, b.LastIndex(), name, i, x, *min))
		}
		if max != nil && x > *max {
			b.Abort(fmt.Sprintf("%s variable %d %q: element %d is %v, above maximum %v", phase, b.LastIndex(), name, i, x, *max))
		}
	}
}

// #endregion backend
