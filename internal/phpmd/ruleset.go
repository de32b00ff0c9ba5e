package phpmd

import "strings"

// Ruleset names a PHPMD rule category.
type Ruleset string

const (
	RulesetCleanCode     Ruleset = "cleancode"
	RulesetCodeSize      Ruleset = "codesize"
	RulesetControversial Ruleset = "controversial"
	RulesetDesign        Ruleset = "design"
	RulesetNaming        Ruleset = "naming"
	RulesetUnusedCode    Ruleset = "unusedcode"
)

// DefaultRulesets is the canonical comma-joined list of every ruleset.
const DefaultRulesets = "cleancode,codesize,controversial,design,naming,unusedcode"

var allRulesets = [...]Ruleset{
	RulesetCleanCode,
	RulesetCodeSize,
	RulesetControversial,
	RulesetDesign,
	RulesetNaming,
	RulesetUnusedCode,
}

// AllRulesets returns every known ruleset in canonical order.
func AllRulesets() []Ruleset {
	out := make([]Ruleset, len(allRulesets))
	copy(out, allRulesets[:])
	return out
}

// IsRuleset reports whether name is exactly one of the known rulesets.
func IsRuleset(name string) bool {
	for _, r := range allRulesets {
		if string(r) == name {
			return true
		}
	}
	return false
}

// ParseRulesets turns a comma-separated selection into the list passed
// to the tool. A token is kept when it occurs anywhere inside
// DefaultRulesets, so fragments such as "code" or "size" pass the
// filter while unrelated words are dropped. Order and duplicates are
// preserved. Empty input selects every ruleset.
func ParseRulesets(configured string) []string {
	if strings.TrimSpace(configured) == "" {
		configured = DefaultRulesets
	}
	parts := strings.Split(configured, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		if strings.Contains(DefaultRulesets, name) {
			out = append(out, name)
		}
	}
	return out
}
