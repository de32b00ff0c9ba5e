package phpmd

import (
	"reflect"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Enabled {
		t.Fatal("expected enabled by default")
	}
	if cfg.Executable() != DefaultExecutable {
		t.Fatalf("expected default executable, got %q", cfg.Executable())
	}
	if cfg.RunMode != RunOnSave {
		t.Fatalf("expected onSave, got %s", cfg.RunMode)
	}
	if len(cfg.Rulesets) != len(AllRulesets()) {
		t.Fatalf("expected every ruleset, got %v", cfg.Rulesets)
	}
}

func TestConfigApply(t *testing.T) {
	disabled := false
	exe := "/opt/phpmd/bin/phpmd"
	rulesets := "naming, unknown ,design"

	cfg := DefaultConfig().Apply(Overrides{
		Enabled:        &disabled,
		ExecutablePath: &exe,
		Rulesets:       &rulesets,
	})
	if cfg.Enabled {
		t.Fatal("expected disabled")
	}
	if cfg.Executable() != exe {
		t.Fatalf("unexpected executable %q", cfg.Executable())
	}
	if !reflect.DeepEqual(cfg.Rulesets, []string{"naming", "design"}) {
		t.Fatalf("unexpected rulesets %v", cfg.Rulesets)
	}

	same := cfg.Apply(Overrides{})
	if !reflect.DeepEqual(same, cfg) {
		t.Fatalf("empty overrides changed config: %+v", same)
	}
}

func TestConfigApplyEmptyRulesetsSelectsAll(t *testing.T) {
	empty := ""
	cfg := DefaultConfig().Apply(Overrides{Rulesets: &empty})
	if len(cfg.Rulesets) != len(AllRulesets()) {
		t.Fatalf("expected every ruleset, got %v", cfg.Rulesets)
	}
}

func TestConfigArgs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rulesets = []string{"cleancode", "naming"}
	got := cfg.Args("/src/Foo.php")
	want := []string{"/src/Foo.php", "text", "cleancode,naming"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Args = %v, want %v", got, want)
	}

	var zero Config
	got = zero.Args("a.php")
	if got[1] != ReportFormatText || got[2] != DefaultRulesets {
		t.Fatalf("zero config should fall back to defaults, got %v", got)
	}
}

func TestRunModeString(t *testing.T) {
	if RunOnSave.String() != "onSave" || RunOnType.String() != "onType" {
		t.Fatalf("unexpected mode strings %s %s", RunOnSave, RunOnType)
	}
}
