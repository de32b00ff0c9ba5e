//go:build unix

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

// checkWorkspace creates a directory holding a.php, an optional project
// file and a stub phpmd that reports the rulesets it was given.
func checkWorkspace(t *testing.T, projectFile string) (dir, tool string) {
	t.Helper()
	dir = t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.php"), []byte("<?php\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if projectFile != "" {
		if err := os.WriteFile(filepath.Join(dir, ".phpmdls.toml"), []byte(projectFile), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	tool = filepath.Join(t.TempDir(), "phpmd")
	script := "#!/bin/sh\nprintf '%s:3\\tfrom %s\\n' \"$1\" \"$3\"\nexit 2\n"
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir, tool
}

func resetFlags(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}

func executeCheck(t *testing.T, dir string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	noColor(t)
	t.Chdir(dir)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"check", "--ui", "off"}, args...))
	t.Cleanup(func() {
		runCleanups()
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(checkCmd.Flags())
		resetFlags(rootCmd.PersistentFlags())
	})
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCheckCommandLayersProjectFileAndFlags(t *testing.T) {
	dir, tool := checkWorkspace(t, "[validate]\nexecutable_path = \"/nonexistent/phpmd\"\nrulesets = \"naming\"\n")

	out, _, err := executeCheck(t, dir, "--executable", tool, "a.php")
	var exitErr *exitCodeError
	if !errors.As(err, &exitErr) || exitErr.code != 2 {
		t.Fatalf("expected exit status 2, got %v", err)
	}
	if !strings.Contains(out, "from naming") {
		t.Fatalf("project rulesets not applied:\n%s", out)
	}
	if !strings.Contains(out, "1 issue in 1 of 1 file") {
		t.Fatalf("missing summary:\n%s", out)
	}
}

func TestCheckCommandFlagOverridesProjectRulesets(t *testing.T) {
	dir, tool := checkWorkspace(t, "[validate]\nrulesets = \"naming\"\n")

	out, _, err := executeCheck(t, dir, "--executable", tool, "--rulesets", "design", "a.php")
	var exitErr *exitCodeError
	if !errors.As(err, &exitErr) || exitErr.code != 2 {
		t.Fatalf("expected exit status 2, got %v", err)
	}
	if !strings.Contains(out, "from design") {
		t.Fatalf("flag rulesets not applied:\n%s", out)
	}
}

func TestCheckCommandDisabledByProjectFile(t *testing.T) {
	dir, tool := checkWorkspace(t, "enabled = false\n")

	out, errOut, err := executeCheck(t, dir, "--executable", tool, "a.php")
	if err != nil {
		t.Fatalf("disabled check must succeed, got %v", err)
	}
	if out != "" {
		t.Fatalf("disabled check wrote output:\n%s", out)
	}
	if !strings.Contains(errOut, "phpmd is disabled by .phpmdls.toml") {
		t.Fatalf("missing notice, stderr:\n%s", errOut)
	}
}

func TestCheckCommandSpawnFailureExitsOne(t *testing.T) {
	dir, _ := checkWorkspace(t, "")

	_, _, err := executeCheck(t, dir, "--executable", filepath.Join(dir, "missing-phpmd"), "a.php")
	var exitErr *exitCodeError
	if !errors.As(err, &exitErr) || exitErr.code != 1 {
		t.Fatalf("expected exit status 1, got %v", err)
	}
}
