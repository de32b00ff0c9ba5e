package phpmd

import "testing"

func TestParseLine(t *testing.T) {
	d, ok := ParseLine("/var/www/src/Foo.php:42\tAvoid variables with short names like $id.")
	if !ok {
		t.Fatal("expected match")
	}
	if d.Line != 41 {
		t.Fatalf("expected 0-based line 41, got %d", d.Line)
	}
	if d.StartColumn != 0 || d.EndColumn != MaxColumn {
		t.Fatalf("expected whole-line range, got %d..%d", d.StartColumn, d.EndColumn)
	}
	if d.Message != "PHPMD: Avoid variables with short names like $id." {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestParseLineNoMatch(t *testing.T) {
	for _, line := range []string{
		"",
		"No mess detected",
		"/src/Foo.php:12 missing tab",
		"/src/Foo.php:\tno line number",
		"/src/Foo.php:99999999999999999999999\toverflow",
	} {
		if _, ok := ParseLine(line); ok {
			t.Fatalf("expected no match for %q", line)
		}
	}
}

func TestParseLineIsUnanchored(t *testing.T) {
	d, ok := ParseLine("/tmp/build-2/src/Foo.php:7\tmsg")
	if !ok {
		t.Fatal("expected match on path suffix")
	}
	if d.Line != 6 || d.Message != "PHPMD: msg" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestParseLineClampsLineZero(t *testing.T) {
	d, ok := ParseLine("a.php:0\tfile level")
	if !ok {
		t.Fatal("expected match")
	}
	if d.Line != 0 {
		t.Fatalf("expected clamp to 0, got %d", d.Line)
	}
}
