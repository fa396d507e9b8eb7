package toml

import (
	"strings"
	"testing"
)

func roundtrip(t *testing.T, src string) string {
	t.Helper()
	tree, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return tree.Generate()
}

func TestRoundtripSimpleKeyValues(t *testing.T) {
	src := "# This is a full-line comment\n" +
		"key = \"value\"  # tail\n" +
		"another = \"# not a comment\"\n"
	got := roundtrip(t, src)
	if strings.TrimSpace(got) != strings.TrimSpace(src) {
		t.Fatalf("roundtrip mismatch:\n got: %q\nwant: %q", got, src)
	}
}

func TestRoundtripExplicitTableAndDottedKeys(t *testing.T) {
	src := "[server]\n" +
		"host = \"localhost\"\n" +
		"port = 8080\n" +
		"limits.cpu = 2\n" +
		"limits.memory = 512\n"
	got := roundtrip(t, src)
	if strings.TrimSpace(got) != strings.TrimSpace(src) {
		t.Fatalf("roundtrip mismatch:\n got: %q\nwant: %q", got, src)
	}
}

func TestRoundtripTableArray(t *testing.T) {
	// Blank lines between nodes are not one of the snippet slots this
	// implementation keeps (see Snippets' doc comment), so this source has
	// none; with blank lines between the entries the text comparison below
	// would not hold.
	src := "[[servers]]\n" +
		"name = \"a\"\n" +
		"[[servers]]\n" +
		"name = \"b\"\n"
	got := roundtrip(t, src)
	if strings.TrimSpace(got) != strings.TrimSpace(src) {
		t.Fatalf("roundtrip mismatch:\n got: %q\nwant: %q", got, src)
	}
}

func TestRoundtripInlineTableAndArray(t *testing.T) {
	src := "point = { x = 1, y = 2 }\n" +
		"values = [1, 2, 3]\n"
	got := roundtrip(t, src)
	if strings.TrimSpace(got) != strings.TrimSpace(src) {
		t.Fatalf("roundtrip mismatch:\n got: %q\nwant: %q", got, src)
	}
}

func TestGenerateWithPrefixSynthesizesHeader(t *testing.T) {
	src := "key = \"value\"\n" +
		"another = \"# not a comment\"\n"
	tree, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := tree.Generate("tree", "branch")
	want := "[tree.branch]\n" +
		"key = \"value\"\n" +
		"another = \"# not a comment\"\n"
	if got != want {
		t.Fatalf("Generate with prefix:\n got: %q\nwant: %q", got, want)
	}
}

func TestGenerateNodeRoundtripsSubtree(t *testing.T) {
	src := "[a]\n" +
		"[a.b]\n" +
		"c = 1\n"
	tree, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sub, err := Access(tree.Root, "a.b")
	if err != nil {
		t.Fatalf("Access a.b: %v", err)
	}
	out := GenerateNode(sub, "a", "b")
	reparsed, err := Parse(out)
	if err != nil {
		t.Fatalf("reparsing GenerateNode output: %v\noutput was: %q", err, out)
	}
	navigated, err := Access(reparsed.Root, "a.b.c")
	if err != nil {
		t.Fatalf("Access into reparsed subtree: %v", err)
	}
	if navigated.Value != int64(1) {
		t.Fatalf("roundtripped value = %v, want 1", navigated.Value)
	}
}

func TestPreservesRawNumberFormatting(t *testing.T) {
	src := "big = 1_000_000\n"
	got := roundtrip(t, src)
	if strings.TrimSpace(got) != strings.TrimSpace(src) {
		t.Fatalf("underscore-separated integer not preserved verbatim: got %q", got)
	}
}
