package governor

import "testing"

func TestNormalizeDiffTextStripsTrailingWhitespaceAndBlankLines(t *testing.T) {
	diff := "line one   \nline two\t\n\n\n"
	got := normalizeDiffText(diff)
	want := "line one\nline two"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeDiffTextTrailingWhitespaceDoesNotChangeID(t *testing.T) {
	clean := "--- a/x.go\n+++ b/x.go\n@@ -1 +1 @@\n-a\n+b\n"
	padded := "--- a/x.go   \n+++ b/x.go\t\n@@ -1 +1 @@\n-a\n+b\n\n\n"

	id1, err := bundleID("hash", []string{"x.go"}, clean)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := bundleID("hash", []string{"x.go"}, padded)
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatalf("expected trailing whitespace/blank lines to not affect bundle_id, got %q vs %q", id1, id2)
	}
}

func TestNormalizeDiffTextCRLFDoesNotChangeID(t *testing.T) {
	lf := "--- a/x.go\n+++ b/x.go\n@@ -1 +1 @@\n-a\n+b\n"
	crlf := "--- a/x.go\r\n+++ b/x.go\r\n@@ -1 +1 @@\r\n-a\r\n+b\r\n"

	id1, err := bundleID("hash", []string{"x.go"}, lf)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := bundleID("hash", []string{"x.go"}, crlf)
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatalf("expected CRLF and LF diffs to produce the same bundle_id, got %q vs %q", id1, id2)
	}
}

func TestBundleIDHTMLSensitiveCharactersDoNotCorrupt(t *testing.T) {
	diff := "--- a/cmp.go\n+++ b/cmp.go\n@@ -1 +1 @@\n-if a < b {\n+if a < b && b > c { return a & b }\n"
	id1, err := bundleID("hash", []string{"cmp.go"}, diff)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := bundleID("hash", []string{"cmp.go"}, diff)
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id2 {
		t.Fatalf("expected repeated bundleID calls over the same diff to be stable, got %q vs %q", id1, id2)
	}
}
