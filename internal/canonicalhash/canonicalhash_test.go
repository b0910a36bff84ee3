package canonicalhash

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestSumIsOrderIndependent(t *testing.T) {
	a := map[string]any{"b": 2, "a": 1}
	b := map[string]any{"a": 1, "b": 2}

	ha, err := Sum(a)
	if err != nil {
		t.Fatalf("Sum(a): %v", err)
	}
	hb, err := Sum(b)
	if err != nil {
		t.Fatalf("Sum(b): %v", err)
	}
	if ha != hb {
		t.Fatalf("expected equal hashes for equivalent maps, got %q vs %q", ha, hb)
	}
}

func TestSumDiffersOnContent(t *testing.T) {
	h1 := MustSum(map[string]any{"x": 1})
	h2 := MustSum(map[string]any{"x": 2})
	if h1 == h2 {
		t.Fatal("expected different hashes for different content")
	}
}

func TestSumIntegersHaveNoTrailingDecimal(t *testing.T) {
	hInt := MustSum(map[string]any{"n": 5})
	hFloat := MustSum(map[string]any{"n": 5.0})
	if hInt != hFloat {
		t.Fatal("expected 5 and 5.0 to hash identically (no trailing .0 artifact)")
	}
}

func TestSumNestedStructures(t *testing.T) {
	v1 := map[string]any{
		"outer": map[string]any{"z": []any{1, 2, 3}, "a": "x"},
	}
	v2 := map[string]any{
		"outer": map[string]any{"a": "x", "z": []any{1, 2, 3}},
	}
	if MustSum(v1) != MustSum(v2) {
		t.Fatal("expected nested map key order to not affect hash")
	}
}

func TestSumStable(t *testing.T) {
	v := map[string]any{"version": 1, "profile": "dev"}
	h1 := MustSum(v)
	h2 := MustSum(v)
	if h1 != h2 {
		t.Fatal("expected repeated Sum of same value to be stable")
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars (sha256), got %d", len(h1))
	}
}

// TestSumDoesNotHTMLEscape guards against encoding/json's default
// '<'/'>'/'&' escaping, which would make this diverge from the reference
// implementation's json.dumps over real code diffs containing those bytes.
func TestSumDoesNotHTMLEscape(t *testing.T) {
	v := map[string]any{"diff": "if a < b && b > c {\n\treturn a & b\n}"}
	got := MustSum(v)

	want := sha256.Sum256([]byte(`{"diff":"if a < b && b > c {\n\treturn a & b\n}"}`))
	wantHex := hex.EncodeToString(want[:])

	if got != wantHex {
		t.Fatalf("Sum escaped HTML characters: got %s, want %s", got, wantHex)
	}
}
