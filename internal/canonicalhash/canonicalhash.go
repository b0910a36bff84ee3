// Package canonicalhash computes deterministic SHA-256 fingerprints over
// arbitrary values by first serializing them as canonical JSON: recursively
// sorted object keys, no insignificant whitespace, UTF-8 throughout.
//
// The same logical value always produces the same hash regardless of map
// iteration order or how the Go value was constructed. Used for the policy
// hash, change-bundle ids, and salted argument fingerprints in the audit log.
package canonicalhash

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Sum returns the hex-encoded SHA-256 of v's canonical JSON encoding. The
// encoder has HTML-escaping disabled so that '<', '>', and '&' — common in
// real code diffs — hash over the same bytes as the reference
// implementation's json.dumps, which performs no such escaping.
func Sum(v any) (string, error) {
	canon, err := canonicalize(v)
	if err != nil {
		return "", fmt.Errorf("canonicalhash: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(canon); err != nil {
		return "", fmt.Errorf("canonicalhash: marshal canonical form: %w", err)
	}
	// Encode appends a trailing newline; strip it so the hashed payload is
	// exactly the compact JSON string, with no trailing byte the reference
	// implementation's json.dumps never emits.
	payload := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// MustSum is Sum but panics on error. Reserved for call sites where v is
// known at compile time to be JSON-representable (e.g. literal policy maps).
func MustSum(v any) string {
	h, err := Sum(v)
	if err != nil {
		panic(err)
	}
	return h
}

// canonicalize round-trips v through encoding/json and rebuilds it with
// ordered map representation so that Marshal below produces a byte-stable
// encoding independent of the original map's iteration order. Go's
// encoding/json already sorts map[string]any keys on Marshal, but nested
// maps decoded from arbitrary input (e.g. map[string]any read back from
// YAML) are handled the same way recursively, and this pass also strips any
// non-JSON-representable dynamic types (e.g. time.Time via MarshalJSON)
// into plain values so the hash is taken over the same shape json.Marshal
// would already produce — this function exists to make that normalization
// explicit and testable rather than relying on Marshal's sort incidentally.
func canonicalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return sortedCopy(generic), nil
}

// sortedCopy rebuilds maps as ordered key-value slices are unnecessary
// because encoding/json already marshals map[string]any keys in sorted
// order; this walk exists only to recurse into nested maps/slices so that
// json.Number values round-trip as numbers (never floats with a trailing
// ".0") and nested maps are themselves map[string]any (not map[any]any).
func sortedCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[k] = sortedCopy(val[k])
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = sortedCopy(e)
		}
		return out
	default:
		return val
	}
}
