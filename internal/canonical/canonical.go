// Package canonical produces a stable byte representation of structured
// documents and derives content fingerprints from it. Two documents with the
// same logical content yield the same bytes regardless of mapping key order
// or the Go type (struct vs map) they arrive in.
//
// The functions here are pure: no I/O, no randomness, no clock reads.
// Timestamps must be fixed by the caller before canonicalization.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Canonicalize renders v as deterministic JSON: object keys are emitted in
// lexicographic order at every depth, array element order is preserved, and
// nil values are emitted as null. Callers represent absent optional fields as
// explicit nulls so the fingerprint stays sensitive to field presence.
func Canonicalize(v any) ([]byte, error) {
	// Round-trip through encoding/json first: structs marshal in field
	// declaration order, so normalizing to map[string]any is what makes the
	// output insensitive to the input's shape.
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var normalized any
	if err := dec.Decode(&normalized); err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}

	var buf bytes.Buffer
	if err := write(&buf, normalized); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func write(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := write(buf, t[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := write(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case json.Number:
		buf.WriteString(t.String())
	default:
		// string or bool after the decode pass.
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}
