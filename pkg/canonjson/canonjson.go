// Package canonjson serializes values to canonical JSON: object keys sorted,
// minimal separators, no HTML escaping, and a single trailing newline.
//
// Every artifact the pipeline writes goes through this package so that
// identical logical content always produces identical bytes, independent of
// struct field order or map iteration order.
package canonjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Marshal renders v as canonical JSON.
//
// The value is first marshaled conventionally, then round-tripped through a
// generic tree (numbers kept verbatim as json.Number) and re-encoded. The
// re-encode pass sorts all object keys and disables HTML escaping, which is
// what makes the output byte-stable.
func Marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonjson: marshal: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("canonjson: decode intermediate: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return nil, fmt.Errorf("canonjson: encode: %w", err)
	}
	// json.Encoder already appends exactly one newline.
	return buf.Bytes(), nil
}

// WriteFile writes v as canonical JSON to path, creating parent directories
// as needed. Re-running with identical input overwrites the file with
// byte-identical content.
func WriteFile(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("canonjson: mkdir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("canonjson: write %s: %w", path, err)
	}
	return nil
}
