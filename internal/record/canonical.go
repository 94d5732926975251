package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces the canonical serialization of a record, the
// ONLY form that feeds content hashing.
//
// Canonical form:
//   - a JSON object {"_id": ..., "fields": {...}}
//   - field names sorted bytewise
//   - strings NFC normalized at the serialization boundary
//   - no HTML escaping (< > & stay literal)
//   - fields whose normalized value is empty are OMITTED, so a record that
//     carries `"x": ""` and one missing "x" entirely serialize identically,
//     matching Record.Equal semantics
//
// This is deliberately not full RFC 8785: records only ever contain string
// values, so the number and nesting rules never apply. Deterministic bytes
// for identical normalized content is the whole contract.
func (r Record) MarshalCanonical() ([]byte, error) {
	names := make([]string, 0, len(r.Fields))
	for name, value := range r.Fields {
		if value == "" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteByte('{')

	idKey, err := canonicalString("_id")
	if err != nil {
		return nil, err
	}
	buf.Write(idKey)
	buf.WriteByte(':')
	idVal, err := canonicalString(r.ID)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", r.ID, err)
	}
	buf.Write(idVal)

	buf.WriteByte(',')
	fieldsKey, err := canonicalString("fields")
	if err != nil {
		return nil, err
	}
	buf.Write(fieldsKey)
	buf.WriteString(":{")

	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := canonicalString(name)
		if err != nil {
			return nil, fmt.Errorf("record %q field %q: %w", r.ID, name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := canonicalString(r.Fields[name])
		if err != nil {
			return nil, fmt.Errorf("record %q field %q: %w", r.ID, name, err)
		}
		buf.Write(v)
	}

	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// canonicalString encodes a string as canonical JSON: NFC normalized, no
// HTML escaping, no trailing newline.
func canonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline, remove it.
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}
