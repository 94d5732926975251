package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/listwatch/internal/diff"
	"github.com/roach88/listwatch/internal/record"
)

// marshalFields converts a record's field map to JSON TEXT for storage.
// Go's json.Marshal sorts map keys, so the stored text is deterministic.
func marshalFields(fields map[string]string) (string, error) {
	if len(fields) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return string(data), nil
}

// unmarshalFields parses JSON TEXT to a field map.
func unmarshalFields(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return map[string]string{}, nil
	}
	var fields map[string]string
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return fields, nil
}

// marshalRecords converts a record group (added/removed) to JSON TEXT.
func marshalRecords(records []record.Record) (string, error) {
	if records == nil {
		records = []record.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("marshal records: %w", err)
	}
	return string(data), nil
}

// unmarshalRecords parses JSON TEXT to a record group.
func unmarshalRecords(data string) ([]record.Record, error) {
	if data == "" || data == "[]" {
		return []record.Record{}, nil
	}
	var records []record.Record
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	return records, nil
}

// marshalModifications converts the modified group to JSON TEXT.
func marshalModifications(mods []diff.Modification) (string, error) {
	if mods == nil {
		mods = []diff.Modification{}
	}
	data, err := json.Marshal(mods)
	if err != nil {
		return "", fmt.Errorf("marshal modifications: %w", err)
	}
	return string(data), nil
}

// unmarshalModifications parses JSON TEXT to the modified group.
func unmarshalModifications(data string) ([]diff.Modification, error) {
	if data == "" || data == "[]" {
		return []diff.Modification{}, nil
	}
	var mods []diff.Modification
	if err := json.Unmarshal([]byte(data), &mods); err != nil {
		return nil, fmt.Errorf("unmarshal modifications: %w", err)
	}
	return mods, nil
}
