package store

import (
	"encoding/json"
	"fmt"
)

// MarshalRecord converts a typed value into a Record through its JSON
// encoding, so typed layers never hand-build field maps.
func MarshalRecord(v interface{}) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}

// UnmarshalRecord decodes a Record into a typed value.
func UnmarshalRecord(rec Record, out interface{}) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	return nil
}
