// Package literal converts JSON-compatible values to and from CheckMK's
// Python-literal configuration syntax, the format the REST API expects in
// rule value_raw fields.
//
// Values are modeled with a small closed set of Go types: *Map for objects
// (key order preserving), []any for arrays, string, bool, json.Number for
// integers and floats, and nil for null.
package literal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Map is a JSON object that remembers insertion order. CheckMK rule values
// are rendered as Python dict literals, and the dict entry order the caller
// supplies must survive the conversion.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap returns an empty ordered map.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// Set stores value under key, appending the key if it is new.
func (m *Map) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	return len(m.keys)
}

// Keys returns the keys in insertion order. The returned slice must not be
// modified.
func (m *Map) Keys() []string {
	return m.keys
}

// MarshalJSON renders the map as a JSON object with keys in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyData, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyData)
		buf.WriteByte(':')
		valData, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(valData)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the map, preserving key order.
func (m *Map) UnmarshalJSON(data []byte) error {
	v, err := DecodeJSON(data)
	if err != nil {
		return err
	}
	decoded, ok := v.(*Map)
	if !ok {
		return fmt.Errorf("literal: expected JSON object, got %T", v)
	}
	*m = *decoded
	return nil
}

// DecodeJSON decodes raw JSON into the literal value model: *Map for
// objects, []any for arrays, json.Number for numbers, plus string, bool and
// nil. Unlike a plain json.Unmarshal into map[string]any, object key order
// is preserved.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	// A value_raw field holds exactly one value.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("literal: trailing data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("literal: decode JSON: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool or nil.
		return tok, nil
	}
	switch delim {
	case '{':
		m := NewMap()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("literal: decode JSON key: %w", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("literal: object key is %T, want string", keyTok)
			}
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			m.Set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("literal: unterminated JSON object: %w", err)
		}
		return m, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("literal: unterminated JSON array: %w", err)
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("literal: unexpected delimiter %q", delim)
	}
}
