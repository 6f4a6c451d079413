package literal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, src string) any {
	t.Helper()
	v, err := DecodeJSON([]byte(src))
	require.NoError(t, err)
	return v
}

func TestSerialize_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"true", true, "True"},
		{"false", false, "False"},
		{"nil", nil, "None"},
		{"string", "cpu", "'cpu'"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"float", 90.5, "90.5"},
		{"whole float keeps point", 90.0, "90.0"},
		{"number integer", json.Number("90"), "90"},
		{"number float", json.Number("90.0"), "90.0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Serialize(tc.in))
		})
	}
}

func TestSerialize_Sequences(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"empty object", `{}`, "{}"},
		{"empty array", `[]`, "()"},
		{"one-tuple", `[1]`, "(1,)"},
		{"plain tuple", `[1, 2, 3]`, "(1, 2, 3)"},
		{"tagged tuple", `["perc_used", [90.0, 95.0]]`, "('perc_used', (90.0, 95.0))"},
		{"numeric pair", `[90.0, 95.0]`, "(90.0, 95.0)"},
		{"mixed pair falls through", `["a", "b"]`, "('a', 'b')"},
		{"nested dict", `{"levels": ["perc_used", [90.0, 95.0]]}`, "{'levels': ('perc_used', (90.0, 95.0))}"},
		{"string second element is generic", `["tag", "x"]`, "('tag', 'x')"},
		{"null in tuple", `[null, true]`, "(None, True)"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Serialize(mustDecode(t, tc.json)))
		})
	}
}

func TestSerialize_TagPatternBeatsNumericPair(t *testing.T) {
	// The tag pattern is checked first; a string cannot be numeric so the
	// two rules only overlap through ordering, never through a single input.
	tagged := Serialize(mustDecode(t, `["perc_used", [90.0, 95.0]]`))
	pair := Serialize(mustDecode(t, `[90.0, 95.0]`))
	require.Equal(t, "('perc_used', (90.0, 95.0))", tagged)
	require.Equal(t, "(90.0, 95.0)", pair)
}

func TestSerialize_MapPreservesKeyOrder(t *testing.T) {
	v := mustDecode(t, `{"zeta": 1, "alpha": 2, "mid": 3}`)
	require.Equal(t, "{'zeta': 1, 'alpha': 2, 'mid': 3}", Serialize(v))
}

func TestSerialize_PlainGoMapSortsKeys(t *testing.T) {
	v := map[string]any{"b": 2, "a": 1}
	require.Equal(t, "{'a': 1, 'b': 2}", Serialize(v))
}

func TestSerialize_StringPassThrough(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"dict literal", "{'already': 'literal'}", "{'already': 'literal'}"},
		{"tuple literal", "('perc_used', (90.0, 95.0))", "('perc_used', (90.0, 95.0))"},
		{"bracket literal", "['a', 'b']", "['a', 'b']"},
		{"bool token", "True", "True"},
		{"none token", "None", "None"},
		{"leading whitespace", "  {'a': 1}", "  {'a': 1}"},
		{"ordinary string still quoted", "memory", "'memory'"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Serialize(tc.in))
		})
	}
}

func TestSerialize_QuotesAreEscaped(t *testing.T) {
	require.Equal(t, `{'msg': 'it\'s fine'}`, Serialize(mustDecode(t, `{"msg": "it's fine"}`)))
}

func TestSerialize_UnknownKindFallsBack(t *testing.T) {
	// Values outside the JSON model degrade to a textual rendering instead
	// of failing.
	require.Equal(t, "3", Serialize(uint8(3)))
}
