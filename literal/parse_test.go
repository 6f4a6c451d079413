package literal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{"true", "True", true},
		{"false", "False", false},
		{"none", "None", nil},
		{"integer", "42", json.Number("42")},
		{"negative integer", "-7", json.Number("-7")},
		{"float", "90.5", json.Number("90.5")},
		{"exponent", "1e-3", json.Number("1e-3")},
		{"single-quoted string", "'cpu'", "cpu"},
		{"double-quoted string", `"cpu"`, "cpu"},
		{"escaped quote", `'it\'s fine'`, "it's fine"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Structures(t *testing.T) {
	t.Run("empty tuple", func(t *testing.T) {
		got, err := Parse("()")
		require.NoError(t, err)
		require.Equal(t, []any{}, got)
	})

	t.Run("one-tuple collapses trailing comma", func(t *testing.T) {
		got, err := Parse("(1,)")
		require.NoError(t, err)
		require.Equal(t, []any{json.Number("1")}, got)
	})

	t.Run("bracket list parses like a tuple", func(t *testing.T) {
		got, err := Parse("['a', 'b']")
		require.NoError(t, err)
		require.Equal(t, []any{"a", "b"}, got)
	})

	t.Run("mapping preserves key order", func(t *testing.T) {
		got, err := Parse("{'zeta': 1, 'alpha': 2}")
		require.NoError(t, err)
		m, ok := got.(*Map)
		require.True(t, ok)
		require.Equal(t, []string{"zeta", "alpha"}, m.Keys())
	})

	t.Run("trailing comma in mapping", func(t *testing.T) {
		got, err := Parse("{'a': 1,}")
		require.NoError(t, err)
		m := got.(*Map)
		require.Equal(t, 1, m.Len())
	})

	t.Run("nested rule value", func(t *testing.T) {
		got, err := Parse("{'levels': ('perc_used', (90.0, 95.0))}")
		require.NoError(t, err)
		m := got.(*Map)
		levels, ok := m.Get("levels")
		require.True(t, ok)
		require.Equal(t, []any{"perc_used", []any{json.Number("90.0"), json.Number("95.0")}}, levels)
	})
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"truncated mapping", "{'a': (1, 2"},
		{"unterminated string", "'abc"},
		{"unknown keyword", "Truthy"},
		{"bare word", "hello"},
		{"missing colon", "{'a' 1}"},
		{"trailing garbage", "(1, 2) x"},
		{"empty input", ""},
		{"unbalanced close", "(1, 2))"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.input)
			require.Error(t, err)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParse_ErrorCarriesOffset(t *testing.T) {
	_, err := Parse("{'a': (1, 2")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, len("{'a': (1, 2"), parseErr.Offset)
	require.Contains(t, parseErr.Error(), "end of input")
}

func TestRoundTrip(t *testing.T) {
	// parse(serialize(v)) must reproduce v for values that avoid the
	// documented numeric-pair ambiguity and the pass-through rule.
	inputs := []string{
		`{}`,
		`[]`,
		`[1]`,
		`[1, 2, 3]`,
		`["perc_used", [90.0, 95.0]]`,
		`{"levels": ["perc_used", [90.0, 95.0]], "magic": 0.8}`,
		`{"disabled": false, "comment": null}`,
		`["a", ["b", ["c", [1.5, 2]]]]`,
		`"plain string"`,
		`true`,
		`3.25`,
	}
	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			v := mustDecode(t, src)
			got, err := Parse(Serialize(v))
			require.NoError(t, err)
			require.Equal(t, v, got)
		})
	}
}

func TestRoundTrip_NumericPairAmbiguity(t *testing.T) {
	// A JSON array of two numbers and a genuine threshold tuple serialize
	// to the same literal; both parse back to a 2-element slice. Accepted
	// lossy boundary, kept visible here.
	v := mustDecode(t, `[90.0, 95.0]`)
	got, err := Parse(Serialize(v))
	require.NoError(t, err)
	require.Equal(t, v, got)
}
