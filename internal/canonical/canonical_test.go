package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int", int64(-100), "-100"},
		{"bool", true, "true"},
		{"empty array", []string{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"html is not escaped", "<a&b>", `"<a&b>"`},
		{"line separator kept literal", "a\u2028b", "\"a\u2028b\""},
		{"escaped backslash before u2028 text", `\u2028`, `"\\u2028"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalSortsKeys(t *testing.T) {
	type sample struct {
		Zebra int    `json:"zebra"`
		Alpha string `json:"alpha"`
		Beta  []int  `json:"beta,omitempty"`
	}

	result, err := Marshal(sample{Zebra: 1, Alpha: "x"})
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":"x","zebra":1}`, string(result))
}

func TestMarshalUTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FF61
	// in UTF-16 but after it in UTF-8.
	obj := map[string]any{"｡": 1, "\U0001F600": 2}
	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"｡\":1}", string(result))
}

func TestMarshalNFC(t *testing.T) {
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := Marshal(decomposed)
	require.NoError(t, err)
	b, err := Marshal(composed)
	require.NoError(t, err)
	assert.Equal(t, b, a)
}

func TestMarshalRejectsFloatsAndNull(t *testing.T) {
	_, err := Marshal(1.5)
	assert.Error(t, err)

	_, err = Marshal(map[string]any{"a": nil})
	assert.Error(t, err)

	_, err = Marshal(nil)
	assert.Error(t, err)
}

func TestHashDomainSeparation(t *testing.T) {
	v := map[string]any{"name": "rate"}

	h1, err := Hash(DomainContractForm, v)
	require.NoError(t, err)
	h2, err := Hash(DomainRateForm, v)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
	assert.Len(t, h1, 64)

	again, err := Hash(DomainContractForm, map[string]any{"name": "rate"})
	require.NoError(t, err)
	assert.Equal(t, h1, again)
}
