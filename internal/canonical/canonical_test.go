package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_SortsKeys(t *testing.T) {
	got, err := Marshal(map[string]any{
		"step": 2,
		"kind": "next",
		"accepted": true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"accepted":true,"kind":"next","step":2}`, string(got))
}

func TestMarshal_NestedValues(t *testing.T) {
	got, err := Marshal(map[string]any{
		"proof": []string{"0xaa", "0xbb"},
		"meta":  map[string]any{"seq": int64(7)},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"meta":{"seq":7},"proof":["0xaa","0xbb"]}`, string(got))
}

func TestMarshal_RejectsFloatsAndNull(t *testing.T) {
	_, err := Marshal(map[string]any{"amount": 1.5})
	assert.Error(t, err)

	_, err = Marshal(map[string]any{"amount": nil})
	assert.Error(t, err)
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	got, err := Marshal("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(got))
}

func TestMarshal_LineSeparatorsLiteral(t *testing.T) {
	got, err := Marshal("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(got))

	// A literal backslash followed by the text u2028 stays escaped.
	got, err = Marshal(`a\u2028b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(got))
}

func TestMarshal_NFCNormalization(t *testing.T) {
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := Marshal(decomposed)
	require.NoError(t, err)
	b, err := Marshal(composed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestMarshal_UTF16KeyOrder(t *testing.T) {
	// U+FF61 sorts before U+1F600 in UTF-8 but after it in UTF-16.
	got, err := Marshal(map[string]any{
		"\U0001F600": 1,
		"\uff61":     2,
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"\uff61\":2}", string(got))
}

func TestID_Deterministic(t *testing.T) {
	v := map[string]any{"session": "s-1", "seq": int64(1)}
	a := MustID(DomainSessionEvent, v)
	b := MustID(DomainSessionEvent, map[string]any{"seq": int64(1), "session": "s-1"})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c := MustID(DomainTransaction, v)
	assert.NotEqual(t, a, c, "domains must separate identical payloads")
}
