package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEncodingDefaultsToUTF8(t *testing.T) {
	enc, err := ResolveEncoding(nil)
	require.NoError(t, err)
	assert.Nil(t, enc)
}

func TestResolveEncodingUTF8Spellings(t *testing.T) {
	for _, raw := range []string{`"utf-8"`, `"UTF8"`, `65001`, `"65001"`} {
		enc, err := ResolveEncoding(json.RawMessage(raw))
		require.NoError(t, err, "raw %s", raw)
		assert.Nil(t, enc, "raw %s", raw)
	}
}

func TestResolveEncodingCodepage(t *testing.T) {
	enc, err := ResolveEncoding(json.RawMessage(`1252`))
	require.NoError(t, err)
	require.NotNil(t, enc)

	// windows-1252 0xE9 decodes to U+00E9.
	decoded, err := enc.NewDecoder().Bytes([]byte{0xE9})
	require.NoError(t, err)
	assert.Equal(t, "é", string(decoded))
}

func TestResolveEncodingCodepageInString(t *testing.T) {
	enc, err := ResolveEncoding(json.RawMessage(`"1251"`))
	require.NoError(t, err)
	assert.NotNil(t, enc)
}

func TestResolveEncodingByName(t *testing.T) {
	enc, err := ResolveEncoding(json.RawMessage(`"Shift_JIS"`))
	require.NoError(t, err)
	assert.NotNil(t, enc)
}

func TestResolveEncodingUnknownCodepage(t *testing.T) {
	_, err := ResolveEncoding(json.RawMessage(`99999`))
	assert.Error(t, err)
}

func TestResolveEncodingUnknownName(t *testing.T) {
	_, err := ResolveEncoding(json.RawMessage(`"no-such-charset"`))
	assert.Error(t, err)
}

func TestResolveEncodingRejectsOtherJSONTypes(t *testing.T) {
	_, err := ResolveEncoding(json.RawMessage(`{"cp":1252}`))
	assert.Error(t, err)
}
