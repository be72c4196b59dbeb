package canonical

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	t.Run("sorts object keys recursively", func(t *testing.T) {
		out, err := Canonicalize(map[string]any{
			"b": 1,
			"a": map[string]any{"z": true, "y": false},
		})
		require.NoError(t, err)
		assert.Equal(t, `{"a":{"y":false,"z":true},"b":1}`, string(out))
	})

	t.Run("key order in the source does not matter", func(t *testing.T) {
		var a, b any
		require.NoError(t, json.Unmarshal([]byte(`{"name":"Luna","species":"dog","vitals":{"hr":80,"temp":38.5}}`), &a))
		require.NoError(t, json.Unmarshal([]byte(`{"vitals":{"temp":38.5,"hr":80},"species":"dog","name":"Luna"}`), &b))

		ca, err := Canonicalize(a)
		require.NoError(t, err)
		cb, err := Canonicalize(b)
		require.NoError(t, err)
		assert.Equal(t, string(ca), string(cb))
	})

	t.Run("array order is preserved", func(t *testing.T) {
		out, err := Canonicalize(map[string]any{"tags": []any{"c", "a", "b"}})
		require.NoError(t, err)
		assert.Equal(t, `{"tags":["c","a","b"]}`, string(out))
	})

	t.Run("nil values render as null", func(t *testing.T) {
		out, err := Canonicalize(map[string]any{"breed": nil, "name": "Luna"})
		require.NoError(t, err)
		assert.Equal(t, `{"breed":null,"name":"Luna"}`, string(out))
	})

	t.Run("structs and maps with the same content agree", func(t *testing.T) {
		type profile struct {
			Name    string `json:"name"`
			Species string `json:"species"`
		}
		fromStruct, err := Canonicalize(profile{Name: "Luna", Species: "dog"})
		require.NoError(t, err)
		fromMap, err := Canonicalize(map[string]any{"species": "dog", "name": "Luna"})
		require.NoError(t, err)
		assert.Equal(t, string(fromMap), string(fromStruct))
	})
}

func TestFingerprint(t *testing.T) {
	t.Run("format is 0x plus 64 lowercase hex", func(t *testing.T) {
		h, err := FingerprintValue(map[string]any{"name": "Luna"})
		require.NoError(t, err)
		assert.True(t, ValidFingerprint(h), "got %s", h)
	})

	t.Run("deterministic across key orderings", func(t *testing.T) {
		var a, b any
		require.NoError(t, json.Unmarshal([]byte(`{"x":1,"y":2}`), &a))
		require.NoError(t, json.Unmarshal([]byte(`{"y":2,"x":1}`), &b))

		ha, err := FingerprintValue(a)
		require.NoError(t, err)
		hb, err := FingerprintValue(b)
		require.NoError(t, err)
		assert.Equal(t, ha, hb)
	})

	t.Run("sensitive to any field change", func(t *testing.T) {
		h1, err := FingerprintValue(map[string]any{"name": "Luna", "species": "dog"})
		require.NoError(t, err)
		h2, err := FingerprintValue(map[string]any{"name": "Luna", "species": "cat"})
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("null and missing fields differ", func(t *testing.T) {
		h1, err := FingerprintValue(map[string]any{"name": "Luna", "breed": nil})
		require.NoError(t, err)
		h2, err := FingerprintValue(map[string]any{"name": "Luna"})
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})
}

func TestValidFingerprint(t *testing.T) {
	valid := "0x" + "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12"
	assert.True(t, ValidFingerprint(valid))

	cases := map[string]string{
		"uppercase hex":  "0xAB12CD34EF56AB12CD34EF56AB12CD34EF56AB12CD34EF56AB12CD34EF56AB12",
		"missing prefix": "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12",
		"too short":      "0xab12cd",
		"too long":       valid + "00",
		"not hex":        "0xzz12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12",
		"empty":          "",
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, ValidFingerprint(s))
		})
	}
}
