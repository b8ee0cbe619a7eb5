package initwfn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCreate(t *testing.T) {
	types := []Type{GlorotU, GlorotN, HeU, HeN, Zeroes, Ones, Gaussian}

	for _, typ := range types {
		w, err := New(typ, 1.0)
		require.NoError(t, err, typ)

		fn, err := w.Create()
		require.NoError(t, err, typ)
		assert.NotNil(t, fn, typ)
	}

	_, err := New(Type("Uniform"), 1.0)
	assert.Error(t, err)
}

func TestUnmarshalYAML(t *testing.T) {
	w := new(InitWFn)
	require.NoError(t, yaml.Unmarshal([]byte("type: GlorotU\ngain: 1.5"),
		w))

	assert.Equal(t, GlorotU, w.Type)
	assert.Equal(t, 1.5, w.Gain)

	_, err := w.Create()
	assert.NoError(t, err)
}
