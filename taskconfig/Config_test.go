package taskconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/armlearn/armfeat/feature"
)

const validConfig = `
features:
  - table
  - coffee
  - human
  - efficiency

ranges: [0.98, 2.0, 0.4, 0.01]
weights: [1.0, 0.0, 0.5, 1.0]

object_centers:
  HUMAN_CENTER: [-0.6, -0.55, 0.0]
  LAPTOP_CENTER: [-0.8, 0.0, 0.0]
`

func TestParse(t *testing.T) {
	config, err := Parse([]byte(validConfig))
	require.NoError(t, err)

	assert.Equal(t, []string{"table", "coffee", "human", "efficiency"},
		config.Features)
	assert.Equal(t, []float64{0.98, 2.0, 0.4, 0.01}, config.Ranges)
	assert.Equal(t, []float64{1.0, 0.0, 0.5, 1.0}, config.Weights)
	require.Contains(t, config.ObjectCenters, feature.HumanCenterKey)
	assert.Equal(t, []float64{-0.6, -0.55, 0.0},
		config.ObjectCenters[feature.HumanCenterKey])
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"not yaml":        "features: [table",
		"no features":     "ranges: [1.0]",
		"unknown feature": "features: [table, gravity]",
		"learned in list": "features: [table, learned_feature]",
		"ranges mismatch": "features: [table, coffee]\nranges: [1.0]",
		"weights mismatch": "features: [table, coffee]\n" +
			"weights: [1.0, 2.0, 3.0]",
		"bad center": "features: [table]\n" +
			"object_centers: {HUMAN_CENTER: [1.0, 2.0]}",
		"bad learned layers": "features: [table]\n" +
			"learned_features: [{layers: 0, units: 16}]",
		"bad learned init": "features: [table]\n" +
			"learned_features: [{layers: 2, units: 16, " +
			"init: {type: unknowable, gain: 1.0}}]",
	}

	for name, data := range cases {
		_, err := Parse([]byte(data))
		assert.Error(t, err, name)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o644))

	config, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, config.Features, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCenters(t *testing.T) {
	config, err := Parse([]byte(validConfig))
	require.NoError(t, err)

	centers := config.Centers()
	require.Contains(t, centers, feature.HumanCenterKey)
	assert.True(t, mat.Equal(mat.NewVecDense(3, []float64{-0.6, -0.55, 0.0}),
		centers[feature.HumanCenterKey]))
}

func TestRegistry(t *testing.T) {
	config, err := Parse([]byte(validConfig))
	require.NoError(t, err)

	reg, err := config.Registry()
	require.NoError(t, err)

	assert.Equal(t, 4, reg.NumFeatures())
	assert.Equal(t, []feature.Kind{feature.Table, feature.Coffee,
		feature.Human, feature.Efficiency}, reg.Kinds())
	assert.Equal(t, config.Weights, reg.Weights())

	waypts := []mat.Vector{
		mat.NewVecDense(7, nil),
		mat.NewVecDense(7, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7}),
	}
	features, err := reg.Featurize(waypts)
	require.NoError(t, err)
	rows, cols := features.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 1, cols)
}

func TestRegistryDefaults(t *testing.T) {
	config, err := Parse([]byte("features: [table, coffee]"))
	require.NoError(t, err)

	reg, err := config.Registry()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, reg.Weights())
}

func TestRegistryWithLearnedFeature(t *testing.T) {
	config, err := Parse([]byte(`
features: [table]
object_centers:
  HUMAN_CENTER: [-0.6, -0.55, 0.0]
learned_features:
  - layers: 2
    units: 16
    init: {type: Zeroes}
`))
	require.NoError(t, err)

	reg, err := config.Registry()
	require.NoError(t, err)
	require.Equal(t, 2, reg.NumFeatures())
	assert.Equal(t, feature.Learned, reg.Kinds()[1])

	lf, ok := reg.LearnedFeatureAt(1)
	require.True(t, ok)
	assert.Equal(t, reg.RawFeatureDim(), lf.Features())

	// Zero initialization makes the appended feature inert until
	// trained
	val, err := reg.FeaturizeSingle(mat.NewVecDense(7, nil), 1)
	require.NoError(t, err)
	assert.Zero(t, val)
}
