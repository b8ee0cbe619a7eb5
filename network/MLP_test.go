package network

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
)

// evalNet runs one forward pass of net on input and unwraps the scalar
// prediction.
func evalNet(t *testing.T, net NeuralNet, input []float64) float64 {
	t.Helper()
	require.NoError(t, net.SetInput(input))

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	switch out := net.Output().Data().(type) {
	case float64:
		return out
	case []float64:
		require.Len(t, out, 1)
		return out[0]
	}
	t.Fatalf("unexpected output type %T", net.Output().Data())
	return 0
}

func testInput(features int) []float64 {
	input := make([]float64, features)
	for i := range input {
		input[i] = 0.1 * float64(i%7)
	}
	return input
}

func newTestMLP(t *testing.T, features int, init G.InitWFn) NeuralNet {
	t.Helper()
	net, err := NewMLP(features, 1, G.NewGraph(), []int{8, 8},
		[]bool{true, true}, init,
		[]*Activation{TanH(), TanH()})
	require.NoError(t, err)
	return net
}

func TestNewMLPValidation(t *testing.T) {
	_, err := NewMLP(4, 1, G.NewGraph(), []int{8, 8}, []bool{true, true},
		G.GlorotU(1.0), []*Activation{TanH()})
	assert.Error(t, err)

	_, err = NewMLP(4, 1, G.NewGraph(), []int{8}, []bool{true, true},
		G.GlorotU(1.0), []*Activation{TanH()})
	assert.Error(t, err)
}

func TestMLPZeroInitPredictsZero(t *testing.T) {
	net := newTestMLP(t, 12, G.Zeroes())

	assert.Equal(t, 12, net.Features())
	assert.Equal(t, 1, net.BatchSize())
	assert.Zero(t, evalNet(t, net, testInput(12)))
}

func TestMLPSetInputLength(t *testing.T) {
	net := newTestMLP(t, 12, G.GlorotU(1.0))
	assert.Error(t, net.SetInput(make([]float64, 11)))
	assert.NoError(t, net.SetInput(make([]float64, 12)))
}

func TestMLPDeterministicForward(t *testing.T) {
	net := newTestMLP(t, 12, G.GlorotU(1.0))
	input := testInput(12)

	first := evalNet(t, net, input)
	second := evalNet(t, net, input)
	assert.Equal(t, first, second)
}

func TestMLPLearnables(t *testing.T) {
	net := newTestMLP(t, 12, G.GlorotU(1.0))

	// Two hidden layers and the output layer, each with weights and a
	// bias
	assert.Len(t, net.Learnables(), 6)
	assert.Len(t, net.Model(), 6)
}

func TestMLPGobRoundTrip(t *testing.T) {
	net := newTestMLP(t, 12, G.GlorotU(1.0))
	input := testInput(12)
	want := evalNet(t, net, input)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, net))

	loaded, err := Load(&buf)
	require.NoError(t, err)

	assert.Equal(t, net.Features(), loaded.Features())
	assert.Equal(t, net.BatchSize(), loaded.BatchSize())
	assert.InDelta(t, want, evalNet(t, loaded, input), 1e-12)
}

func TestMLPCloneWithInputTo(t *testing.T) {
	net := newTestMLP(t, 12, G.GlorotU(1.0))
	input := testInput(12)
	want := evalNet(t, net, input)

	g := G.NewGraph()
	inputNode := G.NewMatrix(g, G.Float64, G.WithShape(1, 12),
		G.WithName("cloneInput"), G.WithInit(G.Zeroes()))

	clone, err := net.CloneWithInputTo(inputNode, g)
	require.NoError(t, err)
	assert.InDelta(t, want, evalNet(t, clone, input), 1e-12)

	// The input must live on the target graph
	_, err = net.CloneWithInputTo(inputNode, G.NewGraph())
	assert.Error(t, err)
}
