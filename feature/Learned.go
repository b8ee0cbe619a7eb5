package feature

import (
	"fmt"
	"os"

	G "gorgonia.org/gorgonia"

	"github.com/armlearn/armfeat/network"
)

// LearnedFeature wraps a neural function approximator so it can be
// registered and weighted like an analytic feature. The approximator
// consumes the raw state vector a Registry builds with RawFeatures and
// produces one scalar, pre-scaled by its own training so the registry
// never normalizes it.
//
// Loading a checkpoint replaces the approximator in place; the
// feature's position in the registry is fixed once appended.
type LearnedFeature struct {
	net network.NeuralNet
	vm  G.VM

	features int
	layers   int
	units    int
}

// newLearnedFeature builds a blank approximator: an MLP with the
// given number of tanh hidden layers of equal width and a single
// linear output, over raw state vectors of length features.
func newLearnedFeature(features, layers, units int,
	init G.InitWFn) (*LearnedFeature, error) {
	if layers < 1 || units < 1 {
		return nil, fmt.Errorf("newlearnedfeature: need at least 1 layer "+
			"and 1 unit, got (%v, %v)", layers, units)
	}
	if init == nil {
		init = G.GlorotU(1.0)
	}

	hidden := make([]int, layers)
	biases := make([]bool, layers)
	activations := make([]*network.Activation, layers)
	for i := 0; i < layers; i++ {
		hidden[i] = units
		biases[i] = true
		activations[i] = network.TanH()
	}

	g := G.NewGraph()
	net, err := network.NewMLP(features, 1, g, hidden, biases, init,
		activations)
	if err != nil {
		return nil, fmt.Errorf("newlearnedfeature: could not construct "+
			"approximator: %v", err)
	}

	return &LearnedFeature{
		net:      net,
		vm:       G.NewTapeMachine(g),
		features: features,
		layers:   layers,
		units:    units,
	}, nil
}

// Features returns the length of raw state vector the approximator
// consumes.
func (l *LearnedFeature) Features() int {
	return l.features
}

// Net returns the underlying approximator, e.g. for an external
// trainer to update its weights.
func (l *LearnedFeature) Net() network.NeuralNet {
	return l.net
}

// EvalRaw evaluates the approximator on a raw state vector and
// unwraps the 1x1 prediction to a plain scalar.
func (l *LearnedFeature) EvalRaw(raw []float64) (float64, error) {
	if len(raw) != l.features {
		return 0, fmt.Errorf("evalraw: invalid raw vector length"+
			"\n\twant(%v)\n\thave(%v)", l.features, len(raw))
	}

	if err := l.net.SetInput(raw); err != nil {
		return 0, fmt.Errorf("evalraw: could not set input: %v", err)
	}
	if err := l.vm.RunAll(); err != nil {
		return 0, fmt.Errorf("evalraw: could not run machine: %v", err)
	}
	defer l.vm.Reset()

	switch out := l.net.Output().Data().(type) {
	case float64:
		return out, nil
	case []float64:
		return out[0], nil
	}
	return 0, fmt.Errorf("evalraw: unexpected output type %T",
		l.net.Output().Data())
}

// Fwd clones the approximator onto the graph of input, rooted at
// input, and returns its prediction node. The input must be a 1 x
// Features() matrix node, typically the one built by
// Registry.RawFeatureNode; gradients then flow from the prediction
// back to the joint angle nodes.
func (l *LearnedFeature) Fwd(input *G.Node) (*G.Node, error) {
	clone, err := l.net.CloneWithInputTo(input, input.Graph())
	if err != nil {
		return nil, fmt.Errorf("fwd: could not clone approximator: %v", err)
	}
	return clone.Prediction(), nil
}

// LoadCheckpoint replaces the approximator with one decoded from a
// trained checkpoint file. The checkpoint must have been trained on
// raw state vectors of the same length.
func (l *LearnedFeature) LoadCheckpoint(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("loadcheckpoint: %v", err)
	}
	defer f.Close()

	net, err := network.Load(f)
	if err != nil {
		return fmt.Errorf("loadcheckpoint: %v", err)
	}
	if net.Features() != l.features {
		return fmt.Errorf("loadcheckpoint: checkpoint consumes %v raw "+
			"features, registry produces %v", net.Features(), l.features)
	}

	l.net = net
	l.vm = G.NewTapeMachine(net.Graph())
	return nil
}

// SaveCheckpoint gob-encodes the approximator to a file.
func (l *LearnedFeature) SaveCheckpoint(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("savecheckpoint: %v", err)
	}
	defer f.Close()

	if err := network.Save(f, l.net); err != nil {
		return fmt.Errorf("savecheckpoint: %v", err)
	}
	return nil
}
