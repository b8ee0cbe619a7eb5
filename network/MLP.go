package network

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron with a single output
// node, the scalar prediction of a learned feature.
type mlp struct {
	g         *G.ExprGraph
	layers    []*fcLayer
	input     *G.Node
	numInputs int
	batchSize int

	// Data needed for gobbing
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron with a
// single output head, registered on the graph g.
//
// The MLP has len(hiddenSizes) + 1 layers: for index i, hiddenSizes[i]
// is the number of units in hidden layer i, biases[i] is whether that
// layer carries a bias unit, and activations[i] is its activation. A
// final linear layer with a bias unit and no activation maps the last
// hidden layer to the single output. The parameter init determines the
// weight initialization scheme.
func NewMLP(features, batch int, g *G.ExprGraph, hiddenSizes []int,
	biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {

	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batch, features),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	return newMLPFromInput(input, g, hiddenSizes, biases, init, activations)
}

// newMLPFromInput returns a new single-output MLP rooted at a specific
// input node.
func newMLPFromInput(input *G.Node, g *G.ExprGraph, hiddenSizes []int,
	biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {

	if len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("newmlp: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		return nil, fmt.Errorf("newmlp: invalid number of biases"+
			"\n\twant(%v)\n\thave(%v)", len(hiddenSizes), len(biases))
	}
	if !input.IsMatrix() {
		return nil, fmt.Errorf("newmlp: input must be a matrix node")
	}

	batch := input.Shape()[0]
	features := input.Shape()[1]

	// Add the final linear layer predicting the single output
	hiddenSizes = append(append([]int{}, hiddenSizes...), 1)
	biases = append(append([]bool{}, biases...), true)
	activations = append(append([]*Activation{}, activations...), Identity())

	layers := makeLayers(g, hiddenSizes, biases, activations, init, features,
		"")

	network := &mlp{
		g:           g,
		layers:      layers,
		input:       input,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("newmlp: could not compute forward pass: %v",
			err)
	}

	return network, nil
}

// fwd performs the forward pass of the mlp on the input node
func (e *mlp) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)
	return nil
}

// Graph returns the computational graph of the mlp.
func (e *mlp) Graph() *G.ExprGraph {
	return e.g
}

// BatchSize returns the number of rows of the network's input.
func (e *mlp) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single input vector.
func (e *mlp) Features() int {
	return e.numInputs
}

// SetInput sets the value of the input node before running a machine
// over the graph.
func (e *mlp) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// CloneWithInputTo clones the mlp, with its current weights, onto g
// rooted at the given input node.
func (e *mlp) CloneWithInputTo(input *G.Node, g *G.ExprGraph) (NeuralNet,
	error) {
	if input.Graph() != g {
		return nil, fmt.Errorf("clonewithinputto: input is not on the " +
			"target graph")
	}
	if !input.IsMatrix() {
		return nil, fmt.Errorf("clonewithinputto: input must be a matrix node")
	}

	layers := make([]*fcLayer, len(e.layers))
	for i := range e.layers {
		layers[i] = e.layers[i].cloneTo(g)
	}

	network := &mlp{
		g:           g,
		layers:      layers,
		input:       input,
		numInputs:   e.numInputs,
		batchSize:   input.Shape()[0],
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
	}
	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithinputto: could not clone: %v", err)
	}

	return network, nil
}

// Learnables returns the learnable nodes in an mlp
func (e *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		e.learnables = e.computeLearnables()
	}
	return e.learnables
}

// computeLearnables computes all the learnables for the network
func (e *mlp) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(e.layers))
	for i := range e.layers {
		learnables = append(learnables, e.layers[i].weights)
		if bias := e.layers[i].bias; bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnable nodes with their gradients.
func (e *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		model := make([]G.ValueGrad, 0, 2*len(e.layers))
		for _, node := range e.Learnables() {
			model = append(model, node)
		}
		e.model = model
	}
	return e.model
}

// Output returns the value of the prediction node after a machine
// run.
func (e *mlp) Output() G.Value {
	return e.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the mlp
func (e *mlp) Prediction() *G.Node {
	return e.prediction
}

// GobEncode implements the gob.GobEncoder interface
func (e *mlp) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(e.numInputs); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of inputs")
	}
	if err := enc.Encode(e.batchSize); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode batch size")
	}
	if err := enc.Encode(e.hiddenSizes); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden sizes")
	}
	if err := enc.Encode(e.biases); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode biases")
	}
	if err := enc.Encode(e.activations); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activations")
	}

	for i, layer := range e.layers {
		if err := enc.Encode(layer); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode layer %v: %v",
				i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The network is
// rebuilt directly on the receiver: the graph's prediction read must
// target the receiver's own output value, so the forward pass cannot
// be constructed on a temporary and copied over.
func (e *mlp) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var numInputs int
	if err := dec.Decode(&numInputs); err != nil {
		return fmt.Errorf("gobdecode: could not decode number of inputs")
	}

	var batchSize int
	if err := dec.Decode(&batchSize); err != nil {
		return fmt.Errorf("gobdecode: could not decode batch size")
	}

	// The stored slices include the final output layer, added at
	// construction time by newMLPFromInput
	var hiddenSizes []int
	if err := dec.Decode(&hiddenSizes); err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes")
	}

	var biases []bool
	if err := dec.Decode(&biases); err != nil {
		return fmt.Errorf("gobdecode: could not decode biases")
	}

	var activations []*Activation
	if err := dec.Decode(&activations); err != nil {
		return fmt.Errorf("gobdecode: could not decode activations")
	}

	g := G.NewGraph()
	input := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(batchSize, numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	e.g = g
	e.layers = makeLayers(g, hiddenSizes, biases, activations, G.Zeroes(),
		numInputs, "")
	e.input = input
	e.numInputs = numInputs
	e.batchSize = batchSize
	e.hiddenSizes = hiddenSizes
	e.biases = biases
	e.activations = activations
	e.learnables = nil
	e.model = nil

	if err := e.fwd(input); err != nil {
		return fmt.Errorf("gobdecode: could not compute forward pass: %v", err)
	}

	// Fill the rebuilt layers with the stored weight values
	for i := range e.layers {
		if err := dec.Decode(e.layers[i]); err != nil {
			return fmt.Errorf("gobdecode: could not decode layer %v: %v", i,
				err)
		}
	}

	return nil
}

// Save gob-encodes a network to w.
func Save(w io.Writer, net NeuralNet) error {
	return gob.NewEncoder(w).Encode(net.(*mlp))
}

// Load reads a gob-encoded network from r.
func Load(r io.Reader) (NeuralNet, error) {
	net := new(mlp)
	if err := gob.NewDecoder(r).Decode(net); err != nil {
		return nil, fmt.Errorf("load: could not decode network: %v", err)
	}
	return net, nil
}
