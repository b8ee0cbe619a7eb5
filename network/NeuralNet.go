// Package network implements the neural function approximators used
// by learned features. Networks are Gorgonia computation graphs, so a
// network can be evaluated on plain inputs with a tape machine or
// re-rooted on another graph's node when the caller needs gradients
// to flow through it.
package network

import (
	"encoding/gob"

	G "gorgonia.org/gorgonia"
)

// NeuralNet is a function approximator mapping a feature vector to a
// single scalar prediction. Implementations gob-encode their weights
// so trained networks can be checkpointed and reloaded.
type NeuralNet interface {
	// Graph returns the computational graph the network lives on
	Graph() *G.ExprGraph

	// BatchSize returns the number of rows of the network's input
	BatchSize() int

	// Features returns the number of columns of the network's input
	Features() int

	// SetInput sets the value of the input node before a machine run
	SetInput([]float64) error

	// CloneWithInputTo clones the network, with its current weights,
	// onto g with the given node as its input. The input must be a
	// matrix node on g.
	CloneWithInputTo(input *G.Node, g *G.ExprGraph) (NeuralNet, error)

	// Learnables returns the weight nodes of the network
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients
	Model() []G.ValueGrad

	// Output returns the value of the prediction node after a
	// machine run
	Output() G.Value

	// Prediction returns the node holding the network's prediction
	Prediction() *G.Node

	gob.GobEncoder
	gob.GobDecoder
}
