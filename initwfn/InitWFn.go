// Package initwfn wraps Gorgonia weight initialization functions so
// that they can be selected by name from task configuration files.
package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Type describes the different types of InitWFn that are available.
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Ones     Type = "Ones"
	Gaussian Type = "Gaussian"
)

// InitWFn pairs an initialization scheme name with its parameters.
// The Gain field is the gain for the Glorot and He schemes and is
// ignored by Zeroes and Ones; Gaussian reads Gain as its standard
// deviation around a zero mean.
type InitWFn struct {
	Type Type    `yaml:"type"`
	Gain float64 `yaml:"gain"`
}

// New returns a named InitWFn configuration.
func New(t Type, gain float64) (*InitWFn, error) {
	w := &InitWFn{Type: t, Gain: gain}
	if _, err := w.Create(); err != nil {
		return nil, err
	}
	return w, nil
}

// Create returns the wrapped Gorgonia InitWFn.
func (w *InitWFn) Create() (G.InitWFn, error) {
	switch w.Type {
	case GlorotU:
		return G.GlorotU(w.Gain), nil
	case GlorotN:
		return G.GlorotN(w.Gain), nil
	case HeU:
		return G.HeU(w.Gain), nil
	case HeN:
		return G.HeN(w.Gain), nil
	case Zeroes:
		return G.Zeroes(), nil
	case Ones:
		return G.Ones(), nil
	case Gaussian:
		return G.Gaussian(0, w.Gain), nil
	}
	return nil, fmt.Errorf("create: no weight initializer named %q", w.Type)
}

// String implements the fmt.Stringer interface
func (w *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: gain %v}", w.Type, w.Gain)
}
