// Package feature implements the scalar feature and constraint
// functions that characterize an arm pose or trajectory, together with
// the registry that applies a weighted, normalized set of them to
// trajectory waypoints. Analytic features are a closed catalog
// dispatched on Kind; learned features wrap a neural function
// approximator and are appended to a registry after construction.
package feature

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Kind enumerates the feature catalog. The set of analytic kinds is
// closed; Learned is the one open variant and carries a
// LearnedFeature in the registry it was appended to.
type Kind int

const (
	Efficiency Kind = iota
	Origin
	Table
	Coffee
	Laptop
	Human
	Proxemics
	BetweenObjects
	Learned
)

// Feature names as they appear in task configurations.
const (
	efficiencyName     string = "efficiency"
	originName         string = "origin"
	tableName          string = "table"
	coffeeName         string = "coffee"
	laptopName         string = "laptop"
	humanName          string = "human"
	proxemicsName      string = "proxemics"
	betweenObjectsName string = "betweenobjects"
	learnedName        string = "learned_feature"
)

// String implements the fmt.Stringer interface
func (k Kind) String() string {
	switch k {
	case Efficiency:
		return efficiencyName
	case Origin:
		return originName
	case Table:
		return tableName
	case Coffee:
		return coffeeName
	case Laptop:
		return laptopName
	case Human:
		return humanName
	case Proxemics:
		return proxemicsName
	case BetweenObjects:
		return betweenObjectsName
	case Learned:
		return learnedName
	}
	return fmt.Sprintf("unknown(%v)", int(k))
}

// KindOf parses a configured feature name into its Kind.
func KindOf(name string) (Kind, error) {
	switch name {
	case efficiencyName:
		return Efficiency, nil
	case originName:
		return Origin, nil
	case tableName:
		return Table, nil
	case coffeeName:
		return Coffee, nil
	case laptopName:
		return Laptop, nil
	case humanName:
		return Human, nil
	case proxemicsName:
		return Proxemics, nil
	case betweenObjectsName:
		return BetweenObjects, nil
	case learnedName:
		return Learned, nil
	}
	return 0, fmt.Errorf("kindof: no feature named %q", name)
}

// Well-known object center keys.
const (
	HumanCenterKey  string = "HUMAN_CENTER"
	LaptopCenterKey string = "LAPTOP_CENTER"
	Object1Key      string = "OBJECT1"
	Object2Key      string = "OBJECT2"
)

// ObjectCenters maps scene object names to world-frame coordinates.
// The map is owned by the environment and read-only here.
type ObjectCenters map[string]mat.Vector

// CenterOf returns the world-frame coordinate of a named object. A
// missing key panics: features are evaluated inside a tight
// optimization loop and a misconfigured scene must abort the iteration
// immediately.
func (o ObjectCenters) CenterOf(name string) mat.Vector {
	center, ok := o[name]
	if !ok {
		panic(fmt.Sprintf("centerof: no object center named %q", name))
	}
	return center
}

// SortedNames returns the object names in lexicographic order, the
// order raw feature vectors flatten object coordinates in.
func (o ObjectCenters) SortedNames() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
