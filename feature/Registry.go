package feature

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"gonum.org/v1/gonum/mat"

	"github.com/armlearn/armfeat/kinematics"
	"github.com/armlearn/armfeat/robot"
)

// Registry holds the ordered list of active features for one task
// configuration: their kinds, normalization ranges, and weight
// vector. Insertion order is evaluation order and is stable for the
// life of the registry; appending a learned feature is the only
// supported mutation.
//
// A Registry owns one PoseQuery and is therefore single-goroutine,
// like the PoseQuery itself. Featurize a batch of trajectories
// concurrently by giving each worker its own Registry.
type Registry struct {
	arm     robot.PoseQuery
	centers ObjectCenters

	kinds   []Kind
	ranges  []float64
	weights []float64
	learned map[int]*LearnedFeature
}

// NewRegistry returns a Registry evaluating the given feature kinds
// in order. A feature's value is divided by its entry in ranges when
// that entry is non-zero; a nil ranges disables normalization
// entirely. Learned features cannot appear in the initial list; append
// them with NewLearnedFeature.
func NewRegistry(arm robot.PoseQuery, centers ObjectCenters, kinds []Kind,
	ranges, weights []float64) (*Registry, error) {
	if arm == nil {
		return nil, fmt.Errorf("newregistry: nil pose query")
	}
	if ranges == nil {
		ranges = make([]float64, len(kinds))
	}
	if len(ranges) != len(kinds) {
		return nil, fmt.Errorf("newregistry: have %v kinds but %v "+
			"normalization ranges", len(kinds), len(ranges))
	}
	if len(weights) != len(kinds) {
		return nil, fmt.Errorf("newregistry: have %v kinds but %v weights",
			len(kinds), len(weights))
	}
	for _, k := range kinds {
		if k == Learned {
			return nil, fmt.Errorf("newregistry: learned features must be " +
				"appended with NewLearnedFeature")
		}
	}

	return &Registry{
		arm:     arm,
		centers: centers,
		kinds:   append([]Kind{}, kinds...),
		ranges:  append([]float64{}, ranges...),
		weights: append([]float64{}, weights...),
		learned: make(map[int]*LearnedFeature),
	}, nil
}

// NumFeatures returns the number of registered features.
func (r *Registry) NumFeatures() int {
	return len(r.kinds)
}

// Kinds returns the registered feature kinds in evaluation order.
func (r *Registry) Kinds() []Kind {
	return append([]Kind{}, r.kinds...)
}

// Weights returns a copy of the feature weight vector.
func (r *Registry) Weights() []float64 {
	return append([]float64{}, r.weights...)
}

// SetWeights replaces the feature weight vector, e.g. after an
// optimizer update.
func (r *Registry) SetWeights(weights []float64) error {
	if len(weights) != len(r.weights) {
		return fmt.Errorf("setweights: invalid weight vector length"+
			"\n\twant(%v)\n\thave(%v)", len(r.weights), len(weights))
	}
	copy(r.weights, weights)
	return nil
}

// LearnedFeatureAt returns the learned feature registered at index i,
// if any.
func (r *Registry) LearnedFeatureAt(i int) (*LearnedFeature, bool) {
	lf, ok := r.learned[i]
	return lf, ok
}

// evalAnalytic dispatches an analytic feature kind on a waypoint.
func (r *Registry) evalAnalytic(kind Kind, waypt mat.Vector) float64 {
	switch kind {
	case Efficiency:
		return EfficiencyFeature(waypt)
	case Origin:
		return OriginFeature(r.arm, waypt)
	case Table:
		return TableFeature(r.arm, waypt)
	case Coffee:
		return CoffeeFeature(r.arm, waypt)
	case Laptop:
		return LaptopFeature(r.arm, r.centers, waypt)
	case Human:
		return HumanFeature(r.arm, r.centers, waypt)
	case Proxemics:
		return ProxemicsFeature(r.arm, r.centers, waypt)
	case BetweenObjects:
		return BetweenObjectsFeature(r.arm, r.centers, waypt)
	}
	panic(fmt.Sprintf("evalanalytic: no analytic feature of kind %v", kind))
}

// FeaturizeSingle computes the value of the feature at index i for a
// single waypoint. The efficiency feature expects the 14-element
// [current, previous] pair. Analytic values are divided by the
// feature's normalization range when one is configured; learned
// feature outputs are pre-scaled and pass through unnormalized.
func (r *Registry) FeaturizeSingle(waypt mat.Vector, i int) (float64, error) {
	if i < 0 || i >= len(r.kinds) {
		return 0, fmt.Errorf("featurizesingle: no feature at index %v", i)
	}

	if r.kinds[i] == Learned {
		raw := r.RawFeatures(waypt)
		return r.learned[i].EvalRaw(raw.RawVector().Data)
	}

	val := r.evalAnalytic(r.kinds[i], waypt)
	if r.ranges[i] != 0 {
		val /= r.ranges[i]
	}
	return val, nil
}

// Featurize computes features for a trajectory. Row j of the result
// holds the feature at index idx[j] (all features when no indices are
// given) and column t holds its value at waypoint t+1, so a
// trajectory of T waypoints produces T-1 columns. The efficiency
// feature receives the [current, previous] waypoint pair.
func (r *Registry) Featurize(waypts []mat.Vector, idx ...int) (*mat.Dense,
	error) {
	if len(waypts) < 2 {
		return nil, fmt.Errorf("featurize: need at least 2 waypoints, "+
			"got %v", len(waypts))
	}
	if len(idx) == 0 {
		idx = make([]int, len(r.kinds))
		for i := range idx {
			idx[i] = i
		}
	}

	features := mat.NewDense(len(idx), len(waypts)-1, nil)
	for t := 0; t < len(waypts)-1; t++ {
		for j, k := range idx {
			if k < 0 || k >= len(r.kinds) {
				return nil, fmt.Errorf("featurize: no feature at index %v", k)
			}

			waypt := waypts[t+1]
			if r.kinds[k] == Efficiency {
				waypt = concatPair(waypts[t+1], waypts[t])
			}

			val, err := r.FeaturizeSingle(waypt, k)
			if err != nil {
				return nil, fmt.Errorf("featurize: could not evaluate "+
					"feature %v at waypoint %v: %v", k, t+1, err)
			}
			features.Set(j, t, val)
		}
	}
	return features, nil
}

// concatPair concatenates the current and previous waypoints into the
// 14-element vector the efficiency feature consumes.
func concatPair(curr, prev mat.Vector) *mat.VecDense {
	pair := mat.NewVecDense(14, nil)
	for i := 0; i < 7; i++ {
		pair.SetVec(i, curr.AtVec(i))
		pair.SetVec(i+7, prev.AtVec(i))
	}
	return pair
}

// RawFeatureDim returns the length of the raw state vector for this
// registry's scene: 7 joint angles, 9 orientation entries and 3
// position entries per link, and 3 coordinates per object center.
func (r *Registry) RawFeatureDim() int {
	return kinematics.NumJoints + 12*kinematics.NumLinks + 3*len(r.centers)
}

// RawFeatures builds the raw state vector for a waypoint along the
// numeric path: [joint angles | flattened link orientations |
// flattened link positions | flattened object centers], with object
// centers in sorted name order. The waypoint is converted to the
// simulator's DOF convention before poses are read, but the vector's
// leading block keeps the raw angles. The input is never mutated.
func (r *Registry) RawFeatures(waypt mat.Vector) *mat.VecDense {
	r.arm.Apply(robot.ToSimulatorConfiguration(waypt))

	data := make([]float64, 0, r.RawFeatureDim())
	for i := 0; i < kinematics.NumJoints; i++ {
		data = append(data, waypt.AtVec(i))
	}
	for link := 0; link < kinematics.NumLinks; link++ {
		rot := r.arm.LinkWorldRotation(link)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				data = append(data, rot.At(i, j))
			}
		}
	}
	for link := 0; link < kinematics.NumLinks; link++ {
		pos := r.arm.LinkWorldPosition(link)
		data = append(data, pos.AtVec(0), pos.AtVec(1), pos.AtVec(2))
	}
	for _, name := range r.centers.SortedNames() {
		center := r.centers[name]
		data = append(data, center.AtVec(0), center.AtVec(1),
			center.AtVec(2))
	}

	return mat.NewVecDense(len(data), data)
}

// RawFeatureNode builds the raw state vector as a 1 x RawFeatureDim
// matrix node on the chain's graph, using the differentiable
// kinematics path: the joint angle and pose entries carry gradient,
// object centers enter as constants. Feed the result to
// LearnedFeature.Fwd to differentiate a learned feature with respect
// to the joint angles.
func (r *Registry) RawFeatureNode(dt *kinematics.DiffTransforms) (*G.Node,
	error) {
	entries := make([]*G.Node, 0, r.RawFeatureDim())
	for _, joint := range dt.Joints() {
		entries = append(entries, joint)
	}
	for link := 0; link < kinematics.NumLinks; link++ {
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				entries = append(entries, dt.PoseAt(link, i, j))
			}
		}
	}
	for link := 0; link < kinematics.NumLinks; link++ {
		pos := dt.PositionNodes(link)
		entries = append(entries, pos[0], pos[1], pos[2])
	}
	for _, name := range r.centers.SortedNames() {
		center := r.centers[name]
		for i := 0; i < 3; i++ {
			entries = append(entries,
				kinematics.Scalar(dt.Graph(), center.AtVec(i)))
		}
	}

	raw, err := G.Concat(1, entries...)
	if err != nil {
		return nil, fmt.Errorf("rawfeaturenode: could not concat entries: %v",
			err)
	}
	return raw, nil
}

// NewLearnedFeature appends a learned feature to the registry,
// extending the kind list, dispatch, and weight vector together. The
// new weight starts at zero. When checkpoint names a trained model
// file, the blank approximator is replaced by the stored one; the
// feature's position is fixed either way. A nil init falls back to
// Glorot uniform initialization.
func (r *Registry) NewLearnedFeature(layers, units int, init G.InitWFn,
	checkpoint string) (*LearnedFeature, error) {
	lf, err := newLearnedFeature(r.RawFeatureDim(), layers, units, init)
	if err != nil {
		return nil, fmt.Errorf("newlearnedfeature: %v", err)
	}
	if checkpoint != "" {
		if err := lf.LoadCheckpoint(checkpoint); err != nil {
			return nil, fmt.Errorf("newlearnedfeature: %v", err)
		}
	}

	r.kinds = append(r.kinds, Learned)
	r.ranges = append(r.ranges, 0)
	r.weights = append(r.weights, 0)
	r.learned[len(r.kinds)-1] = lf
	return lf, nil
}
