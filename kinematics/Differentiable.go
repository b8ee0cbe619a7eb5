package kinematics

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// diffPose is a 4x4 transform whose entries are 1x1 matrix nodes in a
// Gorgonia graph. Entries are kept as 1x1 matrices rather than
// scalars so they can be concatenated into network inputs and output
// vectors without reshaping.
type diffPose [4][4]*G.Node

// DiffTransforms holds the differentiable form of the forward
// kinematic chain. The chain is built once per graph; joint angle
// values are bound with Let before each machine run, and gradients
// with respect to the joint nodes can be requested by the caller
// through G.Grad on any scalarized node derived from the poses.
type DiffTransforms struct {
	g      *G.ExprGraph
	joints []*G.Node
	poses  [NumLinks]diffPose

	flat    *G.Node
	flatVal G.Value
}

// NewJointNodes returns one 1x1 input node per joint angle,
// registered on g. Bind values to them with DiffTransforms.Let or
// with G.Let and a 1x1 tensor.
func NewJointNodes(g *G.ExprGraph) []*G.Node {
	joints := make([]*G.Node, NumJoints)
	for i := range joints {
		joints[i] = G.NewMatrix(g, tensor.Float64, G.WithShape(1, 1),
			G.WithName(fmt.Sprintf("theta%v", i)), G.WithInit(G.Zeroes()))
	}
	return joints
}

// Scalar returns a 1x1 constant node holding v, registered on g, for
// mixing fixed values into the differentiable chain. Equal constants
// share one node.
func Scalar(g *G.ExprGraph, v float64) *G.Node {
	t := tensor.New(tensor.WithShape(1, 1), tensor.WithBacking([]float64{v}))
	return g.Constant(t)
}

// diffLocalTransform mirrors localTransform on graph nodes. The twist
// and offset are fixed constants, so only the four theta-dependent
// entries carry gradient.
func diffLocalTransform(theta *G.Node, alpha, d float64) diffPose {
	g := theta.Graph()
	sinT := G.Must(G.Sin(theta))
	cosT := G.Must(G.Cos(theta))
	sinA, cosA := math.Sin(alpha), math.Cos(alpha)

	zero := Scalar(g, 0.0)
	var t diffPose
	for i := range t {
		for j := range t[i] {
			t[i][j] = zero
		}
	}

	t[0][0] = cosT
	t[0][1] = G.Must(G.Mul(sinT, Scalar(g, -cosA)))
	t[0][2] = G.Must(G.Mul(sinT, Scalar(g, sinA)))
	t[1][0] = sinT
	t[1][1] = G.Must(G.Mul(cosT, Scalar(g, cosA)))
	t[1][2] = G.Must(G.Mul(cosT, Scalar(g, -sinA)))
	t[2][1] = Scalar(g, sinA)
	t[2][2] = Scalar(g, cosA)
	t[2][3] = Scalar(g, d)
	t[3][3] = Scalar(g, 1.0)

	return t
}

// diffMul composes two transforms entry-by-entry with graph ops.
func diffMul(a, b diffPose) diffPose {
	var c diffPose
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			sum := G.Must(G.Mul(a[i][0], b[0][j]))
			for k := 1; k < 4; k++ {
				prod := G.Must(G.Mul(a[i][k], b[k][j]))
				sum = G.Must(G.Add(sum, prod))
			}
			c[i][j] = sum
		}
	}
	return c
}

// diffWorldPose applies the column swap and sign mask for link i, the
// same correction worldPose applies numerically.
func diffWorldPose(link int, t diffPose) diffPose {
	p := t
	if link != NumLinks-1 {
		for row := 0; row < 4; row++ {
			p[row][1], p[row][2] = t[row][2], t[row][1]
		}
	}

	mask := linkMask[link]
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if mask[i][j] < 0 {
				p[i][j] = G.Must(G.Neg(p[i][j]))
			}
		}
	}
	return p
}

// NewDiffTransforms builds the full differentiable kinematic chain on
// g, rooted at the given joint angle nodes. The chain composition,
// offset combinations, column swaps, and sign masks follow
// LinkTransforms exactly; the two must agree within floating point
// tolerance for any finite input.
func NewDiffTransforms(g *G.ExprGraph, joints []*G.Node) (*DiffTransforms, error) {
	if len(joints) != NumJoints {
		return nil, fmt.Errorf("newdifftransforms: need %v joint nodes, "+
			"got %v", NumJoints, len(joints))
	}

	d := &DiffTransforms{g: g, joints: joints}

	t01 := diffLocalTransform(joints[0], linkAlpha[0], -linkD[0])
	d.poses[0] = diffWorldPose(0, t01)

	t01 = diffLocalTransform(joints[0], linkAlpha[0], -(linkD[0] + linkD[1]))
	t12 := diffLocalTransform(joints[1], linkAlpha[1], -jointE[0])
	t02 := diffMul(t01, t12)
	d.poses[1] = diffWorldPose(1, t02)

	t23 := diffLocalTransform(joints[2], linkAlpha[2], -linkD[2])
	t03 := diffMul(t02, t23)
	d.poses[2] = diffWorldPose(2, t03)

	t23 = diffLocalTransform(joints[2], linkAlpha[2], -(linkD[2] + linkD[3]))
	t34 := diffLocalTransform(joints[3], linkAlpha[3], 0.0)
	t03 = diffMul(t02, t23)
	t04 := diffMul(t03, t34)
	d.poses[3] = diffWorldPose(3, t04)

	t34 = diffLocalTransform(joints[3], linkAlpha[3], -(jointE[0]+jointE[1]))
	t45 := diffLocalTransform(joints[4], linkAlpha[4], -linkD[4])
	t04 = diffMul(t03, t34)
	t05 := diffMul(t04, t45)
	d.poses[4] = diffWorldPose(4, t05)

	t45 = diffLocalTransform(joints[4], linkAlpha[4], -(linkD[4]+linkD[5]))
	t56 := diffLocalTransform(joints[5], linkAlpha[5], 0.0)
	t05 = diffMul(t04, t45)
	t06 := diffMul(t05, t56)
	d.poses[5] = diffWorldPose(5, t06)

	t67 := diffLocalTransform(joints[6], linkAlpha[6], -linkD[6])
	t07 := diffMul(t06, t67)
	d.poses[6] = diffWorldPose(6, t07)

	if err := d.buildFlat(); err != nil {
		return nil, err
	}
	return d, nil
}

// buildFlat concatenates every pose entry, link-major and row-major,
// into a single 1 x (16 * NumLinks) output node so one machine run
// surfaces all pose values.
func (d *DiffTransforms) buildFlat() error {
	entries := make([]*G.Node, 0, NumLinks*16)
	for link := 0; link < NumLinks; link++ {
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				entries = append(entries, d.poses[link][i][j])
			}
		}
	}

	flat, err := G.Concat(1, entries...)
	if err != nil {
		return fmt.Errorf("buildflat: could not concat pose entries: %v", err)
	}
	d.flat = flat
	G.Read(d.flat, &d.flatVal)
	return nil
}

// Let binds concrete joint angle values to the chain's input nodes.
func (d *DiffTransforms) Let(joints []float64) error {
	if len(joints) < NumJoints {
		return fmt.Errorf("let: need %v joint angles, got %v", NumJoints,
			len(joints))
	}
	for i := 0; i < NumJoints; i++ {
		t := tensor.New(tensor.WithShape(1, 1),
			tensor.WithBacking([]float64{joints[i]}))
		if err := G.Let(d.joints[i], t); err != nil {
			return err
		}
	}
	return nil
}

// Graph returns the graph the chain is built on.
func (d *DiffTransforms) Graph() *G.ExprGraph {
	return d.g
}

// Joints returns the input nodes of the chain.
func (d *DiffTransforms) Joints() []*G.Node {
	return d.joints
}

// Flat returns the node holding every pose entry, link-major and
// row-major, as one row.
func (d *DiffTransforms) Flat() *G.Node {
	return d.flat
}

// FlatValue returns the values read from the flat node after a
// machine run.
func (d *DiffTransforms) FlatValue() []float64 {
	return d.flatVal.Data().([]float64)
}

// PoseAt returns the node for entry (i, j) of the given link's
// world-frame pose.
func (d *DiffTransforms) PoseAt(link, i, j int) *G.Node {
	return d.poses[link][i][j]
}

// PositionNodes returns the three translation entry nodes of a link's
// pose.
func (d *DiffTransforms) PositionNodes(link int) [3]*G.Node {
	return [3]*G.Node{
		d.poses[link][0][3], d.poses[link][1][3], d.poses[link][2][3],
	}
}
