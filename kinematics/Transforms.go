// Package kinematics implements analytic forward kinematics for a
// 7 degree-of-freedom serial manipulator. Link poses are derived by
// hand from the arm's Denavit-Hartenberg constants rather than queried
// from a simulator, so the same chain can be evaluated either on plain
// float64 values or on a Gorgonia graph when gradients with respect to
// the joint angles are needed.
package kinematics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// NumJoints is the number of actuated joints in the arm
	NumJoints int = 7

	// NumLinks is the number of link poses produced by the chain
	NumLinks int = 7

	// EndEffectorLink is the index of the tool-holding link
	EndEffectorLink int = 6
)

// DH offset table for the arm. The D entries are link offset
// distances, alpha entries are link twists, and the e entries are
// small displacement corrections for two of the joints. Several local
// transforms are built from a sum of adjacent D entries (or a D and an
// e) because the physical joint carries a static sub-offset between
// its own frame and the next anchor; the combinations below come from
// the manufacturer's joint geometry and are not derivable from the DH
// constants alone.
var (
	linkD = [NumJoints]float64{
		0.15675, 0.11875, 0.205, 0.205, 0.2073, 0.10375, 0.10375,
	}
	linkAlpha = [NumJoints]float64{
		math.Pi / 2, math.Pi / 2, math.Pi / 2, math.Pi / 2,
		math.Pi / 2, math.Pi / 2, math.Pi,
	}
	jointE = [2]float64{0.0016, 0.0098}
)

// Sign masks applied element-wise to each world-frame transform after
// the column swap. Which mask a link uses encodes the arm's axis
// conventions and is treated as an opaque calibration constant.
var (
	signMaskA = [4][4]float64{
		{-1, 1, -1, -1},
		{1, -1, 1, 1},
		{-1, 1, -1, -1},
		{1, 1, 1, 1},
	}
	signMaskB = [4][4]float64{
		{1, -1, -1, -1},
		{-1, 1, 1, 1},
		{1, -1, -1, -1},
		{1, 1, 1, 1},
	}
	signMaskC = [4][4]float64{
		{1, -1, 1, -1},
		{-1, 1, -1, 1},
		{1, -1, 1, -1},
		{1, 1, 1, 1},
	}
)

// linkMask maps each link index to the sign mask its world-frame
// transform is corrected with. The final link uses signMaskC and skips
// the column swap.
var linkMask = [NumLinks]*[4][4]float64{
	&signMaskA, &signMaskB, &signMaskB, &signMaskA,
	&signMaskB, &signMaskA, &signMaskC,
}

// localTransform builds the raw 4x4 transform for a single joint from
// its angle theta, twist alpha, and offset distance d. The a DH
// parameter is zero for every joint of this arm.
func localTransform(theta, alpha, d float64) *mat.Dense {
	sinT, cosT := math.Sin(theta), math.Cos(theta)
	sinA, cosA := math.Sin(alpha), math.Cos(alpha)

	return mat.NewDense(4, 4, []float64{
		cosT, -sinT * cosA, sinT * sinA, 0,
		sinT, cosT * cosA, -cosT * sinA, 0,
		0, sinA, cosA, d,
		0, 0, 0, 1,
	})
}

// worldPose corrects a raw chain transform into the published
// world-frame pose for link i: swap columns 1 and 2 (skipped for the
// final link), then apply the link's sign mask element-wise.
func worldPose(link int, t *mat.Dense) *mat.Dense {
	pose := mat.DenseCopyOf(t)
	if link != NumLinks-1 {
		for row := 0; row < 4; row++ {
			a, b := pose.At(row, 1), pose.At(row, 2)
			pose.Set(row, 1, b)
			pose.Set(row, 2, a)
		}
	}

	mask := linkMask[link]
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			pose.Set(row, col, pose.At(row, col)*mask[row][col])
		}
	}
	return pose
}

// LinkTransforms computes the world-frame pose of every link of the
// arm for the given joint angles. Only the first NumJoints components
// of joints are read, so a padded simulator configuration may be
// passed directly. NaN and Inf inputs propagate; a short input vector
// panics.
//
// Each pose is composed from the previous raw chain transform, but
// some links rebuild the preceding local transform with a combined
// offset before composing, so the raw chain is recomputed where
// needed instead of reused verbatim.
func LinkTransforms(joints mat.Vector) []*mat.Dense {
	if joints.Len() < NumJoints {
		panic(fmt.Sprintf("linktransforms: need %v joint angles, got %v",
			NumJoints, joints.Len()))
	}

	var th [NumJoints]float64
	for i := range th {
		th[i] = joints.AtVec(i)
	}

	poses := make([]*mat.Dense, NumLinks)
	mul := func(a, b *mat.Dense) *mat.Dense {
		var c mat.Dense
		c.Mul(a, b)
		return &c
	}

	// Base to link 1
	t01 := localTransform(th[0], linkAlpha[0], -linkD[0])
	poses[0] = worldPose(0, t01)

	// Base to link 2: the first local transform is rebuilt with the
	// combined offset D0+D1
	t01 = localTransform(th[0], linkAlpha[0], -(linkD[0] + linkD[1]))
	t12 := localTransform(th[1], linkAlpha[1], -jointE[0])
	t02 := mul(t01, t12)
	poses[1] = worldPose(1, t02)

	// Base to link 3
	t23 := localTransform(th[2], linkAlpha[2], -linkD[2])
	t03 := mul(t02, t23)
	poses[2] = worldPose(2, t03)

	// Base to link 4: rebuild link 3's local transform with D2+D3
	t23 = localTransform(th[2], linkAlpha[2], -(linkD[2] + linkD[3]))
	t34 := localTransform(th[3], linkAlpha[3], 0.0)
	t03 = mul(t02, t23)
	t04 := mul(t03, t34)
	poses[3] = worldPose(3, t04)

	// Base to link 5: rebuild link 4's local transform with e0+e1
	t34 = localTransform(th[3], linkAlpha[3], -(jointE[0] + jointE[1]))
	t45 := localTransform(th[4], linkAlpha[4], -linkD[4])
	t04 = mul(t03, t34)
	t05 := mul(t04, t45)
	poses[4] = worldPose(4, t05)

	// Base to link 6: rebuild link 5's local transform with D4+D5
	t45 = localTransform(th[4], linkAlpha[4], -(linkD[4] + linkD[5]))
	t56 := localTransform(th[5], linkAlpha[5], 0.0)
	t05 = mul(t04, t45)
	t06 := mul(t05, t56)
	poses[5] = worldPose(5, t06)

	// Base to link 7 (end-effector): no column swap on this one
	t67 := localTransform(th[6], linkAlpha[6], -linkD[6])
	t07 := mul(t06, t67)
	poses[6] = worldPose(6, t07)

	return poses
}

// EndEffector returns the world-frame pose of the final link only.
func EndEffector(joints mat.Vector) *mat.Dense {
	return LinkTransforms(joints)[EndEffectorLink]
}

// Position extracts the world-frame translation of a link pose.
func Position(pose *mat.Dense) *mat.VecDense {
	return mat.NewVecDense(3, []float64{
		pose.At(0, 3), pose.At(1, 3), pose.At(2, 3),
	})
}

// Rotation extracts the 3x3 rotation of a link pose.
func Rotation(pose *mat.Dense) *mat.Dense {
	var r mat.Dense
	r.CloneFrom(pose.Slice(0, 3, 0, 3))
	return &r
}
