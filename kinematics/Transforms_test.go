package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

func TestLinkTransformsZeroConfiguration(t *testing.T) {
	poses := LinkTransforms(mat.NewVecDense(NumJoints, nil))
	require.Len(t, poses, NumLinks)

	// The first link sits directly above the base at the first link
	// offset
	assert.InDelta(t, 0, poses[0].At(0, 3), 1e-12)
	assert.InDelta(t, 0, poses[0].At(1, 3), 1e-12)
	assert.InDelta(t, linkD[0], poses[0].At(2, 3), 1e-12)

	// Every pose stays a homogeneous transform
	for link, pose := range poses {
		for col := 0; col < 3; col++ {
			assert.InDelta(t, 0, pose.At(3, col), 1e-12,
				"link %v col %v", link, col)
		}
		assert.InDelta(t, 1, pose.At(3, 3), 1e-12, "link %v", link)
	}
}

func TestLinkTransformsRotationsOrthonormal(t *testing.T) {
	rng := rand.New(rand.NewSource(13))

	for trial := 0; trial < 25; trial++ {
		joints := mat.NewVecDense(NumJoints, nil)
		for i := 0; i < NumJoints; i++ {
			joints.SetVec(i, rng.Float64()*2*math.Pi-math.Pi)
		}

		for link, pose := range LinkTransforms(joints) {
			rot := Rotation(pose)
			var product mat.Dense
			product.Mul(rot.T(), rot)
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					want := 0.0
					if i == j {
						want = 1.0
					}
					assert.InDelta(t, want, product.At(i, j), 1e-9,
						"trial %v link %v entry (%v, %v)", trial, link, i, j)
				}
			}
		}
	}
}

func TestLinkTransformsIgnoresPaddingDOFs(t *testing.T) {
	joints := []float64{0.3, -1.2, 2.7, 0.05, -0.9, 1.6, -2.2}
	padded := append(append([]float64{}, joints...), 0, 0, 0)

	short := LinkTransforms(mat.NewVecDense(len(joints), joints))
	long := LinkTransforms(mat.NewVecDense(len(padded), padded))
	for link := range short {
		assert.True(t, mat.EqualApprox(short[link], long[link], 1e-15),
			"link %v", link)
	}
}

func TestLinkTransformsShortInputPanics(t *testing.T) {
	assert.Panics(t, func() {
		LinkTransforms(mat.NewVecDense(3, nil))
	})
}

func TestEndEffector(t *testing.T) {
	joints := mat.NewVecDense(NumJoints, []float64{
		math.Pi, math.Pi / 3, -math.Pi / 4, 1.1, 0.2, -2.5, 0.7,
	})

	poses := LinkTransforms(joints)
	assert.True(t, mat.EqualApprox(poses[EndEffectorLink],
		EndEffector(joints), 1e-15))
}

// TestDiffTransformsMatchNumeric checks the required equivalence of
// the two execution modes: for the same joint angles, the
// differentiable chain must reproduce every numeric pose entry.
func TestDiffTransformsMatchNumeric(t *testing.T) {
	cases := [][]float64{
		{0, 0, 0, 0, 0, 0, 0},
		{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7},
		{math.Pi, -math.Pi / 2, 2.1, -0.8, 1.9, -2.7, 0.05},
		{-1.1, 3.0, -3.0, 1.5708, 0.33, -0.21, 2.9},
	}

	for _, joints := range cases {
		g := G.NewGraph()
		dt, err := NewDiffTransforms(g, NewJointNodes(g))
		require.NoError(t, err)
		require.NoError(t, dt.Let(joints))

		vm := G.NewTapeMachine(g)
		require.NoError(t, vm.RunAll())

		flat := dt.FlatValue()
		require.Len(t, flat, NumLinks*16)

		poses := LinkTransforms(mat.NewVecDense(len(joints), joints))
		idx := 0
		for link := 0; link < NumLinks; link++ {
			for i := 0; i < 4; i++ {
				for j := 0; j < 4; j++ {
					assert.InDelta(t, poses[link].At(i, j), flat[idx], 1e-6,
						"joints %v link %v entry (%v, %v)", joints, link, i, j)
					idx++
				}
			}
		}
		vm.Close()
	}
}

func TestNewDiffTransformsWrongJointCount(t *testing.T) {
	g := G.NewGraph()
	_, err := NewDiffTransforms(g, NewJointNodes(g)[:4])
	assert.Error(t, err)
}

func BenchmarkLinkTransforms(b *testing.B) {
	joints := mat.NewVecDense(NumJoints, []float64{
		0.3, -1.2, 2.7, 0.05, -0.9, 1.6, -2.2,
	})

	for i := 0; i < b.N; i++ {
		LinkTransforms(joints)
	}
}
