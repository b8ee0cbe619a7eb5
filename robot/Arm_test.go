package robot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/armlearn/armfeat/kinematics"
)

func TestToSimulatorConfiguration(t *testing.T) {
	waypt := mat.NewVecDense(7, []float64{
		0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7,
	})
	before := mat.VecDenseCopyOf(waypt)

	config := ToSimulatorConfiguration(waypt)
	require.Equal(t, SimulatorDOF, config.Len())

	// Padding DOFs are zero and the third angle is offset by pi
	assert.Equal(t, 0.1, config.AtVec(0))
	assert.Equal(t, 0.2, config.AtVec(1))
	assert.InDelta(t, 0.3+math.Pi, config.AtVec(2), 1e-15)
	for i := 3; i < 7; i++ {
		assert.Equal(t, waypt.AtVec(i), config.AtVec(i))
	}
	for i := 7; i < SimulatorDOF; i++ {
		assert.Zero(t, config.AtVec(i))
	}

	// The input is never mutated
	assert.True(t, mat.Equal(before, waypt))
}

func TestToSimulatorConfigurationPassThrough(t *testing.T) {
	full := mat.NewVecDense(SimulatorDOF, []float64{
		1, 2, 3, 4, 5, 6, 7, 8, 9, 10,
	})

	config := ToSimulatorConfiguration(full)
	assert.True(t, mat.Equal(full, config))

	// The pass-through is still a copy
	config.SetVec(0, -1)
	assert.Equal(t, 1.0, full.AtVec(0))
}

func TestToSimulatorConfigurationShortInputPanics(t *testing.T) {
	assert.Panics(t, func() {
		ToSimulatorConfiguration(mat.NewVecDense(5, nil))
	})
}

func TestArmMatchesKinematics(t *testing.T) {
	joints := mat.NewVecDense(7, []float64{
		0.3, -1.2, 2.7, 0.05, -0.9, 1.6, -2.2,
	})

	arm := NewArm()
	arm.Apply(joints)
	poses := kinematics.LinkTransforms(joints)

	require.Equal(t, kinematics.NumLinks, arm.NumLinks())
	for link := 0; link < arm.NumLinks(); link++ {
		assert.True(t, mat.EqualApprox(kinematics.Position(poses[link]),
			arm.LinkWorldPosition(link), 1e-15), "position of link %v", link)
		assert.True(t, mat.EqualApprox(kinematics.Rotation(poses[link]),
			arm.LinkWorldRotation(link), 1e-15), "rotation of link %v", link)
	}
}

func TestJointWorldAxis(t *testing.T) {
	arm := NewArm()
	arm.Apply(mat.NewVecDense(7, []float64{
		0.3, -1.2, 2.7, 0.05, -0.9, 1.6, -2.2,
	}))

	// The base joint rotates about the world z axis
	base := arm.JointWorldAxis(0)
	assert.Equal(t, 0.0, base.AtVec(0))
	assert.Equal(t, 0.0, base.AtVec(1))
	assert.Equal(t, 1.0, base.AtVec(2))

	// Later joint axes are columns of rotation matrices, so they
	// stay unit length
	for joint := 1; joint < 7; joint++ {
		axis := mat.VecDenseCopyOf(arm.JointWorldAxis(joint))
		norm := math.Hypot(math.Hypot(axis.AtVec(0), axis.AtVec(1)),
			axis.AtVec(2))
		assert.InDelta(t, 1.0, norm, 1e-9, "axis of joint %v", joint)
	}
}
