// Package robot exposes the arm's pose-query capability as an
// explicit resource. Every feature that reads link poses first applies
// a joint configuration to a PoseQuery and then reads positions,
// rotations, or joint axes back from it.
//
// A PoseQuery holds the one piece of mutable state in this module, the
// currently applied configuration, so a single instance must never be
// shared between goroutines. To featurize trajectories in parallel,
// give each worker its own PoseQuery.
package robot

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/armlearn/armfeat/kinematics"
)

const (
	// SimulatorDOF is the number of degrees of freedom the simulated
	// arm exposes: seven actuated joints plus three passive finger
	// joints.
	SimulatorDOF int = 10

	// EndEffectorLink is the index of the tool-holding link.
	EndEffectorLink int = kinematics.EndEffectorLink
)

// PoseQuery applies joint configurations and reports world-frame link
// poses for the resulting arm state.
type PoseQuery interface {
	// Apply sets the arm's current joint configuration. The vector
	// may be a raw 7-angle waypoint or a full simulator
	// configuration; only the actuated joints affect link poses.
	Apply(config mat.Vector)

	// LinkWorldPosition returns the world-frame position of a link
	// under the currently applied configuration.
	LinkWorldPosition(link int) mat.Vector

	// LinkWorldRotation returns the world-frame 3x3 rotation of a
	// link under the currently applied configuration.
	LinkWorldRotation(link int) mat.Matrix

	// JointWorldAxis returns the world-frame rotation axis of a
	// joint under the currently applied configuration.
	JointWorldAxis(joint int) mat.Vector

	// NumLinks returns how many links the arm reports poses for.
	NumLinks() int
}

// Arm is a PoseQuery backed by the analytic kinematic chain instead of
// an external simulator. Poses are computed once per Apply and cached
// until the next Apply.
type Arm struct {
	poses []*mat.Dense
}

// NewArm returns an Arm with the zero configuration applied.
func NewArm() *Arm {
	a := &Arm{}
	a.Apply(mat.NewVecDense(kinematics.NumJoints, nil))
	return a
}

// Apply implements PoseQuery.
func (a *Arm) Apply(config mat.Vector) {
	a.poses = kinematics.LinkTransforms(config)
}

// LinkWorldPosition implements PoseQuery.
func (a *Arm) LinkWorldPosition(link int) mat.Vector {
	return kinematics.Position(a.poses[link])
}

// LinkWorldRotation implements PoseQuery.
func (a *Arm) LinkWorldRotation(link int) mat.Matrix {
	return kinematics.Rotation(a.poses[link])
}

// JointWorldAxis implements PoseQuery. Joint 0 rotates about the world
// z axis; every later joint rotates about the z axis of the previous
// link's frame.
func (a *Arm) JointWorldAxis(joint int) mat.Vector {
	if joint == 0 {
		return mat.NewVecDense(3, []float64{0, 0, 1})
	}

	r := kinematics.Rotation(a.poses[joint-1])
	return mat.NewVecDense(3, []float64{
		r.At(0, 2), r.At(1, 2), r.At(2, 2),
	})
}

// NumLinks implements PoseQuery.
func (a *Arm) NumLinks() int {
	return kinematics.NumLinks
}

// ToSimulatorConfiguration converts a 7-angle waypoint into the
// 10-DOF configuration the simulated arm expects: three zero-valued
// finger DOFs are appended and pi is added to the third angle, an
// artifact of the simulator's DOF convention rather than a property of
// the arm. The input is never mutated. Vectors that already carry at
// least SimulatorDOF components pass through as a copy. Anything
// shorter than 7 angles panics.
func ToSimulatorConfiguration(waypt mat.Vector) *mat.VecDense {
	if waypt.Len() >= SimulatorDOF {
		out := mat.NewVecDense(waypt.Len(), nil)
		for i := 0; i < waypt.Len(); i++ {
			out.SetVec(i, waypt.AtVec(i))
		}
		return out
	}

	if waypt.Len() < kinematics.NumJoints {
		panic(fmt.Sprintf("tosimulatorconfiguration: need %v joint angles, "+
			"got %v", kinematics.NumJoints, waypt.Len()))
	}

	out := mat.NewVecDense(SimulatorDOF, nil)
	for i := 0; i < kinematics.NumJoints; i++ {
		out.SetVec(i, waypt.AtVec(i))
	}
	out.SetVec(2, out.AtVec(2)+math.Pi)
	return out
}
