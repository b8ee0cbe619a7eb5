package feature

import (
	"gonum.org/v1/gonum/mat"

	"github.com/armlearn/armfeat/robot"
)

const (
	// tableFloorZ is the z coordinate the end-effector must stay
	// above to clear the table surface.
	tableFloorZ float64 = -0.1016

	// InfeasiblePenalty is the sentinel returned by TableConstraint
	// when the end-effector dips below the table. The consuming
	// optimizer treats it as a continuous penalty, so it must stay a
	// numeric value rather than become an error.
	InfeasiblePenalty float64 = 10000
)

// TableConstraint returns 0 while the end-effector stays above the
// table plane and InfeasiblePenalty once it dips below.
func TableConstraint(q robot.PoseQuery, waypt mat.Vector) float64 {
	applyWaypoint(q, waypt)
	if q.LinkWorldPosition(robot.EndEffectorLink).AtVec(2) > tableFloorZ {
		return 0
	}
	return InfeasiblePenalty
}

// CoffeeConstraint is the equality constraint an external solver
// drives to zero to keep a held mug upright: the projection of the
// end-effector's local x axis onto the world xy plane.
func CoffeeConstraint(q robot.PoseQuery, waypt mat.Vector) *mat.VecDense {
	applyWaypoint(q, waypt)
	rot := q.LinkWorldRotation(robot.EndEffectorLink)
	return mat.NewVecDense(2, []float64{rot.At(0, 0), rot.At(1, 0)})
}

// CoffeeConstraintDerivative is the analytic Jacobian of
// CoffeeConstraint: row i holds the xy components of the cross product
// of joint i's world rotation axis with the end-effector's world
// x-axis direction.
func CoffeeConstraintDerivative(q robot.PoseQuery, waypt mat.Vector) *mat.Dense {
	applyWaypoint(q, waypt)
	rot := q.LinkWorldRotation(robot.EndEffectorLink)
	dirX := rot.At(0, 0)
	dirY := rot.At(1, 0)
	dirZ := rot.At(2, 0)

	jac := mat.NewDense(7, 2, nil)
	for i := 0; i < 7; i++ {
		axis := q.JointWorldAxis(i)
		jac.Set(i, 0, axis.AtVec(1)*dirZ-axis.AtVec(2)*dirY)
		jac.Set(i, 1, axis.AtVec(2)*dirX-axis.AtVec(0)*dirZ)
	}
	return jac
}
