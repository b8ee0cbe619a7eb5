package feature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/armlearn/armfeat/robot"
)

// Distance thresholds and scales for the geometric features, in
// meters. A proximity feature is exactly zero at or beyond its
// threshold and grows linearly as the end-effector closes in.
const (
	LaptopThreshold    float64 = 0.3
	HumanThreshold     float64 = 0.4
	ProxemicsThreshold float64 = 0.3
	BetweenThreshold   float64 = 0.2

	// proxemicsYScale squashes the y axis of the personal-space
	// metric, turning the circular boundary into an ellipse that
	// extends further in front of the human than to their sides.
	proxemicsYScale float64 = 3.0

	// betweenScale discounts the between-objects penalty relative to
	// passing directly over an object.
	betweenScale float64 = 0.8
)

// applyWaypoint pushes a waypoint to the pose query, converting raw
// 7-angle waypoints to the simulator's DOF convention first.
func applyWaypoint(q robot.PoseQuery, waypt mat.Vector) {
	q.Apply(robot.ToSimulatorConfiguration(waypt))
}

// eeXY returns the xy-projection of the end-effector's world position
// for the given waypoint.
func eeXY(q robot.PoseQuery, waypt mat.Vector) (float64, float64) {
	applyWaypoint(q, waypt)
	coord := q.LinkWorldPosition(robot.EndEffectorLink)
	return coord.AtVec(0), coord.AtVec(1)
}

// EfficiencyFeature penalizes large joint motion between consecutive
// waypoints: the squared Euclidean distance between the current and
// previous joint vectors. The input is the 14-element concatenation
// [current, previous].
func EfficiencyFeature(pair mat.Vector) float64 {
	if pair.Len() < 14 {
		panic(fmt.Sprintf("efficiencyfeature: need a 14-element waypoint "+
			"pair, got %v elements", pair.Len()))
	}

	dist := 0.0
	for i := 0; i < 7; i++ {
		diff := pair.AtVec(i) - pair.AtVec(i+7)
		dist += diff * diff
	}
	return dist
}

// OriginFeature is the end-effector's distance from the world origin.
func OriginFeature(q robot.PoseQuery, waypt mat.Vector) float64 {
	applyWaypoint(q, waypt)
	coord := mat.VecDenseCopyOf(q.LinkWorldPosition(robot.EndEffectorLink))
	return floats.Norm(coord.RawVector().Data, 2)
}

// TableFeature is the height of the end-effector above the table
// plane, the z coordinate of its world position.
func TableFeature(q robot.PoseQuery, waypt mat.Vector) float64 {
	applyWaypoint(q, waypt)
	return q.LinkWorldPosition(robot.EndEffectorLink).AtVec(2)
}

// CoffeeFeature measures how far the end-effector has tilted from
// holding a mug upright: 1 minus the dot product of its local x axis
// with the world z axis. Zero when the axis points straight up, 2 when
// it points straight down.
func CoffeeFeature(q robot.PoseQuery, waypt mat.Vector) float64 {
	applyWaypoint(q, waypt)
	rot := q.LinkWorldRotation(robot.EndEffectorLink)
	return 1 - rot.At(2, 0)
}

// LaptopFeature penalizes end-effector positions within
// LaptopThreshold of the laptop in the xy plane.
func LaptopFeature(q robot.PoseQuery, centers ObjectCenters,
	waypt mat.Vector) float64 {
	return proximityPenalty(q, waypt, centers.CenterOf(LaptopCenterKey),
		LaptopThreshold)
}

// HumanFeature penalizes end-effector positions within HumanThreshold
// of the human in the xy plane.
func HumanFeature(q robot.PoseQuery, centers ObjectCenters,
	waypt mat.Vector) float64 {
	return proximityPenalty(q, waypt, centers.CenterOf(HumanCenterKey),
		HumanThreshold)
}

// proximityPenalty is the shared clamp-at-zero distance penalty:
// max(0, threshold - xyDistance).
func proximityPenalty(q robot.PoseQuery, waypt mat.Vector, center mat.Vector,
	threshold float64) float64 {
	x, y := eeXY(q, waypt)
	dist := math.Hypot(x-center.AtVec(0), y-center.AtVec(1)) - threshold
	if dist > 0 {
		return 0
	}
	return -dist
}

// ProxemicsFeature penalizes intrusions into the human's personal
// space. The y components of both the end-effector and the human are
// divided by proxemicsYScale before measuring distance, so the
// protected region is an ellipse rather than a circle.
func ProxemicsFeature(q robot.PoseQuery, centers ObjectCenters,
	waypt mat.Vector) float64 {
	human := centers.CenterOf(HumanCenterKey)
	x, y := eeXY(q, waypt)

	dx := x - human.AtVec(0)
	dy := y/proxemicsYScale - human.AtVec(1)/proxemicsYScale
	dist := math.Hypot(dx, dy) - ProxemicsThreshold
	if dist > 0 {
		return 0
	}
	return -dist
}

// BetweenObjectsFeature penalizes the end-effector for passing between
// two scene objects or too close to either one.
//
// The between term is the perpendicular xy distance from the
// end-effector to the segment joining the objects, counted only when
// the end-effector's projection falls angularly between them (both
// segment angles, obtained via the law of cosines, under 90 degrees),
// clamped at BetweenThreshold and discounted by betweenScale. The
// proximity term is the clamp-at-threshold distance to the nearer
// object. The two combine with a fixed tie-break: zero when neither is
// violated, the violated one when only one is, and the smaller of the
// two when both are.
func BetweenObjectsFeature(q robot.PoseQuery, centers ObjectCenters,
	waypt mat.Vector) float64 {
	o1 := centers.CenterOf(Object1Key)
	o2 := centers.CenterOf(Object2Key)
	x, y := eeXY(q, waypt)

	o1x, o1y := o1.AtVec(0), o1.AtVec(1)
	o2x, o2y := o2.AtVec(0), o2.AtVec(1)

	o1EE := math.Hypot(o1x-x, o1y-y)
	o2EE := math.Hypot(o2x-x, o2y-y)
	o1o2 := math.Hypot(o1x-o2x, o1y-o2y)

	o1angle := math.Acos((o1EE*o1EE + o1o2*o1o2 - o2EE*o2EE) /
		(2 * o1o2 * o1EE))
	o2angle := math.Acos((o2EE*o2EE + o1o2*o1o2 - o1EE*o1EE) /
		(2 * o1o2 * o2EE))

	dist1 := 0.0
	if o1angle < math.Pi/2 && o2angle < math.Pi/2 {
		// Perpendicular distance via the 2D cross product of the
		// segment with the object-to-end-effector offset
		cross := (o2x-o1x)*(o1y-y) - (o2y-o1y)*(o1x-x)
		dist1 = math.Abs(cross)/o1o2 - BetweenThreshold
	}
	dist1 *= betweenScale
	dist2 := math.Min(o1EE, o2EE) - BetweenThreshold

	switch {
	case dist1 > 0 && dist2 > 0:
		return 0
	case dist2 > 0:
		return -dist1
	case dist1 > 0:
		return -dist2
	}
	return -math.Min(dist1, dist2)
}
