// Package kinematic integrates constant acceleration motion for
// character capsules.
package kinematic

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// Gravity is the vertical acceleration in meters per second squared.
	Gravity float64 = -9.8
)

// Displacement is the distance covered in time seconds starting at
// initialVelocity under a constant acceleration.
func Displacement(initialVelocity float64, time float64, acceleration float64) float64 {
	return initialVelocity*time + 0.5*acceleration*time*time
}

// FinalVelocity is the velocity reached after time seconds.
func FinalVelocity(initialVelocity float64, time float64, acceleration float64) float64 {
	return initialVelocity + acceleration*time
}

// ApexTime is how long an upward launch at initialVelocity rises before
// falling under acceleration. It is 0 when the motion never rises.
func ApexTime(initialVelocity float64, acceleration float64) float64 {
	if initialVelocity <= 0 || acceleration >= 0 {
		return 0
	}
	return -initialVelocity / acceleration
}

// ApexHeight is the height gained by an upward launch.
func ApexHeight(initialVelocity float64, acceleration float64) float64 {
	t := ApexTime(initialVelocity, acceleration)
	return Displacement(initialVelocity, t, acceleration)
}

// LaunchVelocity is the upward velocity that reaches height.
func LaunchVelocity(height float64, acceleration float64) float64 {
	if height <= 0 || acceleration >= 0 {
		return 0
	}
	return math.Sqrt(-2 * acceleration * height)
}

// Step advances a body with the horizontal velocity held constant and the
// vertical one under gravity scaled by gravityScale. Pass 0 to float.
func Step(velocity mgl64.Vec3, verticalVelocity, dt, gravityScale float64) (displacement mgl64.Vec3, nextVerticalVelocity float64) {
	acceleration := Gravity * gravityScale
	if gravityScale == 0 {
		dy := velocity.Y() * dt
		return mgl64.Vec3{velocity.X() * dt, dy, velocity.Z() * dt}, verticalVelocity
	}
	dy := Displacement(verticalVelocity, dt, acceleration)
	return mgl64.Vec3{velocity.X() * dt, dy, velocity.Z() * dt}, FinalVelocity(verticalVelocity, dt, acceleration)
}

// Heading is the yaw, about +Y, of a body moving along velocity with
// -Z as forward. ok is false when there is no horizontal motion.
func Heading(velocity mgl64.Vec3) (yaw float64, ok bool) {
	if velocity.X() == 0 && velocity.Z() == 0 {
		return 0, false
	}
	return math.Atan2(-velocity.X(), -velocity.Z()), true
}
