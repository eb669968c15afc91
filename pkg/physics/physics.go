package physics

import (
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/go-gl/mathgl/mgl64"
)

// ID identifies a body owned by a physics scene.
type ID int

// CharacterController is a capsule that moves with its player.
type CharacterController struct {
	ID            ID
	Radius        float64
	Height        float64
	ContactOffset float64
	StepOffset    float64
	Position      mgl64.Vec3
}

// MoveResult reports what a controller touched while moving.
type MoveResult struct {
	Grounded bool
	Blocked  bool
}

// Physics is the subset of a physics engine players depend on.
type Physics interface {
	CreateCharacterController(radius, height, contactOffset, stepOffset float64, position mgl64.Vec3) *CharacterController
	DestroyCharacterController(c *CharacterController)
	SetCharacterControllerPosition(c *CharacterController, position mgl64.Vec3)
	MoveCharacterController(c *CharacterController, displacement mgl64.Vec3) MoveResult

	// DisableGeometryQueries hides a body from queries and raycasts.
	DisableGeometryQueries(id ID)
	EnableGeometryQueries(id ID)
	// DisableGeometry removes a body from the simulation without destroying it.
	DisableGeometry(id ID)
	EnableGeometry(id ID)
}

// Capsule holds the dimensions of a character controller sized for an avatar.
type Capsule struct {
	Radius        float64
	Height        float64
	ContactOffset float64
	StepOffset    float64
}

// CapsuleDimensions sizes a capsule for an avatar of height h. A
// non-positive height falls back to the default avatar height.
func CapsuleDimensions(h float64) Capsule {
	if h <= 0 {
		h = constants.DefaultAvatarHeight
	}
	radius := constants.BaseRadius / constants.HeightFactor * h
	return Capsule{
		Radius:        radius,
		Height:        h - radius*2,
		ContactOffset: 0.1 / constants.HeightFactor * h,
		StepOffset:    0.5 / constants.HeightFactor * h,
	}
}

// CreateCapsule creates a controller for an avatar of height h standing
// with its eyes at position.
func CreateCapsule(p Physics, h float64, position mgl64.Vec3) *CharacterController {
	if h <= 0 {
		h = constants.DefaultAvatarHeight
	}
	c := CapsuleDimensions(h)
	return p.CreateCharacterController(
		c.Radius-c.ContactOffset,
		c.Height,
		c.ContactOffset,
		c.StepOffset,
		position.Sub(mgl64.Vec3{0, h / 2, 0}),
	)
}
