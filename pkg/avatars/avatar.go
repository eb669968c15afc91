package avatars

import (
	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/go-gl/mathgl/mgl64"
)

// Avatar is the rig driven by a player's avatar app.
type Avatar struct {
	App    *apps.App
	Height float64

	Velocity  mgl64.Vec3
	Direction mgl64.Vec3
}

// New builds an avatar for app, sized from its height component.
func New(app *apps.App) *Avatar {
	h, ok := app.ComponentFloat(apps.ComponentHeight)
	if !ok || h <= 0 {
		h = constants.DefaultAvatarHeight
	}
	return &Avatar{
		App:       app,
		Height:    h,
		Direction: mgl64.Vec3{0, 0, -1},
	}
}

// Switch returns the avatar for app, reusing old when it already wraps app.
func Switch(old *Avatar, app *apps.App) *Avatar {
	if app == nil {
		return nil
	}
	if old != nil && old.App == app {
		return old
	}
	return New(app)
}

// SetVelocity derives velocity from two positions dt seconds apart.
func (a *Avatar) SetVelocity(dt float64, last, next mgl64.Vec3, quaternion mgl64.Quat) {
	if dt <= 0 {
		return
	}
	a.Velocity = next.Sub(last).Mul(1 / dt)
	a.Direction = quaternion.Rotate(mgl64.Vec3{0, 0, -1})
}
