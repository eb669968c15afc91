package player

import (
	"github.com/cbodonnell/tether/pkg/avatars"
	"github.com/go-gl/mathgl/mgl64"
)

// Session describes an active immersive session. Hands are tracked
// only while one is running.
type Session struct {
	ID string
}

// Mirror is a reflective surface the pose must be rendered into.
type Mirror struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
}

// Posable applies a player's transform and action state onto its avatar rig.
type Posable interface {
	ApplyPlayerToAvatar(p *Entity, session *Session, avatar *avatars.Avatar, mirrors []Mirror)
}

// PosableFunc adapts a function to Posable.
type PosableFunc func(p *Entity, session *Session, avatar *avatars.Avatar, mirrors []Mirror)

func (f PosableFunc) ApplyPlayerToAvatar(p *Entity, session *Session, avatar *avatars.Avatar, mirrors []Mirror) {
	f(p, session, avatar, mirrors)
}

// Viewer is the local point of view: the camera, an optional immersive
// session and the mirrors in view.
type Viewer interface {
	Session() *Session
	Camera() (mgl64.Vec3, mgl64.Quat)
	Mirrors() []Mirror
}

// Hand is a tracked controller.
type Hand struct {
	Position   mgl64.Vec3
	Quaternion mgl64.Quat
	Enabled    bool
}
