package player

import (
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/kinematic"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/go-gl/mathgl/mgl64"
)

type NewLocalPlayerOptions struct {
	NewPlayerOptions
	// PlayersArray is bound on creation. A private document is used when nil.
	PlayersArray *document.Array
}

// NewLocalPlayer creates the player controlled on this client. It appends
// its own player map to the players array and is the only writer of it.
func NewLocalPlayer(opts *NewLocalPlayerOptions) *Entity {
	if opts == nil {
		opts = &NewLocalPlayerOptions{}
	}
	e := newEntity(KindLocal, &opts.NewPlayerOptions)
	e.ledger = &replicatedLedger{e: e}
	e.attachment = &localAttachment{e: e}
	e.interpolation = newImmediateInterpolation(e)

	players := opts.PlayersArray
	if players == nil {
		players = document.NewDoc("").GetArray(constants.PlayersMapName)
	}
	e.BindState(players)
	return e
}

// PushPlayerUpdates writes the packed transform. timeDiff is the time in
// milliseconds since the previous push.
func (e *Entity) PushPlayerUpdates(timeDiff float64) {
	if e.kind != KindLocal {
		log.Warn("Ignoring pushPlayerUpdates on %s player %s", e.kind, e.playerID)
		return
	}
	if e.playerMap == nil {
		return
	}
	e.transact(constants.PushOrigin, func() {
		e.playerMap.Set(constants.TransformKey, PackTransform(e.Position, e.Quaternion, e.Scale, timeDiff))
	})
}

// PackTransform lays out a transform the way it is replicated.
func PackTransform(position mgl64.Vec3, quaternion mgl64.Quat, scale mgl64.Vec3, timeDiff float64) []float64 {
	return []float64{
		position.X(), position.Y(), position.Z(),
		quaternion.V.X(), quaternion.V.Y(), quaternion.V.Z(), quaternion.W,
		scale.X(), scale.Y(), scale.Z(),
		timeDiff,
	}
}

// UnpackTransform is the inverse of PackTransform.
func UnpackTransform(t []float64) (position mgl64.Vec3, quaternion mgl64.Quat, scale mgl64.Vec3, timeDiff float64, ok bool) {
	if len(t) < constants.TransformLength {
		return position, quaternion, scale, 0, false
	}
	position = mgl64.Vec3{t[0], t[1], t[2]}
	quaternion = mgl64.Quat{W: t[6], V: mgl64.Vec3{t[3], t[4], t[5]}}
	scale = mgl64.Vec3{t[7], t[8], t[9]}
	return position, quaternion, scale, t[constants.TransformTimeDiffIndex], true
}

// UpdatePhysics moves the character capsule by the input velocity and
// gravity, then follows it. timeDiff is in milliseconds.
func (e *Entity) UpdatePhysics(timestamp, timeDiff float64) {
	if e.kind == KindRemote {
		return
	}
	if e.binding.Avatar() == nil || e.controller == nil || e.physics == nil {
		return
	}
	dt := timeDiff / 1000
	if dt <= 0 {
		return
	}

	gravityScale := constants.PlayerGravityMultiplier
	if e.HasAction(ActionFly) {
		gravityScale = 0
	}
	displacement, verticalVelocity := kinematic.Step(e.Velocity, e.verticalVelocity, dt, gravityScale)
	e.verticalVelocity = verticalVelocity

	result := e.physics.MoveCharacterController(e.controller, displacement)
	e.grounded = result.Grounded
	if result.Grounded {
		e.verticalVelocity = 0
		if e.HasAction(ActionJump) {
			e.RemoveAction(ActionJump)
		}
	}
	h := e.avatarHeight()
	e.Position = e.controller.Position.Add(mgl64.Vec3{0, h / 2, 0})
	if yaw, ok := kinematic.Heading(e.Velocity); ok {
		e.Quaternion = mgl64.QuatRotate(yaw, mgl64.Vec3{0, 1, 0})
	}
}

// Grounded reports whether the capsule touched the floor on the last physics update.
func (e *Entity) Grounded() bool {
	return e.grounded
}

// Jump starts a jump if the player is standing on something.
func (e *Entity) Jump() {
	if e.kind == KindRemote || !e.grounded {
		return
	}
	e.SetControlAction(NewAction(ActionJump, nil))
	e.verticalVelocity = constants.PlayerJumpSpeed
	e.grounded = false
}

// Teleport relations
const (
	RelationHead  = "head"
	RelationFloor = "floor"
)

// TeleportTo places the player at position. With RelationFloor the
// position is the point under the player's feet.
func (e *Entity) TeleportTo(position mgl64.Vec3, quaternion mgl64.Quat, relation string) {
	if e.kind == KindRemote {
		log.Warn("Ignoring teleportTo on remote player %s", e.playerID)
		return
	}
	if relation == RelationFloor {
		h := e.avatarHeight()
		if h <= 0 {
			h = constants.DefaultAvatarHeight
		}
		position = position.Add(mgl64.Vec3{0, h, 0})
	}
	e.Position = position
	e.Quaternion = quaternion
	e.verticalVelocity = 0
	if e.physics != nil && e.controller != nil {
		e.physics.SetCharacterControllerPosition(e.controller, e.controllerPosition(position))
	}
}

// SetSpawnPoint records where the player respawns and moves it there.
func (e *Entity) SetSpawnPoint(position mgl64.Vec3, quaternion mgl64.Quat) {
	e.spawnPosition = position
	e.spawnQuaternion = quaternion
	e.TeleportTo(position, quaternion, RelationFloor)
}

// Respawn returns the player to its spawn point.
func (e *Entity) Respawn() {
	e.TeleportTo(e.spawnPosition, e.spawnQuaternion, RelationFloor)
}
