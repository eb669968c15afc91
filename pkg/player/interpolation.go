package player

import (
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/interpolants"
	"github.com/go-gl/mathgl/mgl64"
)

// Action interpolant names
const (
	InterpolantCrouch             = "crouch"
	InterpolantActivate           = "activate"
	InterpolantUse                = "use"
	InterpolantUnuse              = "unuse"
	InterpolantAim                = "aim"
	InterpolantAimRightTransition = "aimRightTransition"
	InterpolantAimLeftTransition  = "aimLeftTransition"
	InterpolantNarutoRun          = "narutoRun"
	InterpolantFly                = "fly"
	InterpolantJump               = "jump"
	InterpolantDance              = "dance"
	InterpolantEmote              = "emote"
	InterpolantHurt               = "hurt"
)

// binaryActionTypes are the actions remote players sample into delayed
// binary interpolants.
var binaryActionTypes = []string{
	ActionCrouch, ActionActivate, ActionUse, ActionAim, ActionNarutoRun,
	ActionFly, ActionJump, ActionDance, ActionEmote, ActionHurt,
}

type interpolation interface {
	// snapshot records the authoritative values received from a peer.
	snapshot(remoteTimeDiff float64)
	update(timeDiff float64)
	actionInterpolant(name string) interpolants.ActionInterpolant
	bindingTransform() (mgl64.Vec3, mgl64.Quat)
}

type namedInterpolant struct {
	name        string
	interpolant interpolants.ActionInterpolant
}

type actionInterpolants []namedInterpolant

func (a actionInterpolants) update(timeDiff float64) {
	for _, n := range a {
		n.interpolant.Update(timeDiff)
	}
}

func (a actionInterpolants) get(name string) interpolants.ActionInterpolant {
	for _, n := range a {
		if n.name == name {
			return n.interpolant
		}
	}
	return nil
}

// buildActionInterpolants wires the action phase interpolants to active,
// which reports whether an action type is currently on.
func buildActionInterpolants(e *Entity, active func(string) bool, delayed bool) actionInterpolants {
	t := e.tuning
	on := func(actionType string) func() bool {
		return func() bool { return active(actionType) }
	}
	aimTransition := func(hand int) func() bool {
		return func() bool { return active(ActionAim) && e.Hands[hand].Enabled }
	}

	out := actionInterpolants{
		{InterpolantCrouch, interpolants.NewBiActionInterpolant(on(ActionCrouch), 0, t.CrouchMaxTimeMs)},
		{InterpolantActivate, interpolants.NewUniActionInterpolant(on(ActionActivate), 0, t.ActivateMaxTimeMs)},
		{InterpolantUse, interpolants.NewInfiniteActionInterpolant(on(ActionUse), 0)},
		{InterpolantUnuse, interpolants.NewInfiniteActionInterpolant(func() bool { return !active(ActionUse) }, 0)},
		{InterpolantAim, interpolants.NewInfiniteActionInterpolant(on(ActionAim), 0)},
		{InterpolantAimRightTransition, interpolants.NewBiActionInterpolant(aimTransition(0), 0, t.AimTransitionMaxTimeMs)},
		{InterpolantAimLeftTransition, interpolants.NewBiActionInterpolant(aimTransition(1), 0, t.AimTransitionMaxTimeMs)},
		{InterpolantNarutoRun, interpolants.NewInfiniteActionInterpolant(on(ActionNarutoRun), 0)},
		{InterpolantFly, interpolants.NewInfiniteActionInterpolant(on(ActionFly), 0)},
		{InterpolantJump, interpolants.NewInfiniteActionInterpolant(on(ActionJump), 0)},
	}
	if delayed {
		out = append(out,
			namedInterpolant{InterpolantDance, interpolants.NewInfiniteActionInterpolant(on(ActionDance), 0)},
			namedInterpolant{InterpolantEmote, interpolants.NewInfiniteActionInterpolant(on(ActionEmote), 0)},
		)
	} else {
		out = append(out,
			namedInterpolant{InterpolantDance, interpolants.NewBiActionInterpolant(on(ActionDance), 0, t.CrouchMaxTimeMs)},
			namedInterpolant{InterpolantEmote, interpolants.NewBiActionInterpolant(on(ActionEmote), 0, t.CrouchMaxTimeMs)},
		)
	}
	return append(out, namedInterpolant{InterpolantHurt, interpolants.NewInfiniteActionInterpolant(on(ActionHurt), 0)})
}

// immediateInterpolation reads actions straight from the ledger. Used by
// players whose state is authoritative locally.
type immediateInterpolation struct {
	e       *Entity
	actions actionInterpolants
}

func newImmediateInterpolation(e *Entity) *immediateInterpolation {
	return &immediateInterpolation{
		e:       e,
		actions: buildActionInterpolants(e, e.HasAction, false),
	}
}

func (i *immediateInterpolation) snapshot(float64) {}

func (i *immediateInterpolation) update(timeDiff float64) {
	i.actions.update(timeDiff)
}

func (i *immediateInterpolation) actionInterpolant(name string) interpolants.ActionInterpolant {
	return i.actions.get(name)
}

func (i *immediateInterpolation) bindingTransform() (mgl64.Vec3, mgl64.Quat) {
	return i.e.Position, i.e.Quaternion
}

// delayedInterpolation plays a peer's transform and actions back behind
// a fixed delay.
type delayedInterpolation struct {
	position   *interpolants.PositionInterpolant
	quaternion *interpolants.QuaternionInterpolant
	binary     map[string]*interpolants.BinaryInterpolant
	actions    actionInterpolants
}

func newDelayedInterpolation(e *Entity) *delayedInterpolation {
	delay := e.tuning.InterpolationDelayMs
	frames := e.tuning.InterpolationFrames
	d := &delayedInterpolation{
		position:   interpolants.NewPositionInterpolant(func() mgl64.Vec3 { return e.Position }, delay, frames),
		quaternion: interpolants.NewQuaternionInterpolant(func() mgl64.Quat { return e.Quaternion }, delay, frames),
		binary:     make(map[string]*interpolants.BinaryInterpolant, len(binaryActionTypes)),
	}
	for _, actionType := range binaryActionTypes {
		d.binary[actionType] = interpolants.NewBinaryInterpolant(func() bool { return e.HasAction(actionType) }, delay, frames)
	}
	active := func(actionType string) bool {
		if b, ok := d.binary[actionType]; ok {
			return b.Get()
		}
		return e.HasAction(actionType)
	}
	d.actions = buildActionInterpolants(e, active, true)
	return d
}

func (d *delayedInterpolation) snapshot(remoteTimeDiff float64) {
	d.position.Snapshot(remoteTimeDiff)
	d.quaternion.Snapshot(remoteTimeDiff)
	for _, actionType := range binaryActionTypes {
		d.binary[actionType].Snapshot(remoteTimeDiff)
	}
}

func (d *delayedInterpolation) update(timeDiff float64) {
	d.position.Update(timeDiff)
	d.quaternion.Update(timeDiff)
	for _, actionType := range binaryActionTypes {
		d.binary[actionType].Update(timeDiff)
	}
	d.actions.update(timeDiff)
}

func (d *delayedInterpolation) actionInterpolant(name string) interpolants.ActionInterpolant {
	return d.actions.get(name)
}

func (d *delayedInterpolation) bindingTransform() (mgl64.Vec3, mgl64.Quat) {
	return d.position.Get(), d.quaternion.Get()
}

// ActionInterpolant returns the named action phase interpolant, or nil.
func (e *Entity) ActionInterpolant(name string) interpolants.ActionInterpolant {
	return e.interpolation.actionInterpolant(name)
}

// GetCrouchFactor scales the avatar down while crouching, from 1 standing
// to 0.6 fully crouched.
func (e *Entity) GetCrouchFactor() float64 {
	crouch := e.interpolation.actionInterpolant(InterpolantCrouch)
	return 1 - constants.CrouchHeightReduction*crouch.GetNormalized()
}

// AvatarBindingTransform is the transform the avatar pose follows.
func (e *Entity) AvatarBindingTransform() (mgl64.Vec3, mgl64.Quat) {
	return e.interpolation.bindingTransform()
}
