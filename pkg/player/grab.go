package player

import (
	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/events"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	HandRight = "right"
	HandLeft  = "left"
)

func handIndex(hand string) int {
	if hand == HandLeft {
		return 1
	}
	return 0
}

// holderTransform is the hand transform during an immersive session and
// the camera otherwise.
func (e *Entity) holderTransform(hand string) (mgl64.Vec3, mgl64.Quat) {
	if e.viewer == nil {
		return e.Position, e.Quaternion
	}
	if e.viewer.Session() != nil {
		h := e.Hands[handIndex(hand)]
		return h.Position, h.Quaternion
	}
	return e.viewer.Camera()
}

// Grab holds app in hand, recording the app's transform relative to the
// holder at the time of the grab.
func (e *Entity) Grab(app *apps.App, hand string) {
	if e.kind != KindLocal {
		log.Warn("Ignoring grab of app %s on %s player %s", app.InstanceID, e.kind, e.playerID)
		return
	}
	if hand == "" {
		hand = HandLeft
	}
	position, quaternion := e.holderTransform(hand)
	matrix := apps.Compose(position, quaternion, mgl64.Vec3{1, 1, 1}).Inv().Mul4(app.MatrixWorld())

	e.AddAction(NewAction(ActionGrab, map[string]interface{}{
		KeyHand:       hand,
		KeyInstanceID: app.InstanceID,
		KeyMatrix:     matrix[:],
	}))
	if e.physics != nil {
		for _, id := range app.PhysicsObjects() {
			e.physics.DisableGeometryQueries(id)
		}
	}
	app.DispatchEvent(events.Event{Type: EventGrabUpdate, Data: &GrabEvent{Player: e, App: app, Grab: true}})
}

// Ungrab releases everything held.
func (e *Entity) Ungrab() {
	if e.kind != KindLocal {
		log.Warn("Ignoring ungrab on %s player %s", e.kind, e.playerID)
		return
	}
	removeOffset := 0
	for i, action := range e.GetActionsState() {
		if action.Type() != ActionGrab {
			continue
		}
		app := e.findApp(action.InstanceID())
		if app != nil && e.physics != nil {
			for _, id := range app.PhysicsObjects() {
				e.physics.EnableGeometryQueries(id)
			}
		}
		e.RemoveActionIndex(i + removeOffset)
		removeOffset--
		if app != nil {
			app.DispatchEvent(events.Event{Type: EventGrabUpdate, Data: &GrabEvent{Player: e, App: app, Grab: false}})
		} else {
			log.Warn("Player %s released untracked app %s", e.playerID, action.InstanceID())
		}
	}
}

// GrabMatrix returns the holder relative transform stored in a grab action.
func GrabMatrix(action Action) (mgl64.Mat4, bool) {
	var m mgl64.Mat4
	switch v := action[KeyMatrix].(type) {
	case []float64:
		if len(v) != len(m) {
			return m, false
		}
		copy(m[:], v)
	case []interface{}:
		if len(v) != len(m) {
			return m, false
		}
		for i, x := range v {
			f, ok := x.(float64)
			if !ok {
				return m, false
			}
			m[i] = f
		}
	default:
		return m, false
	}
	return m, true
}
