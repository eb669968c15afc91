package player

import (
	"strings"

	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/google/uuid"
)

// Action types
const (
	ActionJump      = "jump"
	ActionCrouch    = "crouch"
	ActionFly       = "fly"
	ActionSit       = "sit"
	ActionWear      = "wear"
	ActionGrab      = "grab"
	ActionActivate  = "activate"
	ActionUse       = "use"
	ActionAim       = "aim"
	ActionNarutoRun = "narutoRun"
	ActionDance     = "dance"
	ActionEmote     = "emote"
	ActionHurt      = "hurt"
)

// Action record keys
const (
	KeyType            = "type"
	KeyActionID        = "actionId"
	KeyInstanceID      = "instanceId"
	KeyLoadoutIndex    = "loadoutIndex"
	KeyControllingBone = "controllingBone"
	KeyHand            = "hand"
	KeyMatrix          = "matrix"
)

var controlActionTypes = []string{ActionJump, ActionCrouch, ActionFly, ActionSit}

// IsControlAction reports whether actions of type t are mutually exclusive.
func IsControlAction(t string) bool {
	for _, c := range controlActionTypes {
		if c == t {
			return true
		}
	}
	return false
}

// Action is a transient typed record in a player's ledger. Fields other
// than type and actionId depend on the type.
type Action map[string]interface{}

func NewAction(actionType string, fields map[string]interface{}) Action {
	a := Action{KeyType: actionType}
	for k, v := range fields {
		a[k] = v
	}
	return a
}

func (a Action) Type() string {
	s, _ := a[KeyType].(string)
	return s
}

func (a Action) ActionID() string {
	s, _ := a[KeyActionID].(string)
	return s
}

func (a Action) InstanceID() string {
	s, _ := a[KeyInstanceID].(string)
	return s
}

// LoadoutIndex returns the wear slot of the action, or -1.
func (a Action) LoadoutIndex() int {
	switch v := a[KeyLoadoutIndex].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return -1
	}
}

// Clone returns a shallow copy.
func (a Action) Clone() Action {
	out := make(Action, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

func makeActionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:constants.ActionIDLength]
}

func actionFromValue(v interface{}) (Action, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return Action(m).Clone(), true
}

// ActionEvent is the payload of actionadd and actionremove events.
type ActionEvent struct {
	Player *Entity
	Action Action
}
