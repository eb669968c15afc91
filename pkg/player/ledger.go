package player

import (
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/events"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/log"
)

const (
	EventActionAdd    = "actionadd"
	EventActionRemove = "actionremove"
)

// ledger stores the ordered actions of one entity.
type ledger interface {
	list() []Action
	push(a Action)
	deleteAt(i int)
	transact(fn func())
}

// replicatedLedger keeps actions in the bound player map. Events are
// produced by the actions observer, not here.
type replicatedLedger struct {
	e *Entity
}

func (l *replicatedLedger) list() []Action {
	arr := l.e.actionsArray(false)
	if arr == nil {
		return nil
	}
	out := make([]Action, 0, arr.Len())
	for _, v := range arr.ToSlice() {
		if a, ok := actionFromValue(v); ok {
			out = append(out, a)
		}
	}
	return out
}

func (l *replicatedLedger) push(a Action) {
	arr := l.e.actionsArray(true)
	if arr == nil {
		log.Warn("Player %s is not bound to a player map, dropping %s action", l.e.playerID, a.Type())
		return
	}
	arr.Push(map[string]interface{}(a))
}

func (l *replicatedLedger) deleteAt(i int) {
	arr := l.e.actionsArray(false)
	if arr == nil {
		return
	}
	arr.Delete(i, 1)
}

func (l *replicatedLedger) transact(fn func()) {
	l.e.transact(document.LocalOrigin, fn)
}

// plainLedger is an in-memory ledger that emits events as it changes.
type plainLedger struct {
	e       *Entity
	actions []Action
}

func (l *plainLedger) list() []Action {
	return append([]Action(nil), l.actions...)
}

func (l *plainLedger) push(a Action) {
	l.actions = append(l.actions, a)
	l.e.DispatchEvent(events.Event{Type: EventActionAdd, Data: &ActionEvent{Player: l.e, Action: a}})
}

func (l *plainLedger) deleteAt(i int) {
	if i < 0 || i >= len(l.actions) {
		return
	}
	a := l.actions[i]
	l.actions = append(l.actions[:i], l.actions[i+1:]...)
	l.e.DispatchEvent(events.Event{Type: EventActionRemove, Data: &ActionEvent{Player: l.e, Action: a}})
}

func (l *plainLedger) transact(fn func()) {
	fn()
}

// GetActionsState returns a copy of the ledger in order.
func (e *Entity) GetActionsState() []Action {
	return e.ledger.list()
}

// FindAction returns the first action matching fn, or nil.
func (e *Entity) FindAction(fn func(Action) bool) Action {
	for _, a := range e.ledger.list() {
		if fn(a) {
			return a
		}
	}
	return nil
}

// FindActionIndex returns the index of the first action matching fn, or -1.
func (e *Entity) FindActionIndex(fn func(Action) bool) int {
	for i, a := range e.ledger.list() {
		if fn(a) {
			return i
		}
	}
	return -1
}

func (e *Entity) GetAction(actionType string) Action {
	return e.FindAction(func(a Action) bool { return a.Type() == actionType })
}

func (e *Entity) GetActionByActionID(actionID string) Action {
	return e.FindAction(func(a Action) bool { return a.ActionID() == actionID })
}

func (e *Entity) GetActionIndex(actionType string) int {
	return e.FindActionIndex(func(a Action) bool { return a.Type() == actionType })
}

// IndexOfAction locates an action by its id.
func (e *Entity) IndexOfAction(action Action) int {
	id := action.ActionID()
	return e.FindActionIndex(func(a Action) bool { return a.ActionID() == id })
}

func (e *Entity) HasAction(actionType string) bool {
	return e.GetActionIndex(actionType) != -1
}

func (e *Entity) writable(op string) bool {
	if e.kind == KindRemote {
		log.Warn("Ignoring %s on remote player %s", op, e.playerID)
		return false
	}
	return true
}

func (e *Entity) uniqueActionID() string {
	for {
		id := makeActionID()
		if e.GetActionByActionID(id) == nil {
			return id
		}
	}
}

// AddAction stores a copy of action under a fresh action id and returns it.
func (e *Entity) AddAction(action Action) Action {
	if !e.writable("addAction") {
		return nil
	}
	a := action.Clone()
	e.ledger.transact(func() {
		a[KeyActionID] = e.uniqueActionID()
		e.ledger.push(a)
	})
	return a
}

// RemoveAction removes the first action of the given type.
func (e *Entity) RemoveAction(actionType string) {
	if !e.writable("removeAction") {
		return
	}
	e.ledger.transact(func() {
		if i := e.GetActionIndex(actionType); i != -1 {
			e.ledger.deleteAt(i)
		}
	})
}

func (e *Entity) RemoveActionIndex(index int) {
	if !e.writable("removeActionIndex") {
		return
	}
	e.ledger.transact(func() {
		e.ledger.deleteAt(index)
	})
}

// ClearActions removes every action, last first.
func (e *Entity) ClearActions() {
	if !e.writable("clearActions") {
		return
	}
	e.ledger.transact(func() {
		for i := len(e.ledger.list()) - 1; i >= 0; i-- {
			e.ledger.deleteAt(i)
		}
	})
}

// SetControlAction replaces any jump, crouch, fly or sit action with action.
// A sit action never carries a controlling bone.
func (e *Entity) SetControlAction(action Action) Action {
	if !e.writable("setControlAction") {
		return nil
	}
	a := action.Clone()
	if a.Type() == ActionSit {
		a[KeyControllingBone] = nil
	}
	e.ledger.transact(func() {
		actions := e.ledger.list()
		for i := len(actions) - 1; i >= 0; i-- {
			if IsControlAction(actions[i].Type()) {
				e.ledger.deleteAt(i)
			}
		}
		if a.ActionID() == "" || e.GetActionByActionID(a.ActionID()) != nil {
			a[KeyActionID] = e.uniqueActionID()
		}
		e.ledger.push(a)
	})
	return a
}

func (e *Entity) actionsArray(create bool) *document.Array {
	if e.playerMap == nil {
		return nil
	}
	if arr, ok := e.playerMap.GetArray(constants.ActionsMapName); ok {
		return arr
	}
	if !create {
		return nil
	}
	arr := document.NewArray()
	e.playerMap.Set(constants.ActionsMapName, arr)
	return arr
}

func (e *Entity) avatarMap(create bool) *document.Map {
	if e.playerMap == nil {
		return nil
	}
	if m, ok := e.playerMap.GetMap(constants.AvatarMapName); ok {
		return m
	}
	if !create {
		return nil
	}
	m := document.NewMap()
	e.playerMap.Set(constants.AvatarMapName, m)
	return m
}

func (e *Entity) appsArray(create bool) *document.Array {
	if e.playerMap == nil {
		return nil
	}
	if arr, ok := e.playerMap.GetArray(constants.AppsMapName); ok {
		return arr
	}
	if !create {
		return nil
	}
	arr := document.NewArray()
	e.playerMap.Set(constants.AppsMapName, arr)
	return arr
}
