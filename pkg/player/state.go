package player

import (
	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/events"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/log"
)

// DetachedState is what a player carries over when it moves to another
// players array.
type DetachedState struct {
	Actions          []Action
	AvatarInstanceID string
	Apps             []interface{}
}

// StateAttachment connects an entity to its entry in a players array.
type StateAttachment interface {
	// Detach returns the state to carry over, or nil when there is none.
	Detach() *DetachedState
	// Attach binds the entity's player map within its players array.
	Attach(old *DetachedState)
}

// localAttachment appends a fresh player map and owns it.
type localAttachment struct {
	e *Entity
}

func (a *localAttachment) Detach() *DetachedState {
	e := a.e
	if e.playerMap == nil {
		return nil
	}
	old := &DetachedState{Actions: e.ledger.list()}
	old.AvatarInstanceID = e.GetAvatarInstanceID()
	if arr := e.appsArray(false); arr != nil {
		old.Apps = arr.ToJSON()
	}
	return old
}

func (a *localAttachment) Attach(old *DetachedState) {
	e := a.e
	playerMap := document.NewMap()
	appsArray := document.NewArray()
	e.playersArray.Doc().Transact(document.LocalOrigin, func() {
		playerMap.Set(constants.PlayerIDKey, e.playerID)

		actions := document.NewArray()
		avatar := document.NewMap()
		if old != nil {
			for _, action := range old.Actions {
				actions.Push(map[string]interface{}(action))
			}
			if old.AvatarInstanceID != "" {
				avatar.Set(constants.InstanceIDKey, old.AvatarInstanceID)
			}
			for _, v := range old.Apps {
				if m, ok := v.(map[string]interface{}); ok {
					appsArray.Push(apps.RecordFromJSON(m))
				}
			}
		}
		playerMap.Set(constants.ActionsMapName, actions)
		playerMap.Set(constants.AvatarMapName, avatar)
		playerMap.Set(constants.AppsMapName, appsArray)

		e.playersArray.Push(playerMap)
		e.playerMap = playerMap
	})
	e.appManager.BindStateLocal(appsArray)
}

// remoteAttachment finds the player map a peer appended.
type remoteAttachment struct {
	e *Entity
}

func (a *remoteAttachment) Detach() *DetachedState {
	return nil
}

func (a *remoteAttachment) Attach(_ *DetachedState) {
	e := a.e
	playerMap := findPlayerMap(e.playersArray, e.playerID)
	if playerMap == nil {
		log.Warn("Remote player %s is binding to nonexistent player object", e.playerID)
		return
	}
	e.playerMap = playerMap
	if arr := e.appsArray(false); arr != nil {
		e.appManager.BindStateRemote(arr)
		e.appManager.LoadApps()
	}
}

// findPlayerMap returns the player map with the given id, or nil.
func findPlayerMap(players *document.Array, playerID string) *document.Map {
	if players == nil {
		return nil
	}
	for i := 0; i < players.Len(); i++ {
		m, ok := players.GetMap(i)
		if !ok {
			continue
		}
		if id, _ := m.GetString(constants.PlayerIDKey); id == playerID {
			return m
		}
	}
	return nil
}

// PlayerIDs lists the player ids present in a players array, in order.
func PlayerIDs(players *document.Array) []string {
	var ids []string
	for i := 0; i < players.Len(); i++ {
		m, ok := players.GetMap(i)
		if !ok {
			continue
		}
		if id, ok := m.GetString(constants.PlayerIDKey); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// BindState moves the player onto players. State held in a previously
// bound array is carried over by local players. A nil array only unbinds.
func (e *Entity) BindState(players *document.Array) {
	if e.attachment == nil {
		log.Warn("Player %s (%s) has no replicated state to bind", e.playerID, e.kind)
		return
	}
	old := e.attachment.Detach()
	e.unbindState()
	e.appManager.UnbindState()

	e.playersArray = players
	if players != nil {
		e.attachment.Attach(old)
		e.bindCommonObservers()
	}
}

// UnbindState detaches the player from its players array.
func (e *Entity) UnbindState() {
	if e.playersArray == nil && e.playerMap == nil {
		log.Warn("Player %s is not bound to any state", e.playerID)
		return
	}
	e.unbindState()
	e.appManager.UnbindState()
}

func (e *Entity) unbindState() {
	for _, fn := range e.unbindFns {
		fn()
	}
	e.unbindFns = nil
	e.playersArray = nil
	e.playerMap = nil
	e.observedActions = nil
}

// IsBound reports whether the player has a player map. A remote player
// whose entry was not found stays unbound.
func (e *Entity) IsBound() bool {
	return e.playerMap != nil
}

// GetAvatarInstanceID returns the instance id of the avatar app recorded
// in the player map.
func (e *Entity) GetAvatarInstanceID() string {
	m := e.avatarMap(false)
	if m == nil {
		return ""
	}
	id, _ := m.GetString(constants.InstanceIDKey)
	return id
}

func (e *Entity) bindCommonObservers() {
	if e.playerMap == nil {
		return
	}
	playerMap := e.playerMap

	e.observedActions = e.ledger.list()
	e.observeChild(constants.ActionsMapName)
	e.observeChild(constants.AvatarMapName)

	unobserve := playerMap.Observe(func(ev *document.MapEvent) {
		if _, ok := ev.Keys[constants.ActionsMapName]; ok {
			e.observeChild(constants.ActionsMapName)
			e.diffActions()
		}
		if _, ok := ev.Keys[constants.AvatarMapName]; ok {
			e.observeChild(constants.AvatarMapName)
			e.scheduleAvatarSync()
		}
		if _, ok := ev.Keys[constants.TransformKey]; ok && e.kind == KindRemote {
			e.applyRemoteTransform()
		}
	})

	e.unbindFns = append(e.unbindFns,
		unobserve,
		func() {
			for key, fn := range e.unobserveChild {
				fn()
				delete(e.unobserveChild, key)
			}
		},
		e.binding.Cancel,
	)

	e.syncAvatarIfChanged()
}

// observeChild (re)attaches the observer of the nested type under key.
func (e *Entity) observeChild(key string) {
	if fn, ok := e.unobserveChild[key]; ok {
		fn()
		delete(e.unobserveChild, key)
	}
	switch key {
	case constants.ActionsMapName:
		if arr := e.actionsArray(false); arr != nil {
			e.unobserveChild[key] = arr.Observe(func(*document.ArrayEvent) {
				e.diffActions()
			})
		}
	case constants.AvatarMapName:
		if m := e.avatarMap(false); m != nil {
			e.unobserveChild[key] = m.Observe(func(ev *document.MapEvent) {
				if _, ok := ev.Keys[constants.InstanceIDKey]; ok {
					e.scheduleAvatarSync()
				}
			})
		}
	}
}

// diffActions emits actionremove for every action id that disappeared
// since the last call, then actionadd for every new one.
func (e *Entity) diffActions() {
	previous := e.observedActions
	current := e.ledger.list()
	e.observedActions = current

	currentIDs := make(map[string]bool, len(current))
	for _, a := range current {
		currentIDs[a.ActionID()] = true
	}
	previousIDs := make(map[string]bool, len(previous))
	for _, a := range previous {
		previousIDs[a.ActionID()] = true
	}

	for _, a := range previous {
		if !currentIDs[a.ActionID()] {
			e.DispatchEvent(events.Event{Type: EventActionRemove, Data: &ActionEvent{Player: e, Action: a}})
		}
	}
	for _, a := range current {
		if !previousIDs[a.ActionID()] {
			e.DispatchEvent(events.Event{Type: EventActionAdd, Data: &ActionEvent{Player: e, Action: a}})
		}
	}
}

// scheduleAvatarSync re-resolves the avatar once the current transaction
// and its observers are done.
func (e *Entity) scheduleAvatarSync() {
	if e.playerMap == nil {
		return
	}
	e.playerMap.Doc().Defer(func() {
		if e.playerMap == nil || e.destroyed {
			return
		}
		e.syncAvatarIfChanged()
	})
}
