package player

import (
	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/events"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/go-gl/mathgl/mgl64"
)

// AutoLoadoutIndex asks Wear for the lowest free slot.
const AutoLoadoutIndex = -1

func (e *Entity) emitWear(app *apps.App, wear bool, loadoutIndex int) {
	event := events.Event{
		Type: EventWearUpdate,
		Data: &WearEvent{Player: e, App: app, Wear: wear, LoadoutIndex: loadoutIndex},
	}
	e.DispatchEvent(event)
	app.DispatchEvent(event)
}

func (e *Entity) wearActionFor(app *apps.App) (int, Action) {
	for i, a := range e.ledger.list() {
		if a.Type() == ActionWear && a.InstanceID() == app.InstanceID {
			return i, a
		}
	}
	return -1, nil
}

// freeLoadoutIndex returns the lowest slot no wear action occupies, or -1.
func (e *Entity) freeLoadoutIndex() int {
	occupied := make(map[int]bool)
	for _, a := range e.ledger.list() {
		if a.Type() == ActionWear {
			occupied[a.LoadoutIndex()] = true
		}
	}
	for i := 0; i < e.tuning.NumLoadoutSlots; i++ {
		if !occupied[i] {
			return i
		}
	}
	return -1
}

// Wear attaches app to the player in loadoutIndex, or in the lowest free
// slot for AutoLoadoutIndex. An app already in that slot is unworn and
// destroyed first.
func (e *Entity) Wear(app *apps.App, loadoutIndex int) {
	if e.kind == KindRemote {
		log.Warn("Ignoring wear of app %s on remote player %s", app.InstanceID, e.playerID)
		return
	}
	if loadoutIndex == AutoLoadoutIndex {
		loadoutIndex = e.freeLoadoutIndex()
	}

	if loadoutIndex >= 0 && loadoutIndex < e.tuning.NumLoadoutSlots {
		for _, a := range e.ledger.list() {
			if a.Type() != ActionWear || a.LoadoutIndex() != loadoutIndex || a.InstanceID() == app.InstanceID {
				continue
			}
			if old := e.findApp(a.InstanceID()); old != nil {
				e.Unwear(old, true)
			} else {
				log.Warn("Player %s slot %d holds untracked app %s", e.playerID, loadoutIndex, a.InstanceID())
				e.RemoveActionIndex(e.IndexOfAction(a))
			}
		}

		e.adoptApp(app)
		e.setPhysicsEnabled(app, false)
		if !containsApp(e.wornApps, app) {
			e.wornApps = append(e.wornApps, app)
		}
		e.AddAction(NewAction(ActionWear, map[string]interface{}{
			KeyInstanceID:   app.InstanceID,
			KeyLoadoutIndex: loadoutIndex,
		}))
		e.emitWear(app, true, loadoutIndex)
	} else {
		log.Warn("Player %s has no loadout slot for app %s", e.playerID, app.InstanceID)
	}

	e.emitWear(app, true, AutoLoadoutIndex)
}

// adoptApp moves app into the player's own manager.
func (e *Entity) adoptApp(app *apps.App) {
	if e.appManager.GetAppByInstanceID(app.InstanceID) == app {
		return
	}
	if e.world != nil && e.world.GetAppByInstanceID(app.InstanceID) == app {
		e.world.TransplantApp(app, e.appManager)
		return
	}
	if owner := e.appManager.GetPeerOwnerManager(app); owner != nil {
		owner.TransplantApp(app, e.appManager)
		return
	}
	world := "none"
	if e.world != nil {
		world = e.world.Name()
	}
	log.Warn("App %s is not tracked by %s or %s", app.InstanceID, e.appManager.Name(), world)
}

// Unwear detaches app, drops it in front of the player and hands it back
// to the world, or destroys it.
func (e *Entity) Unwear(app *apps.App, destroy bool) {
	if e.kind == KindRemote {
		log.Warn("Ignoring unwear of app %s on remote player %s", app.InstanceID, e.playerID)
		return
	}
	h := e.avatarHeight()
	app.Position = e.Position.Add(e.Quaternion.Rotate(mgl64.Vec3{0, -h + 0.5, -0.5}))
	app.Quaternion = mgl64.QuatIdent()
	app.Scale = mgl64.Vec3{1, 1, 1}
	e.setPhysicsEnabled(app, true)

	if i, action := e.wearActionFor(app); i != -1 {
		e.RemoveActionIndex(i)
		if e.appManager.GetAppByInstanceID(app.InstanceID) == app {
			switch {
			case destroy:
				e.appManager.RemoveApp(app)
				app.Destroy()
			case e.world != nil:
				e.appManager.TransplantApp(app, e.world)
			default:
				log.Warn("Player %s has no world to return app %s to", e.playerID, app.InstanceID)
			}
		} else {
			log.Warn("App %s is not owned by %s", app.InstanceID, e.appManager.Name())
		}
		e.emitWear(app, false, action.LoadoutIndex())
	}

	e.emitWear(app, false, AutoLoadoutIndex)

	for i, worn := range e.wornApps {
		if worn == app {
			e.wornApps = append(e.wornApps[:i], e.wornApps[i+1:]...)
			break
		}
	}
}

// updateWearables tells each worn app the player moved.
func (e *Entity) updateWearables() {
	for _, app := range e.wornApps {
		app.DispatchEvent(events.Event{
			Type: EventWearUpdate,
			Data: &WearEvent{Player: e, App: app, Wear: true, LoadoutIndex: AutoLoadoutIndex},
		})
	}
}
