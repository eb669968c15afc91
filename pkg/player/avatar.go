package player

import (
	"context"
	"errors"

	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/avatars"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/events"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/cbodonnell/tether/pkg/physics"
	"github.com/go-gl/mathgl/mgl64"
)

// SyncAvatar resolves the avatar instance id recorded in the player map.
// Results of earlier calls that complete later are discarded.
func (e *Entity) SyncAvatar() {
	pools := avatars.Pools{Local: e.appManager, World: e.world}
	e.binding.Sync(e.GetAvatarInstanceID(), pools, e.setNextAvatarApp)
}

func (e *Entity) syncAvatarIfChanged() {
	id := e.GetAvatarInstanceID()
	if id != e.binding.InstanceID() || e.avatarUnresolved(id) {
		e.SyncAvatar()
	}
}

// avatarUnresolved reports whether a past request for id failed and the
// binding fell back to idle or the previous avatar.
func (e *Entity) avatarUnresolved(id string) bool {
	if id == "" || e.binding.State() == avatars.StateResolving {
		return false
	}
	avatar := e.binding.Avatar()
	return avatar == nil || avatar.App.InstanceID != id
}

func (e *Entity) setNextAvatarApp(avatar *avatars.Avatar, app *apps.App) {
	e.DispatchEvent(events.Event{Type: EventAvatarChange, Data: &AvatarEvent{Player: e, App: app, Avatar: avatar}})
	e.loadCharacterController()
	e.DispatchEvent(events.Event{Type: EventAvatarUpdate, Data: &AvatarEvent{Player: e, App: app, Avatar: avatar}})
}

// loadCharacterController replaces the capsule with one sized for the
// current avatar. The new capsule starts hidden from queries.
func (e *Entity) loadCharacterController() {
	if e.physics == nil {
		return
	}
	if e.controller != nil {
		e.physics.DestroyCharacterController(e.controller)
		e.controller = nil
	}
	h := e.avatarHeight()
	if h <= 0 {
		h = constants.DefaultAvatarHeight
	}
	e.controller = physics.CreateCapsule(e.physics, h, e.Position)
	e.physics.DisableGeometryQueries(e.controller.ID)
}

func (e *Entity) destroyCharacterController() {
	if e.physics != nil && e.controller != nil {
		e.physics.DestroyCharacterController(e.controller)
	}
	e.controller = nil
}

// controllerPosition is where the capsule sits for a player at position.
func (e *Entity) controllerPosition(position mgl64.Vec3) mgl64.Vec3 {
	h := e.avatarHeight()
	if h <= 0 {
		h = constants.DefaultAvatarHeight
	}
	return position.Sub(mgl64.Vec3{0, h / 2, 0})
}

// SetAvatarURL loads contentURL as a tracked app and makes it the avatar.
// A load that completes after a newer call is removed again.
func (e *Entity) SetAvatarURL(ctx context.Context, contentURL string) *apps.Pending {
	if e.kind != KindLocal {
		log.Warn("Ignoring setAvatarUrl on %s player %s", e.kind, e.playerID)
		return nil
	}
	e.avatarEpoch++
	epoch := e.avatarEpoch
	p := e.appManager.AddTrackedApp(ctx, contentURL)
	p.OnResolve(func(app *apps.App, err error) {
		if err != nil {
			if !errors.Is(err, apps.ErrCancelled) {
				log.Warn("Failed to load avatar %s for player %s: %v", contentURL, e.playerID, err)
			}
			return
		}
		if epoch != e.avatarEpoch {
			log.Trace("Discarding avatar %s loaded for stale epoch %d", app.InstanceID, epoch)
			e.appManager.RemoveTrackedApp(app.InstanceID)
			return
		}
		e.SetAvatarApp(app)
	})
	return p
}

// SetAvatarApp makes app the avatar. Local players record the swap in
// their player map and drop the previous avatar app in the same
// transaction. Static players bind the app directly.
func (e *Entity) SetAvatarApp(app *apps.App) {
	switch e.kind {
	case KindStatic:
		e.binding.Bind(app, e.setNextAvatarApp)
	case KindLocal:
		if e.playerMap == nil {
			log.Warn("Player %s cannot set an avatar while unbound", e.playerID)
			return
		}
		e.transact(document.LocalOrigin, func() {
			avatar := e.avatarMap(true)
			old, _ := avatar.GetString(constants.InstanceIDKey)
			if app == nil {
				avatar.Delete(constants.InstanceIDKey)
			} else {
				avatar.Set(constants.InstanceIDKey, app.InstanceID)
			}
			if old != "" && (app == nil || old != app.InstanceID) {
				e.appManager.RemoveTrackedApp(old)
			}
		})
	default:
		log.Warn("Ignoring setAvatarApp on remote player %s", e.playerID)
	}
}
