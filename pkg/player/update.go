package player

import (
	"github.com/cbodonnell/tether/pkg/apps"
)

// UpdateAvatar advances interpolation by timeDiff milliseconds and poses
// the avatar. Interpolation advances even while no avatar is bound so the
// read clock keeps pace with the samples.
func (e *Entity) UpdateAvatar(timestamp, timeDiff float64) {
	e.interpolation.update(timeDiff)
	if avatar := e.binding.Avatar(); avatar != nil {
		if e.posable != nil {
			var session *Session
			var mirrors []Mirror
			if e.viewer != nil {
				mirrors = e.viewer.Mirrors()
				if e.kind == KindLocal {
					session = e.viewer.Session()
				}
			}
			e.posable.ApplyPlayerToAvatar(e, session, avatar, mirrors)
		}
	}
	if e.kind == KindLocal {
		e.updateWearables()
	}
}

// Destroy releases everything the player holds. Local players return
// worn apps to the world first.
func (e *Entity) Destroy() {
	if e.destroyed {
		return
	}
	if e.kind == KindLocal {
		for _, action := range e.GetActionsState() {
			if action.Type() != ActionWear {
				continue
			}
			app := e.appManager.GetAppByInstanceID(action.InstanceID())
			if app == nil {
				continue
			}
			if app.HasComponent(apps.ComponentWear) || app.HasComponent(apps.ComponentSit) || app.HasComponent(apps.ComponentPet) {
				e.Unwear(app, false)
			}
		}
	}
	e.destroyed = true

	e.unbindState()
	e.binding.Cancel()
	e.appManager.UnbindState()
	e.appManager.Destroy()
	e.destroyCharacterController()
	e.wornApps = nil
}

// Destroyed reports whether Destroy was called.
func (e *Entity) Destroyed() bool {
	return e.destroyed
}
