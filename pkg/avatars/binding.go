package avatars

import (
	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/log"
)

type State int

const (
	StateIdle State = iota
	StateResolving
	StateBound
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateBound:
		return "bound"
	default:
		return "unknown"
	}
}

// CancelToken is handed to one avatar resolution. It stays live until
// the next resolution starts or the binding is cancelled.
type CancelToken struct {
	live bool
}

func (t *CancelToken) IsLive() bool {
	return t != nil && t.live
}

func (t *CancelToken) Cancel() {
	if t != nil {
		t.live = false
	}
}

// Pools are the app managers searched for an avatar app.
type Pools struct {
	// Local is the player's own manager. Avatars found elsewhere are moved into it.
	Local *apps.Manager
	// World is the shared world manager. Optional.
	World *apps.Manager
}

// BindFunc receives the resolved avatar and its app, or nils when cleared.
type BindFunc func(avatar *Avatar, app *apps.App)

// Binding resolves an avatar instance id to an app, discarding results
// that arrive after a newer request.
type Binding struct {
	state      State
	instanceID string
	epoch      uint64
	avatar     *Avatar
	token      *CancelToken
}

func NewBinding() *Binding {
	return &Binding{}
}

func (b *Binding) State() State {
	return b.state
}

func (b *Binding) Avatar() *Avatar {
	return b.avatar
}

func (b *Binding) InstanceID() string {
	return b.instanceID
}

func (b *Binding) Epoch() uint64 {
	return b.epoch
}

// Cancel invalidates any in-flight resolution.
func (b *Binding) Cancel() {
	b.token.Cancel()
	b.token = nil
	if b.state == StateResolving {
		b.settle()
	}
}

// Sync resolves instanceID against pools and calls onBind with the result.
// An empty instanceID clears the avatar. When resolution fails the previous
// avatar stays bound.
func (b *Binding) Sync(instanceID string, pools Pools, onBind BindFunc) {
	b.token.Cancel()
	token := &CancelToken{live: true}
	b.token = token
	b.epoch++
	epoch := b.epoch
	b.instanceID = instanceID

	if instanceID == "" {
		b.release(pools, nil)
		b.bind(nil, onBind)
		return
	}

	if pools.Local != nil {
		if app := pools.Local.GetAppByInstanceID(instanceID); app != nil {
			b.release(pools, app)
			b.bind(app, onBind)
			return
		}
	}
	if pools.World != nil && pools.Local != nil {
		if app := pools.World.GetAppByInstanceID(instanceID); app != nil {
			b.release(pools, app)
			pools.World.TransplantApp(app, pools.Local)
			b.bind(app, onBind)
			return
		}
	}
	if pools.Local != nil {
		if p := pools.Local.PendingAdd(instanceID); p != nil {
			b.state = StateResolving
			p.OnResolve(func(app *apps.App, err error) {
				if !token.IsLive() || epoch != b.epoch {
					log.Trace("Discarding stale avatar %s for epoch %d", instanceID, epoch)
					return
				}
				if err != nil {
					log.Warn("Failed to resolve avatar %s: %v", instanceID, err)
					b.settle()
					return
				}
				b.release(pools, app)
				b.bind(app, onBind)
			})
			return
		}
	}

	log.Warn("Avatar app %s is not tracked by any app manager", instanceID)
	b.settle()
}

// Bind sets the avatar app directly, bypassing resolution.
func (b *Binding) Bind(app *apps.App, onBind BindFunc) {
	b.token.Cancel()
	b.token = nil
	b.epoch++
	if app != nil {
		b.instanceID = app.InstanceID
	} else {
		b.instanceID = ""
	}
	b.bind(app, onBind)
}

func (b *Binding) bind(app *apps.App, onBind BindFunc) {
	b.avatar = Switch(b.avatar, app)
	if app == nil {
		b.state = StateIdle
	} else {
		b.state = StateBound
	}
	if onBind != nil {
		onBind(b.avatar, app)
	}
}

// release hands the current avatar app back to whoever else tracks it
// before next replaces it.
func (b *Binding) release(pools Pools, next *apps.App) {
	if b.avatar == nil || b.avatar.App == next || pools.Local == nil {
		return
	}
	if owner := pools.Local.GetPeerOwnerManager(b.avatar.App); owner != nil {
		pools.Local.TransplantApp(b.avatar.App, owner)
	}
}

// settle leaves the binding on whatever avatar it already holds.
func (b *Binding) settle() {
	if b.avatar != nil {
		b.state = StateBound
	} else {
		b.state = StateIdle
	}
}
