package player

import (
	"fmt"

	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/avatars"
	"github.com/cbodonnell/tether/pkg/config"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/events"
	"github.com/cbodonnell/tether/pkg/physics"
	"github.com/cbodonnell/tether/pkg/queue"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Kind selects which side of the replicated state an entity is on.
type Kind int

const (
	// KindLocal owns its player map and writes to it.
	KindLocal Kind = iota
	// KindRemote follows a player map written by a peer.
	KindRemote
	// KindStatic has no replicated state at all.
	KindStatic
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindRemote:
		return "remote"
	case KindStatic:
		return "static"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	EventAvatarChange = "avatarchange"
	EventAvatarUpdate = "avatarupdate"
	EventWearUpdate   = "wearupdate"
	EventGrabUpdate   = "grabupdate"
)

// AvatarEvent is the payload of avatarchange and avatarupdate events.
type AvatarEvent struct {
	Player *Entity
	App    *apps.App
	Avatar *avatars.Avatar
}

// WearEvent is the payload of wearupdate events. LoadoutIndex is -1 on
// the trailing event every wear and unwear emits.
type WearEvent struct {
	Player       *Entity
	App          *apps.App
	Wear         bool
	LoadoutIndex int
}

// GrabEvent is dispatched on an app when it is grabbed or released.
type GrabEvent struct {
	Player *Entity
	App    *apps.App
	Grab   bool
}

// Entity is a player: an action ledger, an avatar binding, worn and
// grabbed apps, and for networked players a slot in the players array.
type Entity struct {
	events.Emitter

	kind     Kind
	playerID string
	tuning   config.Tuning

	Position   mgl64.Vec3
	Quaternion mgl64.Quat
	Scale      mgl64.Vec3
	// Velocity is the input velocity applied by UpdatePhysics, in meters per second.
	Velocity mgl64.Vec3
	// Hands holds the right and left hand, in that order.
	Hands [2]Hand

	ledger          ledger
	attachment      StateAttachment
	playersArray    *document.Array
	playerMap       *document.Map
	unbindFns       []func()
	observedActions []Action
	unobserveChild  map[string]func()

	interpolation interpolation

	appManager *apps.Manager
	world      *apps.Manager
	physics    physics.Physics
	controller *physics.CharacterController
	binding    *avatars.Binding

	avatarEpoch      uint64
	wornApps         []*apps.App
	verticalVelocity float64
	grounded         bool
	spawnPosition    mgl64.Vec3
	spawnQuaternion  mgl64.Quat
	remoteTimeDiff   float64

	posable Posable
	viewer  Viewer

	voice VoiceSource
	audio *Analyser

	destroyed bool
}

type NewPlayerOptions struct {
	// PlayerID identifies the player across replicas. A random id is used when empty.
	PlayerID string
	// Tuning defaults to config.Default() when nil.
	Tuning *config.Tuning
	// AppManager owns the player's apps. When nil one is created from
	// Loader, Tasks and Registry.
	AppManager *apps.Manager
	Loader     apps.Loader
	Tasks      *queue.TaskQueue
	Registry   *apps.Registry
	// World is the shared app manager apps are transplanted from and returned to.
	World   *apps.Manager
	Physics physics.Physics
	Posable Posable
	Viewer  Viewer
}

func newEntity(kind Kind, opts *NewPlayerOptions) *Entity {
	if opts == nil {
		opts = &NewPlayerOptions{}
	}
	tuning := config.Default()
	if opts.Tuning != nil {
		tuning = *opts.Tuning
	}
	playerID := opts.PlayerID
	if playerID == "" {
		playerID = uuid.NewString()
	}
	appManager := opts.AppManager
	if appManager == nil {
		appManager = apps.NewManager(&apps.NewManagerOptions{
			Name:     fmt.Sprintf("player:%s", playerID),
			Loader:   opts.Loader,
			Tasks:    opts.Tasks,
			Registry: opts.Registry,
		})
	}
	e := &Entity{
		kind:            kind,
		playerID:        playerID,
		tuning:          tuning,
		Quaternion:      mgl64.QuatIdent(),
		Scale:           mgl64.Vec3{1, 1, 1},
		Hands:           [2]Hand{{Quaternion: mgl64.QuatIdent()}, {Quaternion: mgl64.QuatIdent()}},
		unobserveChild:  make(map[string]func()),
		appManager:      appManager,
		world:           opts.World,
		physics:         opts.Physics,
		binding:         avatars.NewBinding(),
		spawnQuaternion: mgl64.QuatIdent(),
		posable:         opts.Posable,
		viewer:          opts.Viewer,
	}
	return e
}

func (e *Entity) Kind() Kind {
	return e.kind
}

func (e *Entity) PlayerID() string {
	return e.playerID
}

func (e *Entity) Tuning() config.Tuning {
	return e.tuning
}

func (e *Entity) AppManager() *apps.Manager {
	return e.appManager
}

// PlayerMap returns the bound player map, or nil.
func (e *Entity) PlayerMap() *document.Map {
	return e.playerMap
}

func (e *Entity) PlayersArray() *document.Array {
	return e.playersArray
}

// Avatar returns the bound avatar, or nil.
func (e *Entity) Avatar() *avatars.Avatar {
	return e.binding.Avatar()
}

// AvatarState reports where avatar resolution currently stands.
func (e *Entity) AvatarState() avatars.State {
	return e.binding.State()
}

// GetAvatarApp returns the app backing the bound avatar, or nil.
func (e *Entity) GetAvatarApp() *apps.App {
	if a := e.binding.Avatar(); a != nil {
		return a.App
	}
	return nil
}

// Controller returns the character capsule, or nil.
func (e *Entity) Controller() *physics.CharacterController {
	return e.controller
}

// WornApps returns the apps currently worn.
func (e *Entity) WornApps() []*apps.App {
	return append([]*apps.App(nil), e.wornApps...)
}

func (e *Entity) avatarHeight() float64 {
	if a := e.binding.Avatar(); a != nil {
		return a.Height
	}
	return 0
}

func (e *Entity) transact(origin string, fn func()) {
	if e.playerMap != nil {
		e.playerMap.Doc().Transact(origin, fn)
		return
	}
	fn()
}

// findApp looks an app up in the player's own manager, then the world.
func (e *Entity) findApp(instanceID string) *apps.App {
	if app := e.appManager.GetAppByInstanceID(instanceID); app != nil {
		return app
	}
	if e.world != nil {
		return e.world.GetAppByInstanceID(instanceID)
	}
	return nil
}

func (e *Entity) setPhysicsEnabled(app *apps.App, enabled bool) {
	if e.physics == nil {
		return
	}
	for _, id := range app.PhysicsObjects() {
		if enabled {
			e.physics.EnableGeometryQueries(id)
			e.physics.EnableGeometry(id)
		} else {
			e.physics.DisableGeometryQueries(id)
			e.physics.DisableGeometry(id)
		}
	}
}
