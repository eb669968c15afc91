package apps

import (
	"github.com/cbodonnell/tether/pkg/events"
	"github.com/cbodonnell/tether/pkg/physics"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	ComponentHeight = "height"
	ComponentWear   = "wear"
	ComponentSit    = "sit"
	ComponentPet    = "pet"
)

// App is a loaded piece of content placed in the world or owned by a player.
type App struct {
	events.Emitter

	InstanceID string
	ContentURL string

	Position   mgl64.Vec3
	Quaternion mgl64.Quat
	Scale      mgl64.Vec3

	components     map[string]interface{}
	physicsObjects []physics.ID
	destroyed      bool
}

func NewApp(instanceID, contentURL string) *App {
	return &App{
		InstanceID: instanceID,
		ContentURL: contentURL,
		Quaternion: mgl64.QuatIdent(),
		Scale:      mgl64.Vec3{1, 1, 1},
		components: make(map[string]interface{}),
	}
}

func (a *App) SetComponent(key string, value interface{}) {
	a.components[key] = value
}

func (a *App) GetComponent(key string) (interface{}, bool) {
	v, ok := a.components[key]
	return v, ok
}

func (a *App) HasComponent(key string) bool {
	_, ok := a.components[key]
	return ok
}

// ComponentFloat returns a numeric component.
func (a *App) ComponentFloat(key string) (float64, bool) {
	switch v := a.components[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// Components returns a copy of the component map.
func (a *App) Components() map[string]interface{} {
	out := make(map[string]interface{}, len(a.components))
	for k, v := range a.components {
		out[k] = v
	}
	return out
}

func (a *App) AddPhysicsObject(id physics.ID) {
	a.physicsObjects = append(a.physicsObjects, id)
}

func (a *App) PhysicsObjects() []physics.ID {
	return a.physicsObjects
}

// MatrixWorld composes the app transform, column-major.
func (a *App) MatrixWorld() mgl64.Mat4 {
	return Compose(a.Position, a.Quaternion, a.Scale)
}

func (a *App) Destroy() {
	if a.destroyed {
		return
	}
	a.destroyed = true
	a.DispatchEvent(events.Event{Type: "destroy", Data: a})
}

func (a *App) Destroyed() bool {
	return a.destroyed
}

// Compose builds a transform matrix from position, rotation and scale.
func Compose(position mgl64.Vec3, quaternion mgl64.Quat, scale mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(quaternion.Normalize().Mat4()).
		Mul4(mgl64.Scale3D(scale.X(), scale.Y(), scale.Z()))
}
