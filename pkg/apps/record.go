package apps

import (
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/go-gl/mathgl/mgl64"
)

// Keys of an app record in a replicated apps array.
const (
	KeyInstanceID = "instanceId"
	KeyContentID  = "contentId"
	KeyPosition   = "position"
	KeyQuaternion = "quaternion"
	KeyScale      = "scale"
	KeyComponents = "components"
)

func NewRecord(instanceID, contentURL string) *document.Map {
	r := document.NewMap()
	r.Set(KeyInstanceID, instanceID)
	r.Set(KeyContentID, contentURL)
	r.Set(KeyPosition, []float64{0, 0, 0})
	r.Set(KeyQuaternion, []float64{0, 0, 0, 1})
	r.Set(KeyScale, []float64{1, 1, 1})
	r.Set(KeyComponents, map[string]interface{}{})
	return r
}

func RecordFromApp(app *App) *document.Map {
	r := document.NewMap()
	r.Set(KeyInstanceID, app.InstanceID)
	r.Set(KeyContentID, app.ContentURL)
	r.Set(KeyPosition, app.Position[:])
	q := app.Quaternion
	r.Set(KeyQuaternion, []float64{q.V.X(), q.V.Y(), q.V.Z(), q.W})
	r.Set(KeyScale, app.Scale[:])
	r.Set(KeyComponents, app.Components())
	return r
}

// RecordFromJSON builds a record from a plain object, such as one read
// from a saved snapshot.
func RecordFromJSON(v map[string]interface{}) *document.Map {
	r := document.NewMap()
	for k, e := range v {
		r.Set(k, e)
	}
	return r
}

func recordString(v interface{}, key string) string {
	switch t := v.(type) {
	case *document.Map:
		s, _ := t.GetString(key)
		return s
	case map[string]interface{}:
		s, _ := t[key].(string)
		return s
	default:
		return ""
	}
}

func RecordInstanceID(v interface{}) string {
	return recordString(v, KeyInstanceID)
}

func RecordContentID(v interface{}) string {
	return recordString(v, KeyContentID)
}

// ApplyRecordTransform copies the stored transform onto app.
func ApplyRecordTransform(app *App, r *document.Map) {
	if p, ok := r.GetFloats(KeyPosition); ok && len(p) == 3 {
		app.Position = mgl64.Vec3{p[0], p[1], p[2]}
	}
	if q, ok := r.GetFloats(KeyQuaternion); ok && len(q) == 4 {
		app.Quaternion = mgl64.Quat{W: q[3], V: mgl64.Vec3{q[0], q[1], q[2]}}
	}
	if s, ok := r.GetFloats(KeyScale); ok && len(s) == 3 {
		app.Scale = mgl64.Vec3{s[0], s[1], s[2]}
	}
	if c, ok := r.Get(KeyComponents).(map[string]interface{}); ok {
		for k, v := range c {
			if !app.HasComponent(k) {
				app.SetComponent(k, v)
			}
		}
	}
}
