package physics

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
)

const (
	TagSolid     = "solid"
	TagQuery     = "query"
	TagCharacter = "character"
)

type body struct {
	obj     *resolv.Object
	size    mgl64.Vec3
	center  mgl64.Vec3
	enabled bool
}

// ResolvScene projects bodies onto the XY plane of a resolv space.
// Z is carried through untouched.
type ResolvScene struct {
	mu     sync.Mutex
	space  *resolv.Space
	scale  float64
	origin mgl64.Vec2
	cell   float64
	bodies map[ID]*body
	nextID ID
}

type NewResolvSceneOptions struct {
	// Width and Height of the scene in meters
	Width  float64
	Height float64
	// UnitsPerMeter converts meters to space units
	UnitsPerMeter float64
	CellSize      int
}

func NewResolvScene(opts *NewResolvSceneOptions) *ResolvScene {
	scale := opts.UnitsPerMeter
	if scale <= 0 {
		scale = 16
	}
	cell := opts.CellSize
	if cell <= 0 {
		cell = 16
	}
	w := int(opts.Width * scale)
	h := int(opts.Height * scale)
	return &ResolvScene{
		space:  resolv.NewSpace(w, h, cell, cell),
		scale:  scale,
		origin: mgl64.Vec2{float64(w) / 2, float64(h) / 2},
		cell:   float64(cell),
		bodies: make(map[ID]*body),
	}
}

func (s *ResolvScene) toSpace(center, size mgl64.Vec3) (x, y, w, h float64) {
	w = size.X() * s.scale
	h = size.Y() * s.scale
	x = s.origin.X() + center.X()*s.scale - w/2
	y = s.origin.Y() + center.Y()*s.scale - h/2
	return
}

func (s *ResolvScene) add(center, size mgl64.Vec3, tags ...string) ID {
	x, y, w, h := s.toSpace(center, size)
	obj := resolv.NewObject(x, y, w, h, tags...)
	s.nextID++
	id := s.nextID
	obj.Data = id
	s.space.Add(obj)
	s.bodies[id] = &body{obj: obj, size: size, center: center, enabled: true}
	return id
}

// AddBox adds static level geometry centered at center.
func (s *ResolvScene) AddBox(center, size mgl64.Vec3) ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(center, size, TagSolid, TagQuery)
}

// Remove deletes a body from the scene.
func (s *ResolvScene) Remove(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bodies[id]
	if !ok {
		return
	}
	if b.enabled {
		s.space.Remove(b.obj)
	}
	delete(s.bodies, id)
}

func (s *ResolvScene) CreateCharacterController(radius, height, contactOffset, stepOffset float64, position mgl64.Vec3) *CharacterController {
	s.mu.Lock()
	defer s.mu.Unlock()
	outer := radius + contactOffset
	size := mgl64.Vec3{outer * 2, height + outer*2, outer * 2}
	id := s.add(position, size, TagCharacter, TagQuery)
	return &CharacterController{
		ID:            id,
		Radius:        radius,
		Height:        height,
		ContactOffset: contactOffset,
		StepOffset:    stepOffset,
		Position:      position,
	}
}

func (s *ResolvScene) DestroyCharacterController(c *CharacterController) {
	if c == nil {
		return
	}
	s.Remove(c.ID)
}

func (s *ResolvScene) SetCharacterControllerPosition(c *CharacterController, position mgl64.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Position = position
	b, ok := s.bodies[c.ID]
	if !ok {
		return
	}
	b.center = position
	x, y, _, _ := s.toSpace(position, b.size)
	b.obj.Position.X = x
	b.obj.Position.Y = y
	b.obj.Update()
}

// MoveCharacterController slides the controller along each axis in turn,
// stopping at solid geometry. Long moves are split into steps no larger
// than the body or a grid cell so thin geometry is never stepped over.
func (s *ResolvScene) MoveCharacterController(c *CharacterController, displacement mgl64.Vec3) MoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bodies[c.ID]
	if !ok {
		c.Position = c.Position.Add(displacement)
		return MoveResult{}
	}
	result := MoveResult{}
	dx := displacement.X() * s.scale
	dy := displacement.Y() * s.scale

	steps := 1
	if b.enabled {
		steps = s.stepsFor(b.obj, dx, dy)
	}
	sx, sy := dx/float64(steps), dy/float64(steps)
	var movedX, movedY float64
	for i := 0; i < steps && (sx != 0 || sy != 0); i++ {
		if b.enabled && sx != 0 {
			if collision := b.obj.Check(sx, 0, TagSolid); collision != nil {
				if d, hit := blockingContact(b.obj, collision, sx, true); hit {
					b.obj.Position.X += d
					b.obj.Update()
					movedX += d
					sx = 0
					result.Blocked = true
				}
			}
		}
		if sx != 0 {
			b.obj.Position.X += sx
			b.obj.Update()
			movedX += sx
		}
		if b.enabled && sy != 0 {
			if collision := b.obj.Check(0, sy, TagSolid); collision != nil {
				if d, hit := blockingContact(b.obj, collision, sy, false); hit {
					b.obj.Position.Y += d
					b.obj.Update()
					movedY += d
					sy = 0
					result.Grounded = displacement.Y() < 0
				}
			}
		}
		if sy != 0 {
			b.obj.Position.Y += sy
			b.obj.Update()
			movedY += sy
		}
	}

	b.center = mgl64.Vec3{
		b.center.X() + movedX/s.scale,
		b.center.Y() + movedY/s.scale,
		b.center.Z() + displacement.Z(),
	}
	c.Position = b.center
	return result
}

// stepsFor returns how many pieces a move of (dx, dy) space units is split into.
func (s *ResolvScene) stepsFor(obj *resolv.Object, dx, dy float64) int {
	limit := math.Min(obj.Size.X, obj.Size.Y)
	limit = math.Min(limit, s.cell)
	if limit <= 0 {
		return 1
	}
	longest := math.Max(math.Abs(dx), math.Abs(dy))
	return int(math.Max(1, math.Ceil(longest/limit)))
}

// blockingContact returns the shortest move along one axis that stops obj
// at an object of collision. Check reports everything sharing a cell, so
// objects that do not overlap on the other axis or lie behind the move
// are skipped.
func blockingContact(obj *resolv.Object, collision *resolv.Collision, d float64, horizontal bool) (float64, bool) {
	best, hit := d, false
	for _, other := range collision.Objects {
		var c float64
		if horizontal {
			if !overlaps(obj.Position.Y, obj.Size.Y, other.Position.Y, other.Size.Y) {
				continue
			}
			c = collision.ContactWithObject(other).X
		} else {
			if !overlaps(obj.Position.X, obj.Size.X, other.Position.X, other.Size.X) {
				continue
			}
			c = collision.ContactWithObject(other).Y
		}
		if d > 0 && c >= -contactEpsilon && c <= best {
			best, hit = c, true
		}
		if d < 0 && c <= contactEpsilon && c >= best {
			best, hit = c, true
		}
	}
	return best, hit
}

// contactEpsilon absorbs rounding when a body rests exactly on another.
const contactEpsilon = 1e-6

func overlaps(a, aSize, b, bSize float64) bool {
	return a < b+bSize && b < a+aSize
}

func (s *ResolvScene) setTag(id ID, tag string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bodies[id]
	if !ok {
		return
	}
	if on {
		b.obj.AddTags(tag)
	} else {
		b.obj.RemoveTags(tag)
	}
}

func (s *ResolvScene) DisableGeometryQueries(id ID) {
	s.setTag(id, TagQuery, false)
}

func (s *ResolvScene) EnableGeometryQueries(id ID) {
	s.setTag(id, TagQuery, true)
}

func (s *ResolvScene) setEnabled(id ID, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bodies[id]
	if !ok || b.enabled == enabled {
		return
	}
	if enabled {
		s.space.Add(b.obj)
	} else {
		s.space.Remove(b.obj)
	}
	b.enabled = enabled
}

func (s *ResolvScene) DisableGeometry(id ID) {
	s.setEnabled(id, false)
}

func (s *ResolvScene) EnableGeometry(id ID) {
	s.setEnabled(id, true)
}

// QueriesEnabled reports whether a body is visible to Query.
func (s *ResolvScene) QueriesEnabled(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bodies[id]
	return ok && b.enabled && b.obj.HasTags(TagQuery)
}

// GeometryEnabled reports whether a body takes part in the simulation.
func (s *ResolvScene) GeometryEnabled(id ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bodies[id]
	return ok && b.enabled
}

// Query returns the queryable bodies overlapping a box.
func (s *ResolvScene) Query(center, size mgl64.Vec3) []ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	x, y, w, h := s.toSpace(center, size)
	probe := resolv.NewObject(x, y, w, h)
	s.space.Add(probe)
	defer s.space.Remove(probe)

	var ids []ID
	if collision := probe.Check(0, 0, TagQuery); collision != nil {
		for _, obj := range collision.Objects {
			if id, ok := obj.Data.(ID); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
