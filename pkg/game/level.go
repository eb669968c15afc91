package game

import (
	"github.com/cbodonnell/tether/pkg/physics"
	"github.com/go-gl/mathgl/mgl64"
)

// NewLevel builds a scene with a floor of the given width, in meters, whose
// top is at y=0, and a wall on each side.
func NewLevel(width, height float64) *physics.ResolvScene {
	scene := physics.NewResolvScene(&physics.NewResolvSceneOptions{
		Width:  width + 2,
		Height: height,
	})
	scene.AddBox(mgl64.Vec3{0, -0.5, 0}, mgl64.Vec3{width, 1, width})
	scene.AddBox(mgl64.Vec3{-width/2 - 0.5, height / 4, 0}, mgl64.Vec3{1, height / 2, width})
	scene.AddBox(mgl64.Vec3{width/2 + 0.5, height / 4, 0}, mgl64.Vec3{1, height / 2, width})
	return scene
}
