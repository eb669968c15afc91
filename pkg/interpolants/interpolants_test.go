package interpolants

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestBinaryInterpolant_monotonicLag(t *testing.T) {
	const (
		tick  = 10.0
		delay = 100.0
		flipK = 10
	)
	value := false
	it := NewBinaryInterpolant(func() bool { return value }, delay, 32)

	flipTime := float64(flipK) * tick
	readTime := 0.0
	for k := 0; k < 30; k++ {
		if k == flipK {
			value = true
		}
		it.Snapshot(tick)
		it.Update(tick)
		readTime += tick

		sinceFlip := readTime - flipTime
		want := sinceFlip >= delay
		assert.Equal(t, want, it.Get(), "tick %d (%.0fms since flip)", k, sinceFlip)
	}
}

func TestSnapshotInterpolant_fewerThanTwoSamples(t *testing.T) {
	v := mgl64.Vec3{1, 2, 3}
	it := NewPositionInterpolant(func() mgl64.Vec3 { return v }, 50, 4)

	assert.Equal(t, mgl64.Vec3{1, 2, 3}, it.Get(), "initial value comes from the accessor")

	it.Update(500)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, it.Get())

	v = mgl64.Vec3{4, 5, 6}
	it.Snapshot(16)
	it.Update(500)
	assert.Equal(t, mgl64.Vec3{4, 5, 6}, it.Get(), "single sample is returned unmodified")
}

func TestPositionInterpolant_blendsStraddlingSamples(t *testing.T) {
	v := mgl64.Vec3{0, 0, 0}
	it := NewPositionInterpolant(func() mgl64.Vec3 { return v }, 50, 4)

	it.Snapshot(0)
	v = mgl64.Vec3{10, 0, 0}
	it.Snapshot(100)

	tests := []struct {
		name    string
		elapsed float64
		wantX   float64
	}{
		{name: "before oldest holds oldest", elapsed: 25, wantX: 0},
		{name: "halfway", elapsed: 75, wantX: 5},
		{name: "past newest holds newest", elapsed: 200, wantX: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it.Update(tt.elapsed)
			assert.InDelta(t, tt.wantX, it.Get().X(), 1e-9)
		})
	}
}

func TestSnapshotInterpolant_capacity(t *testing.T) {
	n := 0.0
	it := NewSnapshotInterpolant(func() float64 { return n }, 0, 3, func(a, b float64, f float64) float64 {
		return a + (b-a)*f
	})
	for i := 0; i < 10; i++ {
		n = float64(i)
		it.Snapshot(10)
	}
	assert.Equal(t, 3, it.Len())
	it.Update(0)
	assert.Equal(t, 7.0, it.Get(), "oldest retained sample")
}

func TestSlerpShortest(t *testing.T) {
	a := mgl64.QuatIdent()
	b := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	negated := b.Scale(-1)

	mid := SlerpShortest(a, b, 0.5)
	midNegated := SlerpShortest(a, negated, 0.5)

	want := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})
	assert.InDelta(t, 1, math.Abs(mid.Dot(want)), 1e-9)
	assert.InDelta(t, 1, math.Abs(midNegated.Dot(want)), 1e-9, "negated target takes the same short arc")
	assert.InDelta(t, 1, mid.Len(), 1e-9)
}

func TestActionInterpolants(t *testing.T) {
	on := true
	fn := func() bool { return on }

	t.Run("bi clamps and falls", func(t *testing.T) {
		on = true
		bi := NewBiActionInterpolant(fn, 0, 250)
		bi.Update(0)
		assert.Equal(t, 0.0, bi.GetNormalized())
		bi.Update(125)
		assert.InDelta(t, 0.5, bi.GetNormalized(), 1e-9)
		bi.Update(500)
		assert.Equal(t, 1.0, bi.GetNormalized())
		assert.Equal(t, 0.0, bi.GetInverse())

		on = false
		bi.Update(100)
		assert.InDelta(t, 150, bi.Get(), 1e-9)
		bi.Update(1000)
		assert.Equal(t, 0.0, bi.Get())
	})

	t.Run("uni resets when off", func(t *testing.T) {
		on = true
		uni := NewUniActionInterpolant(fn, 0, 750)
		uni.Update(1000)
		assert.Equal(t, 750.0, uni.Get())
		on = false
		uni.Update(1)
		assert.Equal(t, 0.0, uni.Get())
	})

	t.Run("infinite is unbounded", func(t *testing.T) {
		on = true
		inf := NewInfiniteActionInterpolant(fn, 0)
		inf.Update(1e6)
		inf.Update(1e6)
		assert.Equal(t, 2e6, inf.Get())
		assert.Equal(t, 1.0, inf.GetNormalized())
		on = false
		inf.Update(1)
		assert.Equal(t, 0.0, inf.Get())
		assert.Equal(t, 0.0, inf.GetNormalized())
	})
}
