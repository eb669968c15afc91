package interpolants

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BlendFunc mixes two samples. f is in [0,1).
type BlendFunc[T any] func(a, b T, f float64) T

type sample[T any] struct {
	time  float64
	value T
}

// SnapshotInterpolant buffers timestamped samples of a value and plays
// them back a fixed delay behind the newest one.
type SnapshotInterpolant[T any] struct {
	fn       func() T
	delay    float64
	capacity int
	blend    BlendFunc[T]

	samples   []sample[T]
	readTime  float64
	writeTime float64
	value     T
}

type (
	PositionInterpolant   = SnapshotInterpolant[mgl64.Vec3]
	QuaternionInterpolant = SnapshotInterpolant[mgl64.Quat]
	BinaryInterpolant     = SnapshotInterpolant[bool]
)

// NewSnapshotInterpolant creates an interpolant reading its samples from fn.
// delay is in milliseconds and capacity is the number of samples kept.
func NewSnapshotInterpolant[T any](fn func() T, delay float64, capacity int, blend BlendFunc[T]) *SnapshotInterpolant[T] {
	if capacity < 2 {
		capacity = 2
	}
	return &SnapshotInterpolant[T]{
		fn:       fn,
		delay:    delay,
		capacity: capacity,
		blend:    blend,
		samples:  make([]sample[T], 0, capacity),
		value:    fn(),
	}
}

func NewPositionInterpolant(fn func() mgl64.Vec3, delay float64, capacity int) *PositionInterpolant {
	return NewSnapshotInterpolant(fn, delay, capacity, LerpVec3)
}

func NewQuaternionInterpolant(fn func() mgl64.Quat, delay float64, capacity int) *QuaternionInterpolant {
	return NewSnapshotInterpolant(fn, delay, capacity, SlerpShortest)
}

func NewBinaryInterpolant(fn func() bool, delay float64, capacity int) *BinaryInterpolant {
	return NewSnapshotInterpolant(fn, delay, capacity, Step)
}

// Snapshot records the current value of fn. remoteDt is the time in
// milliseconds the sender reported since its previous sample.
func (s *SnapshotInterpolant[T]) Snapshot(remoteDt float64) {
	v := s.fn()
	if len(s.samples) == 0 {
		s.writeTime = 0
		s.readTime = 0
	} else {
		s.writeTime += remoteDt
	}
	if len(s.samples) == s.capacity {
		copy(s.samples, s.samples[1:])
		s.samples = s.samples[:len(s.samples)-1]
	}
	s.samples = append(s.samples, sample[T]{time: s.writeTime, value: v})
}

// Update advances the read clock by elapsed milliseconds and recomputes
// the delayed value.
func (s *SnapshotInterpolant[T]) Update(elapsed float64) {
	s.readTime += elapsed

	n := len(s.samples)
	switch {
	case n == 0:
		return
	case n == 1:
		s.value = s.samples[0].value
		return
	}

	target := s.readTime - s.delay
	if target <= s.samples[0].time {
		s.value = s.samples[0].value
		return
	}
	last := s.samples[n-1]
	if target >= last.time {
		s.value = last.value
		return
	}
	for i := n - 2; i >= 0; i-- {
		a := s.samples[i]
		if a.time > target {
			continue
		}
		b := s.samples[i+1]
		span := b.time - a.time
		if span <= 0 {
			s.value = b.value
			return
		}
		s.value = s.blend(a.value, b.value, (target-a.time)/span)
		return
	}
}

// Get returns the current delayed value.
func (s *SnapshotInterpolant[T]) Get() T {
	return s.value
}

// Len returns the number of buffered samples.
func (s *SnapshotInterpolant[T]) Len() int {
	return len(s.samples)
}

func LerpVec3(a, b mgl64.Vec3, f float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(f))
}

// SlerpShortest blends along the shorter arc between a and b.
func SlerpShortest(a, b mgl64.Quat, f float64) mgl64.Quat {
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return mgl64.QuatSlerp(a, b, f).Normalize()
}

// Step holds a until the next sample is reached.
func Step(a, b bool, f float64) bool {
	if f >= 1 {
		return b
	}
	return a
}
