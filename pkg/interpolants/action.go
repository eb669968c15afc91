package interpolants

import "math"

// ActionInterpolant turns an on/off signal into a progress value that
// advances with elapsed time.
type ActionInterpolant interface {
	Update(dt float64)
	Get() float64
	GetNormalized() float64
	GetInverse() float64
}

type scalarInterpolant struct {
	fn    func() bool
	value float64
	min   float64
	max   float64
}

func (s *scalarInterpolant) Get() float64 {
	return s.value
}

func (s *scalarInterpolant) GetNormalized() float64 {
	if s.max <= s.min {
		return 0
	}
	return (s.value - s.min) / (s.max - s.min)
}

func (s *scalarInterpolant) GetInverse() float64 {
	return s.max - s.value
}

// BiActionInterpolant rises while the signal is on and falls while it is off.
type BiActionInterpolant struct {
	scalarInterpolant
}

func NewBiActionInterpolant(fn func() bool, min, max float64) *BiActionInterpolant {
	return &BiActionInterpolant{scalarInterpolant{fn: fn, value: min, min: min, max: max}}
}

func (b *BiActionInterpolant) Update(dt float64) {
	if b.fn() {
		b.value += dt
	} else {
		b.value -= dt
	}
	b.value = math.Min(math.Max(b.value, b.min), b.max)
}

// UniActionInterpolant rises while the signal is on and snaps back when it turns off.
type UniActionInterpolant struct {
	scalarInterpolant
}

func NewUniActionInterpolant(fn func() bool, min, max float64) *UniActionInterpolant {
	return &UniActionInterpolant{scalarInterpolant{fn: fn, value: min, min: min, max: max}}
}

func (u *UniActionInterpolant) Update(dt float64) {
	if u.fn() {
		u.value = math.Min(u.value+dt, u.max)
	} else {
		u.value = u.min
	}
}

// InfiniteActionInterpolant counts time since the signal turned on, without bound.
type InfiniteActionInterpolant struct {
	scalarInterpolant
	on bool
}

func NewInfiniteActionInterpolant(fn func() bool, min float64) *InfiniteActionInterpolant {
	return &InfiniteActionInterpolant{
		scalarInterpolant: scalarInterpolant{fn: fn, value: min, min: min, max: math.Inf(1)},
	}
}

func (i *InfiniteActionInterpolant) Update(dt float64) {
	i.on = i.fn()
	if i.on {
		i.value += dt
	} else {
		i.value = i.min
	}
}

// GetNormalized is 1 while the signal is on and 0 otherwise.
func (i *InfiniteActionInterpolant) GetNormalized() float64 {
	if i.on {
		return 1
	}
	return 0
}
