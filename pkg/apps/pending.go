package apps

import "errors"

var ErrCancelled = errors.New("app load cancelled")

// Pending is an in-flight app load.
type Pending struct {
	InstanceID string

	done      bool
	app       *App
	err       error
	callbacks []func(*App, error)
}

func newPending(instanceID string) *Pending {
	return &Pending{InstanceID: instanceID}
}

// OnResolve calls fn when the load completes, or immediately if it already has.
func (p *Pending) OnResolve(fn func(*App, error)) {
	if p.done {
		fn(p.app, p.err)
		return
	}
	p.callbacks = append(p.callbacks, fn)
}

func (p *Pending) Done() bool {
	return p.done
}

func (p *Pending) App() *App {
	return p.app
}

func (p *Pending) Err() error {
	return p.err
}

func (p *Pending) resolve(app *App, err error) {
	if p.done {
		return
	}
	p.done = true
	p.app = app
	p.err = err
	callbacks := p.callbacks
	p.callbacks = nil
	for _, fn := range callbacks {
		fn(app, err)
	}
}
