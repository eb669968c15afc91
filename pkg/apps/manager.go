package apps

import (
	"context"
	"fmt"

	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/events"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/cbodonnell/tether/pkg/queue"
	"github.com/google/uuid"
)

const (
	EventAppAdd    = "appadd"
	EventAppRemove = "appremove"
)

// AppEvent is the payload of appadd and appremove events.
type AppEvent struct {
	Manager *Manager
	App     *App
}

// Manager owns a set of apps and optionally mirrors them into a
// replicated array of app records.
type Manager struct {
	events.Emitter

	name     string
	loader   Loader
	tasks    *queue.TaskQueue
	registry *Registry
	ctx      context.Context
	cancel   context.CancelFunc

	apps    []*App
	pending map[string]*Pending

	appsArray *document.Array
	writable  bool
	unobserve func()
	destroyed bool
}

type NewManagerOptions struct {
	Name   string
	Loader Loader
	// Tasks receives load completions so they run on the owner's goroutine.
	// When nil, loads run synchronously.
	Tasks    *queue.TaskQueue
	Registry *Registry
}

func NewManager(opts *NewManagerOptions) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		name:     opts.Name,
		loader:   opts.Loader,
		tasks:    opts.Tasks,
		registry: opts.Registry,
		ctx:      ctx,
		cancel:   cancel,
		pending:  make(map[string]*Pending),
	}
	if m.registry != nil {
		m.registry.Register(m)
	}
	return m
}

func (m *Manager) Name() string {
	return m.name
}

// Apps returns the loaded apps in the order they were added.
func (m *Manager) Apps() []*App {
	return append([]*App(nil), m.apps...)
}

func (m *Manager) GetAppByInstanceID(instanceID string) *App {
	for _, app := range m.apps {
		if app.InstanceID == instanceID {
			return app
		}
	}
	return nil
}

// HasTrackedApp reports whether the app is loaded or loading here.
func (m *Manager) HasTrackedApp(instanceID string) bool {
	if _, ok := m.pending[instanceID]; ok {
		return true
	}
	return m.GetAppByInstanceID(instanceID) != nil
}

// PendingAdd returns the in-flight load for instanceID, if any.
func (m *Manager) PendingAdd(instanceID string) *Pending {
	return m.pending[instanceID]
}

func (m *Manager) holds(app *App) bool {
	for _, a := range m.apps {
		if a == app {
			return true
		}
	}
	return false
}

// GetPeerOwnerManager returns the other manager currently holding app.
func (m *Manager) GetPeerOwnerManager(app *App) *Manager {
	if m.registry == nil {
		return nil
	}
	return m.registry.Owner(app, m)
}

// AddTrackedApp starts loading contentURL under a new instance id.
func (m *Manager) AddTrackedApp(ctx context.Context, contentURL string) *Pending {
	return m.AddTrackedAppWithID(ctx, contentURL, uuid.NewString())
}

func (m *Manager) AddTrackedAppWithID(ctx context.Context, contentURL string, instanceID string) *Pending {
	if p, ok := m.pending[instanceID]; ok {
		return p
	}
	if app := m.GetAppByInstanceID(instanceID); app != nil {
		p := newPending(instanceID)
		p.resolve(app, nil)
		return p
	}
	p := newPending(instanceID)
	m.pending[instanceID] = p
	if m.writable && m.recordIndex(instanceID) == -1 {
		m.appsArray.Push(NewRecord(instanceID, contentURL))
	}
	m.load(ctx, instanceID, contentURL)
	return p
}

func (m *Manager) load(ctx context.Context, instanceID, contentURL string) {
	run := func() {
		var app *App
		var err error
		if m.loader == nil {
			err = fmt.Errorf("no loader configured")
		} else {
			app, err = m.loader.Load(ctx, contentURL, instanceID)
		}
		finish := func() {
			m.finishLoad(instanceID, contentURL, app, err)
		}
		if m.tasks == nil {
			finish()
			return
		}
		if err := m.tasks.Post(finish); err != nil {
			log.Error("Failed to post load completion for app %s: %v", instanceID, err)
		}
	}
	if m.tasks == nil {
		run()
		return
	}
	go run()
}

func (m *Manager) finishLoad(instanceID, contentURL string, app *App, err error) {
	p, ok := m.pending[instanceID]
	if !ok {
		// removed while loading
		if app != nil {
			app.Destroy()
		}
		return
	}
	delete(m.pending, instanceID)
	if err != nil {
		log.Error("Failed to load app %s from %s: %v", instanceID, contentURL, err)
		p.resolve(nil, err)
		return
	}
	if m.destroyed {
		app.Destroy()
		p.resolve(nil, ErrCancelled)
		return
	}
	app.InstanceID = instanceID
	if app.ContentURL == "" {
		app.ContentURL = contentURL
	}
	if i := m.recordIndex(instanceID); i != -1 {
		if r, ok := m.appsArray.GetMap(i); ok {
			ApplyRecordTransform(app, r)
		}
	}
	m.apps = append(m.apps, app)
	log.Debug("Manager %s added app %s", m.name, instanceID)
	m.DispatchEvent(events.Event{Type: EventAppAdd, Data: &AppEvent{Manager: m, App: app}})
	p.resolve(app, nil)
}

// AddApp takes ownership of an already loaded app.
func (m *Manager) AddApp(app *App) {
	if m.holds(app) {
		return
	}
	m.apps = append(m.apps, app)
	if m.writable && m.recordIndex(app.InstanceID) == -1 {
		m.appsArray.Push(RecordFromApp(app))
	}
	m.DispatchEvent(events.Event{Type: EventAppAdd, Data: &AppEvent{Manager: m, App: app}})
}

// RemoveApp releases an app without destroying it.
func (m *Manager) RemoveApp(app *App) {
	if !m.detach(app) {
		return
	}
	m.removeRecord(app.InstanceID)
	m.DispatchEvent(events.Event{Type: EventAppRemove, Data: &AppEvent{Manager: m, App: app}})
}

// RemoveTrackedApp cancels or destroys the app with the given instance id.
func (m *Manager) RemoveTrackedApp(instanceID string) {
	if p, ok := m.pending[instanceID]; ok {
		delete(m.pending, instanceID)
		m.removeRecord(instanceID)
		p.resolve(nil, ErrCancelled)
		return
	}
	app := m.GetAppByInstanceID(instanceID)
	if app == nil {
		log.Warn("Manager %s cannot remove untracked app %s", m.name, instanceID)
		return
	}
	m.RemoveApp(app)
	app.Destroy()
}

// TransplantApp moves app from this manager to target without reloading it.
func (m *Manager) TransplantApp(app *App, target *Manager) {
	if !m.holds(app) {
		log.Warn("Manager %s cannot transplant app %s it does not own", m.name, app.InstanceID)
		return
	}
	m.RemoveApp(app)
	target.AddApp(app)
}

func (m *Manager) detach(app *App) bool {
	for i, a := range m.apps {
		if a == app {
			m.apps = append(m.apps[:i], m.apps[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Manager) recordIndex(instanceID string) int {
	if m.appsArray == nil {
		return -1
	}
	for i := 0; i < m.appsArray.Len(); i++ {
		if RecordInstanceID(m.appsArray.Get(i)) == instanceID {
			return i
		}
	}
	return -1
}

func (m *Manager) removeRecord(instanceID string) {
	if !m.writable {
		return
	}
	if i := m.recordIndex(instanceID); i != -1 {
		m.appsArray.Delete(i, 1)
	}
}

// BindStateLocal mirrors this manager into arr. Records added or removed
// by anyone else, peers included, are loaded or destroyed.
func (m *Manager) BindStateLocal(arr *document.Array) {
	m.bind(arr, true)
}

// BindStateRemote follows arr without ever writing to it.
func (m *Manager) BindStateRemote(arr *document.Array) {
	m.bind(arr, false)
}

func (m *Manager) bind(arr *document.Array, writable bool) {
	m.UnbindState()
	m.appsArray = arr
	m.writable = writable
	m.unobserve = arr.Observe(func(e *document.ArrayEvent) {
		// records this manager wrote are already tracked or already released
		for _, v := range e.Removed {
			id := RecordInstanceID(v)
			if p, ok := m.pending[id]; ok {
				delete(m.pending, id)
				p.resolve(nil, ErrCancelled)
				continue
			}
			if app := m.GetAppByInstanceID(id); app != nil {
				m.detach(app)
				m.DispatchEvent(events.Event{Type: EventAppRemove, Data: &AppEvent{Manager: m, App: app}})
				app.Destroy()
			}
		}
		for _, v := range e.Added {
			id := RecordInstanceID(v)
			if id == "" || m.HasTrackedApp(id) {
				continue
			}
			m.pending[id] = newPending(id)
			m.load(m.ctx, id, RecordContentID(v))
		}
	})
}

func (m *Manager) UnbindState() {
	if m.unobserve != nil {
		m.unobserve()
		m.unobserve = nil
	}
	m.appsArray = nil
	m.writable = false
}

// LoadApps starts loading every bound record that is not yet tracked.
func (m *Manager) LoadApps() {
	if m.appsArray == nil {
		return
	}
	for _, v := range m.appsArray.ToSlice() {
		id := RecordInstanceID(v)
		if id == "" || m.HasTrackedApp(id) {
			continue
		}
		m.pending[id] = newPending(id)
		m.load(m.ctx, id, RecordContentID(v))
	}
}

func (m *Manager) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	m.UnbindState()
	m.cancel()
	for id, p := range m.pending {
		delete(m.pending, id)
		p.resolve(nil, ErrCancelled)
	}
	for _, app := range m.apps {
		app.Destroy()
	}
	m.apps = nil
	if m.registry != nil {
		m.registry.Unregister(m)
	}
}
