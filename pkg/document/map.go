package document

import (
	"sort"
)

const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// KeyChange describes what happened to one key of a Map in a transaction.
type KeyChange struct {
	Action   string
	OldValue interface{}
}

// MapEvent is delivered to Map observers once per transaction.
type MapEvent struct {
	Target *Map
	Keys   map[string]KeyChange
	Origin string
}

// Local reports whether the transaction was not applied from a peer.
func (e *MapEvent) Local() bool {
	return e.Origin != RemoteOrigin
}

type mapObserver struct {
	id uint64
	fn func(*MapEvent)
}

// Map is a string-keyed collection of values and nested types.
type Map struct {
	doc     *Doc
	id      string
	entries map[string]interface{}

	observers      []mapObserver
	nextObserverID uint64
}

// NewMap creates a standalone map. It becomes part of a document when it
// is set into or pushed onto an integrated type.
func NewMap() *Map {
	return &Map{entries: make(map[string]interface{})}
}

func (m *Map) typeID() string { return m.id }

func (m *Map) setDoc(d *Doc, id string) {
	m.doc = d
	m.id = id
}

func (m *Map) children() []node {
	var out []node
	for _, key := range m.Keys() {
		if n, ok := m.entries[key].(node); ok {
			out = append(out, n)
		}
	}
	return out
}

// Doc returns the owning document, or nil for a standalone map.
func (m *Map) Doc() *Doc {
	return m.doc
}

func (m *Map) ID() string {
	return m.id
}

func (m *Map) Get(key string) interface{} {
	return m.entries[key]
}

func (m *Map) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

func (m *Map) Len() int {
	return len(m.entries)
}

// Keys returns the keys in sorted order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Map) GetString(key string) (string, bool) {
	s, ok := m.entries[key].(string)
	return s, ok
}

func (m *Map) GetMap(key string) (*Map, bool) {
	v, ok := m.entries[key].(*Map)
	return v, ok
}

func (m *Map) GetArray(key string) (*Array, bool) {
	v, ok := m.entries[key].(*Array)
	return v, ok
}

// GetFloats returns a numeric list stored under key.
func (m *Map) GetFloats(key string) ([]float64, bool) {
	return toFloats(m.entries[key])
}

// Set stores value under key. Nested *Map and *Array values are
// integrated into the document.
func (m *Map) Set(key string, value interface{}) {
	v := normalize(value)
	if m.doc == nil {
		m.entries[key] = v
		return
	}
	m.doc.mutate(func(tx *transaction) {
		if n, ok := v.(node); ok {
			checkStandalone(n)
			m.doc.integrate(n)
		}
		m.set(tx, key, v)
		c := encodeContent(v)
		tx.record(Op{Kind: OpSet, Target: m.id, Key: key, Value: &c})
	})
}

// Delete removes key. Deleting a missing key is a no-op.
func (m *Map) Delete(key string) {
	if _, ok := m.entries[key]; !ok {
		return
	}
	if m.doc == nil {
		delete(m.entries, key)
		return
	}
	m.doc.mutate(func(tx *transaction) {
		m.delete(tx, key)
		tx.record(Op{Kind: OpDelete, Target: m.id, Key: key})
	})
}

func (m *Map) set(tx *transaction, key string, v interface{}) {
	old, existed := m.entries[key]
	tx.changeFor(m).touchKey(key, existed, old)
	if n, ok := old.(node); ok && old != v {
		m.doc.unregister(n)
	}
	m.entries[key] = v
}

func (m *Map) delete(tx *transaction, key string) {
	old, existed := m.entries[key]
	if !existed {
		return
	}
	tx.changeFor(m).touchKey(key, existed, old)
	if n, ok := old.(node); ok {
		m.doc.unregister(n)
	}
	delete(m.entries, key)
}

// Observe registers fn to be called after each transaction that changed
// this map. The returned function removes the observer.
func (m *Map) Observe(fn func(*MapEvent)) func() {
	m.nextObserverID++
	id := m.nextObserverID
	m.observers = append(m.observers, mapObserver{id: id, fn: fn})
	return func() {
		for i, o := range m.observers {
			if o.id == id {
				m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
				return
			}
		}
	}
}

func (m *Map) fire(c *change, origin string) {
	keys := make(map[string]KeyChange, len(c.keyOrder))
	for _, key := range c.keyOrder {
		before := c.keys[key]
		_, exists := m.entries[key]
		switch {
		case !before.existed && exists:
			keys[key] = KeyChange{Action: ActionAdd}
		case before.existed && exists:
			keys[key] = KeyChange{Action: ActionUpdate, OldValue: before.old}
		case before.existed && !exists:
			keys[key] = KeyChange{Action: ActionDelete, OldValue: before.old}
		}
	}
	if len(keys) == 0 {
		return
	}
	e := &MapEvent{Target: m, Keys: keys, Origin: origin}
	observers := append([]mapObserver(nil), m.observers...)
	for _, o := range observers {
		o.fn(e)
	}
}

// ToJSON returns a deep copy of the map as plain Go values.
func (m *Map) ToJSON() map[string]interface{} {
	out := make(map[string]interface{}, len(m.entries))
	for k, v := range m.entries {
		out[k] = toJSON(v)
	}
	return out
}
