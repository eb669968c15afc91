package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cbodonnell/tether/pkg/log"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	// LocalOrigin tags implicit transactions started by a write outside Transact
	LocalOrigin = "local"
	// RemoteOrigin tags transactions applying updates received from peers
	RemoteOrigin = "remote"

	rootPrefix = "root:"
)

// Doc is an observable tree of maps and arrays that can be replicated
// by exchanging Updates. A Doc is not safe for concurrent use.
type Doc struct {
	clientID string
	clock    uint64

	roots map[string]node
	types map[string]node

	txn        *transaction
	committing int
	deferred   []func()

	updateListeners []updateListener
	nextListenerID  uint64
}

type updateListener struct {
	id uint64
	fn func(*Update)
}

type node interface {
	typeID() string
	setDoc(d *Doc, id string)
	children() []node
	fire(c *change, origin string)
}

// NewDoc creates an empty document. An empty clientID is replaced by a random one.
func NewDoc(clientID string) *Doc {
	if clientID == "" {
		clientID = uuid.NewString()
	}
	return &Doc{
		clientID: clientID,
		roots:    make(map[string]node),
		types:    make(map[string]node),
	}
}

func (d *Doc) ClientID() string {
	return d.clientID
}

// GetArray returns the root array with the given name, creating it if needed.
func (d *Doc) GetArray(name string) *Array {
	if r, ok := d.roots[name].(*Array); ok {
		return r
	}
	a := NewArray()
	d.register(a, rootPrefix+name)
	d.roots[name] = a
	return a
}

// GetMap returns the root map with the given name, creating it if needed.
func (d *Doc) GetMap(name string) *Map {
	if r, ok := d.roots[name].(*Map); ok {
		return r
	}
	m := NewMap()
	d.register(m, rootPrefix+name)
	d.roots[name] = m
	return m
}

// Transact runs fn as a single transaction. Nested calls join the
// outermost transaction. Observers run once after fn returns, followed
// by update listeners and then any tasks queued with Defer.
func (d *Doc) Transact(origin string, fn func()) {
	if d == nil || d.txn != nil {
		fn()
		return
	}
	tx := &transaction{
		origin: origin,
		byType: make(map[node]*change),
	}
	d.txn = tx
	func() {
		defer func() { d.txn = nil }()
		fn()
	}()
	d.commit(tx)
}

// Defer schedules fn to run once the current transaction and its
// observers have completed. Outside a transaction fn runs immediately.
func (d *Doc) Defer(fn func()) {
	if d.txn == nil && d.committing == 0 {
		fn()
		return
	}
	d.deferred = append(d.deferred, fn)
}

// OnUpdate registers fn to receive every locally originated update.
func (d *Doc) OnUpdate(fn func(*Update)) func() {
	d.nextListenerID++
	id := d.nextListenerID
	d.updateListeners = append(d.updateListeners, updateListener{id: id, fn: fn})
	return func() {
		for i, l := range d.updateListeners {
			if l.id == id {
				d.updateListeners = append(d.updateListeners[:i:i], d.updateListeners[i+1:]...)
				return
			}
		}
	}
}

func (d *Doc) commit(tx *transaction) {
	d.committing++
	for _, c := range tx.changes {
		c.target.fire(c, tx.origin)
	}
	if len(tx.ops) > 0 && tx.origin != RemoteOrigin {
		u := &Update{
			ID:       ulid.Make().String(),
			ClientID: d.clientID,
			Origin:   tx.origin,
			Ops:      tx.ops,
		}
		listeners := append([]updateListener(nil), d.updateListeners...)
		for _, l := range listeners {
			l.fn(u)
		}
	}
	d.committing--
	if d.committing == 0 {
		for len(d.deferred) > 0 {
			fn := d.deferred[0]
			d.deferred = d.deferred[1:]
			fn()
		}
	}
}

// mutate runs fn inside the current transaction, opening an implicit one if needed.
func (d *Doc) mutate(fn func(tx *transaction)) {
	if d.txn != nil {
		fn(d.txn)
		return
	}
	d.Transact(LocalOrigin, func() {
		fn(d.txn)
	})
}

func (d *Doc) nextID() string {
	d.clock++
	return fmt.Sprintf("%s:%d", d.clientID, d.clock)
}

func (d *Doc) register(n node, id string) {
	n.setDoc(d, id)
	d.types[id] = n
}

// integrate attaches a standalone type and everything nested in it.
func (d *Doc) integrate(n node) {
	id := n.typeID()
	if id == "" {
		id = d.nextID()
	}
	d.register(n, id)
	if a, ok := n.(*Array); ok {
		for i := range a.items {
			if a.items[i].id == "" {
				a.items[i].id = d.nextID()
			}
		}
	}
	for _, child := range n.children() {
		d.integrate(child)
	}
}

func (d *Doc) unregister(n node) {
	delete(d.types, n.typeID())
	for _, child := range n.children() {
		d.unregister(child)
	}
}

// resolve finds the target of an op, creating root types on first use.
func (d *Doc) resolve(op Op) (node, error) {
	if n, ok := d.types[op.Target]; ok {
		return n, nil
	}
	if name, ok := strings.CutPrefix(op.Target, rootPrefix); ok {
		switch op.Kind {
		case OpPush, OpRemove:
			return d.GetArray(name), nil
		default:
			return d.GetMap(name), nil
		}
	}
	return nil, fmt.Errorf("unknown type %s", op.Target)
}

// ApplyUpdate applies a peer update under RemoteOrigin. Updates created
// by this document are ignored.
func (d *Doc) ApplyUpdate(u *Update) {
	if u == nil || u.ClientID == d.clientID {
		return
	}
	d.Transact(RemoteOrigin, func() {
		for _, op := range u.Ops {
			if err := d.applyOp(d.txn, op); err != nil {
				log.Debug("Skipping op %s from %s in update %s: %v", op.Kind, u.ClientID, u.ID, err)
			}
		}
	})
}

// ApplyUpdateBytes decodes and applies an encoded update.
func (d *Doc) ApplyUpdateBytes(b []byte) error {
	u, err := DecodeUpdate(b)
	if err != nil {
		return fmt.Errorf("failed to decode update: %v", err)
	}
	d.ApplyUpdate(u)
	return nil
}

func (d *Doc) applyOp(tx *transaction, op Op) error {
	target, err := d.resolve(op)
	if err != nil {
		return err
	}
	switch t := target.(type) {
	case *Map:
		switch op.Kind {
		case OpSet:
			if op.Value == nil {
				return fmt.Errorf("set without value")
			}
			t.set(tx, op.Key, d.decodeContent(*op.Value))
		case OpDelete:
			t.delete(tx, op.Key)
		default:
			return fmt.Errorf("op %s not supported on map", op.Kind)
		}
	case *Array:
		switch op.Kind {
		case OpPush:
			for _, it := range op.Items {
				if t.indexOfID(it.ID) != -1 {
					continue
				}
				t.insert(tx, it.ID, d.decodeContent(it.Content))
			}
		case OpRemove:
			t.removeIDs(tx, op.IDs)
		default:
			return fmt.Errorf("op %s not supported on array", op.Kind)
		}
	}
	return nil
}

// EncodeState returns an update that rebuilds the whole document on an empty replica.
func (d *Doc) EncodeState() *Update {
	u := &Update{
		ID:       ulid.Make().String(),
		ClientID: d.clientID,
		Origin:   "state",
	}
	names := make([]string, 0, len(d.roots))
	for name := range d.roots {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch r := d.roots[name].(type) {
		case *Array:
			if len(r.items) == 0 {
				continue
			}
			u.Ops = append(u.Ops, Op{Kind: OpPush, Target: r.id, Items: r.encodeItems(r.items)})
		case *Map:
			for _, key := range r.Keys() {
				c := encodeContent(r.entries[key])
				u.Ops = append(u.Ops, Op{Kind: OpSet, Target: r.id, Key: key, Value: &c})
			}
		}
	}
	return u
}

type transaction struct {
	origin  string
	ops     []Op
	changes []*change
	byType  map[node]*change
}

func (tx *transaction) record(op Op) {
	if tx.origin == RemoteOrigin {
		return
	}
	tx.ops = append(tx.ops, op)
}

func (tx *transaction) changeFor(n node) *change {
	c, ok := tx.byType[n]
	if !ok {
		c = &change{target: n, keys: make(map[string]keyState)}
		tx.byType[n] = c
		tx.changes = append(tx.changes, c)
	}
	return c
}

type keyState struct {
	existed bool
	old     interface{}
}

type change struct {
	target   node
	keys     map[string]keyState
	keyOrder []string
	added    []interface{}
	removed  []interface{}
}

func (c *change) touchKey(key string, existed bool, old interface{}) {
	if _, ok := c.keys[key]; ok {
		return
	}
	c.keys[key] = keyState{existed: existed, old: old}
	c.keyOrder = append(c.keyOrder, key)
}
