package document

// ArrayEvent is delivered to Array observers once per transaction.
type ArrayEvent struct {
	Target  *Array
	Added   []interface{}
	Removed []interface{}
	Origin  string
}

// Local reports whether the transaction was not applied from a peer.
func (e *ArrayEvent) Local() bool {
	return e.Origin != RemoteOrigin
}

type arrayObserver struct {
	id uint64
	fn func(*ArrayEvent)
}

type item struct {
	id    string
	value interface{}
}

// Array is an ordered list of values and nested types. Each element has
// a stable id so removals replicate independently of index.
type Array struct {
	doc   *Doc
	id    string
	items []item

	observers      []arrayObserver
	nextObserverID uint64
}

// NewArray creates a standalone array.
func NewArray() *Array {
	return &Array{}
}

func (a *Array) typeID() string { return a.id }

func (a *Array) setDoc(d *Doc, id string) {
	a.doc = d
	a.id = id
}

func (a *Array) children() []node {
	var out []node
	for _, it := range a.items {
		if n, ok := it.value.(node); ok {
			out = append(out, n)
		}
	}
	return out
}

func (a *Array) Doc() *Doc {
	return a.doc
}

func (a *Array) ID() string {
	return a.id
}

func (a *Array) Len() int {
	return len(a.items)
}

// Get returns the element at index, or nil when out of range.
func (a *Array) Get(index int) interface{} {
	if index < 0 || index >= len(a.items) {
		return nil
	}
	return a.items[index].value
}

func (a *Array) GetMap(index int) (*Map, bool) {
	m, ok := a.Get(index).(*Map)
	return m, ok
}

// ToSlice returns the elements in order. Nested types are returned as is.
func (a *Array) ToSlice() []interface{} {
	out := make([]interface{}, len(a.items))
	for i, it := range a.items {
		out[i] = it.value
	}
	return out
}

// ToJSON returns a deep copy of the array as plain Go values.
func (a *Array) ToJSON() []interface{} {
	out := make([]interface{}, len(a.items))
	for i, it := range a.items {
		out[i] = toJSON(it.value)
	}
	return out
}

// Push appends values to the end of the array.
func (a *Array) Push(values ...interface{}) {
	if len(values) == 0 {
		return
	}
	if a.doc == nil {
		for _, v := range values {
			a.items = append(a.items, item{value: normalize(v)})
		}
		return
	}
	a.doc.mutate(func(tx *transaction) {
		added := make([]item, 0, len(values))
		for _, v := range values {
			v = normalize(v)
			if n, ok := v.(node); ok {
				checkStandalone(n)
				a.doc.integrate(n)
			}
			id := a.doc.nextID()
			a.insert(tx, id, v)
			added = append(added, item{id: id, value: v})
		}
		tx.record(Op{Kind: OpPush, Target: a.id, Items: a.encodeItems(added)})
	})
}

// Delete removes length elements starting at index. The range is clamped
// to the bounds of the array.
func (a *Array) Delete(index, length int) {
	if index < 0 {
		index = 0
	}
	end := index + length
	if end > len(a.items) {
		end = len(a.items)
	}
	if index >= end {
		return
	}
	if a.doc == nil {
		a.items = append(a.items[:index], a.items[end:]...)
		return
	}
	ids := make([]string, 0, end-index)
	for _, it := range a.items[index:end] {
		ids = append(ids, it.id)
	}
	a.doc.mutate(func(tx *transaction) {
		a.removeIDs(tx, ids)
		tx.record(Op{Kind: OpRemove, Target: a.id, IDs: ids})
	})
}

func (a *Array) indexOfID(id string) int {
	for i, it := range a.items {
		if it.id == id {
			return i
		}
	}
	return -1
}

func (a *Array) insert(tx *transaction, id string, v interface{}) {
	a.items = append(a.items, item{id: id, value: v})
	c := tx.changeFor(a)
	c.added = append(c.added, v)
}

func (a *Array) removeIDs(tx *transaction, ids []string) {
	for _, id := range ids {
		i := a.indexOfID(id)
		if i == -1 {
			continue
		}
		v := a.items[i].value
		a.items = append(a.items[:i], a.items[i+1:]...)
		if n, ok := v.(node); ok {
			a.doc.unregister(n)
		}
		c := tx.changeFor(a)
		c.removed = append(c.removed, v)
	}
}

func (a *Array) encodeItems(items []item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{ID: it.id, Content: encodeContent(it.value)}
	}
	return out
}

// Observe registers fn to be called after each transaction that changed
// this array. The returned function removes the observer.
func (a *Array) Observe(fn func(*ArrayEvent)) func() {
	a.nextObserverID++
	id := a.nextObserverID
	a.observers = append(a.observers, arrayObserver{id: id, fn: fn})
	return func() {
		for i, o := range a.observers {
			if o.id == id {
				a.observers = append(a.observers[:i:i], a.observers[i+1:]...)
				return
			}
		}
	}
}

func (a *Array) fire(c *change, origin string) {
	if len(c.added) == 0 && len(c.removed) == 0 {
		return
	}
	e := &ArrayEvent{Target: a, Added: c.added, Removed: c.removed, Origin: origin}
	observers := append([]arrayObserver(nil), a.observers...)
	for _, o := range observers {
		o.fn(e)
	}
}
