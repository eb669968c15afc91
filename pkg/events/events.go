package events

import "sync"

// Event is dispatched to the listeners registered for its Type.
type Event struct {
	Type string
	Data interface{}
}

type Handler func(event Event)

type listener struct {
	id      uint64
	handler Handler
}

// Emitter is a synchronous event target. Listeners run on the
// dispatching goroutine in registration order.
type Emitter struct {
	lock      sync.Mutex
	nextID    uint64
	listeners map[string][]listener
}

// AddEventListener registers a handler and returns a function that removes it.
func (e *Emitter) AddEventListener(eventType string, handler Handler) func() {
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string][]listener)
	}
	e.nextID++
	id := e.nextID
	e.listeners[eventType] = append(e.listeners[eventType], listener{id: id, handler: handler})

	return func() {
		e.removeListener(eventType, id)
	}
}

func (e *Emitter) removeListener(eventType string, id uint64) {
	e.lock.Lock()
	defer e.lock.Unlock()
	ls := e.listeners[eventType]
	for i, l := range ls {
		if l.id == id {
			e.listeners[eventType] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// DispatchEvent calls every handler registered for the event type.
func (e *Emitter) DispatchEvent(event Event) {
	e.lock.Lock()
	ls := append([]listener(nil), e.listeners[event.Type]...)
	e.lock.Unlock()

	for _, l := range ls {
		l.handler(event)
	}
}

// ListenerCount returns the number of handlers registered for the event type.
func (e *Emitter) ListenerCount(eventType string) int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return len(e.listeners[eventType])
}
