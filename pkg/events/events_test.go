package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitter(t *testing.T) {
	e := &Emitter{}
	var got []string

	removeA := e.AddEventListener("ping", func(event Event) {
		got = append(got, "a:"+event.Data.(string))
	})
	e.AddEventListener("ping", func(event Event) {
		got = append(got, "b:"+event.Data.(string))
	})
	e.AddEventListener("other", func(event Event) {
		got = append(got, "other")
	})

	e.DispatchEvent(Event{Type: "ping", Data: "1"})
	removeA()
	e.DispatchEvent(Event{Type: "ping", Data: "2"})

	assert.Equal(t, []string{"a:1", "b:1", "b:2"}, got)
	assert.Equal(t, 1, e.ListenerCount("ping"))
}

func TestEmitter_removeDuringDispatch(t *testing.T) {
	e := &Emitter{}
	calls := 0
	var remove func()
	remove = e.AddEventListener("once", func(event Event) {
		calls++
		remove()
	})

	e.DispatchEvent(Event{Type: "once"})
	e.DispatchEvent(Event{Type: "once"})
	assert.Equal(t, 1, calls)
}
