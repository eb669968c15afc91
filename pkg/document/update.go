package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

type OpKind string

const (
	OpSet    OpKind = "set"
	OpDelete OpKind = "delete"
	OpPush   OpKind = "push"
	OpRemove OpKind = "remove"
)

const (
	ContentValue uint8 = iota
	ContentMap
	ContentArray
)

// Update is the unit of replication: every op committed by one transaction.
type Update struct {
	ID       string `msgpack:"id"`
	ClientID string `msgpack:"client"`
	Origin   string `msgpack:"origin"`
	Ops      []Op   `msgpack:"ops"`
}

type Op struct {
	Kind   OpKind   `msgpack:"op"`
	Target string   `msgpack:"t"`
	Key    string   `msgpack:"k,omitempty"`
	Value  *Content `msgpack:"v,omitempty"`
	Items  []Item   `msgpack:"items,omitempty"`
	IDs    []string `msgpack:"ids,omitempty"`
}

type Item struct {
	ID      string  `msgpack:"id"`
	Content Content `msgpack:"c"`
}

// Content is the wire form of a value. Nested types carry their id so
// later ops can target them.
type Content struct {
	Kind    uint8              `msgpack:"k"`
	ID      string             `msgpack:"id,omitempty"`
	Value   interface{}        `msgpack:"v"`
	Entries map[string]Content `msgpack:"e,omitempty"`
	Items   []Item             `msgpack:"i,omitempty"`
}

func EncodeUpdate(u *Update) ([]byte, error) {
	b, err := msgpack.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal update: %v", err)
	}
	return b, nil
}

func DecodeUpdate(b []byte) (*Update, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.UseLooseInterfaceDecoding(true)
	u := &Update{}
	if err := dec.Decode(u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal update: %v", err)
	}
	return u, nil
}

func encodeContent(v interface{}) Content {
	switch t := v.(type) {
	case *Map:
		c := Content{Kind: ContentMap, ID: t.id, Entries: make(map[string]Content, len(t.entries))}
		for k, e := range t.entries {
			c.Entries[k] = encodeContent(e)
		}
		return c
	case *Array:
		return Content{Kind: ContentArray, ID: t.id, Items: t.encodeItems(t.items)}
	default:
		return Content{Kind: ContentValue, Value: v}
	}
}

func (d *Doc) decodeContent(c Content) interface{} {
	switch c.Kind {
	case ContentMap:
		m := NewMap()
		d.register(m, d.contentID(c))
		for k, e := range c.Entries {
			m.entries[k] = d.decodeContent(e)
		}
		return m
	case ContentArray:
		a := NewArray()
		d.register(a, d.contentID(c))
		for _, it := range c.Items {
			id := it.ID
			if id == "" {
				id = d.nextID()
			}
			a.items = append(a.items, item{id: id, value: d.decodeContent(it.Content)})
		}
		return a
	default:
		return normalize(c.Value)
	}
}

func (d *Doc) contentID(c Content) string {
	if c.ID != "" {
		return c.ID
	}
	return d.nextID()
}

func checkStandalone(n node) {
	if n.typeID() != "" {
		panic(fmt.Sprintf("document: type %s is already part of a document", n.typeID()))
	}
}

// normalize converts values to the set the document stores: nil, bool,
// float64, string, []interface{}, map[string]interface{} and nested types.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case nil, bool, string, float64, *Map, *Array:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case []float64:
		out := make([]interface{}, len(t))
		for i, f := range t {
			out[i] = f
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = normalize(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = normalize(e)
		}
		return out
	case map[string]string:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = e
		}
		return out
	default:
		return t
	}
}

func toJSON(v interface{}) interface{} {
	switch t := v.(type) {
	case *Map:
		return t.ToJSON()
	case *Array:
		return t.ToJSON()
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = toJSON(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = toJSON(e)
		}
		return out
	default:
		return t
	}
}

func toFloats(v interface{}) ([]float64, bool) {
	switch t := v.(type) {
	case []float64:
		return t, true
	case []interface{}:
		out := make([]float64, len(t))
		for i, e := range t {
			f, ok := normalize(e).(float64)
			if !ok {
				return nil, false
			}
			out[i] = f
		}
		return out, true
	case *Array:
		return toFloats(t.ToSlice())
	default:
		return nil, false
	}
}
