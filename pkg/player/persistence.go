package player

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrNotBound is returned by persistence operations on a player without a player map.
var ErrNotBound = errors.New("player is not bound to a player map")

// SnapshotSchema describes the string produced by Save.
const SnapshotSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["avatar", "apps"],
  "properties": {
    "avatar": {
      "type": "object",
      "properties": {
        "instanceId": {"type": "string"}
      }
    },
    "apps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["instanceId"],
        "properties": {
          "instanceId": {"type": "string", "minLength": 1},
          "contentId": {"type": "string"},
          "position": {"type": "array", "items": {"type": "number"}, "minItems": 3, "maxItems": 3},
          "quaternion": {"type": "array", "items": {"type": "number"}, "minItems": 4, "maxItems": 4},
          "scale": {"type": "array", "items": {"type": "number"}, "minItems": 3, "maxItems": 3},
          "components": {"type": "object"}
        }
      }
    }
  }
}`

var snapshotSchema = jsonschema.MustCompileString("snapshot.json", SnapshotSchema)

// Snapshot is the persisted part of a player. Actions are not persisted.
type Snapshot struct {
	Avatar map[string]interface{}   `json:"avatar"`
	Apps   []map[string]interface{} `json:"apps"`
}

// ParseSnapshot validates s against SnapshotSchema and decodes it.
func ParseSnapshot(s string) (*Snapshot, error) {
	var v interface{}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %v", err)
	}
	if err := snapshotSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("failed to validate snapshot: %v", err)
	}
	// decode again without json.Number so records hold plain floats
	snapshot := &Snapshot{}
	if err := json.Unmarshal([]byte(s), snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %v", err)
	}
	return snapshot, nil
}

// ValidateSnapshot reports whether s could be passed to Load.
func ValidateSnapshot(s string) error {
	_, err := ParseSnapshot(s)
	return err
}

// Save serializes the avatar and apps of the player map.
func (e *Entity) Save() (string, error) {
	if e.playerMap == nil {
		return "", ErrNotBound
	}
	snapshot := Snapshot{
		Avatar: map[string]interface{}{},
		Apps:   []map[string]interface{}{},
	}
	if avatar := e.avatarMap(false); avatar != nil {
		snapshot.Avatar = avatar.ToJSON()
	}
	if arr := e.appsArray(false); arr != nil {
		for _, v := range arr.ToJSON() {
			if m, ok := v.(map[string]interface{}); ok {
				snapshot.Apps = append(snapshot.Apps, m)
			}
		}
	}
	b, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %v", err)
	}
	return string(b), nil
}

// Load clears the actions, restores the avatar instance id and appends
// the saved apps in one transaction. Nothing changes if s is invalid.
func (e *Entity) Load(s string) error {
	if !e.writable("load") {
		return nil
	}
	if e.playerMap == nil {
		return ErrNotBound
	}
	snapshot, err := ParseSnapshot(s)
	if err != nil {
		return err
	}
	e.transact(document.LocalOrigin, func() {
		e.ClearActions()
		if id, ok := snapshot.Avatar[constants.InstanceIDKey].(string); ok && id != "" {
			e.avatarMap(true).Set(constants.InstanceIDKey, id)
		}
		arr := e.appsArray(true)
		for _, app := range snapshot.Apps {
			arr.Push(apps.RecordFromJSON(app))
		}
	})
	return nil
}

// New resets the player map: no actions, no avatar and no apps.
func (e *Entity) New() {
	if !e.writable("new") {
		return
	}
	if e.playerMap == nil {
		log.Warn("Player %s cannot reset while unbound", e.playerID)
		return
	}
	e.transact(document.LocalOrigin, func() {
		if arr := e.actionsArray(false); arr != nil {
			for i := arr.Len() - 1; i >= 0; i-- {
				arr.Delete(i, 1)
			}
		}
		if avatar := e.avatarMap(false); avatar != nil {
			avatar.Delete(constants.InstanceIDKey)
		}
		if arr := e.appsArray(false); arr != nil {
			for i := arr.Len() - 1; i >= 0; i-- {
				arr.Delete(i, 1)
			}
		}
	})
}
