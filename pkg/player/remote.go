package player

import (
	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/events"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/log"
)

type NewRemotePlayerOptions struct {
	NewPlayerOptions
	// PlayersArray is searched for the player map with PlayerID.
	PlayersArray *document.Array
	// Decoder turns voice packets into samples. PCM16Decoder is used when nil.
	Decoder AudioDecoder
}

// NewRemotePlayer creates a player that mirrors a peer's player map. It
// never writes to the document.
func NewRemotePlayer(opts *NewRemotePlayerOptions) *Entity {
	if opts == nil {
		opts = &NewRemotePlayerOptions{}
	}
	if opts.PlayerID == "" {
		log.Warn("Creating remote player without a player id")
	}
	e := newEntity(KindRemote, &opts.NewPlayerOptions)
	e.ledger = &replicatedLedger{e: e}
	e.attachment = &remoteAttachment{e: e}
	e.interpolation = newDelayedInterpolation(e)
	e.audio = NewAnalyser(&NewAnalyserOptions{Decoder: opts.Decoder})

	e.AddEventListener(EventActionAdd, e.onRemoteWearChange)
	e.AddEventListener(EventActionRemove, e.onRemoteWearChange)
	e.appManager.AddEventListener(apps.EventAppAdd, e.onRemoteWearChange)
	e.appManager.AddEventListener(apps.EventAppRemove, e.onRemoteWearChange)

	if opts.PlayersArray != nil {
		e.BindState(opts.PlayersArray)
	}
	return e
}

// applyRemoteTransform follows the transform written by the owner.
func (e *Entity) applyRemoteTransform() {
	t, ok := e.playerMap.GetFloats(constants.TransformKey)
	if !ok {
		return
	}
	position, quaternion, _, timeDiff, ok := UnpackTransform(t)
	if !ok {
		log.Warn("Player %s has a malformed transform of length %d", e.playerID, len(t))
		return
	}
	e.remoteTimeDiff = timeDiff
	last := e.Position

	e.Position = position
	avatar := e.binding.Avatar()
	if avatar != nil && e.physics != nil && e.controller != nil {
		e.physics.SetCharacterControllerPosition(e.controller, e.controllerPosition(position))
	}
	e.Quaternion = quaternion
	e.interpolation.snapshot(timeDiff)

	if avatar != nil {
		avatar.SetVelocity(timeDiff/1000, last, e.Position, e.Quaternion)
	}
	e.updateWearables()
}

// RemoteTimeDiff is the tick delta, in milliseconds, of the last transform received.
func (e *Entity) RemoteTimeDiff() float64 {
	return e.remoteTimeDiff
}

func (e *Entity) onRemoteWearChange(events.Event) {
	e.refreshRemoteWornApps()
}

// refreshRemoteWornApps makes the worn set match the wear actions the
// owner recorded. Physics toggles locally; ownership is left to the owner.
func (e *Entity) refreshRemoteWornApps() {
	if e.destroyed {
		return
	}
	type worn struct {
		app          *apps.App
		loadoutIndex int
	}
	var wanted []worn
	for _, a := range e.ledger.list() {
		if a.Type() != ActionWear {
			continue
		}
		if app := e.findApp(a.InstanceID()); app != nil {
			wanted = append(wanted, worn{app: app, loadoutIndex: a.LoadoutIndex()})
		}
	}

	isWanted := func(app *apps.App) bool {
		for _, w := range wanted {
			if w.app == app {
				return true
			}
		}
		return false
	}
	kept := e.wornApps[:0]
	for _, app := range e.wornApps {
		if isWanted(app) {
			kept = append(kept, app)
			continue
		}
		e.setPhysicsEnabled(app, true)
		e.emitWear(app, false, -1)
	}
	e.wornApps = kept

	for _, w := range wanted {
		if containsApp(e.wornApps, w.app) {
			continue
		}
		e.wornApps = append(e.wornApps, w.app)
		e.setPhysicsEnabled(w.app, false)
		e.emitWear(w.app, true, w.loadoutIndex)
	}
}

func containsApp(list []*apps.App, app *apps.App) bool {
	for _, a := range list {
		if a == app {
			return true
		}
	}
	return false
}

// ProcessAudioData feeds a voice packet into the player's analyser.
func (e *Entity) ProcessAudioData(packet []byte) error {
	if e.audio == nil {
		e.audio = NewAnalyser(nil)
	}
	return e.audio.Write(packet)
}

// Analyser returns the voice level analyser, or nil.
func (e *Entity) Analyser() *Analyser {
	return e.audio
}
