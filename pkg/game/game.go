package game

import (
	"context"
	"fmt"
	"time"

	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/config"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/log"
	"github.com/cbodonnell/tether/pkg/messages"
	"github.com/cbodonnell/tether/pkg/physics"
	"github.com/cbodonnell/tether/pkg/player"
	"github.com/cbodonnell/tether/pkg/queue"
	"github.com/cbodonnell/tether/pkg/state"
	"github.com/cbodonnell/tether/pkg/workers"
)

// UpdateSender forwards local document updates to the room.
type UpdateSender interface {
	SendUpdate(ctx context.Context, u *document.Update) error
}

// InputFunc drives the local player before physics runs each tick.
type InputFunc func(p *player.Entity, timestamp, timeDiff float64)

// GameManager runs the loop of one peer: it applies room traffic to the
// shared document, mirrors the other players and advances the local one.
// Every method must be called from the loop goroutine.
type GameManager struct {
	doc          *document.Doc
	players      *document.Array
	local        *player.Entity
	remotes      map[string]*player.Entity
	sender       UpdateSender
	messageQueue queue.Queue
	tasks        *queue.TaskQueue
	stateManager state.StateManager
	saveChan     chan<- workers.SaveSnapshotRequest
	input        InputFunc

	tuning       config.Tuning
	physics      physics.Physics
	world        *apps.Manager
	loader       apps.Loader
	saveInterval time.Duration
	sendTimeout  time.Duration

	lastTick float64
	lastPush float64
	lastSave float64
}

// NewGameManagerOptions contains options for creating a new GameManager.
type NewGameManagerOptions struct {
	// Doc is the room document, already holding the state received on join.
	Doc          *document.Doc
	PlayerID     string
	Sender       UpdateSender
	MessageQueue queue.Queue
	Tasks        *queue.TaskQueue
	StateManager state.StateManager
	SaveChan     chan<- workers.SaveSnapshotRequest
	Input        InputFunc
	Tuning       *config.Tuning
	Physics      physics.Physics
	World        *apps.Manager
	Loader       apps.Loader
	// SaveInterval is how often the local player is saved. Zero disables saving.
	SaveInterval time.Duration
}

// NewGameManager binds a local player to the room document. Updates made
// by this peer are forwarded to Sender from then on.
func NewGameManager(opts NewGameManagerOptions) *GameManager {
	tuning := config.Default()
	if opts.Tuning != nil {
		tuning = *opts.Tuning
	}
	doc := opts.Doc
	if doc == nil {
		doc = document.NewDoc(opts.PlayerID)
	}
	gm := &GameManager{
		doc:          doc,
		players:      doc.GetArray(constants.PlayersMapName),
		remotes:      make(map[string]*player.Entity),
		sender:       opts.Sender,
		messageQueue: opts.MessageQueue,
		tasks:        opts.Tasks,
		stateManager: opts.StateManager,
		saveChan:     opts.SaveChan,
		input:        opts.Input,
		tuning:       tuning,
		physics:      opts.Physics,
		world:        opts.World,
		loader:       opts.Loader,
		saveInterval: opts.SaveInterval,
		sendTimeout:  time.Second,
	}

	doc.OnUpdate(gm.forwardUpdate)
	gm.local = player.NewLocalPlayer(&player.NewLocalPlayerOptions{
		NewPlayerOptions: gm.playerOptions(opts.PlayerID),
		PlayersArray:     gm.players,
	})
	gm.reconcileRemotePlayers()
	return gm
}

func (gm *GameManager) playerOptions(playerID string) player.NewPlayerOptions {
	return player.NewPlayerOptions{
		PlayerID: playerID,
		Tuning:   &gm.tuning,
		Loader:   gm.loader,
		Tasks:    gm.tasks,
		World:    gm.world,
		Physics:  gm.physics,
	}
}

func (gm *GameManager) LocalPlayer() *player.Entity {
	return gm.local
}

func (gm *GameManager) RemotePlayer(playerID string) *player.Entity {
	return gm.remotes[playerID]
}

func (gm *GameManager) RemotePlayerIDs() []string {
	ids := make([]string, 0, len(gm.remotes))
	for id := range gm.remotes {
		ids = append(ids, id)
	}
	return ids
}

// Start starts the game loop.
func (gm *GameManager) Start(ctx context.Context) error {
	interval := time.Duration(gm.tuning.FrameIntervalMs) * time.Millisecond
	if interval <= 0 {
		return fmt.Errorf("invalid frame interval %dms", gm.tuning.FrameIntervalMs)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			gm.Stop()
			return nil
		case t := <-ticker.C:
			gm.gameTick(t)
		}
	}
}

// Stop saves the local player one last time and leaves the document.
func (gm *GameManager) Stop() {
	if gm.local.Destroyed() {
		return
	}
	gm.save(float64(time.Now().UnixMilli()), true)
	for id, remote := range gm.remotes {
		remote.Destroy()
		delete(gm.remotes, id)
	}
	gm.local.Destroy()
}

// gameTick runs one iteration of the game loop.
func (gm *GameManager) gameTick(t time.Time) {
	timestamp := float64(t.UnixMilli())
	timeDiff := float64(gm.tuning.FrameIntervalMs)
	if gm.lastTick > 0 {
		timeDiff = timestamp - gm.lastTick
	}
	gm.lastTick = timestamp

	gm.processMessages()
	if gm.tasks != nil {
		gm.tasks.RunPending()
	}
	gm.reconcileRemotePlayers()

	if gm.input != nil {
		gm.input(gm.local, timestamp, timeDiff)
	}
	gm.local.UpdatePhysics(timestamp, timeDiff)
	if gm.lastPush == 0 || timestamp-gm.lastPush >= float64(gm.tuning.PushIntervalMs) {
		pushDiff := timeDiff
		if gm.lastPush > 0 {
			pushDiff = timestamp - gm.lastPush
		}
		gm.local.PushPlayerUpdates(pushDiff)
		gm.lastPush = timestamp
	}

	gm.local.UpdateAvatar(timestamp, timeDiff)
	for _, remote := range gm.remotes {
		remote.UpdateAvatar(timestamp, timeDiff)
	}

	if gm.saveInterval > 0 && timestamp-gm.lastSave >= float64(gm.saveInterval.Milliseconds()) {
		gm.save(timestamp, false)
	}
}

// processMessages applies all pending room messages in the queue.
func (gm *GameManager) processMessages() {
	if gm.messageQueue == nil {
		return
	}
	pendingMessages, err := gm.messageQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read room messages: %v", err)
		return
	}
	for _, item := range pendingMessages {
		message, ok := item.(*messages.Message)
		if !ok {
			log.Error("Failed to cast message to messages.Message")
			continue
		}

		switch message.Type {
		case messages.MessageTypeServerUpdate:
			if err := gm.doc.ApplyUpdateBytes(message.Payload); err != nil {
				log.Error("Failed to apply update from %s: %v", message.PlayerID, err)
			}
		case messages.MessageTypeServerPlayerLeave:
			leave := &messages.ServerPlayerLeave{}
			if err := message.DecodePayload(leave); err != nil {
				log.Error("Failed to decode player leave: %v", err)
				continue
			}
			gm.removeRemotePlayer(leave.PlayerID)
		case messages.MessageTypeServerVoice:
			remote, ok := gm.remotes[message.PlayerID]
			if !ok {
				log.Trace("Dropping voice from unknown player %s", message.PlayerID)
				continue
			}
			if err := remote.ProcessAudioData(message.Payload); err != nil {
				log.Warn("Failed to process voice from %s: %v", message.PlayerID, err)
			}
		default:
			log.Error("Unhandled message type: %s", message.Type)
		}
	}
}

// reconcileRemotePlayers mirrors every player map in the document that
// is not the local player, and drops mirrors whose map is gone.
func (gm *GameManager) reconcileRemotePlayers() {
	present := make(map[string]bool)
	for _, id := range player.PlayerIDs(gm.players) {
		present[id] = true
		if id == gm.local.PlayerID() {
			continue
		}
		if _, ok := gm.remotes[id]; ok {
			continue
		}
		log.Debug("Player %s appeared", id)
		gm.remotes[id] = player.NewRemotePlayer(&player.NewRemotePlayerOptions{
			NewPlayerOptions: gm.playerOptions(id),
			PlayersArray:     gm.players,
		})
	}
	for id := range gm.remotes {
		if !present[id] {
			gm.removeRemotePlayer(id)
		}
	}
}

func (gm *GameManager) removeRemotePlayer(playerID string) {
	remote, ok := gm.remotes[playerID]
	if !ok {
		return
	}
	log.Debug("Player %s left", playerID)
	remote.Destroy()
	delete(gm.remotes, playerID)
}

// save records the local player in the state manager, or sends it for
// immediate persistence.
func (gm *GameManager) save(timestamp float64, immediate bool) {
	gm.lastSave = timestamp
	snapshot, err := gm.local.Save()
	if err != nil {
		log.Error("Failed to save player %s: %v", gm.local.PlayerID(), err)
		return
	}
	if immediate && gm.saveChan != nil {
		select {
		case gm.saveChan <- workers.SaveSnapshotRequest{
			Timestamp: int64(timestamp),
			PlayerID:  gm.local.PlayerID(),
			Snapshot:  snapshot,
		}:
		case <-time.After(gm.sendTimeout):
			log.Warn("Timed out sending save request for player %s", gm.local.PlayerID())
		}
		return
	}
	if gm.stateManager == nil {
		return
	}
	if err := gm.stateManager.Set(context.Background(), &state.PlayerState{
		PlayerID:  gm.local.PlayerID(),
		Snapshot:  snapshot,
		Timestamp: int64(timestamp),
	}); err != nil {
		log.Error("Failed to set state of player %s: %v", gm.local.PlayerID(), err)
	}
}

func (gm *GameManager) forwardUpdate(u *document.Update) {
	if gm.sender == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), gm.sendTimeout)
	defer cancel()
	if err := gm.sender.SendUpdate(ctx, u); err != nil {
		log.Error("Failed to send update %s: %v", u.ID, err)
	}
}
