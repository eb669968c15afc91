package player_test

import (
	"math"
	"testing"

	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/cbodonnell/tether/pkg/player"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackTransform(t *testing.T) {
	q := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 1, 0})
	packed := player.PackTransform(mgl64.Vec3{1, 2, 3}, q, mgl64.Vec3{1, 1, 2}, 16)
	require.Len(t, packed, constants.TransformLength)
	assert.Equal(t, 16.0, packed[constants.TransformTimeDiffIndex])

	position, quaternion, scale, timeDiff, ok := player.UnpackTransform(packed)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, position)
	assert.True(t, quaternion.ApproxEqual(q))
	assert.Equal(t, mgl64.Vec3{1, 1, 2}, scale)
	assert.Equal(t, 16.0, timeDiff)

	_, _, _, _, ok = player.UnpackTransform(packed[:5])
	assert.False(t, ok)
}

func TestPushPlayerUpdates(t *testing.T) {
	a, b := peerDocs()
	local := player.NewLocalPlayer(&player.NewLocalPlayerOptions{PlayersArray: a.GetArray(constants.PlayersMapName)})
	remote := player.NewRemotePlayer(&player.NewRemotePlayerOptions{
		NewPlayerOptions: player.NewPlayerOptions{PlayerID: local.PlayerID()},
		PlayersArray:     b.GetArray(constants.PlayersMapName),
	})

	var origins []string
	a.OnUpdate(func(u *document.Update) { origins = append(origins, u.Origin) })

	local.Position = mgl64.Vec3{4, 0, -1}
	local.Quaternion = mgl64.QuatRotate(1, mgl64.Vec3{0, 1, 0})
	local.PushPlayerUpdates(33)

	assert.Equal(t, []string{constants.PushOrigin}, origins)
	assert.Equal(t, local.Position, remote.Position)
	assert.True(t, remote.Quaternion.ApproxEqual(local.Quaternion))
	assert.Equal(t, 33.0, remote.RemoteTimeDiff())

	buf := captureLog(t)
	remote.PushPlayerUpdates(33)
	assert.Contains(t, buf.String(), "Ignoring pushPlayerUpdates")
	assert.Len(t, origins, 1)
}

func newGroundedPlayer(t *testing.T) (*player.Entity, *apps.App) {
	t.Helper()
	scene := newScene()
	scene.AddBox(mgl64.Vec3{0, -1, 0}, mgl64.Vec3{10, 1, 10})
	p := player.NewLocalPlayer(&player.NewLocalPlayerOptions{
		NewPlayerOptions: player.NewPlayerOptions{Physics: scene},
	})
	body := apps.NewApp("body", "")
	body.SetComponent(apps.ComponentHeight, 1.6)
	p.AppManager().AddApp(body)
	p.SetAvatarApp(body)
	require.NotNil(t, p.Controller())
	return p, body
}

func TestUpdatePhysics_fallsToFloor(t *testing.T) {
	p, _ := newGroundedPlayer(t)
	p.TeleportTo(mgl64.Vec3{0, 2, 0}, mgl64.QuatIdent(), player.RelationHead)
	p.AddAction(player.NewAction(player.ActionJump, nil))

	p.UpdatePhysics(0, 1000)
	assert.True(t, p.Grounded())
	assert.InDelta(t, 1.1, p.Position.Y(), 1e-9, "feet rest on the floor top")
	assert.False(t, p.HasAction(player.ActionJump), "landing ends the jump")
}

func TestUpdatePhysics_jump(t *testing.T) {
	p, _ := newGroundedPlayer(t)
	p.TeleportTo(mgl64.Vec3{0, -0.5, 0}, mgl64.QuatIdent(), player.RelationFloor)
	assert.InDelta(t, 1.1, p.Position.Y(), 1e-9)
	p.UpdatePhysics(0, 16)
	require.True(t, p.Grounded())

	p.Jump()
	assert.True(t, p.HasAction(player.ActionJump))
	assert.False(t, p.Grounded())

	p.UpdatePhysics(16, 100)
	assert.InDelta(t, 1.1+0.5-0.049, p.Position.Y(), 1e-9)
	assert.False(t, p.Grounded())
	assert.True(t, p.HasAction(player.ActionJump))
}

func TestUpdatePhysics_fly(t *testing.T) {
	p, _ := newGroundedPlayer(t)
	p.TeleportTo(mgl64.Vec3{0, 3, 0}, mgl64.QuatIdent(), player.RelationHead)
	p.SetControlAction(player.NewAction(player.ActionFly, nil))

	p.UpdatePhysics(0, 500)
	assert.InDelta(t, 3, p.Position.Y(), 1e-9, "no gravity while flying")

	p.Velocity = mgl64.Vec3{1, 2, 0}
	p.UpdatePhysics(500, 500)
	assert.InDelta(t, 4, p.Position.Y(), 1e-9)
	assert.InDelta(t, 0.5, p.Position.X(), 1e-9)

	facing := p.Quaternion.Rotate(mgl64.Vec3{0, 0, -1})
	assert.InDelta(t, 1, facing.X(), 1e-9, "got %v", facing)
	assert.InDelta(t, 0, facing.Y(), 1e-9, "got %v", facing)
	assert.InDelta(t, 0, facing.Z(), 1e-9, "got %v", facing)
}

func TestRespawn(t *testing.T) {
	p, _ := newGroundedPlayer(t)
	spawn := mgl64.Vec3{2, -0.5, 0}
	p.SetSpawnPoint(spawn, mgl64.QuatIdent())
	assert.InDelta(t, 1.1, p.Position.Y(), 1e-9)

	p.TeleportTo(mgl64.Vec3{20, 20, 0}, mgl64.QuatIdent(), player.RelationHead)
	p.Respawn()
	assert.True(t, p.Position.ApproxEqualThreshold(mgl64.Vec3{2, 1.1, 0}, 1e-9), "got %v", p.Position)
	assert.InDelta(t, 0.3, p.Controller().Position.Y(), 1e-9)
}
