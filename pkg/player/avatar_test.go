package player_test

import (
	"context"
	"testing"
	"time"

	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/avatars"
	"github.com/cbodonnell/tether/pkg/config"
	"github.com/cbodonnell/tether/pkg/document"
	"github.com/cbodonnell/tether/pkg/events"
	"github.com/cbodonnell/tether/pkg/physics"
	"github.com/cbodonnell/tether/pkg/player"
	"github.com/cbodonnell/tether/pkg/queue"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mocks "github.com/cbodonnell/tether/mocks/github.com/cbodonnell/tether/pkg/player"
)

func newScene() *physics.ResolvScene {
	return physics.NewResolvScene(&physics.NewResolvSceneOptions{Width: 64, Height: 64})
}

func TestSetAvatarApp_local(t *testing.T) {
	scene := newScene()
	p := player.NewLocalPlayer(&player.NewLocalPlayerOptions{
		NewPlayerOptions: player.NewPlayerOptions{Physics: scene},
	})

	var order []string
	p.AddEventListener(player.EventAvatarChange, func(ev events.Event) {
		order = append(order, ev.Type+":"+ev.Data.(*player.AvatarEvent).App.InstanceID)
	})
	p.AddEventListener(player.EventAvatarUpdate, func(ev events.Event) {
		order = append(order, ev.Type+":"+ev.Data.(*player.AvatarEvent).App.InstanceID)
	})

	first := apps.NewApp("first", "https://example.com/first")
	first.SetComponent(apps.ComponentHeight, 1.6)
	p.AppManager().AddApp(first)
	p.SetAvatarApp(first)

	assert.Equal(t, []string{"avatarchange:first", "avatarupdate:first"}, order)
	assert.Equal(t, "first", p.GetAvatarInstanceID())
	assert.Equal(t, avatars.StateBound, p.AvatarState())
	require.NotNil(t, p.Avatar())
	assert.Equal(t, 1.6, p.Avatar().Height)

	controller := p.Controller()
	require.NotNil(t, controller)
	assert.InDelta(t, 0.2, controller.Radius, 1e-9)
	assert.False(t, scene.QueriesEnabled(controller.ID), "new capsules start passive")

	second := apps.NewApp("second", "https://example.com/second")
	p.AppManager().AddApp(second)
	p.SetAvatarApp(second)

	assert.Same(t, second, p.GetAvatarApp())
	assert.True(t, first.Destroyed(), "the previous avatar app is dropped")
	assert.Nil(t, p.AppManager().GetAppByInstanceID("first"))
	assert.NotEqual(t, controller.ID, p.Controller().ID, "the capsule is rebuilt")
	assert.False(t, scene.GeometryEnabled(controller.ID))
}

func TestSetAvatarURL_latestWins(t *testing.T) {
	tasks := queue.NewTaskQueue(8)
	gates := map[string]chan struct{}{
		"https://example.com/a": make(chan struct{}),
		"https://example.com/b": make(chan struct{}),
	}
	p := player.NewLocalPlayer(&player.NewLocalPlayerOptions{
		NewPlayerOptions: player.NewPlayerOptions{
			Loader: apps.LoaderFunc(func(ctx context.Context, url, id string) (*apps.App, error) {
				<-gates[url]
				return apps.NewApp(id, url), nil
			}),
			Tasks: tasks,
		},
	})

	var changes int
	p.AddEventListener(player.EventAvatarChange, func(events.Event) { changes++ })

	a := p.SetAvatarURL(context.Background(), "https://example.com/a")
	b := p.SetAvatarURL(context.Background(), "https://example.com/b")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	close(gates["https://example.com/b"])
	require.NoError(t, tasks.RunNext(ctx))
	require.NotNil(t, b.App())
	assert.Same(t, b.App(), p.GetAvatarApp())
	assert.Equal(t, 1, changes)

	close(gates["https://example.com/a"])
	require.NoError(t, tasks.RunNext(ctx))
	require.NotNil(t, a.App())
	assert.True(t, a.App().Destroyed(), "stale loads are removed")
	assert.False(t, p.AppManager().HasTrackedApp(a.InstanceID))
	assert.Same(t, b.App(), p.GetAvatarApp())
	assert.Equal(t, b.App().InstanceID, p.GetAvatarInstanceID())
	assert.Equal(t, 1, changes)
}

func TestSetAvatarApp_static(t *testing.T) {
	p := player.NewStaticPlayer(&player.NewStaticPlayerOptions{
		NewPlayerOptions: player.NewPlayerOptions{Physics: newScene()},
	})
	app := apps.NewApp("npc", "")
	p.SetAvatarApp(app)
	assert.Same(t, app, p.GetAvatarApp())
	assert.NotNil(t, p.Controller())
	assert.Equal(t, "", p.GetAvatarInstanceID(), "static players have no player map")

	p.SetAvatarApp(nil)
	assert.Nil(t, p.Avatar())
	assert.Equal(t, avatars.StateIdle, p.AvatarState())
}

func TestRemotePlayer_followsAvatar(t *testing.T) {
	a, b := peerDocs()
	registry := apps.NewRegistry()
	local := player.NewLocalPlayer(&player.NewLocalPlayerOptions{
		NewPlayerOptions: player.NewPlayerOptions{Loader: echoLoader()},
		PlayersArray:     a.GetArray("players"),
	})
	remote := player.NewRemotePlayer(&player.NewRemotePlayerOptions{
		NewPlayerOptions: player.NewPlayerOptions{
			PlayerID: local.PlayerID(),
			Loader:   echoLoader(),
			Registry: registry,
		},
		PlayersArray: b.GetArray("players"),
	})

	avatar := local.SetAvatarURL(context.Background(), "https://example.com/avatar")
	require.NotNil(t, avatar.App())
	require.NotNil(t, remote.GetAvatarApp())
	assert.Equal(t, avatar.App().InstanceID, remote.GetAvatarApp().InstanceID)
	assert.NotSame(t, avatar.App(), remote.GetAvatarApp(), "each replica loads its own copy")
}

func TestUpdateAvatar_posesAvatar(t *testing.T) {
	posable := mocks.NewPosable(t)
	p := player.NewStaticPlayer(&player.NewStaticPlayerOptions{
		NewPlayerOptions: player.NewPlayerOptions{Posable: posable},
	})

	// nothing to pose without an avatar
	p.UpdateAvatar(0, 16)

	p.SetAvatarApp(apps.NewApp("npc", ""))
	posable.EXPECT().ApplyPlayerToAvatar(p, (*player.Session)(nil), p.Avatar(), mock.Anything).Return().Once()
	p.UpdateAvatar(16, 16)
}

func TestCrouchFactor(t *testing.T) {
	tuning := config.Default()
	tuning.CrouchMaxTimeMs = 250

	newPlayers := map[string]func() *player.Entity{
		"static": func() *player.Entity {
			p := player.NewStaticPlayer(&player.NewStaticPlayerOptions{
				NewPlayerOptions: player.NewPlayerOptions{Tuning: &tuning},
			})
			p.SetAvatarApp(apps.NewApp("npc", ""))
			return p
		},
		"local": func() *player.Entity {
			p := player.NewLocalPlayer(&player.NewLocalPlayerOptions{
				NewPlayerOptions: player.NewPlayerOptions{Tuning: &tuning},
			})
			app := apps.NewApp("me", "")
			p.AppManager().AddApp(app)
			p.SetAvatarApp(app)
			return p
		},
	}

	steps := []struct {
		elapsed    float64
		normalized float64
		factor     float64
	}{
		{elapsed: 0, normalized: 0, factor: 1},
		{elapsed: 125, normalized: 0.5, factor: 0.8},
		{elapsed: 125, normalized: 1, factor: 0.6},
		{elapsed: 100, normalized: 1, factor: 0.6},
	}

	for name, newPlayer := range newPlayers {
		t.Run(name, func(t *testing.T) {
			p := newPlayer()
			require.NotNil(t, p.Avatar())
			p.AddAction(player.NewAction(player.ActionCrouch, nil))

			crouch := p.ActionInterpolant(player.InterpolantCrouch)
			require.NotNil(t, crouch)
			now := 0.0
			for _, step := range steps {
				now += step.elapsed
				p.UpdateAvatar(now, step.elapsed)
				assert.InDelta(t, step.normalized, crouch.GetNormalized(), 1e-9, "at %vms", now)
				assert.InDelta(t, step.factor, p.GetCrouchFactor(), 1e-9, "at %vms", now)
			}

			p.RemoveAction(player.ActionCrouch)
			p.UpdateAvatar(now+250, 250)
			assert.InDelta(t, 1, p.GetCrouchFactor(), 1e-9)
		})
	}
}

func TestRemotePlayer_velocity(t *testing.T) {
	world := apps.NewManager(&apps.NewManagerOptions{Name: "world"})
	world.AddApp(apps.NewApp("av", ""))

	b := document.NewDoc("peer")
	players := b.GetArray("players")
	entry := document.NewMap()
	entry.Set("playerId", "p1")
	avatar := document.NewMap()
	avatar.Set("instanceId", "av")
	entry.Set("avatar", avatar)
	players.Push(entry)

	remote := player.NewRemotePlayer(&player.NewRemotePlayerOptions{
		NewPlayerOptions: player.NewPlayerOptions{PlayerID: "p1", World: world},
		PlayersArray:     players,
	})
	require.NotNil(t, remote.Avatar(), "the avatar is taken from the world")
	assert.Nil(t, world.GetAppByInstanceID("av"))

	entry.Set("transform", []float64{1, 0, 0, 0, 0, 0, 1, 1, 1, 1, 50})
	entry.Set("transform", []float64{2, 0, 0, 0, 0, 0, 1, 1, 1, 1, 50})

	assert.Equal(t, mgl64.Vec3{2, 0, 0}, remote.Position)
	assert.Equal(t, 50.0, remote.RemoteTimeDiff())
	assert.InDelta(t, 20, remote.Avatar().Velocity.X(), 1e-9)
	assert.InDelta(t, 0, remote.Avatar().Velocity.Y(), 1e-9)

	// the rendered pose trails by the interpolation delay
	remote.UpdateAvatar(0, 0)
	position, _ := remote.AvatarBindingTransform()
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, position)
	remote.UpdateAvatar(200, 200)
	position, _ = remote.AvatarBindingTransform()
	assert.Equal(t, mgl64.Vec3{2, 0, 0}, position)
}

func TestRemotePlayer_interpolatesWhenAvatarBindsLate(t *testing.T) {
	world := apps.NewManager(&apps.NewManagerOptions{Name: "world"})

	b := document.NewDoc("peer")
	players := b.GetArray("players")
	entry := document.NewMap()
	entry.Set("playerId", "p1")
	players.Push(entry)

	remote := player.NewRemotePlayer(&player.NewRemotePlayerOptions{
		NewPlayerOptions: player.NewPlayerOptions{PlayerID: "p1", World: world},
		PlayersArray:     players,
	})

	x := 0.0
	push := func() {
		x++
		entry.Set("transform", []float64{x, 0, 0, 0, 0, 0, 1, 1, 1, 1, 50})
	}

	// transforms keep arriving while the avatar is still loading
	for i := 0; i < 40; i++ {
		push()
		remote.UpdateAvatar(float64(i)*50, 50)
	}
	require.Nil(t, remote.Avatar())

	world.AddApp(apps.NewApp("av", ""))
	avatar := document.NewMap()
	avatar.Set("instanceId", "av")
	entry.Set("avatar", avatar)
	require.NotNil(t, remote.Avatar())

	now := 2000.0
	for i := 0; i < 5; i++ {
		push()
		now += 25
		remote.UpdateAvatar(now, 25)
		first, _ := remote.AvatarBindingTransform()
		now += 25
		remote.UpdateAvatar(now, 25)
		second, _ := remote.AvatarBindingTransform()

		// the read clock runs one tick ahead of the newest sample
		delay := config.Default().InterpolationDelayMs
		assert.InDelta(t, x-(delay-25)/50, first.X(), 1e-9, "blends between the last two transforms")
		assert.InDelta(t, x, second.X(), 1e-9)
	}
}
