package avatars

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cbodonnell/tether/pkg/apps"
	"github.com/cbodonnell/tether/pkg/queue"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runNext(t *testing.T, tasks *queue.TaskQueue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tasks.RunNext(ctx))
}

func TestBinding_latestRequestWins(t *testing.T) {
	tasks := queue.NewTaskQueue(8)
	gates := map[string]chan struct{}{
		"a": make(chan struct{}),
		"b": make(chan struct{}),
		"c": make(chan struct{}),
	}
	local := apps.NewManager(&apps.NewManagerOptions{
		Name: "local",
		Loader: apps.LoaderFunc(func(ctx context.Context, url, id string) (*apps.App, error) {
			<-gates[id]
			app := apps.NewApp(id, url)
			app.SetComponent(apps.ComponentHeight, 1.5)
			return app, nil
		}),
		Tasks: tasks,
	})
	for id := range gates {
		local.AddTrackedAppWithID(context.Background(), "https://example.com/"+id, id)
	}

	var bound []string
	onBind := func(avatar *Avatar, app *apps.App) {
		bound = append(bound, app.InstanceID)
	}

	b := NewBinding()
	pools := Pools{Local: local}
	b.Sync("a", pools, onBind)
	b.Sync("b", pools, onBind)
	b.Sync("c", pools, onBind)
	assert.Equal(t, StateResolving, b.State())
	assert.Equal(t, uint64(3), b.Epoch())

	close(gates["a"])
	runNext(t, tasks)
	assert.Empty(t, bound, "a was superseded")

	close(gates["c"])
	runNext(t, tasks)
	assert.Equal(t, []string{"c"}, bound)
	assert.Equal(t, StateBound, b.State())
	assert.Equal(t, 1.5, b.Avatar().Height)

	close(gates["b"])
	runNext(t, tasks)
	assert.Equal(t, []string{"c"}, bound)
	assert.Equal(t, "c", b.Avatar().App.InstanceID)
}

func TestBinding_resolutionOrder(t *testing.T) {
	registry := apps.NewRegistry()
	local := apps.NewManager(&apps.NewManagerOptions{Name: "local", Registry: registry})
	world := apps.NewManager(&apps.NewManagerOptions{Name: "world", Registry: registry})

	own := apps.NewApp("own", "https://example.com/own")
	local.AddApp(own)
	shared := apps.NewApp("shared", "https://example.com/shared")
	world.AddApp(shared)

	pools := Pools{Local: local, World: world}
	var got *apps.App
	var calls int
	onBind := func(avatar *Avatar, app *apps.App) {
		calls++
		got = app
	}

	t.Run("own manager first", func(t *testing.T) {
		b := NewBinding()
		b.Sync("own", pools, onBind)
		assert.Same(t, own, got)
		assert.Equal(t, StateBound, b.State())
	})

	t.Run("world apps are transplanted", func(t *testing.T) {
		b := NewBinding()
		b.Sync("shared", pools, onBind)
		assert.Same(t, shared, got)
		assert.Same(t, shared, local.GetAppByInstanceID("shared"))
		assert.Nil(t, world.GetAppByInstanceID("shared"))
	})

	t.Run("untracked leaves the binding idle", func(t *testing.T) {
		b := NewBinding()
		before := calls
		b.Sync("missing", pools, onBind)
		assert.Equal(t, before, calls)
		assert.Equal(t, StateIdle, b.State())
		assert.Nil(t, b.Avatar())
	})

	t.Run("empty id clears", func(t *testing.T) {
		b := NewBinding()
		b.Sync("own", pools, onBind)
		b.Sync("", pools, onBind)
		assert.Nil(t, got)
		assert.Nil(t, b.Avatar())
		assert.Equal(t, StateIdle, b.State())
	})
}

func TestBinding_failedResolutionKeepsPrevious(t *testing.T) {
	tasks := queue.NewTaskQueue(8)
	local := apps.NewManager(&apps.NewManagerOptions{
		Name: "local",
		Loader: apps.LoaderFunc(func(ctx context.Context, url, id string) (*apps.App, error) {
			return nil, errors.New("boom")
		}),
		Tasks: tasks,
	})
	a := apps.NewApp("a", "https://example.com/a")
	local.AddApp(a)
	pools := Pools{Local: local}

	var calls int
	onBind := func(*Avatar, *apps.App) { calls++ }

	tests := []struct {
		name string
		sync func(b *Binding)
	}{
		{
			name: "untracked",
			sync: func(b *Binding) { b.Sync("missing", pools, onBind) },
		},
		{
			name: "load error",
			sync: func(b *Binding) {
				local.AddTrackedAppWithID(context.Background(), "https://example.com/bad", "bad")
				b.Sync("bad", pools, onBind)
				assert.Equal(t, StateResolving, b.State())
				runNext(t, tasks)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBinding()
			b.Sync("a", pools, onBind)
			require.Equal(t, StateBound, b.State())
			before := calls

			tt.sync(b)
			assert.Equal(t, StateBound, b.State())
			require.NotNil(t, b.Avatar())
			assert.Same(t, a, b.Avatar().App)
			assert.Equal(t, before, calls)

			b.Sync("a", pools, onBind)
			assert.Equal(t, before+1, calls, "the previous id binds again")
		})
	}
}

func TestBinding_cancel(t *testing.T) {
	tasks := queue.NewTaskQueue(8)
	local := apps.NewManager(&apps.NewManagerOptions{
		Name: "local",
		Loader: apps.LoaderFunc(func(ctx context.Context, url, id string) (*apps.App, error) {
			return apps.NewApp(id, url), nil
		}),
		Tasks: tasks,
	})
	local.AddTrackedAppWithID(context.Background(), "https://example.com/a", "a")

	b := NewBinding()
	called := false
	b.Sync("a", Pools{Local: local}, func(*Avatar, *apps.App) { called = true })
	b.Cancel()
	assert.Equal(t, StateIdle, b.State())

	runNext(t, tasks)
	assert.False(t, called)
}

func TestSwitch(t *testing.T) {
	app := apps.NewApp("a", "")
	first := Switch(nil, app)
	require.NotNil(t, first)
	assert.Equal(t, 1.0, first.Height, "default height without a component")
	assert.Same(t, first, Switch(first, app))
	assert.Nil(t, Switch(first, nil))
	assert.NotSame(t, first, Switch(first, apps.NewApp("b", "")))
}

func TestAvatar_SetVelocity(t *testing.T) {
	a := New(apps.NewApp("a", ""))
	a.SetVelocity(0.1, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}, mgl64.QuatIdent())
	assert.InDelta(t, 20, a.Velocity.X(), 1e-9)

	a.SetVelocity(0, mgl64.Vec3{}, mgl64.Vec3{100, 0, 0}, mgl64.QuatIdent())
	assert.InDelta(t, 20, a.Velocity.X(), 1e-9, "zero dt is ignored")
}
