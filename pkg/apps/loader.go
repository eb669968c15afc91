package apps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cbodonnell/tether/pkg/physics"
	"github.com/go-gl/mathgl/mgl64"
)

// Loader fetches the content behind a URL and builds an App from it.
type Loader interface {
	Load(ctx context.Context, contentURL string, instanceID string) (*App, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, contentURL string, instanceID string) (*App, error)

func (f LoaderFunc) Load(ctx context.Context, contentURL string, instanceID string) (*App, error) {
	return f(ctx, contentURL, instanceID)
}

// Manifest is the JSON document served at an app's content URL.
type Manifest struct {
	Components map[string]interface{} `json:"components"`
	Colliders  []Collider             `json:"colliders"`
}

type Collider struct {
	Center [3]float64 `json:"center"`
	Size   [3]float64 `json:"size"`
}

// HTTPLoader loads app manifests over HTTP and registers their colliders.
type HTTPLoader struct {
	client *http.Client
	scene  *physics.ResolvScene
}

type NewHTTPLoaderOptions struct {
	Client *http.Client
	// Scene receives the colliders of loaded apps. Optional.
	Scene *physics.ResolvScene
}

func NewHTTPLoader(opts *NewHTTPLoaderOptions) *HTTPLoader {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPLoader{
		client: client,
		scene:  opts.Scene,
	}
}

func (l *HTTPLoader) Load(ctx context.Context, contentURL string, instanceID string) (*App, error) {
	if !strings.HasPrefix(contentURL, "http://") && !strings.HasPrefix(contentURL, "https://") {
		return nil, fmt.Errorf("unsupported content url: %s", contentURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %v", contentURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", contentURL, resp.StatusCode)
	}

	manifest := &Manifest{}
	if err := json.NewDecoder(resp.Body).Decode(manifest); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %v", err)
	}

	app := NewApp(instanceID, contentURL)
	for k, v := range manifest.Components {
		app.SetComponent(k, v)
	}
	if l.scene != nil {
		for _, c := range manifest.Colliders {
			app.AddPhysicsObject(l.scene.AddBox(mgl64.Vec3(c.Center), mgl64.Vec3(c.Size)))
		}
	}
	return app, nil
}
