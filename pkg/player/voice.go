package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrInvalidVoice is returned when a voice source is inconsistent.
var ErrInvalidVoice = errors.New("invalid voice")

// VoiceKind tags which field of a VoiceSource is set.
type VoiceKind int

const (
	VoiceNone VoiceKind = iota
	VoicePackKind
	VoiceEndpointKind
)

// VoicePack is a set of prerecorded syllables cut from one audio file.
type VoicePack struct {
	AudioURL string
	IndexURL string
	Files    []VoiceFile
}

// VoiceFile is one entry of a voice pack index.
type VoiceFile struct {
	Name     string  `json:"name"`
	Offset   float64 `json:"offset"`
	Duration float64 `json:"duration"`
}

// VoiceSource selects how a player's speech is produced.
type VoiceSource struct {
	Kind     VoiceKind
	Pack     *VoicePack
	Endpoint string
}

func (v VoiceSource) Validate() error {
	switch v.Kind {
	case VoiceNone:
		return nil
	case VoicePackKind:
		if v.Pack == nil {
			return fmt.Errorf("%w: pack voice without a pack", ErrInvalidVoice)
		}
		return nil
	case VoiceEndpointKind:
		if v.Endpoint == "" {
			return fmt.Errorf("%w: endpoint voice without an endpoint", ErrInvalidVoice)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown voice kind %d", ErrInvalidVoice, v.Kind)
	}
}

// Voicer speaks for a player.
type Voicer struct {
	Source VoiceSource
}

// SetVoice replaces the voice source.
func (e *Entity) SetVoice(v VoiceSource) error {
	if err := v.Validate(); err != nil {
		return err
	}
	e.voice = v
	return nil
}

// Voice returns the current voice source.
func (e *Entity) Voice() VoiceSource {
	return e.voice
}

// SetVoiceEndpoint uses the text to speech endpoint with the given voice.
// An empty voice id clears the voice.
func (e *Entity) SetVoiceEndpoint(voiceID string) error {
	if voiceID == "" {
		return e.SetVoice(VoiceSource{Kind: VoiceNone})
	}
	endpoint := e.tuning.VoiceEndpoint + "?voice=" + strings.ReplaceAll(url.QueryEscape(voiceID), "+", "%20")
	return e.SetVoice(VoiceSource{Kind: VoiceEndpointKind, Endpoint: endpoint})
}

// VoicePackLoader fetches the index of a voice pack.
type VoicePackLoader interface {
	LoadVoicePack(ctx context.Context, audioURL, indexURL string) (*VoicePack, error)
}

// LoadVoicePack loads and selects a voice pack.
func (e *Entity) LoadVoicePack(ctx context.Context, loader VoicePackLoader, audioURL, indexURL string) error {
	pack, err := loader.LoadVoicePack(ctx, audioURL, indexURL)
	if err != nil {
		return fmt.Errorf("failed to load voice pack %s: %v", indexURL, err)
	}
	return e.SetVoice(VoiceSource{Kind: VoicePackKind, Pack: pack})
}

// Voicer returns the voicer for the current source, or nil without a voice.
func (e *Entity) Voicer() (*Voicer, error) {
	if err := e.voice.Validate(); err != nil {
		return nil, err
	}
	if e.voice.Kind == VoiceNone {
		return nil, nil
	}
	return &Voicer{Source: e.voice}, nil
}

// HTTPVoicePackLoader reads voice pack indexes over HTTP.
type HTTPVoicePackLoader struct {
	client *http.Client
}

func NewHTTPVoicePackLoader(client *http.Client) *HTTPVoicePackLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPVoicePackLoader{client: client}
}

func (l *HTTPVoicePackLoader) LoadVoicePack(ctx context.Context, audioURL, indexURL string) (*VoicePack, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	pack := &VoicePack{AudioURL: audioURL, IndexURL: indexURL}
	if err := json.NewDecoder(resp.Body).Decode(&pack.Files); err != nil {
		return nil, fmt.Errorf("failed to decode index: %v", err)
	}
	return pack, nil
}
