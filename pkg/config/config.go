package config

import (
	"fmt"
	"os"

	"github.com/cbodonnell/tether/pkg/game/constants"
	"gopkg.in/yaml.v3"
)

// Tuning holds the runtime tunables of the synchronization engine.
// Durations are in milliseconds to match the replicated transform.
type Tuning struct {
	InterpolationDelayMs   float64 `yaml:"interpolation_delay_ms"`
	InterpolationFrames    int     `yaml:"interpolation_frames"`
	CrouchMaxTimeMs        float64 `yaml:"crouch_max_time_ms"`
	ActivateMaxTimeMs      float64 `yaml:"activate_max_time_ms"`
	AimTransitionMaxTimeMs float64 `yaml:"aim_transition_max_time_ms"`
	NumLoadoutSlots        int     `yaml:"num_loadout_slots"`
	PushIntervalMs         int     `yaml:"push_interval_ms"`
	FrameIntervalMs        int     `yaml:"frame_interval_ms"`
	SaveIntervalMs         int     `yaml:"save_interval_ms"`
	VoiceEndpoint          string  `yaml:"voice_endpoint"`
}

// Default returns the built in tuning.
func Default() Tuning {
	return Tuning{
		InterpolationDelayMs:   constants.AvatarInterpolationTimeDelay,
		InterpolationFrames:    constants.AvatarInterpolationNumFrames,
		CrouchMaxTimeMs:        constants.CrouchMaxTime,
		ActivateMaxTimeMs:      constants.ActivateMaxTime,
		AimTransitionMaxTimeMs: constants.AimTransitionMaxTime,
		NumLoadoutSlots:        constants.NumLoadoutSlots,
		PushIntervalMs:         50,
		FrameIntervalMs:        16,
		SaveIntervalMs:         10000,
		VoiceEndpoint:          constants.VoiceEndpoint,
	}
}

// Load reads a YAML tuning file. Fields missing from the file keep their defaults.
func Load(path string) (Tuning, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("failed to read tuning file %s: %v", path, err)
	}
	return Parse(b)
}

// Parse decodes YAML tuning on top of the defaults.
func Parse(b []byte) (Tuning, error) {
	t := Default()
	if err := yaml.Unmarshal(b, &t); err != nil {
		return Tuning{}, fmt.Errorf("failed to parse tuning: %v", err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, err
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.InterpolationDelayMs < 0 {
		return fmt.Errorf("interpolation_delay_ms must not be negative")
	}
	if t.InterpolationFrames < 2 {
		return fmt.Errorf("interpolation_frames must be at least 2, got %d", t.InterpolationFrames)
	}
	if t.NumLoadoutSlots <= 0 {
		return fmt.Errorf("num_loadout_slots must be positive, got %d", t.NumLoadoutSlots)
	}
	if t.CrouchMaxTimeMs <= 0 || t.ActivateMaxTimeMs <= 0 || t.AimTransitionMaxTimeMs <= 0 {
		return fmt.Errorf("action max times must be positive")
	}
	if t.PushIntervalMs <= 0 || t.FrameIntervalMs <= 0 {
		return fmt.Errorf("push_interval_ms and frame_interval_ms must be positive")
	}
	return nil
}
