package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cbodonnell/tether/pkg/game/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    func(t *testing.T, got Tuning)
		wantErr bool
	}{
		{
			name:  "empty document keeps defaults",
			input: "",
			want: func(t *testing.T, got Tuning) {
				assert.Equal(t, Default(), got)
			},
		},
		{
			name:  "override crouch time",
			input: "crouch_max_time_ms: 250\nnum_loadout_slots: 4\n",
			want: func(t *testing.T, got Tuning) {
				assert.Equal(t, 250.0, got.CrouchMaxTimeMs)
				assert.Equal(t, 4, got.NumLoadoutSlots)
				assert.Equal(t, constants.ActivateMaxTime, got.ActivateMaxTimeMs)
			},
		},
		{
			name:    "reject single frame",
			input:   "interpolation_frames: 1\n",
			wantErr: true,
		},
		{
			name:    "reject malformed yaml",
			input:   "crouch_max_time_ms: [",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.want(t, got)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("push_interval_ms: 100\n"), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 100, got.PushIntervalMs)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
