// Package preset persists named camera setpoints (PresetRecord) behind a
// small Store interface, grounded on the teacher's config-loading shape
// but backed by TOML instead of JSON.
package preset

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// PresetRecord is one saved setpoint: target microsteps per axis plus the
// move shape to use when recalling it. The original prototype's single
// ambiguous "speed" value is resolved here by attaching independent
// speed/accel multipliers and an explicit duration to each record rather
// than sharing one global speed across every preset.
type PresetRecord struct {
	TargetMicrosteps [3]int64 `toml:"target_microsteps"` // pan, tilt, zoom
	DurationSeconds  float64  `toml:"duration_seconds"`
	Easing           string   `toml:"easing"`        // "linear" | "smootherstep" | "sigmoid" | "quintic"
	ApproachMode     string   `toml:"approach_mode"` // "direct" | "home-first" | "safe-route"
	SpeedScale       float64  `toml:"speed_scale"`
	AccelScale       float64  `toml:"accel_scale"`
	Precision        bool     `toml:"precision"`
}

// Store loads and saves named presets. The core only ever depends on this
// interface, never on the TOML file format directly.
type Store interface {
	Load(name string) (PresetRecord, error)
	Save(name string, rec PresetRecord) error
	Names() []string
}

type presetFile struct {
	Presets map[string]PresetRecord `toml:"presets"`
}

// FileStore is a Store backed by a single TOML file on disk.
type FileStore struct {
	path string
	data presetFile
}

// NewFileStore loads path if it exists, or starts empty if it doesn't —
// a fresh rig has no saved presets yet.
func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, data: presetFile{Presets: map[string]PresetRecord{}}}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("preset: read %s: %w", path, err)
	}
	if _, err := toml.Decode(string(raw), &fs.data); err != nil {
		return nil, fmt.Errorf("preset: decode %s: %w", path, err)
	}
	if fs.data.Presets == nil {
		fs.data.Presets = map[string]PresetRecord{}
	}
	return fs, nil
}

func (fs *FileStore) Load(name string) (PresetRecord, error) {
	rec, ok := fs.data.Presets[name]
	if !ok {
		return PresetRecord{}, fmt.Errorf("preset: no such preset %q", name)
	}
	return rec, nil
}

func (fs *FileStore) Save(name string, rec PresetRecord) error {
	fs.data.Presets[name] = rec

	f, err := os.Create(fs.path)
	if err != nil {
		return fmt.Errorf("preset: create %s: %w", fs.path, err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(fs.data)
}

func (fs *FileStore) Names() []string {
	names := make([]string, 0, len(fs.data.Presets))
	for n := range fs.data.Presets {
		names = append(names, n)
	}
	return names
}
