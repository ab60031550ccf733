package preset

import (
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.toml")

	fs, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if len(fs.Names()) != 0 {
		t.Fatalf("expected empty store for nonexistent file, got %v", fs.Names())
	}

	rec := PresetRecord{
		TargetMicrosteps: [3]int64{1000, -200, 50},
		DurationSeconds:  2.5,
		Easing:           "quintic",
		ApproachMode:     "direct",
		SpeedScale:       1.0,
		AccelScale:       0.8,
	}
	if err := fs.Save("closeup", rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	fs2, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("reload NewFileStore: %v", err)
	}
	got, err := fs2.Load("closeup")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != rec {
		t.Errorf("round-tripped record = %+v, want %+v", got, rec)
	}
}

func TestLoadMissingPresetErrors(t *testing.T) {
	fs, _ := NewFileStore(filepath.Join(t.TempDir(), "presets.toml"))
	if _, err := fs.Load("nope"); err == nil {
		t.Error("expected error loading a preset that was never saved")
	}
}
