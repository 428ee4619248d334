package fieldtree

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, cfg.Validate(), nil)
	assert.Equal(t, cfg.Structural, []string{AttrCollapsed})
	assert.Equal(t, len(cfg.ExclusiveGroups), 1)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig(`
undo_limit = 50
coalesce_edits = true
exclusive_groups = [["a", "b"], ["c", "d", "e"]]
`)
	if err != nil {
		t.Fatalf("ParseConfig failed: %v", err)
	}

	assert.Equal(t, cfg.UndoLimit, 50)
	assert.Equal(t, cfg.CoalesceEdits, true)
	assert.Equal(t, cfg.UndoCollapse, false)
	assert.Equal(t, cfg.ExclusiveGroups, [][]string{{"a", "b"}, {"c", "d", "e"}})

	// Keys not given keep their defaults.
	assert.Equal(t, cfg.ParentNotify, []string{AttrCollapsed, AttrHidden})
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"negative limit", "undo_limit = -1", ErrNegativeLimit},
		{"small group", `exclusive_groups = [["a"]]`, ErrGroupTooSmall},
		{"overlap", `exclusive_groups = [["a", "b"], ["b", "c"]]`, ErrGroupOverlap},
	}
	for _, tt := range tests {
		_, err := ParseConfig(tt.data)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: ParseConfig error = %v, want %v", tt.name, err, tt.want)
		}
	}

	if _, err := ParseConfig("undo_limt = 3"); err == nil {
		t.Error("unknown keys should be rejected")
	}
	if _, err := ParseConfig("undo_limit = "); err == nil {
		t.Error("malformed TOML should be rejected")
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldtree.toml")
	data := "undo_collapse = true\nstructural = [\"collapsed\", \"hidden\"]\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	assert.Equal(t, cfg.UndoCollapse, true)
	assert.Equal(t, cfg.Structural, []string{AttrCollapsed, AttrHidden})

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("LoadConfig of a missing file should fail")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UndoLimit = -5
	if _, err := New(cfg); err != ErrNegativeLimit {
		t.Errorf("New error = %v, want ErrNegativeLimit", err)
	}
}

func TestConfiguredStructuralAttributes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Structural = append(cfg.Structural, AttrHidden)
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	n := addChild(t, d.Root(), nil)
	n.SetLockLevel(LockedContent)

	assert.Equal(t, n.CanEdit(AttrHidden), true)
	assert.Equal(t, d.Policy().IsStructural(AttrHidden), true)
}
