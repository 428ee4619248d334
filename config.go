package fieldtree

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config configures a Document.
type Config struct {
	// UndoLimit caps the undo stack (0 = unlimited).
	UndoLimit int `toml:"undo_limit"`

	// CoalesceEdits merges consecutive single-attribute edits from the same
	// view into one undo entry until the view ends its edit.
	CoalesceEdits bool `toml:"coalesce_edits"`

	// UndoCollapse records collapse and expand in the undo history.
	UndoCollapse bool `toml:"undo_collapse"`

	// ExclusiveGroups lists attribute sets where at most one member may be
	// present at a time.
	ExclusiveGroups [][]string `toml:"exclusive_groups"`

	// Structural lists attributes that stay editable on content-locked nodes.
	Structural []string `toml:"structural"`

	// ParentNotify lists attributes whose change also notifies the parent's
	// views with ChildrenChanged.
	ParentNotify []string `toml:"parent_notify"`

	// OnObserverFailure is called after an observer panic has been recovered
	// and logged.
	OnObserverFailure FailureHandler `toml:"-"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		ExclusiveGroups: [][]string{
			{AttrAbsoluteLink, AttrRelativeLink, AttrURL},
		},
		Structural:   []string{AttrCollapsed},
		ParentNotify: []string{AttrCollapsed, AttrHidden},
	}
}

// Validate checks the configuration for wiring mistakes.
func (c Config) Validate() error {
	if c.UndoLimit < 0 {
		return ErrNegativeLimit
	}
	seen := make(map[string]int)
	for i, group := range c.ExclusiveGroups {
		if len(group) < 2 {
			return errors.Wrapf(ErrGroupTooSmall, "group %d", i)
		}
		for _, name := range group {
			if prev, dup := seen[name]; dup {
				return errors.Wrapf(ErrGroupOverlap, "%q in groups %d and %d", name, prev, i)
			}
			seen[name] = i
		}
	}
	return nil
}

// ParseConfig decodes TOML over the defaults. Keys absent from data keep
// their default values; unknown keys are an error.
func ParseConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	return finishConfig(cfg, md)
}

// LoadConfig reads a TOML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	return finishConfig(cfg, md)
}

func finishConfig(cfg Config, md toml.MetaData) (Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Errorf("unknown config keys: %v", undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}
