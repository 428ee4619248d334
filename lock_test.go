package fieldtree

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestLockPropagationFromGrandparent(t *testing.T) {
	d := newTestDoc(t)
	grandparent := addChild(t, d.Root(), nil)
	parent := addChild(t, grandparent, nil)
	child := addChild(t, parent, nil)

	grandparent.SetLockLevel(LockedAll)

	if child.LockLevel() != Unlocked {
		t.Errorf("child LockLevel() = %s, want unlocked", child.LockLevel())
	}
	if got := child.EffectiveLock(); got != ReadOnly {
		t.Errorf("child EffectiveLock() = %s, want read-only", got)
	}
	if child.CanEdit(AttrCollapsed) {
		t.Error("nothing should be editable under a locked-all ancestor")
	}

	grandparent.SetLockLevel(Unlocked)
	if got := child.EffectiveLock(); got != Editable {
		t.Errorf("after unlock EffectiveLock() = %s, want editable", got)
	}
}

func TestContentLockKeepsStructuralEditable(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), nil)
	child := addChild(t, n, nil)
	n.SetLockLevel(LockedContent)

	assert.Equal(t, n.EffectiveLock(), ContentLocked)
	assert.Equal(t, n.CanEdit("value"), false)
	assert.Equal(t, n.CanEdit(AttrCollapsed), true)

	// LockedContent does not reach the children.
	assert.Equal(t, child.EffectiveLock(), Editable)
}

func TestSetLockLevelNotifiesSubtree(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), nil)
	child := addChild(t, n, nil)
	grandchild := addChild(t, child, nil)

	counters := map[*Node]*counter{}
	for _, node := range []*Node{d.Root(), n, child, grandchild} {
		c := &counter{}
		counters[node] = c
		d.Notifier().Register(node, c)
	}

	if !n.SetLockLevel(LockedAll) {
		t.Fatal("SetLockLevel should report a change")
	}
	if n.SetLockLevel(LockedAll) {
		t.Error("setting the same level again should report no change")
	}

	for _, node := range []*Node{n, child, grandchild} {
		c := counters[node]
		if c.calls != 1 {
			t.Errorf("node at depth %d got %d calls, want 1", node.Depth(), c.calls)
		}
		if !c.last.Kind.Has(LockChanged) {
			t.Errorf("node at depth %d got kind %s, want lock", node.Depth(), c.last.Kind)
		}
	}
	if counters[d.Root()].calls != 0 {
		t.Errorf("root got %d calls, want 0", counters[d.Root()].calls)
	}
	if d.History().CanUndo() {
		t.Error("lock changes should not be recorded for undo")
	}
}

func TestUserEditRespectsLock(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), map[string]string{"value": "1"})
	addChild(t, n, nil)
	w := &testWidget{}
	b, err := d.Bind(n, w)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	n.SetLockLevel(LockedContent)
	assert.Equal(t, b.Editability(), ContentLocked)
	assert.Equal(t, b.UserEdit("value", Val("2")), ErrLocked)
	assert.Equal(t, n.Value("value"), Val("1"))

	// Collapse stays editable under LockedContent.
	assert.Equal(t, b.SetCollapsed(true), nil)
	assert.Equal(t, n.Collapsed(), true)

	n.SetLockLevel(LockedAll)
	assert.Equal(t, b.Editability(), ReadOnly)
	assert.Equal(t, b.SetCollapsed(false), ErrLocked)
	assert.Equal(t, n.Collapsed(), true)
}

func TestUserEditChecksClearedSiblings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Structural = append(cfg.Structural, "pinned")
	cfg.ExclusiveGroups = append(cfg.ExclusiveGroups, []string{"pinned", "value"})
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	n := addChild(t, d.Root(), map[string]string{"value": "keep"})
	b, err := d.Bind(n, &testWidget{})
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	n.SetLockLevel(LockedContent)
	assert.Equal(t, n.CanEdit("pinned"), true)

	// Pinning would clear the locked value.
	assert.Equal(t, b.UserEdit("pinned", Val("true")), ErrLocked)
	assert.Equal(t, n.Value("value"), Val("keep"))
	assert.Equal(t, n.Value("pinned"), Null)

	n.SetLockLevel(Unlocked)
	assert.Equal(t, b.UserEdit("pinned", Val("true")), nil)
	assert.Equal(t, n.Value("value"), Null)
}

func TestParseLockLevel(t *testing.T) {
	for _, level := range []LockLevel{Unlocked, LockedContent, LockedAll} {
		if got := ParseLockLevel(level.String()); got != level {
			t.Errorf("ParseLockLevel(%q) = %s, want %s", level.String(), got, level)
		}
	}
	assert.Equal(t, ParseLockLevel("bogus"), Unlocked)
}
