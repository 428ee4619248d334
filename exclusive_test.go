package fieldtree

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestLinkEditClearsOtherLinkTypes(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), map[string]string{AttrRelativeLink: "../x"})

	wa, wb := &testWidget{}, &testWidget{}
	a, err := d.Bind(n, wa)
	if err != nil {
		t.Fatalf("Bind A failed: %v", err)
	}
	if _, err := d.Bind(n, wb); err != nil {
		t.Fatalf("Bind B failed: %v", err)
	}
	fanouts := &counter{}
	d.Notifier().Register(n, fanouts)

	if err := a.UserEdit(AttrAbsoluteLink, Val("/tmp/x")); err != nil {
		t.Fatalf("UserEdit failed: %v", err)
	}

	// One transaction, one fan-out, seen by B but not by A.
	assert.Equal(t, fanouts.calls, 1)
	assert.Equal(t, fanouts.last.Kind, AttributeChanged)
	assert.Equal(t, fanouts.last.Names, []string{AttrAbsoluteLink, AttrRelativeLink})
	assert.Equal(t, len(wa.refreshes), 1)
	assert.Equal(t, len(wb.refreshes), 2)

	tx := fanouts.last.Transaction
	if tx == nil {
		t.Fatal("change should carry its transaction")
	}
	assert.Equal(t, tx.New(AttrAbsoluteLink), Val("/tmp/x"))
	assert.Equal(t, tx.New(AttrRelativeLink), Null)
	assert.Equal(t, tx.Old(AttrRelativeLink), Val("../x"))

	assert.Equal(t, wb.seen[AttrAbsoluteLink], "/tmp/x")
	if _, ok := wb.seen[AttrRelativeLink]; ok {
		t.Error("widget B should no longer show a relative link")
	}

	// Undo restores both at once.
	if _, err := d.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	assert.Equal(t, fanouts.calls, 2)
	assert.Equal(t, n.Value(AttrRelativeLink), Val("../x"))
	assert.Equal(t, n.Value(AttrAbsoluteLink), Null)
}

func TestExclusiveGroupNullLeavesSiblings(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), map[string]string{AttrURL: "http://example.com"})

	n.SetAttribute(AttrRelativeLink, Null, true)
	assert.Equal(t, n.Value(AttrURL), Val("http://example.com"))
}

func TestExclusiveGroupConflictPanics(t *testing.T) {
	d := newTestDoc(t)
	n := addChild(t, d.Root(), nil)

	defer func() {
		rec := recover()
		err, ok := rec.(error)
		if !ok || !errors.Is(err, ErrExclusiveConflict) {
			t.Errorf("recovered %v, want ErrExclusiveConflict", rec)
		}
	}()
	n.SetAttributes("both", Changes{
		AttrURL:          Val("http://example.com"),
		AttrAbsoluteLink: Val("/tmp/x"),
	}, true)
}

func TestExclusiveGroupLookup(t *testing.T) {
	d := newTestDoc(t)

	assert.Equal(t, d.ExclusiveGroup(AttrURL), []string{AttrAbsoluteLink, AttrRelativeLink, AttrURL})
	if g := d.ExclusiveGroup("value"); len(g) != 0 {
		t.Errorf("ExclusiveGroup(value) = %v, want none", g)
	}
}
