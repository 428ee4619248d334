package fieldtree

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestResourcesImmutable(t *testing.T) {
	entries := map[string]string{"icon.url": "globe.png"}
	r := NewResources(entries)
	entries["icon.url"] = "changed.png"

	r2 := r.With("icon.file", "folder.png")

	assert.Equal(t, r.Names(), []string{"icon.url"})
	assert.Equal(t, r2.Names(), []string{"icon.file", "icon.url"})
	assert.Equal(t, r.Lookup("icon.url", ""), "globe.png")
	assert.Equal(t, r.Lookup("icon.file", "default.png"), "default.png")
}

func TestNilResources(t *testing.T) {
	var r *Resources

	if _, ok := r.Get("anything"); ok {
		t.Error("nil bundle should be empty")
	}
	assert.Equal(t, r.Lookup("x", "fallback"), "fallback")
	assert.Equal(t, r.With("x", "1").Lookup("x", ""), "1")
}

func TestZeroValueResourcesWith(t *testing.T) {
	r := &Resources{}
	assert.Equal(t, r.Names(), []string{})

	r2 := r.With("icon.url", "globe.png")
	assert.Equal(t, r2.Lookup("icon.url", ""), "globe.png")
	assert.Equal(t, r.Names(), []string{})
}
