package fieldtree

import (
	"github.com/golang/glog"
)

// Display is one view of a document: it owns the primary binding of every
// node it has shown and builds each widget through its factory exactly
// once while the node stays in place.
type Display struct {
	doc      *Document
	factory  ViewFactory
	res      *Resources
	bindings map[*Node]*Binding

	built  int // factory calls
	closed bool
}

// NewDisplay creates a display building widgets with factory. res is passed
// to every factory call and may be nil.
func (d *Document) NewDisplay(factory ViewFactory, res *Resources) (*Display, error) {
	if factory == nil {
		return nil, ErrNoFactory
	}
	v := &Display{
		doc:      d,
		factory:  factory,
		res:      res,
		bindings: make(map[*Node]*Binding),
	}
	d.displays = append(d.displays, v)
	return v, nil
}

// Document returns the displayed document.
func (v *Display) Document() *Document {
	return v.doc
}

// Resources returns the bundle handed to the factory.
func (v *Display) Resources() *Resources {
	return v.res
}

// Root returns the primary binding of the document root, building it if
// needed.
func (v *Display) Root() (*Binding, error) {
	return v.ViewFor(v.doc.root)
}

// ViewFor returns the primary binding of n, calling the factory the first
// time n is shown. If n has children and is not collapsed, its children are
// shown too.
func (v *Display) ViewFor(n *Node) (*Binding, error) {
	if v.closed {
		return nil, ErrDisplayClosed
	}
	if n == nil {
		return nil, ErrNilNode
	}
	if n.doc != v.doc {
		return nil, ErrForeignNode
	}
	if n.released {
		return nil, ErrNodeNotFound
	}

	if b, ok := v.bindings[n]; ok {
		// A node that left the tree lost its registrations; its old widget
		// is discarded and a new one built.
		if v.doc.notifier.Primary(n) == Observer(b) {
			return b, b.showExpanded()
		}
		b.Dispose()
	}

	w, err := v.factory.NewWidget(n, v.res)
	if err != nil {
		return nil, err
	}
	v.built++

	b, err := newBinding(v.doc, n, w)
	if err != nil {
		return nil, err
	}
	b.display = v
	v.bindings[n] = b

	if prev := v.doc.notifier.SetPrimary(n, b); prev != nil {
		if old, ok := prev.(*Binding); ok && old != b {
			old.Dispose()
		}
	}
	if aware, ok := w.(BindingAware); ok {
		aware.SetBinding(b)
	}
	glog.V(2).Infof("[display]built %s for %s\n", InputTypeOf(n), n.id)

	b.refresh(b.initialChange())
	return b, b.showExpanded()
}

// showExpanded builds the child widgets of an expanded node that has none
// yet. Widgets without room for children are left alone.
func (b *Binding) showExpanded() error {
	if b.materialized || !b.node.HasChildren() || b.node.Collapsed() {
		return nil
	}
	if err := b.ShowChildren(true); err != nil && err != ErrNoContainer {
		return err
	}
	return nil
}

// Binding returns the primary binding of n without building one.
func (v *Display) Binding(n *Node) (*Binding, bool) {
	b, ok := v.bindings[n]
	if !ok || b.disposed {
		return nil, false
	}
	return b, true
}

// FactoryCalls returns how many widgets the factory has built.
func (v *Display) FactoryCalls() int {
	return v.built
}

// Len returns the number of live primary bindings.
func (v *Display) Len() int {
	return len(v.bindings)
}

// Rebind registers every live binding again, for use after the document's
// registry was cleared. Registering an already registered binding is a
// no-op.
func (v *Display) Rebind() {
	for n, b := range v.bindings {
		if n.released {
			continue
		}
		v.doc.notifier.SetPrimary(n, b)
	}
}

// forget removes b from the binding cache.
func (v *Display) forget(b *Binding) {
	if v.bindings[b.node] == b {
		delete(v.bindings, b.node)
	}
}

// Close disposes every binding and detaches the display from its document.
func (v *Display) Close() {
	if v.closed {
		return
	}
	v.closed = true
	for _, b := range v.bindings {
		b.Dispose()
	}
	v.bindings = make(map[*Node]*Binding)

	for i, other := range v.doc.displays {
		if other == v {
			v.doc.displays = append(v.doc.displays[:i], v.doc.displays[i+1:]...)
			break
		}
	}
}
