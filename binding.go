package fieldtree

import (
	"github.com/golang/glog"
)

// Binding connects one widget to one node. It receives model changes and
// forwards them to the widget, and turns the widget's edits into
// transactions on the node. While a binding is refreshing its widget, edits
// coming back from the widget are ignored, so a refresh never produces a
// new edit.
type Binding struct {
	doc     *Document
	display *Display // nil for auxiliary bindings
	node    *Node
	widget  Widget

	container ChildContainer
	children  []*Binding

	refreshing   bool
	materialized bool
	visible      bool
	disposed     bool
}

// newBinding builds a binding without registering it.
func newBinding(d *Document, n *Node, w Widget) (*Binding, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	if w == nil {
		return nil, ErrNilWidget
	}
	if n.doc != d {
		return nil, ErrForeignNode
	}
	if n.store == nil {
		return nil, ErrNoAttributeStore
	}
	b := &Binding{doc: d, node: n, widget: w}
	if c, ok := w.(ChildContainer); ok {
		b.container = c
	}
	return b, nil
}

// Bind attaches an auxiliary binding for w to n, such as a popup editor
// showing the same field as the main view. The widget is refreshed once
// with the current state before Bind returns.
func (d *Document) Bind(n *Node, w Widget) (*Binding, error) {
	b, err := newBinding(d, n, w)
	if err != nil {
		return nil, err
	}
	if n.released {
		return nil, ErrNodeNotFound
	}
	d.notifier.Register(n, b)
	if aware, ok := w.(BindingAware); ok {
		aware.SetBinding(b)
	}
	b.refresh(b.initialChange())
	return b, nil
}

// initialChange asks the widget to re-read everything.
func (b *Binding) initialChange() Change {
	return Change{Node: b.node, Kind: AttributeChanged | LockChanged | CollapseChanged}
}

// Node returns the bound node, or nil once the binding is disposed.
func (b *Binding) Node() *Node {
	if b.disposed {
		return nil
	}
	return b.node
}

// Widget returns the bound widget.
func (b *Binding) Widget() Widget {
	return b.widget
}

// Disposed reports whether the binding has been disposed.
func (b *Binding) Disposed() bool {
	return b.disposed
}

// Materialized reports whether child views have been built.
func (b *Binding) Materialized() bool {
	return b.materialized
}

// ChildrenVisible reports whether child views are currently shown.
func (b *Binding) ChildrenVisible() bool {
	return b.visible
}

// ChildBindings returns the bindings of materialized children in order.
func (b *Binding) ChildBindings() []*Binding {
	return append([]*Binding(nil), b.children...)
}

// stale reports whether the binding has lost its node.
func (b *Binding) stale() bool {
	return b.disposed || b.node == nil || b.node.released
}

// Editability returns the effective lock of the bound node. Stale bindings
// are read-only.
func (b *Binding) Editability() Editability {
	if b.stale() {
		return ReadOnly
	}
	return b.doc.policy.Effective(b.node)
}

// OnModelChanged implements Observer. Changes arriving after the node was
// removed are ignored.
func (b *Binding) OnModelChanged(c Change) {
	if b.stale() {
		return
	}
	if c.Kind.Has(CollapseChanged) && b.display != nil && b.container != nil {
		b.ShowChildren(!b.node.Collapsed())
	}
	if c.Kind.Has(ChildrenChanged) {
		if b.materialized {
			b.syncChildren()
		} else if b.display != nil && b.container != nil && b.node.HasChildren() && !b.node.Collapsed() {
			// First child added to an expanded node.
			b.ShowChildren(true)
		}
	}
	b.refresh(c)
}

// refresh calls the widget with the guard set.
func (b *Binding) refresh(c Change) {
	if b.refreshing {
		return
	}
	b.refreshing = true
	defer func() { b.refreshing = false }()
	b.widget.Refresh(c)
}

// UserEdit sets one attribute on behalf of the widget. The widget is not
// notified of its own edit; every other view of the node is.
func (b *Binding) UserEdit(name string, v Value) error {
	return b.UserEditAll(name, Changes{name: v})
}

// UserEditAll sets several attributes atomically on behalf of the widget.
// Edits are ignored while the widget is being refreshed and after the node
// is gone. Returns ErrLocked if the lock policy forbids any of them.
func (b *Binding) UserEditAll(label string, changes Changes) error {
	if b.stale() || b.refreshing {
		return nil
	}
	if !b.canEdit(changes) {
		return ErrLocked
	}
	b.doc.edit(b.node, label, changes, true, b)
	return nil
}

// canEdit checks the lock policy against every attribute the edit will
// write, including exclusive-group siblings it clears.
func (b *Binding) canEdit(changes Changes) bool {
	for name := range b.doc.groups.expand(changes) {
		if !b.doc.policy.CanEdit(b.node, name) {
			return false
		}
	}
	return true
}

// EndEdit closes the current undo entry, so the next edit of the same
// attribute starts a new one. Widgets call it when they lose focus.
func (b *Binding) EndEdit() {
	b.doc.history.Seal()
}

// SetChildContainer sets where child widgets are placed. By default the
// widget itself is used when it implements ChildContainer.
func (b *Binding) SetChildContainer(c ChildContainer) {
	b.container = c
}

// SetCollapsed stores the collapse flag and shows or hides the children.
func (b *Binding) SetCollapsed(collapsed bool) error {
	if b.stale() {
		return nil
	}
	changes := Changes{AttrCollapsed: Bool(collapsed)}
	if !b.canEdit(changes) {
		return ErrLocked
	}
	b.doc.edit(b.node, "collapse", changes, b.doc.undoCollapse, b)

	// The binding is the origin of the edit and does not receive it.
	err := b.ShowChildren(!collapsed)
	if err == ErrNoContainer || err == ErrNoDisplay {
		return nil
	}
	return err
}

// ToggleCollapsed flips the collapse flag.
func (b *Binding) ToggleCollapsed() error {
	if b.stale() {
		return nil
	}
	return b.SetCollapsed(!b.node.Collapsed())
}

// ShowChildren shows or hides child widgets. The first time the children
// are shown their widgets are built through the display's factory; later
// calls only change visibility. If the factory fails, the widgets built so
// far are taken out of the container and the next call tries again; their
// bindings stay with the display, so the retry does not rebuild them.
func (b *Binding) ShowChildren(visible bool) error {
	if b.stale() {
		return nil
	}
	if b.display == nil {
		return ErrNoDisplay
	}
	if b.container == nil {
		return ErrNoContainer
	}

	if visible && !b.materialized {
		children := make([]*Binding, 0, len(b.node.children))
		for i, child := range b.node.children {
			cb, err := b.display.ViewFor(child)
			if err != nil {
				for _, built := range children {
					b.container.RemoveChild(built.widget)
				}
				glog.V(1).Infof("[display]children of %s not built: %v\n", b.node.id, err)
				return err
			}
			children = append(children, cb)
			b.container.InsertChild(i, cb.widget)
		}
		b.children = children
		b.materialized = true
	}

	b.visible = visible
	b.container.SetChildrenVisible(visible)
	return nil
}

// syncChildren brings materialized child widgets in line with the node's
// current children.
func (b *Binding) syncChildren() {
	current := make(map[*Node]bool, len(b.node.children))
	for _, c := range b.node.children {
		current[c] = true
	}

	kept := make(map[*Node]*Binding, len(b.children))
	for _, cb := range b.children {
		if current[cb.node] && !cb.node.released {
			kept[cb.node] = cb
			continue
		}
		if b.container != nil {
			b.container.RemoveChild(cb.widget)
		}
		cb.Dispose()
	}

	children := make([]*Binding, 0, len(b.node.children))
	for _, c := range b.node.children {
		if cb, ok := kept[c]; ok {
			children = append(children, cb)
			continue
		}
		cb, err := b.display.ViewFor(c)
		if cb == nil {
			glog.V(1).Infof("[display]child %s not built: %v\n", c.id, err)
			continue
		}
		children = append(children, cb)
		if b.container != nil {
			b.container.InsertChild(len(children)-1, cb.widget)
		}
	}
	b.children = children
}

// Dispose unregisters the binding and its materialized children. Call it
// when the widget leaves the screen.
func (b *Binding) Dispose() {
	if b.disposed {
		return
	}
	b.disposed = true
	b.doc.notifier.Unregister(b.node, b)
	for _, cb := range b.children {
		cb.Dispose()
	}
	b.children = nil
	if b.display != nil {
		b.display.forget(b)
	}
}
