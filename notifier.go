package fieldtree

import (
	"strings"

	"github.com/golang/glog"
)

// ChangeKind is a set of change categories carried by a single fan-out.
type ChangeKind uint8

const (
	// AttributeChanged indicates that value attributes changed.
	AttributeChanged ChangeKind = 1 << iota

	// LockChanged indicates that the effective lock of the node may have changed.
	LockChanged

	// ChildrenChanged indicates that the node's children or their visibility changed.
	ChildrenChanged

	// CollapseChanged indicates that the node's collapsed flag changed.
	CollapseChanged
)

// Has reports whether k includes every kind in other.
func (k ChangeKind) Has(other ChangeKind) bool {
	return k&other == other && other != 0
}

// String returns the kinds joined by "|".
func (k ChangeKind) String() string {
	var parts []string
	if k.Has(AttributeChanged) {
		parts = append(parts, "attribute")
	}
	if k.Has(LockChanged) {
		parts = append(parts, "lock")
	}
	if k.Has(ChildrenChanged) {
		parts = append(parts, "children")
	}
	if k.Has(CollapseChanged) {
		parts = append(parts, "collapse")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Observer receives model change callbacks. Implementations must be
// comparable (pointer types), since registration is by identity.
type Observer interface {
	OnModelChanged(c Change)
}

// ObserverFunc adapts a function to Observer. Each call to Func creates a
// distinct observer, so keep the returned pointer to unregister it.
type ObserverFunc struct {
	fn func(Change)
}

// Func wraps fn as an Observer.
func Func(fn func(Change)) *ObserverFunc {
	return &ObserverFunc{fn: fn}
}

// OnModelChanged calls the wrapped function.
func (o *ObserverFunc) OnModelChanged(c Change) {
	o.fn(c)
}

// Change describes one fan-out event.
type Change struct {
	Node *Node
	Kind ChangeKind

	// Names lists the attributes written, for attribute and collapse changes.
	Names []string

	// Origin is the observer that produced the edit. It is skipped by the
	// fan-out because it already shows the new state. Nil for undo, redo and
	// programmatic edits.
	Origin Observer

	// Transaction is the edit that caused the change, nil for lock and
	// structural changes.
	Transaction *Transaction
}

// Touched reports whether name is among the attributes written.
func (c Change) Touched(name string) bool {
	for _, n := range c.Names {
		if n == name {
			return true
		}
	}
	return false
}

// FailureHandler is called when an observer panics during fan-out.
type FailureHandler func(o Observer, c Change, recovered any)

// registration holds the observers of one node in registration order.
type registration struct {
	observers []Observer
	primary   Observer
}

// Notifier is the observer registry: node to observer list, with fan-out on
// mutation.
type Notifier struct {
	regs      map[*Node]*registration
	onFailure FailureHandler
	depth     int
}

// NewNotifier creates an empty registry.
func NewNotifier(onFailure FailureHandler) *Notifier {
	return &Notifier{
		regs:      make(map[*Node]*registration),
		onFailure: onFailure,
	}
}

// Register adds o to n's observers. Registering an observer that is already
// present is a no-op and returns false.
func (r *Notifier) Register(n *Node, o Observer) bool {
	reg, ok := r.regs[n]
	if !ok {
		reg = &registration{}
		r.regs[n] = reg
	}
	for _, existing := range reg.observers {
		if existing == o {
			return false
		}
	}
	reg.observers = append(reg.observers, o)
	return true
}

// SetPrimary registers o as the primary observer of n, unregistering the
// previous primary if it was a different observer. Returns the previous
// primary, or nil.
func (r *Notifier) SetPrimary(n *Node, o Observer) Observer {
	prev := r.Primary(n)
	if prev != nil && prev != o {
		r.Unregister(n, prev)
	}
	r.Register(n, o)
	r.regs[n].primary = o
	if prev == o {
		return nil
	}
	return prev
}

// Primary returns the primary observer of n, or nil.
func (r *Notifier) Primary(n *Node) Observer {
	if reg, ok := r.regs[n]; ok {
		return reg.primary
	}
	return nil
}

// Unregister removes o from n's observers. Returns false if o was not
// registered.
func (r *Notifier) Unregister(n *Node, o Observer) bool {
	reg, ok := r.regs[n]
	if !ok {
		return false
	}
	for i, existing := range reg.observers {
		if existing == o {
			reg.observers = append(reg.observers[:i:i], reg.observers[i+1:]...)
			if reg.primary == o {
				reg.primary = nil
			}
			if len(reg.observers) == 0 {
				delete(r.regs, n)
			}
			return true
		}
	}
	return false
}

// Drop removes every registration of n.
func (r *Notifier) Drop(n *Node) {
	delete(r.regs, n)
}

// Observers returns a copy of n's observers in registration order.
func (r *Notifier) Observers(n *Node) []Observer {
	reg, ok := r.regs[n]
	if !ok {
		return nil
	}
	out := make([]Observer, len(reg.observers))
	copy(out, reg.observers)
	return out
}

// Len returns the total number of registrations across all nodes.
func (r *Notifier) Len() int {
	total := 0
	for _, reg := range r.regs {
		total += len(reg.observers)
	}
	return total
}

// Clear removes every registration.
func (r *Notifier) Clear() {
	r.regs = make(map[*Node]*registration)
}

// Notify delivers c to every observer of c.Node except c.Origin.
// Observers registered or removed during the fan-out do not affect it.
// Returns the number of observers called.
func (r *Notifier) Notify(c Change) int {
	observers := r.Observers(c.Node)
	if len(observers) == 0 {
		return 0
	}

	r.depth++
	defer func() { r.depth-- }()

	if glog.V(2) {
		glog.Infof("[fanout]%s kind=%s names=%v observers=%d depth=%d\n", c.Node.id, c.Kind, c.Names, len(observers), r.depth)
	}

	delivered := 0
	for _, o := range observers {
		if c.Origin != nil && o == c.Origin {
			continue
		}
		r.deliver(o, c)
		delivered++
	}
	return delivered
}

// deliver calls one observer, isolating a panic so the rest of the fan-out
// still runs.
func (r *Notifier) deliver(o Observer, c Change) {
	defer func() {
		if rec := recover(); rec != nil {
			glog.Errorf("[fanout]%s observer %T failed on %s: %v\n", c.Node.id, o, c.Kind, rec)
			if r.onFailure != nil {
				r.onFailure(o, c, rec)
			}
		}
	}()
	o.OnModelChanged(c)
}
