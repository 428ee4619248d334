package fieldtree

// InputType names the widget variant used to show a field.
type InputType string

// The closed set of field variants.
const (
	InputText      InputType = "text"
	InputTextBox   InputType = "textbox"
	InputNumber    InputType = "number"
	InputDate      InputType = "date"
	InputTime      InputType = "time"
	InputDropDown  InputType = "dropdown"
	InputCheckbox  InputType = "checkbox"
	InputLink      InputType = "link"
	InputTable     InputType = "table"
	InputOntology  InputType = "ontology"
	InputImage     InputType = "image"
	InputProtocol  InputType = "protocol"
	InputFixedText InputType = "fixed"
)

// InputTypeOf returns the node's input type, InputText when unset.
func InputTypeOf(n *Node) InputType {
	if v, ok := n.Attribute(AttrInputType); ok && v != "" {
		return InputType(v)
	}
	return InputText
}

// Widget is the presentation side of a binding. Refresh re-reads whatever
// the widget displays from c.Node. A Change with nil Names asks the widget
// to re-read everything.
type Widget interface {
	Refresh(c Change)
}

// ChildContainer is implemented by widgets that lay out child widgets.
type ChildContainer interface {
	InsertChild(index int, w Widget)
	RemoveChild(w Widget)
	SetChildrenVisible(visible bool)
}

// BindingAware is implemented by widgets that need their binding to emit
// user edits. SetBinding is called once, right after the binding is built.
type BindingAware interface {
	SetBinding(b *Binding)
}

// ViewFactory builds the widget for a node. A Display calls it once per
// node.
type ViewFactory interface {
	NewWidget(n *Node, res *Resources) (Widget, error)
}

// FactoryFunc adapts a function to ViewFactory.
type FactoryFunc func(n *Node, res *Resources) (Widget, error)

// NewWidget calls f.
func (f FactoryFunc) NewWidget(n *Node, res *Resources) (Widget, error) {
	return f(n, res)
}

// Variants dispatches widget construction on the node's input type.
type Variants struct {
	byType   map[InputType]FactoryFunc
	fallback FactoryFunc
}

// NewVariants creates a dispatcher. fallback builds widgets for input types
// without a handler; it may be nil.
func NewVariants(fallback FactoryFunc) *Variants {
	return &Variants{
		byType:   make(map[InputType]FactoryFunc),
		fallback: fallback,
	}
}

// Handle registers fn for input type t.
func (v *Variants) Handle(t InputType, fn FactoryFunc) *Variants {
	v.byType[t] = fn
	return v
}

// NewWidget implements ViewFactory.
func (v *Variants) NewWidget(n *Node, res *Resources) (Widget, error) {
	if fn, ok := v.byType[InputTypeOf(n)]; ok {
		return fn(n, res)
	}
	if v.fallback != nil {
		return v.fallback(n, res)
	}
	return nil, ErrUnknownInputType
}
