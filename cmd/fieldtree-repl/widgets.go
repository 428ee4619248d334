package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/phroun/fieldtree"
)

// consoleWidget is the on-screen view of one field. It keeps its child
// widgets in order and remembers whether they are shown.
type consoleWidget struct {
	kind    fieldtree.InputType
	glyph   string
	binding *fieldtree.Binding

	children  []fieldtree.Widget
	visible   bool
	refreshes int
	invalid   bool
}

func (w *consoleWidget) SetBinding(b *fieldtree.Binding) {
	w.binding = b
}

func (w *consoleWidget) Refresh(c fieldtree.Change) {
	w.refreshes++
	if w.kind == fieldtree.InputDate {
		v, _ := c.Node.Attribute("value")
		w.invalid = v != "" && !looksLikeDate(v)
	}
}

func (w *consoleWidget) InsertChild(index int, child fieldtree.Widget) {
	w.children = append(w.children, nil)
	copy(w.children[index+1:], w.children[index:])
	w.children[index] = child
}

func (w *consoleWidget) RemoveChild(child fieldtree.Widget) {
	for i, c := range w.children {
		if c == child {
			w.children = append(w.children[:i], w.children[i+1:]...)
			return
		}
	}
}

func (w *consoleWidget) SetChildrenVisible(visible bool) {
	w.visible = visible
}

// looksLikeDate accepts YYYY-MM-DD.
func looksLikeDate(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, r := range s {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// editorWidget is a popup editor. It prints what it is told so the user
// can watch fan-out reach it.
type editorWidget struct {
	name string
}

func (w *editorWidget) Refresh(c fieldtree.Change) {
	if c.Kind == fieldtree.LockChanged {
		fmt.Printf("  [%s] now %s\n", w.name, c.Node.EffectiveLock())
		return
	}
	if c.Names == nil && c.Transaction == nil {
		fmt.Printf("  [%s] showing %s\n", w.name, label(c.Node))
		return
	}
	var vals []string
	for _, name := range c.Names {
		vals = append(vals, fmt.Sprintf("%s=%s", name, c.Node.Value(name)))
	}
	fmt.Printf("  [%s] %s %s\n", w.name, c.Kind, strings.Join(vals, " "))
}

// newConsoleFactory dispatches on input type; every variant is a
// consoleWidget with its own glyph.
func newConsoleFactory() fieldtree.ViewFactory {
	variant := func(t fieldtree.InputType) fieldtree.FactoryFunc {
		return func(n *fieldtree.Node, res *fieldtree.Resources) (fieldtree.Widget, error) {
			return &consoleWidget{kind: t, glyph: res.Lookup("glyph."+string(t), "-")}, nil
		}
	}

	v := fieldtree.NewVariants(variant(fieldtree.InputText))
	for _, t := range []fieldtree.InputType{
		fieldtree.InputTextBox,
		fieldtree.InputDate,
		fieldtree.InputDropDown,
		fieldtree.InputCheckbox,
		fieldtree.InputLink,
		fieldtree.InputFixedText,
	} {
		v.Handle(t, variant(t))
	}
	return v
}

func consoleResources() *fieldtree.Resources {
	return fieldtree.NewResources(map[string]string{
		"glyph." + string(fieldtree.InputText):      "T",
		"glyph." + string(fieldtree.InputTextBox):   "P",
		"glyph." + string(fieldtree.InputDate):      "D",
		"glyph." + string(fieldtree.InputDropDown):  "v",
		"glyph." + string(fieldtree.InputCheckbox):  "x",
		"glyph." + string(fieldtree.InputLink):      "@",
		"glyph." + string(fieldtree.InputFixedText): "#",
	})
}

// styles renders tree lines by editability.
type styles struct {
	editable lipgloss.Style
	content  lipgloss.Style
	readOnly lipgloss.Style
	invalid  lipgloss.Style
}

func newStyles(plain bool) styles {
	if plain {
		s := lipgloss.NewStyle()
		return styles{editable: s, content: s, readOnly: s, invalid: s}
	}
	return styles{
		editable: lipgloss.NewStyle(),
		content:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		readOnly: lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
		invalid:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

func (s styles) forNode(b *fieldtree.Binding) lipgloss.Style {
	if w, ok := b.Widget().(*consoleWidget); ok && w.invalid {
		return s.invalid
	}
	switch b.Editability() {
	case fieldtree.ContentLocked:
		return s.content
	case fieldtree.ReadOnly:
		return s.readOnly
	}
	return s.editable
}
