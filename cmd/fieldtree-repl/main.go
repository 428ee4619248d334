// fieldtree-repl is an interactive console over a sample form document.
// Every node is shown through a console widget, so edits, undo and locks
// can be watched propagating to the views.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"
	"golang.org/x/term"

	"github.com/phroun/fieldtree"
)

const ReplVersion = "0.1.0"

// REPL holds the state of the interactive session
type REPL struct {
	cfg     fieldtree.Config
	doc     *fieldtree.Document
	display *fieldtree.Display
	editors map[string]*fieldtree.Binding
	styles  styles
	reader  *bufio.Reader
}

func main() {
	usage := `Field tree REPL.

Usage:
    fieldtree-repl [--config=<path>] [--verbosity=<level>] [--plain]
    fieldtree-repl -h | --help
    fieldtree-repl --version

Options:
    -h --help              Show this screen.
    --version              Show version.
    --config=<path>        TOML document configuration.
    --verbosity=<level>    glog verbosity [default: 0].
    --plain                Do not colour the tree.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], ReplVersion)
	if err != nil {
		panic(err)
	}

	verbosity, _ := opts.String("--verbosity")
	flag.CommandLine.Parse(nil)
	flag.Set("logtostderr", "true")
	flag.Set("v", verbosity)
	defer glog.Flush()

	cfg := fieldtree.DefaultConfig()
	cfg.CoalesceEdits = true
	if path, _ := opts.String("--config"); path != "" {
		cfg, err = fieldtree.LoadConfig(path)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	cfg.OnObserverFailure = func(o fieldtree.Observer, c fieldtree.Change, recovered any) {
		fmt.Printf("  ! view %T failed: %v\n", o, recovered)
	}

	plain, _ := opts.Bool("--plain")
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		plain = true
	}

	repl := &REPL{
		cfg:     cfg,
		editors: make(map[string]*fieldtree.Binding),
		styles:  newStyles(plain),
		reader:  bufio.NewReader(os.Stdin),
	}
	if err := repl.open(); err != nil {
		fmt.Printf("Error creating document: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Field Tree REPL - Interactive Document Model Demo")
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	for {
		fmt.Print("fieldtree> ")
		input, err := repl.reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !repl.handleCommand(input) {
			break
		}
	}

	repl.doc.Close()
}

// open creates a fresh document with the sample form and shows it.
func (r *REPL) open() error {
	if r.doc != nil {
		r.doc.Close()
	}
	doc, err := fieldtree.New(r.cfg)
	if err != nil {
		return err
	}
	if err := doc.Load(sampleForm()); err != nil {
		return err
	}

	display, err := doc.NewDisplay(newConsoleFactory(), consoleResources())
	if err != nil {
		return err
	}
	if _, err := display.Root(); err != nil {
		return err
	}

	r.doc = doc
	r.display = display
	r.editors = make(map[string]*fieldtree.Binding)
	return nil
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		fmt.Println("Goodbye!")
		return false

	case "reset":
		r.cmdReset()

	case "status":
		r.cmdStatus()

	case "tree":
		r.cmdTree()

	case "get":
		r.cmdGet(args)

	case "set":
		r.cmdSet(args)

	case "link":
		r.cmdLink(args)

	case "lock":
		r.cmdLock(args)

	case "collapse":
		r.cmdCollapse(args, true)

	case "expand":
		r.cmdCollapse(args, false)

	case "add":
		r.cmdAdd(args)

	case "remove":
		r.cmdRemove(args)

	case "open":
		r.cmdOpen(args)

	case "edit":
		r.cmdEdit(args)

	case "close":
		r.cmdClose(args)

	case "done":
		r.cmdDone(args)

	case "undo":
		r.cmdUndo()

	case "redo":
		r.cmdRedo()

	case "history":
		r.cmdHistory()

	case "batch":
		r.cmdBatch(args)

	default:
		fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	help := `
Available Commands:
-------------------

Addresses are child indexes separated by dots ("1.0" is the first child
of the second top-level field), "." for the root, or a node ID.

DOCUMENT:
  reset                        Reload the sample form
  status                       Show document and view counters
  tree                         Show the fields currently on screen

FIELDS:
  get <addr> [name]            Show one attribute or all of them
  set <addr> <name> <value>    Edit through the field's view ("-" clears)
  link <addr> abs|rel|url <to> Set one link kind, clearing the others
  lock <addr> <level>          unlocked, locked-content or locked-all
  collapse <addr>              Hide a field's children
  expand <addr>                Show a field's children
  add <addr> <title>           Append a new child field
  remove <addr>                Remove a field and its children

EDITORS (popup views on the same field):
  open <name> <addr>           Open an editor
  edit <name> <attr> <value>   Edit through the editor
  done <name>                  End the editor's current typing run
  close <name>                 Close the editor

HISTORY:
  undo                         Undo the last edit
  redo                         Redo the last undone edit
  history                      List undo entries
  batch start [label]          Start a batch (nestable)
  batch commit                 Commit the current batch level
  batch rollback               Roll back the current batch level

OTHER:
  help                         Show this help message
  quit, exit                   Exit the REPL
`
	fmt.Println(help)
}

func (r *REPL) cmdReset() {
	if err := r.open(); err != nil {
		fmt.Printf("Reset error: %v\n", err)
		return
	}
	fmt.Println("Sample form reloaded")
}

func (r *REPL) cmdStatus() {
	fmt.Println("Document Status:")
	fmt.Printf("  Nodes: %d\n", r.doc.Len())
	fmt.Printf("  Registrations: %d\n", r.doc.Notifier().Len())
	fmt.Printf("  Views: %d (factory calls: %d)\n", r.display.Len(), r.display.FactoryCalls())
	fmt.Printf("  Editors: %d\n", len(r.editors))
	fmt.Printf("  In Batch: %v (depth: %d)\n", r.doc.InBatch(), r.doc.BatchDepth())
	fmt.Printf("  Undo: %q, Redo: %q\n", r.doc.History().UndoLabel(), r.doc.History().RedoLabel())
}

func (r *REPL) cmdTree() {
	root, err := r.display.Root()
	if err != nil {
		fmt.Printf("Tree error: %v\n", err)
		return
	}
	r.printView(root, 0)
}

// printView walks the widget tree, so only materialized, visible fields
// appear.
func (r *REPL) printView(b *fieldtree.Binding, depth int) {
	n := b.Node()
	if n == nil {
		return
	}
	w, ok := b.Widget().(*consoleWidget)
	if !ok {
		return
	}

	marker := " "
	if n.HasChildren() {
		marker = "v"
		if n.Collapsed() {
			marker = ">"
		}
	}
	line := fmt.Sprintf("%s%s %-6s %s %s", strings.Repeat("  ", depth), marker, address(n), w.glyph, label(n))
	if n.Collapsed() && n.HasChildren() {
		line += fmt.Sprintf(" (%d hidden)", n.ChildCount())
	}
	fmt.Println(r.styles.forNode(b).Render(line))

	if !w.visible {
		return
	}
	for _, child := range w.children {
		if cw, ok := child.(*consoleWidget); ok && cw.binding != nil {
			r.printView(cw.binding, depth+1)
		}
	}
}

func (r *REPL) cmdGet(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: get <addr> [name]")
		return
	}
	n, err := r.resolve(args[0])
	if err != nil {
		fmt.Printf("Address error: %v\n", err)
		return
	}

	if len(args) > 1 {
		fmt.Printf("%s = %s\n", args[1], n.Value(args[1]))
		return
	}
	fmt.Printf("Field %s (%s, %s):\n", address(n), n.ID(), n.EffectiveLock())
	for _, name := range n.AttributeNames() {
		fmt.Printf("  %-18s %q\n", name, n.Value(name).Str)
	}
}

func (r *REPL) cmdSet(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: set <addr> <name> <value>")
		return
	}
	b, err := r.view(args[0])
	if err != nil {
		fmt.Printf("Address error: %v\n", err)
		return
	}

	if err := b.UserEdit(args[1], parseValue(strings.Join(args[2:], " "))); err != nil {
		fmt.Printf("Edit error: %v\n", err)
		return
	}
	fmt.Printf("%s = %s\n", args[1], b.Node().Value(args[1]))
}

func (r *REPL) cmdLink(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: link <addr> abs|rel|url <target>")
		return
	}
	b, err := r.view(args[0])
	if err != nil {
		fmt.Printf("Address error: %v\n", err)
		return
	}

	var name string
	switch strings.ToLower(args[1]) {
	case "abs":
		name = fieldtree.AttrAbsoluteLink
	case "rel":
		name = fieldtree.AttrRelativeLink
	case "url":
		name = fieldtree.AttrURL
	default:
		fmt.Println("Unknown link kind. Use: abs, rel, or url")
		return
	}

	if err := b.UserEditAll("link", fieldtree.Changes{name: fieldtree.Val(args[2])}); err != nil {
		fmt.Printf("Link error: %v\n", err)
		return
	}
	for _, member := range r.doc.ExclusiveGroup(name) {
		fmt.Printf("  %-18s %s\n", member, b.Node().Value(member))
	}
}

func (r *REPL) cmdLock(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: lock <addr> unlocked|locked-content|locked-all")
		return
	}
	n, err := r.resolve(args[0])
	if err != nil {
		fmt.Printf("Address error: %v\n", err)
		return
	}

	level := fieldtree.ParseLockLevel(strings.ToLower(args[1]))
	if !n.SetLockLevel(level) {
		fmt.Printf("Field %s is already %s\n", address(n), level)
		return
	}
	fmt.Printf("Field %s is now %s (effective: %s)\n", address(n), level, n.EffectiveLock())
}

func (r *REPL) cmdCollapse(args []string, collapsed bool) {
	if len(args) < 1 {
		fmt.Println("Usage: collapse|expand <addr>")
		return
	}
	b, err := r.view(args[0])
	if err != nil {
		fmt.Printf("Address error: %v\n", err)
		return
	}

	if err := b.SetCollapsed(collapsed); err != nil {
		fmt.Printf("Collapse error: %v\n", err)
		return
	}
	r.cmdTree()
}

func (r *REPL) cmdAdd(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: add <addr> <title>")
		return
	}
	parent, err := r.resolve(args[0])
	if err != nil {
		fmt.Printf("Address error: %v\n", err)
		return
	}

	n := r.doc.NewNode(map[string]string{"title": strings.Join(args[1:], " ")})
	if err := parent.AddChild(n); err != nil {
		fmt.Printf("Add error: %v\n", err)
		return
	}
	fmt.Printf("Added field %s (%s)\n", address(n), n.ID())
}

func (r *REPL) cmdRemove(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: remove <addr>")
		return
	}
	n, err := r.resolve(args[0])
	if err != nil {
		fmt.Printf("Address error: %v\n", err)
		return
	}
	if n.Parent() == nil {
		fmt.Println("The root cannot be removed")
		return
	}

	addr := address(n)
	if err := n.Parent().RemoveChild(n); err != nil {
		fmt.Printf("Remove error: %v\n", err)
		return
	}
	fmt.Printf("Removed field %s\n", addr)
}

func (r *REPL) cmdOpen(args []string) {
	if len(args) < 2 {
		fmt.Println("Usage: open <name> <addr>")
		return
	}
	if _, ok := r.editors[args[0]]; ok {
		fmt.Printf("Editor %q is already open\n", args[0])
		return
	}
	n, err := r.resolve(args[1])
	if err != nil {
		fmt.Printf("Address error: %v\n", err)
		return
	}

	b, err := r.doc.Bind(n, &editorWidget{name: args[0]})
	if err != nil {
		fmt.Printf("Open error: %v\n", err)
		return
	}
	r.editors[args[0]] = b
}

func (r *REPL) cmdEdit(args []string) {
	if len(args) < 3 {
		fmt.Println("Usage: edit <name> <attr> <value>")
		return
	}
	b, ok := r.editors[args[0]]
	if !ok {
		fmt.Printf("No editor named %q\n", args[0])
		return
	}
	if b.Node() == nil || b.Node().Released() {
		fmt.Printf("Editor %q shows a removed field\n", args[0])
		return
	}

	if err := b.UserEdit(args[1], parseValue(strings.Join(args[2:], " "))); err != nil {
		fmt.Printf("Edit error: %v\n", err)
	}
}

func (r *REPL) cmdDone(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: done <name>")
		return
	}
	b, ok := r.editors[args[0]]
	if !ok {
		fmt.Printf("No editor named %q\n", args[0])
		return
	}
	b.EndEdit()
}

func (r *REPL) cmdClose(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: close <name>")
		return
	}
	b, ok := r.editors[args[0]]
	if !ok {
		fmt.Printf("No editor named %q\n", args[0])
		return
	}

	b.EndEdit()
	b.Dispose()
	delete(r.editors, args[0])
	fmt.Printf("Editor %q closed\n", args[0])
}

func (r *REPL) cmdUndo() {
	info, err := r.doc.Undo()
	if err != nil {
		fmt.Printf("Undo error: %v\n", err)
		return
	}
	fmt.Printf("Undid #%d %q (%d fields: %s)\n", info.Seq, info.Label, info.Nodes, strings.Join(info.Names, ", "))
}

func (r *REPL) cmdRedo() {
	info, err := r.doc.Redo()
	if err != nil {
		fmt.Printf("Redo error: %v\n", err)
		return
	}
	fmt.Printf("Redid #%d %q (%d fields: %s)\n", info.Seq, info.Label, info.Nodes, strings.Join(info.Names, ", "))
}

func (r *REPL) cmdHistory() {
	h := r.doc.History()
	entries := h.Entries()
	redo := h.RedoEntries()

	if len(entries) == 0 && len(redo) == 0 {
		fmt.Println("  (no edits yet)")
		return
	}
	for _, info := range entries {
		fmt.Printf("  #%d %s [%s]\n", info.Seq, info.Label, strings.Join(info.Names, ", "))
	}
	fmt.Println("> current")
	for i := len(redo) - 1; i >= 0; i-- {
		fmt.Printf("  #%d %s (undone)\n", redo[i].Seq, redo[i].Label)
	}
}

func (r *REPL) cmdBatch(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: batch start [label] | batch commit | batch rollback")
		return
	}

	switch strings.ToLower(args[0]) {
	case "start":
		label := ""
		if len(args) > 1 {
			label = strings.Join(args[1:], " ")
		}
		if err := r.doc.BatchStart(label); err != nil {
			fmt.Printf("Batch start error: %v\n", err)
			return
		}
		fmt.Printf("Batch started (depth=%d, label=%q)\n", r.doc.BatchDepth(), label)

	case "commit":
		info, err := r.doc.BatchCommit()
		if err != nil {
			fmt.Printf("Batch commit error: %v\n", err)
			return
		}
		if r.doc.InBatch() {
			fmt.Printf("Inner batch committed (depth=%d)\n", r.doc.BatchDepth())
			return
		}
		fmt.Printf("Batch %q committed (%d fields)\n", info.Label, info.Nodes)

	case "rollback":
		if err := r.doc.BatchRollback(); err != nil {
			fmt.Printf("Batch rollback error: %v\n", err)
			return
		}
		fmt.Printf("Batch rolled back (depth=%d)\n", r.doc.BatchDepth())

	default:
		fmt.Println("Unknown batch command. Use: start, commit, or rollback")
	}
}

// resolve finds a node by dotted child path or by ID.
func (r *REPL) resolve(addr string) (*fieldtree.Node, error) {
	n := r.doc.Root()
	if addr == "." {
		return n, nil
	}
	if node, err := r.doc.Node(fieldtree.NodeID(addr)); err == nil {
		return node, nil
	}

	for _, part := range strings.Split(addr, ".") {
		i, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad address %q", addr)
		}
		n, err = n.Child(i)
		if err != nil {
			return nil, err
		}
	}
	return n, nil
}

// view returns the on-screen binding of the field at addr.
func (r *REPL) view(addr string) (*fieldtree.Binding, error) {
	n, err := r.resolve(addr)
	if err != nil {
		return nil, err
	}
	return r.display.ViewFor(n)
}

// address renders the dotted child path of n.
func address(n *fieldtree.Node) string {
	if n.Parent() == nil {
		return "."
	}
	var parts []string
	for c := n; c.Parent() != nil; c = c.Parent() {
		parts = append([]string{strconv.Itoa(c.Index())}, parts...)
	}
	return strings.Join(parts, ".")
}

func label(n *fieldtree.Node) string {
	title, _ := n.Attribute("title")
	if v, ok := n.Attribute("value"); ok {
		return fmt.Sprintf("%s: %s", title, v)
	}
	for _, name := range []string{fieldtree.AttrAbsoluteLink, fieldtree.AttrRelativeLink, fieldtree.AttrURL} {
		if v, ok := n.Attribute(name); ok {
			return fmt.Sprintf("%s -> %s", title, v)
		}
	}
	return title
}

// parseValue maps "-" to the absent value.
func parseValue(s string) fieldtree.Value {
	if s == "-" {
		return fieldtree.Null
	}
	return fieldtree.Val(s)
}

func sampleForm() fieldtree.NodeData {
	text := string(fieldtree.InputText)
	return fieldtree.NodeData{
		Attributes: map[string]string{"title": "Examination protocol"},
		Children: []fieldtree.NodeData{
			{Attributes: map[string]string{"title": "Patient", "value": "", fieldtree.AttrInputType: text}},
			{Attributes: map[string]string{"title": "Date", "value": "", fieldtree.AttrInputType: string(fieldtree.InputDate)}},
			{
				Attributes: map[string]string{"title": "Findings", fieldtree.AttrCollapsed: "true"},
				Children: []fieldtree.NodeData{
					{Attributes: map[string]string{"title": "Impression", "value": "", fieldtree.AttrInputType: string(fieldtree.InputTextBox)}},
					{Attributes: map[string]string{"title": "Severity", "value": "mild", fieldtree.AttrInputType: string(fieldtree.InputDropDown)}},
					{Attributes: map[string]string{"title": "Follow-up", fieldtree.AttrInputType: string(fieldtree.InputCheckbox)}},
				},
			},
			{Attributes: map[string]string{"title": "Report", fieldtree.AttrRelativeLink: "../reports/latest.pdf", fieldtree.AttrInputType: string(fieldtree.InputLink)}},
			{
				Lock:       fieldtree.LockedContent,
				Attributes: map[string]string{"title": "Template", "value": "standard v2", fieldtree.AttrInputType: string(fieldtree.InputFixedText)},
			},
		},
	}
}
