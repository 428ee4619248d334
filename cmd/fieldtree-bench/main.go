// fieldtree-bench is a benchmark and stress test for the fieldtree library.
// It builds a large form document and measures view construction, fan-out
// and undo/redo.
package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/phroun/fieldtree"
)

const (
	sections      = 200
	fieldsPerSect = 50
	observers     = 100
	edits         = 10000
)

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		if r.Extra != "" {
			return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec) %s", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec, r.Extra)
		}
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Microsecond), r.Ops, opsPerSec)
	}
	if r.Extra != "" {
		return fmt.Sprintf("%-40s %12v  %s", r.Name, r.Duration.Round(time.Microsecond), r.Extra)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Microsecond))
}

// nullWidget counts refreshes and child insertions.
type nullWidget struct {
	refreshes int
	children  int
}

func (w *nullWidget) Refresh(c fieldtree.Change) { w.refreshes++ }

func (w *nullWidget) InsertChild(index int, child fieldtree.Widget) { w.children++ }

func (w *nullWidget) RemoveChild(child fieldtree.Widget) { w.children-- }

func (w *nullWidget) SetChildrenVisible(visible bool) {}

var nullFactory = fieldtree.FactoryFunc(func(n *fieldtree.Node, res *fieldtree.Resources) (fieldtree.Widget, error) {
	return &nullWidget{}, nil
})

func main() {
	fmt.Println("Fieldtree Benchmark and Stress Test")
	fmt.Println("===================================")
	fmt.Printf("Document: %d sections x %d fields\n", sections, fieldsPerSect)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Println()

	var results []BenchResult

	runBench := func(name string, fn func() BenchResult) {
		fmt.Printf("  %-40s ", name+"...")
		result := fn()
		fmt.Printf("%v\n", result.Duration.Round(time.Microsecond))
		results = append(results, result)
	}

	fmt.Println("Document construction:")
	runBench("Load document", benchLoad)

	fmt.Println("\nView construction:")
	runBench("Eager materialization (expanded)", func() BenchResult { return benchMaterialize(false) })
	runBench("Lazy materialization (collapsed)", func() BenchResult { return benchMaterialize(true) })
	runBench("Collapse/expand toggles", benchToggle)

	fmt.Println("\nEdit operations:")
	runBench("Single-attribute edits", benchEdits)
	runBench("Fan-out to many observers", benchFanOut)
	runBench("Exclusive link edits", benchLinks)
	runBench("Batched edits", benchBatch)

	fmt.Println("\nUndo/redo operations:")
	runBench("Undo/redo cycles", benchUndoRedo)

	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	for _, r := range results {
		fmt.Println(r)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Println()
	fmt.Printf("Peak heap allocation: %d MB\n", m.HeapSys/(1024*1024))
	fmt.Printf("Total allocations: %d MB\n", m.TotalAlloc/(1024*1024))
}

func sampleData(collapsed bool) fieldtree.NodeData {
	root := fieldtree.NodeData{Attributes: map[string]string{"title": "bench"}}
	for s := 0; s < sections; s++ {
		sect := fieldtree.NodeData{Attributes: map[string]string{"title": fmt.Sprintf("section %d", s)}}
		if collapsed {
			sect.Attributes[fieldtree.AttrCollapsed] = "true"
		}
		for f := 0; f < fieldsPerSect; f++ {
			sect.Children = append(sect.Children, fieldtree.NodeData{
				Attributes: map[string]string{
					"title": fmt.Sprintf("field %d.%d", s, f),
					"value": "",
				},
			})
		}
		root.Children = append(root.Children, sect)
	}
	return root
}

func newDoc(cfg fieldtree.Config, collapsed bool) *fieldtree.Document {
	doc, err := fieldtree.New(cfg)
	if err != nil {
		fmt.Printf("Failed to create document: %v\n", err)
		os.Exit(1)
	}
	if err := doc.Load(sampleData(collapsed)); err != nil {
		fmt.Printf("Failed to load document: %v\n", err)
		os.Exit(1)
	}
	return doc
}

// firstField returns field 0 of section 0.
func firstField(doc *fieldtree.Document) *fieldtree.Node {
	sect, _ := doc.Root().Child(0)
	field, _ := sect.Child(0)
	return field
}

func benchLoad() BenchResult {
	data := sampleData(false)
	start := time.Now()
	doc, _ := fieldtree.New(fieldtree.DefaultConfig())
	doc.Load(data)
	duration := time.Since(start)

	return BenchResult{
		Name:     "Load document",
		Duration: duration,
		Ops:      1,
		Extra:    fmt.Sprintf("%d nodes", doc.Len()),
	}
}

func benchMaterialize(collapsed bool) BenchResult {
	doc := newDoc(fieldtree.DefaultConfig(), collapsed)
	defer doc.Close()

	start := time.Now()
	display, _ := doc.NewDisplay(nullFactory, nil)
	display.Root()
	duration := time.Since(start)

	name := "Eager materialization"
	if collapsed {
		name = "Lazy materialization"
	}
	return BenchResult{
		Name:     name,
		Duration: duration,
		Extra:    fmt.Sprintf("%d widgets built", display.FactoryCalls()),
	}
}

func benchToggle() BenchResult {
	doc := newDoc(fieldtree.DefaultConfig(), true)
	defer doc.Close()
	display, _ := doc.NewDisplay(nullFactory, nil)
	display.Root()

	ops := 0
	start := time.Now()

	for i := 0; i < 10; i++ {
		for _, sect := range doc.Root().Children() {
			b, _ := display.ViewFor(sect)
			b.ToggleCollapsed()
			ops++
		}
	}

	return BenchResult{
		Name:     "Collapse/expand toggles",
		Duration: time.Since(start),
		Ops:      ops,
		Extra:    fmt.Sprintf("%d widgets built", display.FactoryCalls()),
	}
}

func benchEdits() BenchResult {
	doc := newDoc(fieldtree.DefaultConfig(), false)
	defer doc.Close()
	field := firstField(doc)

	start := time.Now()
	for i := 0; i < edits; i++ {
		field.SetAttribute("value", fieldtree.Val(fmt.Sprintf("v%d", i)), true)
	}

	return BenchResult{
		Name:     "Single-attribute edits",
		Duration: time.Since(start),
		Ops:      edits,
	}
}

func benchFanOut() BenchResult {
	doc := newDoc(fieldtree.DefaultConfig(), false)
	defer doc.Close()
	field := firstField(doc)

	widgets := make([]*nullWidget, observers)
	for i := range widgets {
		widgets[i] = &nullWidget{}
		doc.Bind(field, widgets[i])
	}

	start := time.Now()
	for i := 0; i < edits/10; i++ {
		field.SetAttribute("value", fieldtree.Val(fmt.Sprintf("v%d", i)), false)
	}
	duration := time.Since(start)

	total := 0
	for _, w := range widgets {
		total += w.refreshes
	}
	return BenchResult{
		Name:     "Fan-out to many observers",
		Duration: duration,
		Ops:      edits / 10,
		Extra:    fmt.Sprintf("%d refreshes", total),
	}
}

func benchLinks() BenchResult {
	doc := newDoc(fieldtree.DefaultConfig(), false)
	defer doc.Close()
	field := firstField(doc)
	links := []string{fieldtree.AttrAbsoluteLink, fieldtree.AttrRelativeLink, fieldtree.AttrURL}

	start := time.Now()
	for i := 0; i < edits; i++ {
		field.SetAttribute(links[i%len(links)], fieldtree.Val("target"), true)
	}

	return BenchResult{
		Name:     "Exclusive link edits",
		Duration: time.Since(start),
		Ops:      edits,
	}
}

func benchBatch() BenchResult {
	doc := newDoc(fieldtree.DefaultConfig(), false)
	defer doc.Close()

	ops := 0
	start := time.Now()
	for i := 0; i < 100; i++ {
		doc.BatchStart(fmt.Sprintf("batch-%d", i))
		for _, sect := range doc.Root().Children() {
			field, _ := sect.Child(i % fieldsPerSect)
			field.SetAttribute("value", fieldtree.Val(fmt.Sprintf("b%d", i)), true)
			ops++
		}
		doc.BatchCommit()
	}

	return BenchResult{
		Name:     "Batched edits",
		Duration: time.Since(start),
		Ops:      ops,
	}
}

func benchUndoRedo() BenchResult {
	cfg := fieldtree.DefaultConfig()
	cfg.UndoLimit = 1000
	doc := newDoc(cfg, false)
	defer doc.Close()
	field := firstField(doc)

	for i := 0; i < 500; i++ {
		field.SetAttribute("value", fieldtree.Val(fmt.Sprintf("u%d", i)), true)
	}

	ops := 0
	start := time.Now()
	for i := 0; i < 10; i++ {
		for doc.History().CanUndo() {
			doc.Undo()
			ops++
		}
		for doc.History().CanRedo() {
			doc.Redo()
			ops++
		}
	}

	return BenchResult{
		Name:     "Undo/redo operations",
		Duration: time.Since(start),
		Ops:      ops,
	}
}
