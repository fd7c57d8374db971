// Package moddeps computes the module instantiation graph of a circuit.
//
// Each module maps to the set of modules it instantiates directly, found by
// walking its body including nested when and else blocks. Instances of
// undefined modules and instantiation cycles are reported as values so
// callers can keep examining the rest of the circuit.
package moddeps

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/thomasrohde/firrtl/pkg/ast"
	"github.com/thomasrohde/firrtl/pkg/diagnostics"
)

// InstanceRef is one instance statement.
type InstanceRef struct {
	Name   string
	Module string
	Span   ast.Span
}

// DanglingReference is an instance of a module the circuit does not define.
type DanglingReference struct {
	Module   string
	Instance string
	Target   string
	Span     ast.Span
}

func (d *DanglingReference) Error() string {
	return fmt.Sprintf("module '%s' instantiates undefined module '%s' as '%s'", d.Module, d.Target, d.Instance)
}

// CycleDetected is a cycle of module instantiations. Modules starts at the
// member that comes first in the circuit and follows the instance edges.
type CycleDetected struct {
	Modules []string
}

func (c *CycleDetected) Error() string {
	path := append(append([]string(nil), c.Modules...), c.Modules[0])
	return "module instantiation cycle: " + strings.Join(path, " -> ")
}

// Graph is the instantiation graph of one circuit. It is read-only once
// built.
type Graph struct {
	order     []string
	index     map[string]int
	deps      map[string]mapset.Set[string]
	instances map[string][]InstanceRef
	dangling  []DanglingReference
	cycles    []CycleDetected
}

// Build computes the graph of c. When a module name is defined more than
// once the first definition wins.
func Build(c *ast.Circuit) *Graph {
	g := &Graph{
		index:     map[string]int{},
		deps:      map[string]mapset.Set[string]{},
		instances: map[string][]InstanceRef{},
	}
	if c == nil {
		return g
	}

	var defs []ast.DefModule
	for _, m := range c.Modules {
		if ast.IsNil(m) {
			continue
		}
		name := m.ModuleName()
		if _, dup := g.index[name]; dup {
			continue
		}
		g.index[name] = len(g.order)
		g.order = append(g.order, name)
		g.deps[name] = mapset.NewThreadUnsafeSet[string]()
		defs = append(defs, m)
	}

	for _, m := range defs {
		mod, ok := m.(*ast.Module)
		if !ok {
			continue
		}
		for _, inst := range ast.Instances(mod.Body) {
			g.instances[mod.Name] = append(g.instances[mod.Name], InstanceRef{Name: inst.Name, Module: inst.Module, Span: inst.Span})
			if _, known := g.index[inst.Module]; !known {
				g.dangling = append(g.dangling, DanglingReference{
					Module:   mod.Name,
					Instance: inst.Name,
					Target:   inst.Module,
					Span:     inst.Span,
				})
				continue
			}
			g.deps[mod.Name].Add(inst.Module)
		}
	}

	g.cycles = g.findCycles()
	return g
}

// Modules returns every module name in circuit order.
func (g *Graph) Modules() []string {
	return append([]string(nil), g.order...)
}

// Mapping returns each module's direct dependencies. The sets are copies.
func (g *Graph) Mapping() map[string]mapset.Set[string] {
	out := make(map[string]mapset.Set[string], len(g.deps))
	for name, set := range g.deps {
		out[name] = set.Clone()
	}
	return out
}

// Direct returns the modules name instantiates, in circuit order.
func (g *Graph) Direct(name string) []string {
	set, ok := g.deps[name]
	if !ok {
		return nil
	}
	return g.sorted(set)
}

// Transitive returns every module reachable from name, in circuit order.
// name itself is included only when it lies on a cycle.
func (g *Graph) Transitive(name string) []string {
	if _, ok := g.deps[name]; !ok {
		return nil
	}
	seen := mapset.NewThreadUnsafeSet[string]()
	stack := g.Direct(name)
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !seen.Add(m) {
			continue
		}
		stack = append(stack, g.Direct(m)...)
	}
	return g.sorted(seen)
}

// Dependents returns the modules that instantiate name directly, in
// circuit order.
func (g *Graph) Dependents(name string) []string {
	var out []string
	for _, m := range g.order {
		if g.deps[m].Contains(name) {
			out = append(out, m)
		}
	}
	return out
}

// Instances returns the instance statements of module name in source order.
func (g *Graph) Instances(name string) []InstanceRef {
	return append([]InstanceRef(nil), g.instances[name]...)
}

// Dangling returns instances of undefined modules in circuit order.
func (g *Graph) Dangling() []DanglingReference {
	return append([]DanglingReference(nil), g.dangling...)
}

// Cycles returns every instantiation cycle, ordered by first member.
func (g *Graph) Cycles() []CycleDetected {
	return append([]CycleDetected(nil), g.cycles...)
}

func (g *Graph) HasCycle() bool {
	return len(g.cycles) > 0
}

// Problems returns the dangling references and cycles as diagnostics.
func (g *Graph) Problems() []diagnostics.Diagnostic {
	var out []diagnostics.Diagnostic
	for i := range g.dangling {
		d := &g.dangling[i]
		var span *ast.Span
		if d.Span != (ast.Span{}) {
			s := d.Span
			span = &s
		}
		out = append(out, diagnostics.MakeDiag(diagnostics.EDangling, d.Error(), span, ""))
	}
	for i := range g.cycles {
		out = append(out, diagnostics.MakeDiag(diagnostics.ECycle, g.cycles[i].Error(), nil, ""))
	}
	return out
}

// TopoOrder returns the modules with every module after the modules it
// instantiates. Ties keep circuit order. It fails with *CycleDetected when
// the graph has a cycle.
func (g *Graph) TopoOrder() ([]string, error) {
	if len(g.cycles) > 0 {
		c := g.cycles[0]
		return nil, &c
	}

	pending := make(map[string]int, len(g.order))
	for _, m := range g.order {
		pending[m] = g.deps[m].Cardinality()
	}
	done := make([]bool, len(g.order))
	out := make([]string, 0, len(g.order))
	for len(out) < len(g.order) {
		next := -1
		for i, m := range g.order {
			if !done[i] && pending[m] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		done[next] = true
		leaf := g.order[next]
		out = append(out, leaf)
		for _, m := range g.Dependents(leaf) {
			pending[m]--
		}
	}
	return out, nil
}

func (g *Graph) sorted(set mapset.Set[string]) []string {
	out := make([]string, 0, set.Cardinality())
	for _, m := range g.order {
		if set.Contains(m) {
			out = append(out, m)
		}
	}
	return out
}

// findCycles runs Tarjan's strongly connected components algorithm and
// reports one cycle per component that has one.
func (g *Graph) findCycles() []CycleDetected {
	t := &tarjan{
		g:       g,
		index:   map[string]int{},
		low:     map[string]int{},
		onStack: map[string]bool{},
	}
	for _, m := range g.order {
		if _, visited := t.index[m]; !visited {
			t.visit(m)
		}
	}

	var cycles []CycleDetected
	for _, scc := range t.components {
		first := scc[0]
		for _, m := range scc {
			if g.index[m] < g.index[first] {
				first = m
			}
		}
		if len(scc) == 1 && !g.deps[first].Contains(first) {
			continue
		}
		members := mapset.NewThreadUnsafeSet(scc...)
		cycles = append(cycles, CycleDetected{Modules: g.cyclePath(first, members)})
	}

	// order by first member
	for i := 1; i < len(cycles); i++ {
		for j := i; j > 0 && g.index[cycles[j].Modules[0]] < g.index[cycles[j-1].Modules[0]]; j-- {
			cycles[j], cycles[j-1] = cycles[j-1], cycles[j]
		}
	}
	return cycles
}

// cyclePath finds a simple path from start back to start inside one
// component, trying edges in circuit order.
func (g *Graph) cyclePath(start string, members mapset.Set[string]) []string {
	visited := mapset.NewThreadUnsafeSet[string]()
	var path []string
	var walk func(m string) bool
	walk = func(m string) bool {
		path = append(path, m)
		visited.Add(m)
		for _, next := range g.Direct(m) {
			if next == start {
				return true
			}
			if members.Contains(next) && !visited.Contains(next) && walk(next) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	walk(start)
	return path
}

type tarjan struct {
	g          *Graph
	counter    int
	index      map[string]int
	low        map[string]int
	stack      []string
	onStack    map[string]bool
	components [][]string
}

func (t *tarjan) visit(m string) {
	t.index[m] = t.counter
	t.low[m] = t.counter
	t.counter++
	t.stack = append(t.stack, m)
	t.onStack[m] = true

	for _, next := range t.g.Direct(m) {
		if _, visited := t.index[next]; !visited {
			t.visit(next)
			t.low[m] = min(t.low[m], t.low[next])
		} else if t.onStack[next] {
			t.low[m] = min(t.low[m], t.index[next])
		}
	}

	if t.low[m] != t.index[m] {
		return
	}
	var scc []string
	for {
		top := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[top] = false
		scc = append(scc, top)
		if top == m {
			break
		}
	}
	t.components = append(t.components, scc)
}
