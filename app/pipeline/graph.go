package pipeline

import (
	"context"
	"fmt"
	"log"
	"reflect"
	"strings"

	"github.com/xlab/treeprint"

	"HeroChatAI/app/errs"
)

// Values carries the named socket values flowing into or out of a stage.
type Values map[string]any

// Socket is a typed input or output slot of a Component.
type Socket struct {
	Name     string
	Type     reflect.Type
	Optional bool
}

func SocketOf[T any](name string) Socket {
	return Socket{Name: name, Type: reflect.TypeFor[T]()}
}

func OptionalSocketOf[T any](name string) Socket {
	return Socket{Name: name, Type: reflect.TypeFor[T](), Optional: true}
}

// Component is a single stage of a Graph. Run receives one value per
// connected or externally supplied input and must return every declared output.
type Component interface {
	Inputs() []Socket
	Outputs() []Socket
	Run(ctx context.Context, in Values) (Values, error)
}

type node struct {
	name      string
	component Component
	inputs    map[string]Socket
	outputs   map[string]Socket
}

type edge struct {
	from, output string
	to, input    string
}

func (e edge) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", e.from, e.output, e.to, e.input)
}

// Graph is a directed acyclic graph of components. It is assembled once
// with AddComponent and Connect and then run any number of times; Run keeps
// all intermediate values in call-local state.
type Graph struct {
	nodes map[string]*node
	names []string
	edges []edge
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*node)}
}

func (g *Graph) AddComponent(name string, c Component) error {
	if name == "" || strings.Contains(name, ".") {
		return fmt.Errorf("invalid component name %q", name)
	}
	if c == nil {
		return fmt.Errorf("component %s is nil", name)
	}
	if _, exists := g.nodes[name]; exists {
		return fmt.Errorf("component %s already added", name)
	}

	n := &node{name: name, component: c, inputs: map[string]Socket{}, outputs: map[string]Socket{}}
	for _, s := range c.Inputs() {
		if _, dup := n.inputs[s.Name]; dup {
			return fmt.Errorf("component %s declares input %s twice", name, s.Name)
		}
		n.inputs[s.Name] = s
	}
	for _, s := range c.Outputs() {
		if _, dup := n.outputs[s.Name]; dup {
			return fmt.Errorf("component %s declares output %s twice", name, s.Name)
		}
		n.outputs[s.Name] = s
	}

	g.nodes[name] = n
	g.names = append(g.names, name)
	return nil
}

// Connect links an output socket to an input socket. Both ends are written as
// "component.socket"; the socket part may be omitted when the component has a
// single socket on that side or a single one of a compatible type.
func (g *Graph) Connect(sender, receiver string) error {
	fromName, outName := splitAddress(sender)
	toName, inName := splitAddress(receiver)

	from, ok := g.nodes[fromName]
	if !ok {
		return fmt.Errorf("connect %s -> %s: unknown component %s", sender, receiver, fromName)
	}
	to, ok := g.nodes[toName]
	if !ok {
		return fmt.Errorf("connect %s -> %s: unknown component %s", sender, receiver, toName)
	}
	if fromName == toName {
		return fmt.Errorf("connect %s -> %s: component cannot feed itself", sender, receiver)
	}

	out, in, err := matchSockets(from, outName, to, inName)
	if err != nil {
		return fmt.Errorf("connect %s -> %s: %w", sender, receiver, err)
	}
	if !out.Type.AssignableTo(in.Type) {
		return fmt.Errorf("connect %s -> %s: %s is not assignable to %s", sender, receiver, out.Type, in.Type)
	}
	for _, e := range g.edges {
		if e.to == toName && e.input == in.Name {
			return fmt.Errorf("connect %s -> %s: input already fed by %s.%s", sender, receiver, e.from, e.output)
		}
	}
	if g.reaches(toName, fromName) {
		return fmt.Errorf("connect %s -> %s: would create a cycle", sender, receiver)
	}

	g.edges = append(g.edges, edge{from: fromName, output: out.Name, to: toName, input: in.Name})
	return nil
}

func splitAddress(address string) (string, string) {
	name, socket, _ := strings.Cut(address, ".")
	return name, socket
}

func matchSockets(from *node, outName string, to *node, inName string) (Socket, Socket, error) {
	outs := candidates(from.outputs, outName)
	ins := candidates(to.inputs, inName)
	if len(outs) == 0 {
		return Socket{}, Socket{}, fmt.Errorf("%s has no output %q", from.name, outName)
	}
	if len(ins) == 0 {
		return Socket{}, Socket{}, fmt.Errorf("%s has no input %q", to.name, inName)
	}
	if len(outs) == 1 && len(ins) == 1 {
		return outs[0], ins[0], nil
	}

	var pairs [][2]Socket
	for _, o := range outs {
		for _, i := range ins {
			if o.Type.AssignableTo(i.Type) {
				pairs = append(pairs, [2]Socket{o, i})
			}
		}
	}
	if len(pairs) != 1 {
		return Socket{}, Socket{}, fmt.Errorf("ambiguous connection, %d compatible socket pairs", len(pairs))
	}
	return pairs[0][0], pairs[0][1], nil
}

func candidates(sockets map[string]Socket, name string) []Socket {
	if name != "" {
		if s, ok := sockets[name]; ok {
			return []Socket{s}
		}
		return nil
	}
	out := make([]Socket, 0, len(sockets))
	for _, s := range sockets {
		out = append(out, s)
	}
	return out
}

func (g *Graph) reaches(from, target string) bool {
	seen := map[string]bool{}
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		for _, e := range g.edges {
			if e.from == cur {
				stack = append(stack, e.to)
			}
		}
	}
	return false
}

// order returns the components in topological order. Ties are broken by the
// order in which components were added.
func (g *Graph) order() []string {
	indegree := make(map[string]int, len(g.names))
	for _, e := range g.edges {
		indegree[e.to]++
	}

	done := make(map[string]bool, len(g.names))
	order := make([]string, 0, len(g.names))
	for len(order) < len(g.names) {
		for _, name := range g.names {
			if done[name] || indegree[name] > 0 {
				continue
			}
			done[name] = true
			order = append(order, name)
			for _, e := range g.edges {
				if e.from == name {
					indegree[e.to]--
				}
			}
			break
		}
	}
	return order
}

func (g *Graph) connected(name, input string) bool {
	for _, e := range g.edges {
		if e.to == name && e.input == input {
			return true
		}
	}
	return false
}

// Run executes every component once in topological order. inputs supplies
// values for sockets that no edge feeds, keyed by component name. The result
// holds, per component, the outputs that no edge consumes.
func (g *Graph) Run(ctx context.Context, inputs map[string]Values) (map[string]Values, error) {
	const op = "pipeline.Run"
	requestID := RequestID(ctx)

	state := make(map[string]Values, len(g.names))
	for name, values := range inputs {
		n, ok := g.nodes[name]
		if !ok {
			return nil, errs.New(errs.ErrPipelineExecution, op, "input for unknown component %s", name)
		}
		for socket, v := range values {
			if _, ok := n.inputs[socket]; !ok {
				return nil, errs.New(errs.ErrPipelineExecution, op, "component %s has no input %s", name, socket)
			}
			if g.connected(name, socket) {
				return nil, errs.New(errs.ErrPipelineExecution, op, "input %s.%s is already fed by a connection", name, socket)
			}
			if state[name] == nil {
				state[name] = Values{}
			}
			state[name][socket] = v
		}
	}

	results := make(map[string]Values)
	for _, name := range g.order() {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.ErrPipelineExecution, op, err)
		}

		n := g.nodes[name]
		in, err := collectInputs(n, state[name])
		if err != nil {
			return nil, errs.Wrap(errs.ErrPipelineExecution, op, err)
		}

		log.Printf("🔗 [%s] Running stage %s", requestID, name)
		out, err := n.component.Run(ctx, in)
		if err != nil {
			log.Printf("❌ [%s] Stage %s failed: %v", requestID, name, err)
			return nil, errs.Wrap(errs.ErrPipelineExecution, "pipeline."+name, err)
		}
		for socket := range n.outputs {
			if _, ok := out[socket]; !ok {
				return nil, errs.New(errs.ErrPipelineExecution, "pipeline."+name, "stage did not produce output %s", socket)
			}
		}

		consumed := map[string]bool{}
		for _, e := range g.edges {
			if e.from != name {
				continue
			}
			if state[e.to] == nil {
				state[e.to] = Values{}
			}
			state[e.to][e.input] = out[e.output]
			consumed[e.output] = true
		}
		for socket := range n.outputs {
			if consumed[socket] {
				continue
			}
			if results[name] == nil {
				results[name] = Values{}
			}
			results[name][socket] = out[socket]
		}
	}
	return results, nil
}

func collectInputs(n *node, available Values) (Values, error) {
	in := make(Values, len(n.inputs))
	for socketName, socket := range n.inputs {
		v, ok := available[socketName]
		if !ok || v == nil {
			if socket.Optional {
				continue
			}
			return nil, fmt.Errorf("stage %s is missing input %s", n.name, socketName)
		}
		if t := reflect.TypeOf(v); !t.AssignableTo(socket.Type) {
			return nil, fmt.Errorf("stage %s input %s: got %s, want %s", n.name, socketName, t, socket.Type)
		}
		in[socketName] = v
	}
	return in, nil
}

// Describe renders the components in execution order with their sockets and
// outgoing connections.
func (g *Graph) Describe() string {
	tree := treeprint.NewWithRoot("pipeline")
	for _, name := range g.order() {
		n := g.nodes[name]
		branch := tree.AddBranch(name)
		for _, s := range n.component.Inputs() {
			label := fmt.Sprintf("in  %s %s", s.Name, s.Type)
			if s.Optional {
				label += " (optional)"
			}
			branch.AddNode(label)
		}
		for _, s := range n.component.Outputs() {
			branch.AddNode(fmt.Sprintf("out %s %s", s.Name, s.Type))
		}
		for _, e := range g.edges {
			if e.from == name {
				branch.AddNode(e.String())
			}
		}
	}
	return tree.String()
}
