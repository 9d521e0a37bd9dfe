// Package statemachine holds the immutable transition graphs that decide
// which status changes are legal for charges and refunds, and which domain
// event each change produces.
package statemachine

import (
	"fmt"
	"sort"

	"github.com/vibast-solutions/ms-go-connector/app/events"
)

// Edge is the label of a transition. A zero Edge requires no event.
type Edge struct {
	event events.Kind
}

func NoEvent() Edge {
	return Edge{}
}

func RequiresEvent(kind events.Kind) Edge {
	return Edge{event: kind}
}

// Event returns the event kind required by the edge, if any.
func (e Edge) Event() (events.Kind, bool) {
	return e.event, e.event != events.Unspecified
}

// Transition is one edge of a graph, used for introspection.
type Transition[S ~string] struct {
	From  S
	To    S
	Event events.Kind
}

type pair[S ~string] struct {
	from S
	to   S
}

// Graph is a directed graph of statuses. It is built once and never mutated,
// so all methods are safe for concurrent use.
type Graph[S ~string] struct {
	statuses  []S
	edges     map[S]map[S]Edge
	overrides map[pair[S]]S
}

// Builder collects edges before a Graph is frozen.
type Builder[S ~string] struct {
	statuses  []S
	edges     map[S]map[S]Edge
	overrides map[pair[S]]S
}

func NewBuilder[S ~string](statuses ...S) *Builder[S] {
	edges := make(map[S]map[S]Edge, len(statuses))
	for _, s := range statuses {
		edges[s] = map[S]Edge{}
	}
	return &Builder[S]{
		statuses:  statuses,
		edges:     edges,
		overrides: map[pair[S]]S{},
	}
}

func (b *Builder[S]) Edge(from, to S, edge Edge) *Builder[S] {
	if _, ok := b.edges[from]; !ok {
		b.edges[from] = map[S]Edge{}
	}
	b.edges[from][to] = edge
	return b
}

// Intermediate pins the status used to bridge from and to when more than one
// common neighbour exists.
func (b *Builder[S]) Intermediate(from, to, via S) *Builder[S] {
	b.overrides[pair[S]{from: from, to: to}] = via
	return b
}

// Build validates the collected edges and returns the frozen graph. Every
// edge must connect declared statuses, every override must name a real
// two-hop path, and every non-adjacent pair without an override must have at
// most one intermediate candidate.
func (b *Builder[S]) Build() (*Graph[S], error) {
	declared := make(map[S]struct{}, len(b.statuses))
	for _, s := range b.statuses {
		declared[s] = struct{}{}
	}

	g := &Graph[S]{
		statuses:  append([]S(nil), b.statuses...),
		edges:     make(map[S]map[S]Edge, len(b.edges)),
		overrides: make(map[pair[S]]S, len(b.overrides)),
	}
	for from, targets := range b.edges {
		if _, ok := declared[from]; !ok {
			return nil, fmt.Errorf("edge from undeclared status %s", from)
		}
		copied := make(map[S]Edge, len(targets))
		for to, edge := range targets {
			if _, ok := declared[to]; !ok {
				return nil, fmt.Errorf("edge to undeclared status %s", to)
			}
			copied[to] = edge
		}
		g.edges[from] = copied
	}

	for p, via := range b.overrides {
		if g.hasEdge(p.from, p.to) {
			return nil, fmt.Errorf("intermediate %s given for adjacent %s and %s", via, p.from, p.to)
		}
		if !g.hasEdge(p.from, via) || !g.hasEdge(via, p.to) {
			return nil, fmt.Errorf("intermediate %s does not connect %s to %s", via, p.from, p.to)
		}
		g.overrides[p] = via
	}

	for _, from := range g.statuses {
		for _, to := range g.statuses {
			if from == to || g.hasEdge(from, to) {
				continue
			}
			if _, ok := g.overrides[pair[S]{from: from, to: to}]; ok {
				continue
			}
			if candidates := g.commonNeighbours(from, to); len(candidates) > 1 {
				return nil, fmt.Errorf("ambiguous intermediate status from %s to %s: %v", from, to, candidates)
			}
		}
	}

	return g, nil
}

// IsValidTransition reports whether the edge from -> to exists and the
// supplied event satisfies its requirement. events.Unspecified satisfies
// every edge.
func (g *Graph[S]) IsValidTransition(from, to S, event events.Kind) bool {
	edge, ok := g.edges[from][to]
	if !ok {
		return false
	}
	required, requiresEvent := edge.Event()
	if !requiresEvent {
		return true
	}
	return event.Satisfies(required)
}

// EventForTransition returns the event that must be emitted for from -> to.
// It returns false for internal transitions and for missing edges.
func (g *Graph[S]) EventForTransition(from, to S) (events.Kind, bool) {
	edge, ok := g.edges[from][to]
	if !ok {
		return events.Unspecified, false
	}
	return edge.Event()
}

// NextStatuses returns the one-edge successors of from, sorted.
func (g *Graph[S]) NextStatuses(from S) []S {
	targets := g.edges[from]
	next := make([]S, 0, len(targets))
	for to := range targets {
		next = append(next, to)
	}
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	return next
}

// IntermediateStatus returns the status to pass through when forcing a
// transition between two non-adjacent statuses. Adjacent pairs have none.
func (g *Graph[S]) IntermediateStatus(from, to S) (S, bool) {
	var zero S
	if g.hasEdge(from, to) {
		return zero, false
	}
	if via, ok := g.overrides[pair[S]{from: from, to: to}]; ok {
		return via, true
	}
	candidates := g.commonNeighbours(from, to)
	if len(candidates) == 0 {
		return zero, false
	}
	return candidates[0], true
}

func (g *Graph[S]) IsTerminal(s S) bool {
	return len(g.edges[s]) == 0
}

func (g *Graph[S]) AllStatuses() []S {
	return append([]S(nil), g.statuses...)
}

func (g *Graph[S]) AllTransitions() []Transition[S] {
	transitions := make([]Transition[S], 0)
	for _, from := range g.statuses {
		for _, to := range g.NextStatuses(from) {
			transitions = append(transitions, Transition[S]{From: from, To: to, Event: g.edges[from][to].event})
		}
	}
	return transitions
}

func (g *Graph[S]) hasEdge(from, to S) bool {
	_, ok := g.edges[from][to]
	return ok
}

func (g *Graph[S]) commonNeighbours(from, to S) []S {
	candidates := make([]S, 0, 1)
	for _, via := range g.NextStatuses(from) {
		if g.hasEdge(via, to) {
			candidates = append(candidates, via)
		}
	}
	return candidates
}
