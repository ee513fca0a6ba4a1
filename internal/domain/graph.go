package domain

import (
	"fmt"
	"sort"
)

// StepGraph is the previous/next structure of one flow's steps.
//
// Steps live in an arena keyed by id and edges run from a step to the steps
// that name it as previous. The graph is built from a snapshot of the flow and
// is not kept between calls.
type StepGraph struct {
	flowID string
	steps  map[string]Step
	next   map[string][]string
	ids    []string
}

// NewStepGraph builds the graph of flowID from its steps. Steps of other flows
// are ignored, and so are links to steps outside the flow.
func NewStepGraph(flowID string, steps []Step) *StepGraph {
	g := &StepGraph{
		flowID: flowID,
		steps:  make(map[string]Step, len(steps)),
		next:   make(map[string][]string),
	}
	for _, s := range steps {
		if s.FlowID != flowID {
			continue
		}
		g.steps[s.ID] = s
		g.ids = append(g.ids, s.ID)
	}
	sort.Strings(g.ids)
	for _, id := range g.ids {
		s := g.steps[id]
		if !s.HasPrevious() {
			continue
		}
		if _, ok := g.steps[*s.PreviousStepID]; ok {
			g.next[*s.PreviousStepID] = append(g.next[*s.PreviousStepID], id)
		}
	}
	return g
}

// FlowID returns the flow the graph was built for.
func (g *StepGraph) FlowID() string { return g.flowID }

// Len returns the number of steps in the graph.
func (g *StepGraph) Len() int { return len(g.ids) }

// Contains reports whether id is a step of this flow.
func (g *StepGraph) Contains(id string) bool {
	_, ok := g.steps[id]
	return ok
}

// NextSteps returns the ids of the steps whose previous step is id, sorted.
func (g *StepGraph) NextSteps(id string) []string {
	out := make([]string, len(g.next[id]))
	copy(out, g.next[id])
	return out
}

// Descendants returns every step reachable from id through next links, in
// breadth-first order. id itself is not included.
func (g *StepGraph) Descendants(id string) []string {
	visited := map[string]bool{id: true}
	queue := append([]string(nil), g.next[id]...)
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		out = append(out, cur)
		queue = append(queue, g.next[cur]...)
	}
	return out
}

// EligiblePrevious returns the steps that may become the previous step of
// stepID: every step of the flow except stepID and its descendants, ordered
// by id. An empty stepID (a step not yet created) makes every step eligible.
func (g *StepGraph) EligiblePrevious(stepID string) []Step {
	excluded := map[string]bool{stepID: true}
	for _, d := range g.Descendants(stepID) {
		excluded[d] = true
	}
	out := make([]Step, 0, len(g.ids))
	for _, id := range g.ids {
		if !excluded[id] {
			out = append(out, g.steps[id])
		}
	}
	return out
}

// ValidatePrevious checks that candidateID may become the previous step of
// stepID. An empty candidate clears the link and is always accepted.
func (g *StepGraph) ValidatePrevious(stepID, candidateID string) error {
	if candidateID == "" {
		return nil
	}
	if !g.Contains(candidateID) {
		return fmt.Errorf("%w: %s is not in flow %s", ErrCrossFlowRejected, candidateID, g.flowID)
	}
	if candidateID == stepID {
		return fmt.Errorf("%w: %s cannot precede itself", ErrCycleRejected, stepID)
	}
	for _, d := range g.Descendants(stepID) {
		if d == candidateID {
			return fmt.Errorf("%w: %s follows %s", ErrCycleRejected, candidateID, stepID)
		}
	}
	return nil
}

// CanDelete reports whether no step names id as its previous step.
func (g *StepGraph) CanDelete(id string) bool {
	return len(g.next[id]) == 0
}
