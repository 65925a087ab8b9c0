package graph

import (
	"fmt"
	"sort"

	"dialogue-service/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Graph is an in-memory arena over one dialogue version. Nodes and responses
// are owned by the graph and referenced by id, never by pointer between each
// other, so cyclic structures are safe to copy and discard.
type Graph struct {
	Dialogue  *models.Dialogue
	nodes     map[string]*models.Node
	nodeOrder []string
	responses map[string]*models.Response
	// response ids per origin node, in insertion order
	byOrigin map[string][]string
}

// New assembles a graph from a dialogue and its stored nodes and responses.
// Responses whose origin node is unknown are kept addressable by id so the
// validator can report them, but they are not reachable from any node.
func New(dialogue *models.Dialogue, nodes []models.Node, responses []models.Response) *Graph {
	g := &Graph{
		Dialogue:  dialogue,
		nodes:     make(map[string]*models.Node, len(nodes)),
		responses: make(map[string]*models.Response, len(responses)),
		byOrigin:  make(map[string][]string),
	}
	for i := range nodes {
		n := nodes[i]
		g.nodes[n.ID] = &n
		g.nodeOrder = append(g.nodeOrder, n.ID)
	}
	for i := range responses {
		r := responses[i]
		g.responses[r.ID] = &r
		g.byOrigin[r.OriginNodeID] = append(g.byOrigin[r.OriginNodeID], r.ID)
	}
	return g
}

// NodeByID looks up a node.
func (g *Graph) NodeByID(id string) (*models.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// ResponseByID looks up a response across all nodes.
func (g *Graph) ResponseByID(id string) (*models.Response, bool) {
	r, ok := g.responses[id]
	return r, ok
}

// StartNode returns the first node flagged as start, or nil.
func (g *Graph) StartNode() *models.Node {
	for _, id := range g.nodeOrder {
		if n := g.nodes[id]; n.IsStart {
			return n
		}
	}
	return nil
}

// FinalNodes returns every node flagged as final, in insertion order.
func (g *Graph) FinalNodes() []*models.Node {
	var finals []*models.Node
	for _, id := range g.nodeOrder {
		if n := g.nodes[id]; n.IsFinal {
			finals = append(finals, n)
		}
	}
	return finals
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*models.Node {
	out := make([]*models.Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// ResponsesFrom returns the responses originating at a node, sorted by
// display order ascending with ties kept in insertion order.
func (g *Graph) ResponsesFrom(nodeID string) []*models.Response {
	ids := g.byOrigin[nodeID]
	out := make([]*models.Response, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.responses[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// AddNode inserts a node into the graph.
func (g *Graph) AddNode(n *models.Node) error {
	if n.ID == "" {
		return fmt.Errorf("node has no id")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("node %s already exists", n.ID)
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return nil
}

// RemoveNode deletes a node and every response whose origin or target is
// that node. Cascading edge cleanup keeps the arena free of dangling ids.
func (g *Graph) RemoveNode(id string) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	delete(g.nodes, id)
	for i, nid := range g.nodeOrder {
		if nid == id {
			g.nodeOrder = append(g.nodeOrder[:i], g.nodeOrder[i+1:]...)
			break
		}
	}
	for rid, r := range g.responses {
		if r.OriginNodeID == id || r.TargetNodeID == id {
			g.removeResponseRef(rid, r.OriginNodeID)
		}
	}
	delete(g.byOrigin, id)
	return true
}

// AddResponse inserts a response edge. The origin node must exist.
func (g *Graph) AddResponse(r *models.Response) error {
	if r.ID == "" {
		return fmt.Errorf("response has no id")
	}
	if _, exists := g.responses[r.ID]; exists {
		return fmt.Errorf("response %s already exists", r.ID)
	}
	if _, ok := g.nodes[r.OriginNodeID]; !ok {
		return fmt.Errorf("origin node %s not in graph", r.OriginNodeID)
	}
	g.responses[r.ID] = r
	g.byOrigin[r.OriginNodeID] = append(g.byOrigin[r.OriginNodeID], r.ID)
	return nil
}

// RemoveResponse deletes a single response edge.
func (g *Graph) RemoveResponse(id string) bool {
	r, ok := g.responses[id]
	if !ok {
		return false
	}
	g.removeResponseRef(id, r.OriginNodeID)
	return true
}

func (g *Graph) removeResponseRef(id, originID string) {
	delete(g.responses, id)
	ids := g.byOrigin[originID]
	for i, rid := range ids {
		if rid == id {
			g.byOrigin[originID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// Clone deep-copies the graph with fresh identifiers for the dialogue and
// every node and response, remapping all internal references. Used to
// duplicate a dialogue into a new draft; the copy shares nothing mutable
// with the original.
func (g *Graph) Clone() *Graph {
	idMap := make(map[string]string, len(g.nodes))
	dialogue := *g.Dialogue
	dialogue.ID = primitive.NewObjectID().Hex()
	dialogue.Status = models.DialogueDraft
	dialogue.Configuration = copyAnyMap(g.Dialogue.Configuration)
	dialogue.ClientMetadata = copyAnyMap(g.Dialogue.ClientMetadata)

	clone := &Graph{
		Dialogue:  &dialogue,
		nodes:     make(map[string]*models.Node, len(g.nodes)),
		responses: make(map[string]*models.Response, len(g.responses)),
		byOrigin:  make(map[string][]string),
	}
	for _, id := range g.nodeOrder {
		src := g.nodes[id]
		n := *src
		n.ID = primitive.NewObjectID().Hex()
		n.DialogueID = dialogue.ID
		n.Conditions = copyConditions(src.Conditions)
		n.Consequences = copyConsequences(src.Consequences)
		n.Metadata = copyAnyMap(src.Metadata)
		idMap[id] = n.ID
		clone.nodes[n.ID] = &n
		clone.nodeOrder = append(clone.nodeOrder, n.ID)
	}
	for _, origin := range g.nodeOrder {
		for _, rid := range g.byOrigin[origin] {
			src := g.responses[rid]
			r := *src
			r.ID = primitive.NewObjectID().Hex()
			r.DialogueID = dialogue.ID
			r.OriginNodeID = idMap[src.OriginNodeID]
			// a dangling target stays dangling in the copy; the validator
			// reports it on both
			if mapped, ok := idMap[src.TargetNodeID]; ok {
				r.TargetNodeID = mapped
			}
			r.Conditions = copyConditions(src.Conditions)
			r.Consequences = copyConsequences(src.Consequences)
			r.Metadata = copyAnyMap(src.Metadata)
			clone.responses[r.ID] = &r
			clone.byOrigin[r.OriginNodeID] = append(clone.byOrigin[r.OriginNodeID], r.ID)
		}
	}
	return clone
}

func copyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyConditions(cs []models.Condition) []models.Condition {
	if cs == nil {
		return nil
	}
	out := make([]models.Condition, len(cs))
	copy(out, cs)
	return out
}

func copyConsequences(cs []models.Consequence) []models.Consequence {
	if cs == nil {
		return nil
	}
	out := make([]models.Consequence, len(cs))
	copy(out, cs)
	return out
}
