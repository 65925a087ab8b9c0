package graph

import "fmt"

// Stats carries advisory figures about a graph. Informational only, never
// part of validation.
type Stats struct {
	NodeCount           int            `json:"node_count"`
	ResponseCount       int            `json:"response_count"`
	RoleUsage           map[string]int `json:"role_usage"`
	AvgResponsesPerNode float64        `json:"avg_responses_per_node"`
	MaxDepthFromStart   int            `json:"max_depth_from_start"`
}

// Validate runs the static structure checks and returns findings as plain
// strings. Validation is advisory: findings are collected and reported, the
// data layer never blocks on them. Activation is the one gate that refuses a
// graph with findings.
func Validate(g *Graph) []string {
	var errs []string

	startCount := 0
	finalCount := 0
	seen := make(map[string]int)
	for _, n := range g.Nodes() {
		seen[n.ID]++
		if n.IsStart {
			startCount++
		}
		if n.IsFinal {
			finalCount++
		}
	}
	for id, count := range seen {
		if count > 1 {
			errs = append(errs, fmt.Sprintf("duplicate node id %s", id))
		}
	}
	if startCount == 0 {
		errs = append(errs, "no start node")
	} else if startCount > 1 {
		errs = append(errs, fmt.Sprintf("%d start nodes, expected exactly one", startCount))
	}
	if finalCount == 0 {
		errs = append(errs, "no final node")
	}

	for _, n := range g.Nodes() {
		for _, r := range g.ResponsesFrom(n.ID) {
			if r.OriginNodeID != n.ID {
				errs = append(errs, fmt.Sprintf("response %s attached to node %s but declares origin %s", r.ID, n.ID, r.OriginNodeID))
			}
			if _, ok := g.NodeByID(r.TargetNodeID); !ok {
				errs = append(errs, fmt.Sprintf("response %s targets missing node %s", r.ID, r.TargetNodeID))
			}
		}
	}

	if start := g.StartNode(); start != nil {
		for _, n := range g.Nodes() {
			if !reachable(g, start.ID, n.ID) {
				errs = append(errs, fmt.Sprintf("node %s unreachable from start", n.ID))
			}
		}
	}

	return errs
}

// ComputeStats gathers the advisory statistics for a graph.
func ComputeStats(g *Graph) Stats {
	stats := Stats{RoleUsage: make(map[string]int)}
	nodes := g.Nodes()
	stats.NodeCount = len(nodes)
	for _, n := range nodes {
		if n.SpeakerRole != "" {
			stats.RoleUsage[n.SpeakerRole]++
		}
		stats.ResponseCount += len(g.ResponsesFrom(n.ID))
	}
	if stats.NodeCount > 0 {
		stats.AvgResponsesPerNode = float64(stats.ResponseCount) / float64(stats.NodeCount)
	}
	if start := g.StartNode(); start != nil {
		stats.MaxDepthFromStart = maxDepth(g, start.ID)
	}
	return stats
}

func reachable(g *Graph, from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, r := range g.ResponsesFrom(cur) {
			next := r.TargetNodeID
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// maxDepth is the longest shortest-path distance from the start node over
// response edges. Cycles are handled by visiting each node once.
func maxDepth(g *Graph, start string) int {
	type entry struct {
		id    string
		depth int
	}
	visited := map[string]bool{start: true}
	queue := []entry{{start, 0}}
	max := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth > max {
			max = cur.depth
		}
		for _, r := range g.ResponsesFrom(cur.id) {
			if _, ok := g.NodeByID(r.TargetNodeID); !ok {
				continue
			}
			if !visited[r.TargetNodeID] {
				visited[r.TargetNodeID] = true
				queue = append(queue, entry{r.TargetNodeID, cur.depth + 1})
			}
		}
	}
	return max
}
