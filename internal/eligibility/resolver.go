// Package eligibility decides which responses a participant may choose at a
// node, given registration status, session role and the session variables.
package eligibility

import (
	"sort"

	"dialogue-service/internal/graph"
	"dialogue-service/internal/models"
)

// Participant describes who is asking for choices. A zero Participant is an
// unregistered guest with no role.
type Participant struct {
	UserID     string
	Registered bool
	RoleID     string
}

// Guest is the pseudo-participant used when no human is available; it forces
// the default-option fallback.
var Guest = Participant{}

// Resolver filters and orders a node's responses.
type Resolver struct {
	g *graph.Graph
}

func NewResolver(g *graph.Graph) *Resolver {
	return &Resolver{g: g}
}

// Eligible returns the responses the participant may take at the node,
// sorted ascending by display order with ties in insertion order. The
// result is a pure function of its inputs.
//
// Fallback rule: when every response is filtered out and the participant is
// unregistered, the first response flagged as default option (scan order) is
// offered alone. Registered participants get no fallback; an empty result is
// theirs to treat as a terminal condition.
func (r *Resolver) Eligible(nodeID string, p Participant, vars map[string]models.Value) []*models.Response {
	candidates := r.g.ResponsesFrom(nodeID)
	eligible := make([]*models.Response, 0, len(candidates))
	for _, resp := range candidates {
		if resp.RequiresRegisteredUser && !p.Registered {
			continue
		}
		if resp.RequiredRole != "" && resp.RequiredRole != p.RoleID {
			continue
		}
		if !EvaluateAll(resp.Conditions, vars) {
			continue
		}
		eligible = append(eligible, resp)
	}
	// ResponsesFrom already sorts; the stable re-sort documents the ordering
	// contract at this boundary without disturbing ties.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].DisplayOrder < eligible[j].DisplayOrder
	})
	if len(eligible) == 0 && !p.Registered {
		for _, resp := range candidates {
			if resp.IsDefaultOption {
				return []*models.Response{resp}
			}
		}
	}
	return eligible
}
