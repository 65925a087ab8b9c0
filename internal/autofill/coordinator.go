// Package autofill substitutes choices and participants when a role the
// trial design requires has no human attached: a random standby participant
// is seated and answers pending decision points on the role's behalf, or,
// with nobody available at all, the guest fallback response is committed as
// an automatic decision.
package autofill

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"dialogue-service/internal/eligibility"
	"dialogue-service/internal/engine"
	"dialogue-service/internal/graph"
	"dialogue-service/internal/models"
)

// ErrNoEligibleCandidate names the no-candidate outcome in reports. It is
// reported, never returned from Fill: an unfilled role is an expected state
// during live sessions, not a failure of the coordinator.
var ErrNoEligibleCandidate = errors.New("no eligible candidate")

// RosterProvider is the boundary to simulation-session management.
type RosterProvider interface {
	RolesRequired(ctx context.Context, simulationID string) ([]string, error)
	AssignedParticipant(ctx context.Context, simulationID, roleID string) (string, bool, error)
	EligibleStandbyParticipants(ctx context.Context, excludeUserIDs []string) ([]string, error)
	AssignParticipant(ctx context.Context, simulationID, roleID, userID string) error
}

// Policy bounds the synthesized response time for automatic decisions.
type Policy struct {
	MinResponseSeconds float64
	MaxResponseSeconds float64
}

func DefaultPolicy() Policy {
	return Policy{MinResponseSeconds: 5, MaxResponseSeconds: 15}
}

// Report lists what one Fill pass did. UnfilledRoles is the recoverable
// outcome: those roles stay empty and the caller retries later.
type Report struct {
	AssignedRoles map[string]string  `json:"assigned_roles"`
	AutoDecisions []*models.Decision `json:"auto_decisions"`
	UnfilledRoles []string           `json:"unfilled_roles"`
}

type Coordinator struct {
	roster RosterProvider
	policy Policy
	rand   *rand.Rand
}

// NewCoordinator builds a coordinator. A nil rng gets a time-seeded source;
// tests inject a fixed seed for deterministic selection.
func NewCoordinator(roster RosterProvider, policy Policy, rng *rand.Rand) *Coordinator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if policy.MaxResponseSeconds <= policy.MinResponseSeconds {
		policy = DefaultPolicy()
	}
	return &Coordinator{roster: roster, policy: policy, rand: rng}
}

// Fill inspects the session's current node and seats or substitutes every
// required role that has no human participant. Assignment picks uniformly at
// random from the standby pool; when the current node is a decision point
// spoken by the filled role, the seated participant's first eligible
// response is committed on their behalf as an automatic decision. With an
// empty pool the guest fallback response is committed instead.
func (c *Coordinator) Fill(ctx context.Context, trav *engine.Traversal, res *eligibility.Resolver, g *graph.Graph) (*Report, error) {
	session := trav.Session()
	required, err := c.roster.RolesRequired(ctx, session.SimulationID)
	if err != nil {
		return nil, fmt.Errorf("roles required: %w", err)
	}

	report := &Report{AssignedRoles: make(map[string]string)}
	var exclude []string
	for _, role := range required {
		if userID, ok, err := c.roster.AssignedParticipant(ctx, session.SimulationID, role); err != nil {
			return nil, fmt.Errorf("assigned participant for %s: %w", role, err)
		} else if ok {
			exclude = append(exclude, userID)
			continue
		}

		candidates, err := c.roster.EligibleStandbyParticipants(ctx, exclude)
		if err != nil {
			return nil, fmt.Errorf("standby pool: %w", err)
		}
		if len(candidates) > 0 {
			pick := candidates[c.rand.Intn(len(candidates))]
			if err := c.roster.AssignParticipant(ctx, session.SimulationID, role, pick); err != nil {
				return nil, fmt.Errorf("assign %s to %s: %w", pick, role, err)
			}
			report.AssignedRoles[role] = pick
			exclude = append(exclude, pick)
			// the seated stand-in speaks immediately when the session is
			// already waiting on this role
			decision, filled, err := c.autoDecide(ctx, trav, res, g, role,
				eligibility.Participant{UserID: pick, Registered: true, RoleID: role})
			if err != nil {
				return nil, err
			}
			if filled {
				report.AutoDecisions = append(report.AutoDecisions, decision)
			}
			continue
		}

		decision, filled, err := c.autoDecide(ctx, trav, res, g, role, eligibility.Guest)
		if err != nil {
			return nil, err
		}
		if filled {
			report.AutoDecisions = append(report.AutoDecisions, decision)
		} else {
			report.UnfilledRoles = append(report.UnfilledRoles, role)
		}
	}
	return report, nil
}

// autoDecide commits one automatic choice at the current node when that node
// is a decision point spoken by the role being filled. The participant is
// either a freshly seated stand-in or the unregistered guest, whose empty
// filter result falls back to the default option.
func (c *Coordinator) autoDecide(ctx context.Context, trav *engine.Traversal, res *eligibility.Resolver, g *graph.Graph, role string, p eligibility.Participant) (*models.Decision, bool, error) {
	session := trav.Session()
	if session.Status != models.SessionRunning {
		return nil, false, nil
	}
	node, ok := g.NodeByID(session.CurrentNodeID)
	if !ok || node.Kind != models.NodeDecision || node.SpeakerRole != role {
		return nil, false, nil
	}
	options := res.Eligible(node.ID, p, session.Variables)
	if len(options) == 0 {
		return nil, false, nil
	}
	resp := options[0]
	decision, err := trav.Advance(ctx, engine.AdvanceRequest{
		ResponseID:          resp.ID,
		UserID:              p.UserID,
		RoleID:              role,
		Registered:          p.Registered,
		ResponseTimeSeconds: c.randomResponseTime(),
		Automatic:           true,
		WasDefaultOption:    resp.IsDefaultOption,
	})
	if err != nil {
		return nil, false, fmt.Errorf("auto decision at node %s: %w", node.ID, err)
	}
	return decision, true, nil
}

// AssignForRole picks one standby participant for a single role, uniformly
// at random. Used by the on-demand assignment endpoint.
func (c *Coordinator) AssignForRole(ctx context.Context, simulationID, role string, exclude []string) (string, error) {
	candidates, err := c.roster.EligibleStandbyParticipants(ctx, exclude)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", ErrNoEligibleCandidate
	}
	pick := candidates[c.rand.Intn(len(candidates))]
	if err := c.roster.AssignParticipant(ctx, simulationID, role, pick); err != nil {
		return "", err
	}
	return pick, nil
}

func (c *Coordinator) randomResponseTime() float64 {
	span := c.policy.MaxResponseSeconds - c.policy.MinResponseSeconds
	return c.policy.MinResponseSeconds + c.rand.Float64()*span
}
