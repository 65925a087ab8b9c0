// Package engine runs one dialogue session as a state machine over
// created → running ⇄ paused → finished. A Traversal is scoped to exactly
// one session and serializes its own operations; sharing a session id across
// traversal instances requires external locking.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dialogue-service/internal/graph"
	"dialogue-service/internal/models"
	"dialogue-service/internal/recorder"
)

// DecisionRecorder persists one decision per committed choice.
type DecisionRecorder interface {
	Record(ctx context.Context, e recorder.Entry) (*models.Decision, error)
}

// AdvanceRequest carries one choice into the engine.
type AdvanceRequest struct {
	ResponseID          string
	UserID              string
	RoleID              string
	Registered          bool
	ResponseTimeSeconds float64
	Automatic           bool
	WasDefaultOption    bool
}

// Traversal drives one DialogueSession through one dialogue graph.
type Traversal struct {
	mu       sync.Mutex
	g        *graph.Graph
	session  *models.DialogueSession
	recorder DecisionRecorder
	now      func() time.Time
}

func NewTraversal(g *graph.Graph, session *models.DialogueSession, rec DecisionRecorder) *Traversal {
	return &Traversal{
		g:        g,
		session:  session,
		recorder: rec,
		now:      time.Now,
	}
}

// Session exposes the underlying session for persistence after an operation.
func (t *Traversal) Session() *models.DialogueSession {
	return t.session
}

// Start moves the session from created to running, placing it on the
// dialogue's start node.
func (t *Traversal) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkState("start", models.SessionCreated); err != nil {
		return err
	}
	start := t.g.StartNode()
	if start == nil {
		return fmt.Errorf("dialogue %s has no start node", t.session.DialogueID)
	}
	vars, err := applyConsequences(t.session.Variables, start.Consequences)
	if err != nil {
		return err
	}
	t.session.Status = models.SessionRunning
	t.session.CurrentNodeID = start.ID
	t.session.VisitedNodeIDs = append(t.session.VisitedNodeIDs, start.ID)
	t.session.Variables = vars
	t.session.StartedAt = t.now()
	return nil
}

// Advance commits one choice: records the decision, applies consequences and
// moves to the response's target node. On any failure the session is left
// untouched. Reaching a final node does not finish the session; Finalize is
// a distinct operation because a final node may still need review.
func (t *Traversal) Advance(ctx context.Context, req AdvanceRequest) (*models.Decision, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkState("advance", models.SessionRunning); err != nil {
		return nil, err
	}
	resp, ok := t.g.ResponseByID(req.ResponseID)
	if !ok {
		return nil, fmt.Errorf("%w: response %s not found", ErrIllegalMove, req.ResponseID)
	}
	if resp.OriginNodeID != t.session.CurrentNodeID {
		return nil, fmt.Errorf("%w: response %s originates at node %s, current node is %s",
			ErrIllegalMove, resp.ID, resp.OriginNodeID, t.session.CurrentNodeID)
	}
	target, ok := t.g.NodeByID(resp.TargetNodeID)
	if !ok {
		return nil, fmt.Errorf("%w: response %s targets missing node %s", ErrIllegalMove, resp.ID, resp.TargetNodeID)
	}

	// Evaluate every consequence against a scratch copy before anything
	// mutates, so a bad operation aborts with no partial state.
	vars, err := applyConsequences(t.session.Variables, resp.Consequences)
	if err != nil {
		return nil, err
	}
	vars, err = applyConsequencesTo(vars, target.Consequences)
	if err != nil {
		return nil, err
	}

	decision, err := t.recorder.Record(ctx, recorder.Entry{
		SessionID:           t.session.ID,
		NodeID:              resp.OriginNodeID,
		ResponseID:          resp.ID,
		UserID:              req.UserID,
		RoleID:              req.RoleID,
		ResponseText:        resp.Text,
		Score:               resp.Score,
		ResponseTimeSeconds: req.ResponseTimeSeconds,
		IsAutomatic:         req.Automatic,
		WasDefaultOption:    req.WasDefaultOption,
		IsRegisteredUser:    req.Registered,
	})
	if err != nil {
		return nil, fmt.Errorf("record decision: %w", err)
	}

	t.session.Variables = vars
	t.session.CurrentNodeID = target.ID
	t.session.VisitedNodeIDs = append(t.session.VisitedNodeIDs, target.ID)
	return decision, nil
}

// Pause suspends a running session.
func (t *Traversal) Pause(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkState("pause", models.SessionRunning); err != nil {
		return err
	}
	t.session.Status = models.SessionPaused
	return nil
}

// Resume continues a paused session.
func (t *Traversal) Resume(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkState("resume", models.SessionPaused); err != nil {
		return err
	}
	t.session.Status = models.SessionRunning
	return nil
}

// Finalize closes the session from running or paused and stamps the end
// time. Terminal: no operation succeeds afterwards.
func (t *Traversal) Finalize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkState("finalize", models.SessionRunning, models.SessionPaused); err != nil {
		return err
	}
	t.session.Status = models.SessionFinished
	t.session.FinishedAt = t.now()
	return nil
}

// History returns the ordered node ids visited so far.
func (t *Traversal) History() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.History()
}

// VisitedNodeIDs returns the deduplicated set of visited node ids.
func (t *Traversal) VisitedNodeIDs() map[string]bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.VisitedSet()
}

func (t *Traversal) checkState(op string, allowed ...string) error {
	if t.session.Status == models.SessionFinished {
		return fmt.Errorf("%w: cannot %s session %s", ErrSessionClosed, op, t.session.ID)
	}
	for _, s := range allowed {
		if t.session.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s from state %q", ErrInvalidStateTransition, op, t.session.Status)
}

// applyConsequences copies the bag and applies each consequence in order.
func applyConsequences(vars map[string]models.Value, cs []models.Consequence) (map[string]models.Value, error) {
	out := make(map[string]models.Value, len(vars)+len(cs))
	for k, v := range vars {
		out[k] = v
	}
	return applyConsequencesTo(out, cs)
}

// applyConsequencesTo mutates an already-scratch bag in place.
func applyConsequencesTo(vars map[string]models.Value, cs []models.Consequence) (map[string]models.Value, error) {
	for _, c := range cs {
		switch c.Operation {
		case models.ConsequenceSet:
			vars[c.Variable] = c.Value
		case models.ConsequenceAdd, models.ConsequenceSubtract, models.ConsequenceMultiply, models.ConsequenceDivide:
			if c.Value.Kind != models.KindNumber {
				return nil, fmt.Errorf("%w: %s on %q needs a numeric operand", ErrUnsupportedConsequence, c.Operation, c.Variable)
			}
			current := vars[c.Variable]
			if current.Kind == "" {
				current = models.NumberValue(0)
			}
			if current.Kind != models.KindNumber {
				return nil, fmt.Errorf("%w: %s on non-numeric variable %q", ErrUnsupportedConsequence, c.Operation, c.Variable)
			}
			result, err := arith(c.Operation, current.Num, c.Value.Num)
			if err != nil {
				return nil, err
			}
			vars[c.Variable] = models.NumberValue(result)
		default:
			return nil, fmt.Errorf("%w: unknown operation %q", ErrUnsupportedConsequence, c.Operation)
		}
	}
	return vars, nil
}

func arith(op string, a, b float64) (float64, error) {
	switch op {
	case models.ConsequenceAdd:
		return a + b, nil
	case models.ConsequenceSubtract:
		return a - b, nil
	case models.ConsequenceMultiply:
		return a * b, nil
	case models.ConsequenceDivide:
		if b == 0 {
			return 0, fmt.Errorf("%w: divide by zero", ErrUnsupportedConsequence)
		}
		return a / b, nil
	}
	return 0, fmt.Errorf("%w: unknown operation %q", ErrUnsupportedConsequence, op)
}
