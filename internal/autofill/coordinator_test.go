package autofill

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"dialogue-service/internal/eligibility"
	"dialogue-service/internal/engine"
	"dialogue-service/internal/graph"
	"dialogue-service/internal/models"
	"dialogue-service/internal/recorder"
)

// fakeRoster is an in-test RosterProvider over plain maps.
type fakeRoster struct {
	required []string
	assigned map[string]string
	standby  []string
}

func (f *fakeRoster) RolesRequired(ctx context.Context, simulationID string) ([]string, error) {
	return f.required, nil
}

func (f *fakeRoster) AssignedParticipant(ctx context.Context, simulationID, roleID string) (string, bool, error) {
	u, ok := f.assigned[roleID]
	return u, ok, nil
}

func (f *fakeRoster) EligibleStandbyParticipants(ctx context.Context, exclude []string) ([]string, error) {
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	var out []string
	for _, id := range f.standby {
		if !skip[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeRoster) AssignParticipant(ctx context.Context, simulationID, roleID, userID string) error {
	if f.assigned == nil {
		f.assigned = make(map[string]string)
	}
	f.assigned[roleID] = userID
	return nil
}

// hearingFixture puts a running session on a decision node spoken by the
// judge, with a default-option response leading to the end.
func hearingFixture(t *testing.T) (*engine.Traversal, *eligibility.Resolver, *graph.Graph) {
	t.Helper()
	dialogue := &models.Dialogue{ID: "d1", Status: models.DialogueActive}
	nodes := []models.Node{
		{ID: "ruling", Kind: models.NodeDecision, SpeakerRole: "juez", IsStart: true},
		{ID: "closed", Kind: models.NodeEnd, IsFinal: true},
	}
	responses := []models.Response{
		{ID: "r-admit", OriginNodeID: "ruling", TargetNodeID: "closed", Text: "Admit evidence", DisplayOrder: 1, RequiresRegisteredUser: true},
		{ID: "r-recess", OriginNodeID: "ruling", TargetNodeID: "closed", Text: "Call a recess", DisplayOrder: 2, IsDefaultOption: true},
	}
	g := graph.New(dialogue, nodes, responses)
	session := &models.DialogueSession{ID: "s1", SimulationID: "sim1", DialogueID: "d1", Status: models.SessionCreated}
	trav := engine.NewTraversal(g, session, recorder.New(recorder.NewMemoryStore()))
	if err := trav.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return trav, eligibility.NewResolver(g), g
}

func TestFillSeatsStandbyWhoThenSpeaks(t *testing.T) {
	trav, res, g := hearingFixture(t)
	roster := &fakeRoster{
		required: []string{"juez", "fiscal"},
		assigned: map[string]string{"fiscal": "u-fiscal"},
		standby:  []string{"u1", "u2", "u3"},
	}
	c := NewCoordinator(roster, DefaultPolicy(), rand.New(rand.NewSource(7)))

	report, err := c.Fill(context.Background(), trav, res, g)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	pick, ok := report.AssignedRoles["juez"]
	if !ok {
		t.Fatalf("juez not assigned: %+v", report)
	}
	if pick != "u1" && pick != "u2" && pick != "u3" {
		t.Fatalf("assigned %q, not from the standby pool", pick)
	}
	if roster.assigned["juez"] != pick {
		t.Fatalf("roster not updated: %v", roster.assigned)
	}
	// fiscal already had a human and must be untouched
	if roster.assigned["fiscal"] != "u-fiscal" {
		t.Fatalf("fiscal reassigned: %v", roster.assigned)
	}

	// the ruling node waits on the judge, so the stand-in answers on the
	// role's behalf in the same pass
	if len(report.AutoDecisions) != 1 || len(report.UnfilledRoles) != 0 {
		t.Fatalf("report = %+v", report)
	}
	d := report.AutoDecisions[0]
	if !d.IsAutomatic {
		t.Error("decision not flagged automatic")
	}
	if d.UserID != pick {
		t.Errorf("decision user = %q, want the seated candidate %q", d.UserID, pick)
	}
	if !d.IsRegisteredUser {
		t.Error("seated stand-in not flagged registered")
	}
	if d.RoleID != "juez" {
		t.Errorf("decision role = %q, want juez", d.RoleID)
	}
	// a registered judge takes the first eligible response, not the fallback
	if d.ResponseID != "r-admit" {
		t.Errorf("took %s, want r-admit", d.ResponseID)
	}
	if d.WasDefaultOption {
		t.Error("registered choice flagged as default option")
	}
	if trav.Session().CurrentNodeID != "closed" {
		t.Errorf("session on %s, want closed", trav.Session().CurrentNodeID)
	}
}

func TestFillSeatOnlyWhenRoleNotSpeaking(t *testing.T) {
	trav, res, g := hearingFixture(t)
	// the ruling node is spoken by the judge; seating a fiscal must not
	// commit anything
	roster := &fakeRoster{required: []string{"fiscal"}, standby: []string{"u1"}}
	c := NewCoordinator(roster, DefaultPolicy(), rand.New(rand.NewSource(3)))

	report, err := c.Fill(context.Background(), trav, res, g)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if report.AssignedRoles["fiscal"] != "u1" {
		t.Fatalf("report = %+v", report)
	}
	if len(report.AutoDecisions) != 0 {
		t.Fatalf("auto decision for a non-speaking role: %+v", report)
	}
	if trav.Session().CurrentNodeID != "ruling" {
		t.Fatalf("session moved to %s", trav.Session().CurrentNodeID)
	}
}

func TestFillIsDeterministicWithSeed(t *testing.T) {
	pickWithSeed := func(seed int64) string {
		trav, res, g := hearingFixture(t)
		roster := &fakeRoster{required: []string{"juez"}, standby: []string{"u1", "u2", "u3"}}
		c := NewCoordinator(roster, DefaultPolicy(), rand.New(rand.NewSource(seed)))
		report, err := c.Fill(context.Background(), trav, res, g)
		if err != nil {
			t.Fatalf("Fill: %v", err)
		}
		return report.AssignedRoles["juez"]
	}
	if pickWithSeed(42) != pickWithSeed(42) {
		t.Fatal("same seed produced different assignments")
	}
}

func TestFillAutoDecidesWhenPoolEmpty(t *testing.T) {
	trav, res, g := hearingFixture(t)
	roster := &fakeRoster{required: []string{"juez"}}
	policy := Policy{MinResponseSeconds: 5, MaxResponseSeconds: 15}
	c := NewCoordinator(roster, policy, rand.New(rand.NewSource(1)))

	report, err := c.Fill(context.Background(), trav, res, g)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if len(report.AutoDecisions) != 1 {
		t.Fatalf("report = %+v", report)
	}
	d := report.AutoDecisions[0]
	if !d.IsAutomatic {
		t.Error("decision not flagged automatic")
	}
	if !d.WasDefaultOption {
		t.Error("decision not flagged as default option")
	}
	if d.ResponseID != "r-recess" {
		t.Errorf("took %s, want the guest fallback r-recess", d.ResponseID)
	}
	if d.IsRegisteredUser {
		t.Error("automatic decision flagged as registered")
	}
	if d.ResponseTimeSeconds < policy.MinResponseSeconds || d.ResponseTimeSeconds > policy.MaxResponseSeconds {
		t.Errorf("response time %v outside policy bounds", d.ResponseTimeSeconds)
	}
	// the session actually moved
	if trav.Session().CurrentNodeID != "closed" {
		t.Errorf("session on %s, want closed", trav.Session().CurrentNodeID)
	}
}

func TestFillReportsUnfilledRole(t *testing.T) {
	trav, res, g := hearingFixture(t)
	// the current node is spoken by the judge, so a missing fiscal cannot be
	// substituted with an automatic decision here
	roster := &fakeRoster{required: []string{"fiscal"}}
	c := NewCoordinator(roster, DefaultPolicy(), rand.New(rand.NewSource(1)))

	report, err := c.Fill(context.Background(), trav, res, g)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if len(report.UnfilledRoles) != 1 || report.UnfilledRoles[0] != "fiscal" {
		t.Fatalf("report = %+v", report)
	}
	if trav.Session().CurrentNodeID != "ruling" {
		t.Fatal("session moved for a role that cannot decide here")
	}
}

func TestFillSkipsAutoDecisionWhenNotRunning(t *testing.T) {
	trav, res, g := hearingFixture(t)
	if err := trav.Pause(context.Background()); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	roster := &fakeRoster{required: []string{"juez"}}
	c := NewCoordinator(roster, DefaultPolicy(), rand.New(rand.NewSource(1)))

	report, err := c.Fill(context.Background(), trav, res, g)
	if err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if len(report.AutoDecisions) != 0 {
		t.Fatalf("auto decision on a paused session: %+v", report)
	}
	if len(report.UnfilledRoles) != 1 {
		t.Fatalf("report = %+v", report)
	}
}

func TestAssignForRole(t *testing.T) {
	roster := &fakeRoster{standby: []string{"u1"}}
	c := NewCoordinator(roster, DefaultPolicy(), rand.New(rand.NewSource(1)))
	ctx := context.Background()

	pick, err := c.AssignForRole(ctx, "sim1", "testigo", nil)
	if err != nil {
		t.Fatalf("AssignForRole: %v", err)
	}
	if pick != "u1" || roster.assigned["testigo"] != "u1" {
		t.Fatalf("pick = %s, roster = %v", pick, roster.assigned)
	}

	_, err = c.AssignForRole(ctx, "sim1", "testigo", []string{"u1"})
	if !errors.Is(err, ErrNoEligibleCandidate) {
		t.Fatalf("err = %v, want ErrNoEligibleCandidate", err)
	}
}
