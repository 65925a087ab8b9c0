package engine

import (
	"context"
	"errors"
	"testing"

	"dialogue-service/internal/graph"
	"dialogue-service/internal/models"
	"dialogue-service/internal/recorder"
)

// trialGraph builds the opening of a trial: an introduction node with one
// scored response into a plea decision, which either ends the trial or loops
// back on itself.
func trialGraph() *graph.Graph {
	dialogue := &models.Dialogue{ID: "d1", Status: models.DialogueActive}
	nodes := []models.Node{
		{ID: "intro", Kind: models.NodeStart, IsStart: true,
			Consequences: []models.Consequence{
				{Operation: models.ConsequenceSet, Variable: "phase", Value: models.StringValue("apertura")},
			}},
		{ID: "plea", Kind: models.NodeDecision, SpeakerRole: "acusado",
			Consequences: []models.Consequence{
				{Operation: models.ConsequenceAdd, Variable: "visits", Value: models.NumberValue(1)},
			}},
		{ID: "verdict", Kind: models.NodeEnd, IsFinal: true},
	}
	responses := []models.Response{
		{ID: "r-open", OriginNodeID: "intro", TargetNodeID: "plea", Text: "Begin", DisplayOrder: 1, Score: 10,
			Consequences: []models.Consequence{
				{Operation: models.ConsequenceAdd, Variable: "credibility", Value: models.NumberValue(10)},
			}},
		{ID: "r-guilty", OriginNodeID: "plea", TargetNodeID: "verdict", Text: "Guilty", DisplayOrder: 1, Score: 5},
		{ID: "r-stall", OriginNodeID: "plea", TargetNodeID: "plea", Text: "Request recess", DisplayOrder: 2},
	}
	return graph.New(dialogue, nodes, responses)
}

func newSession() *models.DialogueSession {
	return &models.DialogueSession{
		ID:           "s1",
		SimulationID: "sim1",
		DialogueID:   "d1",
		Status:       models.SessionCreated,
	}
}

func newTraversal(t *testing.T) (*Traversal, *recorder.MemoryStore) {
	t.Helper()
	store := recorder.NewMemoryStore()
	return NewTraversal(trialGraph(), newSession(), recorder.New(store)), store
}

func TestStart(t *testing.T) {
	trav, _ := newTraversal(t)
	ctx := context.Background()

	if err := trav.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s := trav.Session()
	if s.Status != models.SessionRunning {
		t.Errorf("status = %s, want running", s.Status)
	}
	if s.CurrentNodeID != "intro" {
		t.Errorf("current node = %s, want intro", s.CurrentNodeID)
	}
	if got := trav.History(); len(got) != 1 || got[0] != "intro" {
		t.Errorf("history = %v, want [intro]", got)
	}
	// start node consequences applied on entry
	if v := s.Variables["phase"]; v.Str != "apertura" {
		t.Errorf("phase = %v, want apertura", v)
	}
	if s.StartedAt.IsZero() {
		t.Error("StartedAt not stamped")
	}

	if err := trav.Start(ctx); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("second Start = %v, want ErrInvalidStateTransition", err)
	}
}

func TestAdvanceAppliesScoreAndConsequences(t *testing.T) {
	trav, store := newTraversal(t)
	ctx := context.Background()

	if err := trav.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	decision, err := trav.Advance(ctx, AdvanceRequest{
		ResponseID:          "r-open",
		UserID:              "u1",
		RoleID:              "fiscal",
		Registered:          true,
		ResponseTimeSeconds: 3.5,
	})
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if decision.Score != 10 {
		t.Errorf("decision score = %d, want 10", decision.Score)
	}
	if decision.ResponseText != "Begin" {
		t.Errorf("decision text = %q, want Begin", decision.ResponseText)
	}
	if decision.NodeID != "intro" || decision.ResponseID != "r-open" {
		t.Errorf("decision placement = %s/%s", decision.NodeID, decision.ResponseID)
	}
	if decision.Evaluation.Status != models.EvaluationPending {
		t.Errorf("evaluation status = %s, want pending", decision.Evaluation.Status)
	}

	s := trav.Session()
	if s.CurrentNodeID != "plea" {
		t.Errorf("current node = %s, want plea", s.CurrentNodeID)
	}
	// response consequence then target node consequence, in that order
	if v := s.Variables["credibility"]; v.Num != 10 {
		t.Errorf("credibility = %v, want 10", v)
	}
	if v := s.Variables["visits"]; v.Num != 1 {
		t.Errorf("visits = %v, want 1", v)
	}

	recorded, err := store.BySession(ctx, "s1")
	if err != nil {
		t.Fatalf("BySession: %v", err)
	}
	if len(recorded) != 1 || recorded[0].ID != decision.ID {
		t.Fatalf("store holds %d decisions", len(recorded))
	}
}

func TestAdvanceSelfLoopKeepsHistory(t *testing.T) {
	trav, _ := newTraversal(t)
	ctx := context.Background()

	if err := trav.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := trav.Advance(ctx, AdvanceRequest{ResponseID: "r-open"}); err != nil {
		t.Fatalf("Advance to plea: %v", err)
	}
	// stall twice: plea loops onto itself
	for i := 0; i < 2; i++ {
		if _, err := trav.Advance(ctx, AdvanceRequest{ResponseID: "r-stall"}); err != nil {
			t.Fatalf("stall %d: %v", i, err)
		}
	}

	history := trav.History()
	want := []string{"intro", "plea", "plea", "plea"}
	if len(history) != len(want) {
		t.Fatalf("history = %v, want %v", history, want)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Fatalf("history = %v, want %v", history, want)
		}
	}
	visited := trav.VisitedNodeIDs()
	if len(visited) != 2 || !visited["intro"] || !visited["plea"] {
		t.Fatalf("visited set = %v", visited)
	}
	// the node consequence ran on every entry
	if v := trav.Session().Variables["visits"]; v.Num != 3 {
		t.Fatalf("visits = %v, want 3", v)
	}
}

func TestAdvanceIllegalMoveLeavesSessionUntouched(t *testing.T) {
	trav, store := newTraversal(t)
	ctx := context.Background()

	if err := trav.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	cases := []struct {
		name       string
		responseID string
	}{
		{"unknown response", "r-ghost"},
		{"response from another node", "r-guilty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := trav.Advance(ctx, AdvanceRequest{ResponseID: tc.responseID})
			if !errors.Is(err, ErrIllegalMove) {
				t.Fatalf("err = %v, want ErrIllegalMove", err)
			}
			s := trav.Session()
			if s.CurrentNodeID != "intro" || s.Status != models.SessionRunning {
				t.Fatalf("session mutated: node=%s status=%s", s.CurrentNodeID, s.Status)
			}
			if got := trav.History(); len(got) != 1 {
				t.Fatalf("history grew: %v", got)
			}
			if recorded, _ := store.BySession(ctx, "s1"); len(recorded) != 0 {
				t.Fatalf("decision recorded for a rejected move")
			}
		})
	}
}

func TestAdvanceUnsupportedConsequenceAborts(t *testing.T) {
	dialogue := &models.Dialogue{ID: "d1"}
	nodes := []models.Node{
		{ID: "a", IsStart: true},
		{ID: "b", IsFinal: true},
	}
	responses := []models.Response{
		{ID: "r-div", OriginNodeID: "a", TargetNodeID: "b",
			Consequences: []models.Consequence{
				{Operation: models.ConsequenceSet, Variable: "touched", Value: models.BoolValue(true)},
				{Operation: models.ConsequenceDivide, Variable: "score", Value: models.NumberValue(0)},
			}},
		{ID: "r-text", OriginNodeID: "a", TargetNodeID: "b",
			Consequences: []models.Consequence{
				{Operation: models.ConsequenceAdd, Variable: "name", Value: models.NumberValue(1)},
			}},
	}
	g := graph.New(dialogue, nodes, responses)
	session := newSession()
	session.Variables = map[string]models.Value{"name": models.StringValue("ana")}
	trav := NewTraversal(g, session, recorder.New(recorder.NewMemoryStore()))
	ctx := context.Background()

	if err := trav.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for _, responseID := range []string{"r-div", "r-text"} {
		_, err := trav.Advance(ctx, AdvanceRequest{ResponseID: responseID})
		if !errors.Is(err, ErrUnsupportedConsequence) {
			t.Fatalf("%s: err = %v, want ErrUnsupportedConsequence", responseID, err)
		}
	}
	// the failed list's earlier set must not leak
	if _, ok := session.Variables["touched"]; ok {
		t.Fatal("partial consequence application leaked into the session")
	}
	if session.CurrentNodeID != "a" {
		t.Fatalf("session moved to %s", session.CurrentNodeID)
	}
}

func TestArithmeticOnUnsetVariableStartsAtZero(t *testing.T) {
	vars, err := applyConsequences(nil, []models.Consequence{
		{Operation: models.ConsequenceSubtract, Variable: "penalty", Value: models.NumberValue(3)},
		{Operation: models.ConsequenceMultiply, Variable: "penalty", Value: models.NumberValue(2)},
	})
	if err != nil {
		t.Fatalf("applyConsequences: %v", err)
	}
	if v := vars["penalty"]; v.Num != -6 {
		t.Fatalf("penalty = %v, want -6", v)
	}
}

func TestPauseResumeFinalize(t *testing.T) {
	trav, _ := newTraversal(t)
	ctx := context.Background()

	if err := trav.Pause(ctx); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Pause before Start = %v", err)
	}
	if err := trav.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := trav.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if _, err := trav.Advance(ctx, AdvanceRequest{ResponseID: "r-open"}); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Advance while paused = %v", err)
	}
	if err := trav.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := trav.Resume(ctx); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("Resume while running = %v", err)
	}
	if err := trav.Finalize(ctx); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if trav.Session().FinishedAt.IsZero() {
		t.Error("FinishedAt not stamped")
	}
}

func TestFinalizeFromPaused(t *testing.T) {
	trav, _ := newTraversal(t)
	ctx := context.Background()

	if err := trav.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := trav.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := trav.Finalize(ctx); err != nil {
		t.Fatalf("Finalize from paused: %v", err)
	}
}

func TestFinishedSessionIsClosed(t *testing.T) {
	trav, _ := newTraversal(t)
	ctx := context.Background()

	if err := trav.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := trav.Finalize(ctx); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	// every operation reports the closed session, never a plain transition error
	if _, err := trav.Advance(ctx, AdvanceRequest{ResponseID: "r-open"}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Advance = %v, want ErrSessionClosed", err)
	}
	if err := trav.Pause(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Pause = %v, want ErrSessionClosed", err)
	}
	if err := trav.Resume(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Resume = %v, want ErrSessionClosed", err)
	}
	if err := trav.Finalize(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Finalize = %v, want ErrSessionClosed", err)
	}
	if err := trav.Start(ctx); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Start = %v, want ErrSessionClosed", err)
	}
}

func TestReachingFinalNodeDoesNotFinish(t *testing.T) {
	trav, _ := newTraversal(t)
	ctx := context.Background()

	if err := trav.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := trav.Advance(ctx, AdvanceRequest{ResponseID: "r-open"}); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if _, err := trav.Advance(ctx, AdvanceRequest{ResponseID: "r-guilty"}); err != nil {
		t.Fatalf("Advance to verdict: %v", err)
	}
	s := trav.Session()
	if s.CurrentNodeID != "verdict" {
		t.Fatalf("current node = %s", s.CurrentNodeID)
	}
	if s.Status != models.SessionRunning {
		t.Fatalf("status = %s, want running until Finalize", s.Status)
	}
}
