package eligibility

import (
	"testing"

	"dialogue-service/internal/graph"
	"dialogue-service/internal/models"
)

func pleaGraph() *graph.Graph {
	dialogue := &models.Dialogue{ID: "d1", Status: models.DialogueActive}
	nodes := []models.Node{
		{ID: "plea", Kind: models.NodeDecision, SpeakerRole: "acusado", IsStart: true},
		{ID: "end", Kind: models.NodeEnd, IsFinal: true},
	}
	responses := []models.Response{
		{ID: "r-any", OriginNodeID: "plea", TargetNodeID: "end", Text: "Remain silent", DisplayOrder: 3, IsDefaultOption: true},
		{ID: "r-registered", OriginNodeID: "plea", TargetNodeID: "end", Text: "Call witness", DisplayOrder: 1, RequiresRegisteredUser: true},
		{ID: "r-role", OriginNodeID: "plea", TargetNodeID: "end", Text: "Object", DisplayOrder: 2, RequiredRole: "abogado"},
		{ID: "r-cond", OriginNodeID: "plea", TargetNodeID: "end", Text: "Present evidence", DisplayOrder: 4,
			Conditions: []models.Condition{{Variable: "evidence_ready", Operator: models.OpEq, Value: models.BoolValue(true)}}},
	}
	return graph.New(dialogue, nodes, responses)
}

func ids(rs []*models.Response) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestEligibleFilters(t *testing.T) {
	r := NewResolver(pleaGraph())

	cases := []struct {
		name string
		p    Participant
		vars map[string]models.Value
		want []string
	}{
		{
			name: "registered lawyer with evidence sees everything ordered",
			p:    Participant{UserID: "u1", Registered: true, RoleID: "abogado"},
			vars: map[string]models.Value{"evidence_ready": models.BoolValue(true)},
			want: []string{"r-registered", "r-role", "r-any", "r-cond"},
		},
		{
			name: "registered without role loses the role-gated option",
			p:    Participant{UserID: "u1", Registered: true},
			vars: map[string]models.Value{"evidence_ready": models.BoolValue(true)},
			want: []string{"r-registered", "r-any", "r-cond"},
		},
		{
			name: "guest loses the registered-only option",
			p:    Participant{RoleID: "abogado"},
			vars: map[string]models.Value{"evidence_ready": models.BoolValue(true)},
			want: []string{"r-role", "r-any", "r-cond"},
		},
		{
			name: "unmet condition hides the conditional option",
			p:    Participant{UserID: "u1", Registered: true, RoleID: "abogado"},
			vars: map[string]models.Value{"evidence_ready": models.BoolValue(false)},
			want: []string{"r-registered", "r-role", "r-any"},
		},
		{
			name: "unset variable fails the condition",
			p:    Participant{UserID: "u1", Registered: true, RoleID: "abogado"},
			vars: nil,
			want: []string{"r-registered", "r-role", "r-any"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(r.Eligible("plea", tc.p, tc.vars))
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestGuestDefaultFallback(t *testing.T) {
	// every response gated away from a guest, one flagged default
	dialogue := &models.Dialogue{ID: "d1"}
	nodes := []models.Node{
		{ID: "plea", IsStart: true},
		{ID: "end", IsFinal: true},
	}
	responses := []models.Response{
		{ID: "r1", OriginNodeID: "plea", TargetNodeID: "end", DisplayOrder: 1, RequiresRegisteredUser: true},
		{ID: "r2", OriginNodeID: "plea", TargetNodeID: "end", DisplayOrder: 2, RequiresRegisteredUser: true, IsDefaultOption: true},
	}
	r := NewResolver(graph.New(dialogue, nodes, responses))

	got := r.Eligible("plea", Guest, nil)
	if len(got) != 1 || got[0].ID != "r2" {
		t.Fatalf("guest fallback = %v, want [r2]", ids(got))
	}

	// registered participants never get the fallback: an empty result is a
	// terminal condition for them
	registered := Participant{UserID: "u1", Registered: true, RoleID: "juez"}
	roleGated := []models.Response{
		{ID: "r1", OriginNodeID: "plea", TargetNodeID: "end", RequiredRole: "fiscal", IsDefaultOption: true},
	}
	r2 := NewResolver(graph.New(dialogue, nodes, roleGated))
	if got := r2.Eligible("plea", registered, nil); len(got) != 0 {
		t.Fatalf("registered fallback = %v, want empty", ids(got))
	}
}

func TestEligibleUnknownNode(t *testing.T) {
	r := NewResolver(pleaGraph())
	if got := r.Eligible("missing", Guest, nil); len(got) != 0 {
		t.Fatalf("unknown node returned %v", ids(got))
	}
}

func TestEvaluateOperators(t *testing.T) {
	vars := map[string]models.Value{
		"score":   models.NumberValue(42),
		"phase":   models.StringValue("juicio"),
		"guilty":  models.BoolValue(false),
		"allowed": models.ListValue(models.StringValue("juez"), models.StringValue("fiscal")),
	}

	cases := []struct {
		name string
		cond models.Condition
		want bool
	}{
		{"eq string", models.Condition{Variable: "phase", Operator: models.OpEq, Value: models.StringValue("juicio")}, true},
		{"eq mismatch", models.Condition{Variable: "phase", Operator: models.OpEq, Value: models.StringValue("sentencia")}, false},
		{"eq cross kind", models.Condition{Variable: "score", Operator: models.OpEq, Value: models.StringValue("42")}, false},
		{"ne", models.Condition{Variable: "guilty", Operator: models.OpNe, Value: models.BoolValue(true)}, true},
		{"gt", models.Condition{Variable: "score", Operator: models.OpGt, Value: models.NumberValue(40)}, true},
		{"gt equal", models.Condition{Variable: "score", Operator: models.OpGt, Value: models.NumberValue(42)}, false},
		{"lt", models.Condition{Variable: "score", Operator: models.OpLt, Value: models.NumberValue(40)}, false},
		{"gte boundary", models.Condition{Variable: "score", Operator: models.OpGte, Value: models.NumberValue(42)}, true},
		{"lte boundary", models.Condition{Variable: "score", Operator: models.OpLte, Value: models.NumberValue(42)}, true},
		{"ordering on non-number", models.Condition{Variable: "phase", Operator: models.OpGt, Value: models.NumberValue(1)}, false},
		{"in list", models.Condition{Variable: "phase", Operator: models.OpIn, Value: models.ListValue(models.StringValue("juicio"), models.StringValue("sentencia"))}, true},
		{"not in list", models.Condition{Variable: "phase", Operator: models.OpNotIn, Value: models.ListValue(models.StringValue("sentencia"))}, true},
		{"in non-list operand", models.Condition{Variable: "phase", Operator: models.OpIn, Value: models.StringValue("juicio")}, false},
		{"unset variable fails eq", models.Condition{Variable: "missing", Operator: models.OpEq, Value: models.NumberValue(1)}, false},
		{"unset variable passes ne", models.Condition{Variable: "missing", Operator: models.OpNe, Value: models.NumberValue(1)}, true},
		{"unset variable passes not_in", models.Condition{Variable: "missing", Operator: models.OpNotIn, Value: models.ListValue()}, true},
		{"unknown operator", models.Condition{Variable: "score", Operator: "like", Value: models.NumberValue(42)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Evaluate(tc.cond, vars); got != tc.want {
				t.Fatalf("Evaluate(%+v) = %v, want %v", tc.cond, got, tc.want)
			}
		})
	}
}

func TestEvaluateAll(t *testing.T) {
	vars := map[string]models.Value{"score": models.NumberValue(10)}
	conds := []models.Condition{
		{Variable: "score", Operator: models.OpGte, Value: models.NumberValue(5)},
		{Variable: "score", Operator: models.OpLte, Value: models.NumberValue(20)},
	}
	if !EvaluateAll(conds, vars) {
		t.Fatal("conjunction should hold")
	}
	conds = append(conds, models.Condition{Variable: "score", Operator: models.OpGt, Value: models.NumberValue(10)})
	if EvaluateAll(conds, vars) {
		t.Fatal("one failing condition must fail the conjunction")
	}
	if !EvaluateAll(nil, vars) {
		t.Fatal("empty condition list must hold")
	}
}
