package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dialogue-service/internal/autofill"
	"dialogue-service/internal/eligibility"
	"dialogue-service/internal/engine"
	"dialogue-service/internal/graph"
	"dialogue-service/internal/models"
	"dialogue-service/internal/realtime"
	"dialogue-service/internal/recorder"
	"dialogue-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdvanceInput is one participant choice arriving from the API.
type AdvanceInput struct {
	ResponseID          string
	UserID              string
	RoleID              string
	Registered          bool
	ResponseTimeSeconds float64
}

// SessionService orchestrates dialogue traversal: it loads the session and
// its graph, runs one engine operation under a per-session lock, persists
// the result and pushes the new turn to realtime subscribers.
type SessionService struct {
	Repo         *repository.SessionRepository
	DecisionRepo *repository.DecisionRepository
	Dialogues    *DialogueService

	roster autofill.RosterProvider
	policy autofill.Policy
	hub    *realtime.Hub

	// one mutex per session id; Advance is a critical section
	locks sync.Map
}

func NewSessionService(
	repo *repository.SessionRepository,
	decisionRepo *repository.DecisionRepository,
	dialogues *DialogueService,
	roster autofill.RosterProvider,
	policy autofill.Policy,
	hub *realtime.Hub,
) *SessionService {
	return &SessionService{
		Repo:         repo,
		DecisionRepo: decisionRepo,
		Dialogues:    dialogues,
		roster:       roster,
		policy:       policy,
		hub:          hub,
	}
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*models.DialogueSession, error) {
	return s.Repo.FindByID(ctx, id)
}

// CreateSession binds a dialogue to a simulation run. Archived dialogues
// cannot start new sessions; drafts can, so instructors can rehearse.
func (s *SessionService) CreateSession(ctx context.Context, simulationID, dialogueID string, audioEnabled bool) (*models.DialogueSession, error) {
	dialogue, err := s.Dialogues.GetDialogue(ctx, dialogueID)
	if err != nil {
		return nil, err
	}
	if dialogue.Status == models.DialogueArchived {
		return nil, fmt.Errorf("dialogue %s is archived", dialogueID)
	}
	session := &models.DialogueSession{
		ID:           primitive.NewObjectID().Hex(),
		SimulationID: simulationID,
		DialogueID:   dialogueID,
		Status:       models.SessionCreated,
		AudioEnabled: audioEnabled,
		Variables:    map[string]models.Value{},
		CreatedAt:    time.Now(),
	}
	if err := s.Repo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Start runs the engine start and places the session on the start node.
func (s *SessionService) Start(ctx context.Context, sessionID string) (*models.DialogueSession, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	trav, g, err := s.traversal(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := trav.Start(ctx); err != nil {
		return nil, err
	}
	if err := s.Repo.Save(ctx, trav.Session()); err != nil {
		return nil, err
	}
	s.broadcastTurn(trav.Session(), g)
	return trav.Session(), nil
}

// Turn projects the current node and the requesting participant's eligible
// responses. Raw conditions and consequences never leave the service.
func (s *SessionService) Turn(ctx context.Context, sessionID string, p eligibility.Participant) (*models.TurnView, error) {
	session, err := s.Repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CurrentNodeID == "" {
		return nil, fmt.Errorf("session %s has not started", sessionID)
	}
	g, err := s.Dialogues.LoadGraph(ctx, session.DialogueID)
	if err != nil {
		return nil, err
	}
	node, ok := g.NodeByID(session.CurrentNodeID)
	if !ok {
		return nil, fmt.Errorf("current node %s missing from dialogue %s", session.CurrentNodeID, session.DialogueID)
	}
	res := eligibility.NewResolver(g)
	responses := res.Eligible(node.ID, p, session.Variables)
	return &models.TurnView{
		SessionID: session.ID,
		Node:      models.ProjectNode(node),
		Responses: models.ProjectResponses(responses),
	}, nil
}

// Advance commits one human choice.
func (s *SessionService) Advance(ctx context.Context, sessionID string, in AdvanceInput) (*models.Decision, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	trav, g, err := s.traversal(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	decision, err := trav.Advance(ctx, engine.AdvanceRequest{
		ResponseID:          in.ResponseID,
		UserID:              in.UserID,
		RoleID:              in.RoleID,
		Registered:          in.Registered,
		ResponseTimeSeconds: in.ResponseTimeSeconds,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Repo.Save(ctx, trav.Session()); err != nil {
		return nil, err
	}
	s.broadcastTurn(trav.Session(), g)
	return decision, nil
}

func (s *SessionService) Pause(ctx context.Context, sessionID string) error {
	return s.lifecycle(ctx, sessionID, func(t *engine.Traversal) error { return t.Pause(ctx) })
}

func (s *SessionService) Resume(ctx context.Context, sessionID string) error {
	return s.lifecycle(ctx, sessionID, func(t *engine.Traversal) error { return t.Resume(ctx) })
}

func (s *SessionService) Finalize(ctx context.Context, sessionID string) error {
	return s.lifecycle(ctx, sessionID, func(t *engine.Traversal) error { return t.Finalize(ctx) })
}

// AutoFill runs one coordinator pass over the session's required roles.
func (s *SessionService) AutoFill(ctx context.Context, sessionID string) (*autofill.Report, error) {
	unlock := s.lock(sessionID)
	defer unlock()

	trav, g, err := s.traversal(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	coordinator := autofill.NewCoordinator(s.roster, s.policy, nil)
	report, err := coordinator.Fill(ctx, trav, eligibility.NewResolver(g), g)
	if err != nil {
		return nil, err
	}
	if len(report.AutoDecisions) > 0 {
		if err := s.Repo.Save(ctx, trav.Session()); err != nil {
			return nil, err
		}
		s.broadcastTurn(trav.Session(), g)
	}
	return report, nil
}

// History returns the ordered visited-node trail.
func (s *SessionService) History(ctx context.Context, sessionID string) ([]string, error) {
	session, err := s.Repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.History(), nil
}

func (s *SessionService) Decisions(ctx context.Context, sessionID string) ([]models.Decision, error) {
	return s.DecisionRepo.FindBySession(ctx, sessionID)
}

func (s *SessionService) lifecycle(ctx context.Context, sessionID string, op func(*engine.Traversal) error) error {
	unlock := s.lock(sessionID)
	defer unlock()

	trav, _, err := s.traversal(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := op(trav); err != nil {
		return err
	}
	return s.Repo.Save(ctx, trav.Session())
}

// traversal loads the session and its graph and binds them to an engine.
func (s *SessionService) traversal(ctx context.Context, sessionID string) (*engine.Traversal, *graph.Graph, error) {
	session, err := s.Repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	g, err := s.Dialogues.LoadGraph(ctx, session.DialogueID)
	if err != nil {
		return nil, nil, err
	}
	rec := recorder.New(s.DecisionRepo)
	return engine.NewTraversal(g, session, rec), g, nil
}

func (s *SessionService) lock(sessionID string) func() {
	v, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// broadcastTurn pushes the guest-visible projection of the current node to
// realtime subscribers. Role-specific choice lists still come from Turn.
func (s *SessionService) broadcastTurn(session *models.DialogueSession, g *graph.Graph) {
	if s.hub == nil || session.CurrentNodeID == "" {
		return
	}
	node, ok := g.NodeByID(session.CurrentNodeID)
	if !ok {
		return
	}
	res := eligibility.NewResolver(g)
	responses := res.Eligible(node.ID, eligibility.Guest, session.Variables)
	s.hub.Broadcast(session.ID, models.TurnView{
		SessionID: session.ID,
		Node:      models.ProjectNode(node),
		Responses: models.ProjectResponses(responses),
	})
}
