package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dialogue-service/internal/graph"
	"dialogue-service/internal/models"
	"dialogue-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrDialogueNotEditable guards structural edits once a dialogue leaves
// draft. Activation freezes the graph; duplicate it to keep editing.
var ErrDialogueNotEditable = errors.New("dialogue structure is frozen once activated")

// ErrDialogueInvalid carries the validator findings that blocked activation.
type ErrDialogueInvalid struct {
	Findings []string
}

func (e *ErrDialogueInvalid) Error() string {
	return fmt.Sprintf("dialogue structure invalid: %d finding(s)", len(e.Findings))
}

// DialogueService owns authoring: dialogue lifecycle and graph structure.
type DialogueService struct {
	DialogueRepo *repository.DialogueRepository
	NodeRepo     *repository.NodeRepository
	ResponseRepo *repository.ResponseRepository
}

func NewDialogueService(
	dialogueRepo *repository.DialogueRepository,
	nodeRepo *repository.NodeRepository,
	responseRepo *repository.ResponseRepository,
) *DialogueService {
	return &DialogueService{
		DialogueRepo: dialogueRepo,
		NodeRepo:     nodeRepo,
		ResponseRepo: responseRepo,
	}
}

func (s *DialogueService) GetDialogue(ctx context.Context, id string) (*models.Dialogue, error) {
	return s.DialogueRepo.FindByID(ctx, id)
}

func (s *DialogueService) ListDialogues(ctx context.Context, userID string, includePrivate bool) ([]models.Dialogue, error) {
	return s.DialogueRepo.FindAll(ctx, userID, includePrivate)
}

func (s *DialogueService) CreateDialogue(ctx context.Context, dialogue *models.Dialogue) error {
	dialogue.ID = primitive.NewObjectID().Hex()
	dialogue.Status = models.DialogueDraft
	if dialogue.Version == "" {
		dialogue.Version = "1.0.0"
	}
	dialogue.CreatedAt = time.Now()
	dialogue.UpdatedAt = dialogue.CreatedAt
	return s.DialogueRepo.Create(ctx, dialogue)
}

// UpdateDialogue changes descriptive fields. Structure and lifecycle go
// through the dedicated operations.
func (s *DialogueService) UpdateDialogue(ctx context.Context, id string, update bson.M) error {
	update["updated_at"] = time.Now()
	return s.DialogueRepo.Update(ctx, id, update)
}

func (s *DialogueService) ArchiveDialogue(ctx context.Context, id string) error {
	return s.DialogueRepo.Archive(ctx, id)
}

// LoadGraph assembles the in-memory arena for one dialogue.
func (s *DialogueService) LoadGraph(ctx context.Context, dialogueID string) (*graph.Graph, error) {
	dialogue, err := s.DialogueRepo.FindByID(ctx, dialogueID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.NodeRepo.FindByDialogueID(ctx, dialogueID)
	if err != nil {
		return nil, err
	}
	responses, err := s.ResponseRepo.FindByDialogueID(ctx, dialogueID)
	if err != nil {
		return nil, err
	}
	return graph.New(dialogue, nodes, responses), nil
}

// Validate runs the structure checks and statistics. Findings are advisory
// here; only Activate refuses to proceed on them.
func (s *DialogueService) Validate(ctx context.Context, dialogueID string) ([]string, graph.Stats, error) {
	g, err := s.LoadGraph(ctx, dialogueID)
	if err != nil {
		return nil, graph.Stats{}, err
	}
	return graph.Validate(g), graph.ComputeStats(g), nil
}

// Activate moves a draft to active after a clean validation. Findings block
// activation and are returned inside ErrDialogueInvalid.
func (s *DialogueService) Activate(ctx context.Context, dialogueID string) error {
	dialogue, err := s.DialogueRepo.FindByID(ctx, dialogueID)
	if err != nil {
		return err
	}
	if dialogue.Status != models.DialogueDraft {
		return fmt.Errorf("dialogue %s is %s, only drafts can be activated", dialogueID, dialogue.Status)
	}
	g, err := s.LoadGraph(ctx, dialogueID)
	if err != nil {
		return err
	}
	if findings := graph.Validate(g); len(findings) > 0 {
		return &ErrDialogueInvalid{Findings: findings}
	}
	return s.DialogueRepo.Update(ctx, dialogueID, bson.M{
		"status":     models.DialogueActive,
		"updated_at": time.Now(),
	})
}

// Duplicate deep-copies a dialogue into a fresh draft owned by the caller.
// The copy gets new identifiers throughout and shares nothing mutable with
// the original.
func (s *DialogueService) Duplicate(ctx context.Context, dialogueID, ownerID string) (*models.Dialogue, error) {
	g, err := s.LoadGraph(ctx, dialogueID)
	if err != nil {
		return nil, err
	}
	clone := g.Clone()
	clone.Dialogue.OwnerID = ownerID
	clone.Dialogue.Name = clone.Dialogue.Name + " (copy)"
	clone.Dialogue.CreatedAt = time.Now()
	clone.Dialogue.UpdatedAt = clone.Dialogue.CreatedAt

	if err := s.DialogueRepo.Create(ctx, clone.Dialogue); err != nil {
		return nil, err
	}
	nodes := make([]models.Node, 0)
	responses := make([]models.Response, 0)
	for _, n := range clone.Nodes() {
		nodes = append(nodes, *n)
		for _, r := range clone.ResponsesFrom(n.ID) {
			responses = append(responses, *r)
		}
	}
	if err := s.NodeRepo.CreateMany(ctx, nodes); err != nil {
		return nil, err
	}
	if err := s.ResponseRepo.CreateMany(ctx, responses); err != nil {
		return nil, err
	}
	return clone.Dialogue, nil
}

// AddNode inserts a node into a draft dialogue.
func (s *DialogueService) AddNode(ctx context.Context, node *models.Node) error {
	if err := s.requireDraft(ctx, node.DialogueID); err != nil {
		return err
	}
	node.ID = primitive.NewObjectID().Hex()
	return s.NodeRepo.Create(ctx, node)
}

func (s *DialogueService) UpdateNode(ctx context.Context, nodeID string, update bson.M) error {
	node, err := s.NodeRepo.FindByID(ctx, nodeID)
	if err != nil {
		return err
	}
	if err := s.requireDraft(ctx, node.DialogueID); err != nil {
		return err
	}
	return s.NodeRepo.Update(ctx, nodeID, update)
}

// DeleteNode removes a node and cascades to every response touching it.
func (s *DialogueService) DeleteNode(ctx context.Context, nodeID string) error {
	node, err := s.NodeRepo.FindByID(ctx, nodeID)
	if err != nil {
		return err
	}
	if err := s.requireDraft(ctx, node.DialogueID); err != nil {
		return err
	}
	if err := s.ResponseRepo.DeleteByNode(ctx, nodeID); err != nil {
		return err
	}
	return s.NodeRepo.Delete(ctx, nodeID)
}

// AddResponse inserts an edge. Origin and target must be nodes of the same
// dialogue; the data layer does not enforce this, so the service does.
func (s *DialogueService) AddResponse(ctx context.Context, response *models.Response) error {
	if err := s.requireDraft(ctx, response.DialogueID); err != nil {
		return err
	}
	origin, err := s.NodeRepo.FindByID(ctx, response.OriginNodeID)
	if err != nil {
		return fmt.Errorf("origin node: %w", err)
	}
	target, err := s.NodeRepo.FindByID(ctx, response.TargetNodeID)
	if err != nil {
		return fmt.Errorf("target node: %w", err)
	}
	if origin.DialogueID != response.DialogueID || target.DialogueID != response.DialogueID {
		return fmt.Errorf("response must connect nodes of dialogue %s", response.DialogueID)
	}
	response.ID = primitive.NewObjectID().Hex()
	return s.ResponseRepo.Create(ctx, response)
}

func (s *DialogueService) UpdateResponse(ctx context.Context, responseID string, update bson.M) error {
	response, err := s.ResponseRepo.FindByID(ctx, responseID)
	if err != nil {
		return err
	}
	if err := s.requireDraft(ctx, response.DialogueID); err != nil {
		return err
	}
	return s.ResponseRepo.Update(ctx, responseID, update)
}

func (s *DialogueService) DeleteResponse(ctx context.Context, responseID string) error {
	response, err := s.ResponseRepo.FindByID(ctx, responseID)
	if err != nil {
		return err
	}
	if err := s.requireDraft(ctx, response.DialogueID); err != nil {
		return err
	}
	return s.ResponseRepo.Delete(ctx, responseID)
}

func (s *DialogueService) requireDraft(ctx context.Context, dialogueID string) error {
	dialogue, err := s.DialogueRepo.FindByID(ctx, dialogueID)
	if err != nil {
		return err
	}
	if dialogue.Status != models.DialogueDraft {
		return fmt.Errorf("%w: dialogue %s is %s", ErrDialogueNotEditable, dialogueID, dialogue.Status)
	}
	return nil
}
