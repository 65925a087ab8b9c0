package service

import (
	"context"

	"dialogue-service/internal/models"
	"dialogue-service/internal/recorder"
	"dialogue-service/internal/repository"
)

// DecisionService exposes the mutable edges of the decision audit trail:
// audio capture metadata and instructor evaluation.
type DecisionService struct {
	Repo     *repository.DecisionRepository
	recorder *recorder.Recorder
}

func NewDecisionService(repo *repository.DecisionRepository) *DecisionService {
	return &DecisionService{
		Repo:     repo,
		recorder: recorder.New(repo),
	}
}

func (s *DecisionService) GetDecision(ctx context.Context, id string) (*models.Decision, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *DecisionService) AttachAudio(ctx context.Context, decisionID, audioRef string, durationSeconds float64) (*models.Decision, error) {
	return s.recorder.AttachAudio(ctx, decisionID, audioRef, durationSeconds)
}

func (s *DecisionService) MarkAudioProcessed(ctx context.Context, decisionID string) (*models.Decision, error) {
	return s.recorder.MarkAudioProcessed(ctx, decisionID)
}

func (s *DecisionService) Justify(ctx context.Context, decisionID, justification string) (*models.Decision, error) {
	return s.recorder.Justify(ctx, decisionID, justification)
}

func (s *DecisionService) Evaluate(ctx context.Context, decisionID string, grade int, instructorNotes, feedback, evaluatorUserID string) (*models.Decision, error) {
	return s.recorder.Evaluate(ctx, decisionID, grade, instructorNotes, feedback, evaluatorUserID)
}

func (s *DecisionService) PendingEvaluation(ctx context.Context, sessionID string) ([]models.Decision, error) {
	return s.Repo.FindPendingEvaluation(ctx, sessionID)
}
