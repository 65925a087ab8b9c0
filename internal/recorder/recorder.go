// Package recorder keeps the append-only audit trail of choices made during
// dialogue sessions. A decision is written once; only its audio capture
// fields and instructor evaluation block change afterwards.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dialogue-service/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrInvalidGrade signals an evaluation grade outside 0–100.
var ErrInvalidGrade = errors.New("invalid grade")

// Store is the persistence boundary for decisions.
type Store interface {
	Insert(ctx context.Context, d *models.Decision) error
	Save(ctx context.Context, d *models.Decision) error
	FindByID(ctx context.Context, id string) (*models.Decision, error)
}

// Entry carries everything needed to record one decision.
type Entry struct {
	SessionID           string
	NodeID              string
	ResponseID          string
	UserID              string
	RoleID              string
	ResponseText        string
	Score               int
	ResponseTimeSeconds float64
	IsAutomatic         bool
	WasDefaultOption    bool
	IsRegisteredUser    bool
}

type Recorder struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record appends one decision. The identifier and timestamp are assigned
// here and the evaluation block starts pending and empty.
func (r *Recorder) Record(ctx context.Context, e Entry) (*models.Decision, error) {
	d := &models.Decision{
		ID:                  primitive.NewObjectID().Hex(),
		SessionID:           e.SessionID,
		NodeID:              e.NodeID,
		ResponseID:          e.ResponseID,
		UserID:              e.UserID,
		RoleID:              e.RoleID,
		ResponseText:        e.ResponseText,
		Score:               e.Score,
		ResponseTimeSeconds: e.ResponseTimeSeconds,
		IsAutomatic:         e.IsAutomatic,
		WasDefaultOption:    e.WasDefaultOption,
		IsRegisteredUser:    e.IsRegisteredUser,
		Evaluation:          models.DecisionEvaluation{Status: models.EvaluationPending},
		RecordedAt:          r.now(),
	}
	if err := r.store.Insert(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// AttachAudio sets the audio reference and capture timestamp on a decision.
// The recording is not yet processed at this point.
func (r *Recorder) AttachAudio(ctx context.Context, decisionID, audioRef string, durationSeconds float64) (*models.Decision, error) {
	d, err := r.store.FindByID(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	d.Audio = &models.DecisionAudio{
		Ref:             audioRef,
		DurationSeconds: durationSeconds,
		CapturedAt:      r.now(),
		Processed:       false,
	}
	if err := r.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// MarkAudioProcessed flags the attached audio as processed. Idempotent.
func (r *Recorder) MarkAudioProcessed(ctx context.Context, decisionID string) (*models.Decision, error) {
	d, err := r.store.FindByID(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if d.Audio == nil {
		return nil, fmt.Errorf("decision %s has no audio attached", decisionID)
	}
	if d.Audio.Processed {
		return d, nil
	}
	d.Audio.Processed = true
	if err := r.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Justify stores the participant's own justification for a choice. It lives
// in the evaluation block but is independent of the instructor review and
// may arrive before or after it.
func (r *Recorder) Justify(ctx context.Context, decisionID, justification string) (*models.Decision, error) {
	d, err := r.store.FindByID(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	d.Evaluation.Justification = justification
	if err := r.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Evaluate sets the instructor evaluation. Re-evaluation of an already
// evaluated decision is allowed; the grade must sit in 0–100.
func (r *Recorder) Evaluate(ctx context.Context, decisionID string, grade int, instructorNotes, feedback, evaluatorUserID string) (*models.Decision, error) {
	if grade < 0 || grade > 100 {
		return nil, fmt.Errorf("%w: %d is outside 0-100", ErrInvalidGrade, grade)
	}
	d, err := r.store.FindByID(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	d.Evaluation.Status = models.EvaluationEvaluated
	d.Evaluation.Grade = grade
	d.Evaluation.InstructorNotes = instructorNotes
	d.Evaluation.Feedback = feedback
	d.Evaluation.EvaluatorUserID = evaluatorUserID
	d.Evaluation.EvaluatedAt = r.now()
	if err := r.store.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
