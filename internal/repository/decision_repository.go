package repository

import (
	"context"

	"dialogue-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DecisionRepository satisfies recorder.Store against Mongo.
type DecisionRepository struct {
	Col *mongo.Collection
}

func NewDecisionRepository(db *mongo.Database) *DecisionRepository {
	return &DecisionRepository{Col: db.Collection("decisions")}
}

func (r *DecisionRepository) Insert(ctx context.Context, decision *models.Decision) error {
	_, err := r.Col.InsertOne(ctx, decision)
	return err
}

func (r *DecisionRepository) Save(ctx context.Context, decision *models.Decision) error {
	_, err := r.Col.ReplaceOne(ctx, bson.M{"_id": decision.ID}, decision)
	return err
}

func (r *DecisionRepository) FindByID(ctx context.Context, id string) (*models.Decision, error) {
	var decision models.Decision
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&decision)
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

func (r *DecisionRepository) FindBySession(ctx context.Context, sessionID string) ([]models.Decision, error) {
	return r.find(ctx, bson.M{"session_id": sessionID})
}

// FindPendingEvaluation lists a session's decisions awaiting instructor
// review, oldest first.
func (r *DecisionRepository) FindPendingEvaluation(ctx context.Context, sessionID string) ([]models.Decision, error) {
	return r.find(ctx, bson.M{
		"session_id":        sessionID,
		"evaluation.status": models.EvaluationPending,
	})
}

func (r *DecisionRepository) find(ctx context.Context, filter bson.M) ([]models.Decision, error) {
	cur, err := r.Col.Find(ctx, filter, options.Find().SetSort(bson.M{"recorded_at": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var decisions []models.Decision
	for cur.Next(ctx) {
		var d models.Decision
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}
