package repository

import (
	"context"

	"dialogue-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type SessionRepository struct {
	Col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{Col: db.Collection("dialogue_sessions")}
}

func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.DialogueSession, error) {
	var session models.DialogueSession
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) FindBySimulation(ctx context.Context, simulationID string) ([]models.DialogueSession, error) {
	cur, err := r.Col.Find(ctx, bson.M{"simulation_id": simulationID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var sessions []models.DialogueSession
	for cur.Next(ctx) {
		var s models.DialogueSession
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *models.DialogueSession) error {
	_, err := r.Col.InsertOne(ctx, session)
	return err
}

// Save writes back the whole traversal state after an engine operation.
func (r *SessionRepository) Save(ctx context.Context, session *models.DialogueSession) error {
	_, err := r.Col.ReplaceOne(ctx, bson.M{"_id": session.ID}, session)
	return err
}

func (r *SessionRepository) Update(ctx context.Context, id string, update bson.M) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return err
}
