package repository

import (
	"context"

	"dialogue-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DialogueRepository struct {
	Col *mongo.Collection
}

func NewDialogueRepository(db *mongo.Database) *DialogueRepository {
	return &DialogueRepository{Col: db.Collection("dialogues")}
}

func (r *DialogueRepository) FindByID(ctx context.Context, id string) (*models.Dialogue, error) {
	var dialogue models.Dialogue
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&dialogue)
	if err != nil {
		return nil, err
	}
	return &dialogue, nil
}

func (r *DialogueRepository) FindAll(ctx context.Context, ownerID string, includePrivate bool) ([]models.Dialogue, error) {
	filter := bson.M{}
	if !includePrivate {
		filter = bson.M{"$or": []bson.M{{"public": true}, {"owner_id": ownerID}}}
	}
	cur, err := r.Col.Find(ctx, filter, options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var dialogues []models.Dialogue
	for cur.Next(ctx) {
		var d models.Dialogue
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		dialogues = append(dialogues, d)
	}
	return dialogues, nil
}

func (r *DialogueRepository) Create(ctx context.Context, dialogue *models.Dialogue) error {
	_, err := r.Col.InsertOne(ctx, dialogue)
	return err
}

func (r *DialogueRepository) Update(ctx context.Context, id string, update bson.M) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return err
}

// Archive soft-deletes: dialogues referenced by sessions are never removed.
func (r *DialogueRepository) Archive(ctx context.Context, id string) error {
	return r.Update(ctx, id, bson.M{"status": models.DialogueArchived})
}
