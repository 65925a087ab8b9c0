package repository

import (
	"context"

	"dialogue-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ResponseRepository struct {
	Col *mongo.Collection
}

func NewResponseRepository(db *mongo.Database) *ResponseRepository {
	return &ResponseRepository{Col: db.Collection("responses")}
}

func (r *ResponseRepository) FindByID(ctx context.Context, id string) (*models.Response, error) {
	var response models.Response
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&response)
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *ResponseRepository) FindByDialogueID(ctx context.Context, dialogueID string) ([]models.Response, error) {
	return r.find(ctx, bson.M{"dialogue_id": dialogueID})
}

func (r *ResponseRepository) FindByOrigin(ctx context.Context, originNodeID string) ([]models.Response, error) {
	return r.find(ctx, bson.M{"origin_node_id": originNodeID})
}

func (r *ResponseRepository) find(ctx context.Context, filter bson.M) ([]models.Response, error) {
	cur, err := r.Col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var responses []models.Response
	for cur.Next(ctx) {
		var resp models.Response
		if err := cur.Decode(&resp); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (r *ResponseRepository) Create(ctx context.Context, response *models.Response) error {
	_, err := r.Col.InsertOne(ctx, response)
	return err
}

func (r *ResponseRepository) CreateMany(ctx context.Context, responses []models.Response) error {
	if len(responses) == 0 {
		return nil
	}
	docs := make([]interface{}, len(responses))
	for i := range responses {
		docs[i] = responses[i]
	}
	_, err := r.Col.InsertMany(ctx, docs)
	return err
}

func (r *ResponseRepository) Update(ctx context.Context, id string, update bson.M) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return err
}

func (r *ResponseRepository) Delete(ctx context.Context, id string) error {
	_, err := r.Col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// DeleteByNode removes every response whose origin or target is the node.
// Mirrors the graph arena's cascading cleanup at the storage layer.
func (r *ResponseRepository) DeleteByNode(ctx context.Context, nodeID string) error {
	_, err := r.Col.DeleteMany(ctx, bson.M{"$or": []bson.M{
		{"origin_node_id": nodeID},
		{"target_node_id": nodeID},
	}})
	return err
}
