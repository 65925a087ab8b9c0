package repository

import (
	"context"

	"dialogue-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type NodeRepository struct {
	Col *mongo.Collection
}

func NewNodeRepository(db *mongo.Database) *NodeRepository {
	return &NodeRepository{Col: db.Collection("nodes")}
}

func (r *NodeRepository) FindByID(ctx context.Context, id string) (*models.Node, error) {
	var node models.Node
	err := r.Col.FindOne(ctx, bson.M{"_id": id}).Decode(&node)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *NodeRepository) FindByDialogueID(ctx context.Context, dialogueID string) ([]models.Node, error) {
	cur, err := r.Col.Find(ctx, bson.M{"dialogue_id": dialogueID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var nodes []models.Node
	for cur.Next(ctx) {
		var n models.Node
		if err := cur.Decode(&n); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (r *NodeRepository) Create(ctx context.Context, node *models.Node) error {
	_, err := r.Col.InsertOne(ctx, node)
	return err
}

func (r *NodeRepository) CreateMany(ctx context.Context, nodes []models.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	docs := make([]interface{}, len(nodes))
	for i := range nodes {
		docs[i] = nodes[i]
	}
	_, err := r.Col.InsertMany(ctx, docs)
	return err
}

func (r *NodeRepository) Update(ctx context.Context, id string, update bson.M) error {
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	return err
}

func (r *NodeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.Col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *NodeRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.Col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}
