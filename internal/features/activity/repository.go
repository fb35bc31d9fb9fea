package activity

import (
	"context"

	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ActivityRepository interface {
	Create(ctx context.Context, activity Activity) error
	ListRecent(ctx context.Context, limit int64) ([]Activity, error)
}

type ActivityRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewActivityRepository(mongodb *database.MongodbDB) ActivityRepository {
	return &ActivityRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionActivities),
	}
}

func (r *ActivityRepositoryImpl) Create(ctx context.Context, activity Activity) error {
	_, err := r.Collection.InsertOne(ctx, activity)
	return err
}

func (r *ActivityRepositoryImpl) ListRecent(ctx context.Context, limit int64) ([]Activity, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	activities := []Activity{}
	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}
