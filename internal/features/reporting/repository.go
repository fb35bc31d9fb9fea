package reporting

import (
	"context"

	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RunRepository interface {
	Create(ctx context.Context, run *Run) error
	Update(ctx context.Context, run *Run) error
	List(ctx context.Context, limit int64) ([]Run, error)
}

type RunRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRunRepository(mongodb *database.MongodbDB) RunRepository {
	return &RunRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionReportingRuns),
	}
}

func (r *RunRepositoryImpl) Create(ctx context.Context, run *Run) error {
	_, err := r.Collection.InsertOne(ctx, run)
	return err
}

func (r *RunRepositoryImpl) Update(ctx context.Context, run *Run) error {
	_, err := r.Collection.ReplaceOne(ctx, bson.M{"_id": run.ID}, run)
	return err
}

func (r *RunRepositoryImpl) List(ctx context.Context, limit int64) ([]Run, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: -1}}).SetLimit(limit)
	cursor, err := r.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	runs := []Run{}
	if err = cursor.All(ctx, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}
