package visit

import (
	"context"
	"errors"
	"time"

	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrVisitNotFound = errors.New("visita não encontrada")

type VisitFilter struct {
	From   *time.Time
	To     *time.Time
	Status string
}

func (f VisitFilter) query() bson.M {
	query := bson.M{}
	rng := bson.M{}
	if f.From != nil {
		rng["$gte"] = *f.From
	}
	if f.To != nil {
		rng["$lt"] = *f.To
	}
	if len(rng) > 0 {
		query["data_hora"] = rng
	}
	if f.Status != "" {
		query["status"] = f.Status
	}
	return query
}

type VisitRepository interface {
	List(ctx context.Context, filter VisitFilter) ([]Visit, error)
	Count(ctx context.Context, filter VisitFilter) (int64, error)
	FindByID(ctx context.Context, id string) (*Visit, error)
	Create(ctx context.Context, v *Visit) error
	Update(ctx context.Context, id string, fields bson.M) (*Visit, error)
	Delete(ctx context.Context, id string) error
}

type VisitRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewVisitRepository(mongodb *database.MongodbDB) VisitRepository {
	return &VisitRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionVisits),
	}
}

func (r *VisitRepositoryImpl) List(ctx context.Context, filter VisitFilter) ([]Visit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "data_hora", Value: 1}})
	cursor, err := r.Collection.Find(ctx, filter.query(), opts)
	if err != nil {
		return nil, err
	}
	visits := []Visit{}
	if err = cursor.All(ctx, &visits); err != nil {
		return nil, err
	}
	return visits, nil
}

func (r *VisitRepositoryImpl) Count(ctx context.Context, filter VisitFilter) (int64, error) {
	return r.Collection.CountDocuments(ctx, filter.query())
}

func (r *VisitRepositoryImpl) FindByID(ctx context.Context, id string) (*Visit, error) {
	var v Visit
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrVisitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VisitRepositoryImpl) Create(ctx context.Context, v *Visit) error {
	_, err := r.Collection.InsertOne(ctx, v)
	return err
}

func (r *VisitRepositoryImpl) Update(ctx context.Context, id string, fields bson.M) (*Visit, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var v Visit
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrVisitNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VisitRepositoryImpl) Delete(ctx context.Context, id string) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrVisitNotFound
	}
	return nil
}
