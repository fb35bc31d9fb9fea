package property

import (
	"context"
	"errors"

	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrPropertyNotFound = errors.New("imóvel não encontrado")

type PropertyRepository interface {
	List(ctx context.Context, status string) ([]Property, error)
	FindByID(ctx context.Context, id string) (*Property, error)
	FindByIDs(ctx context.Context, ids []string) ([]Property, error)
	Create(ctx context.Context, p *Property) error
	Replace(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id string) error
}

type PropertyRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewPropertyRepository(mongodb *database.MongodbDB) PropertyRepository {
	return &PropertyRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionProperties),
	}
}

func (r *PropertyRepositoryImpl) List(ctx context.Context, status string) ([]Property, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	cursor, err := r.Collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	properties := []Property{}
	if err = cursor.All(ctx, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

func (r *PropertyRepositoryImpl) FindByID(ctx context.Context, id string) (*Property, error) {
	var p Property
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PropertyRepositoryImpl) FindByIDs(ctx context.Context, ids []string) ([]Property, error) {
	properties := []Property{}
	if len(ids) == 0 {
		return properties, nil
	}
	cursor, err := r.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	if err = cursor.All(ctx, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

func (r *PropertyRepositoryImpl) Create(ctx context.Context, p *Property) error {
	_, err := r.Collection.InsertOne(ctx, p)
	return err
}

func (r *PropertyRepositoryImpl) Replace(ctx context.Context, p *Property) error {
	res, err := r.Collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

func (r *PropertyRepositoryImpl) Delete(ctx context.Context, id string) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPropertyNotFound
	}
	return nil
}
