package proposal

import (
	"context"
	"errors"

	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrProposalNotFound = errors.New("proposta não encontrada")

type ProposalRepository interface {
	List(ctx context.Context) ([]Proposal, error)
	// Count with an empty status counts every proposal
	Count(ctx context.Context, status string) (int64, error)
	FindByID(ctx context.Context, id string) (*Proposal, error)
	Create(ctx context.Context, p *Proposal) error
	Update(ctx context.Context, id string, fields bson.M) (*Proposal, error)
}

type ProposalRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewProposalRepository(mongodb *database.MongodbDB) ProposalRepository {
	return &ProposalRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionProposals),
	}
}

func (r *ProposalRepositoryImpl) List(ctx context.Context) ([]Proposal, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	proposals := []Proposal{}
	if err = cursor.All(ctx, &proposals); err != nil {
		return nil, err
	}
	return proposals, nil
}

func (r *ProposalRepositoryImpl) Count(ctx context.Context, status string) (int64, error) {
	query := bson.M{}
	if status != "" {
		query["status"] = status
	}
	return r.Collection.CountDocuments(ctx, query)
}

func (r *ProposalRepositoryImpl) FindByID(ctx context.Context, id string) (*Proposal, error) {
	var p Proposal
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProposalRepositoryImpl) Create(ctx context.Context, p *Proposal) error {
	_, err := r.Collection.InsertOne(ctx, p)
	return err
}

func (r *ProposalRepositoryImpl) Update(ctx context.Context, id string, fields bson.M) (*Proposal, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var p Proposal
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
