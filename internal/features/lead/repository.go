package lead

import (
	"context"
	"errors"
	"time"

	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrLeadNotFound = errors.New("lead não encontrado")

type LeadFilter struct {
	Finalizado   *bool
	CreatedSince *time.Time
}

type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	FindByIDs(ctx context.Context, ids []string) ([]Lead, error)
	List(ctx context.Context, filter LeadFilter) ([]Lead, error)
	ListIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id string, fields bson.M) (*Lead, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type LeadRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewLeadRepository(mongodb *database.MongodbDB) LeadRepository {
	return &LeadRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionLeads),
	}
}

func (r *LeadRepositoryImpl) Create(ctx context.Context, lead *Lead) error {
	_, err := r.Collection.InsertOne(ctx, lead)
	return err
}

func (r *LeadRepositoryImpl) FindByID(ctx context.Context, id string) (*Lead, error) {
	var lead Lead
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepositoryImpl) FindByIDs(ctx context.Context, ids []string) ([]Lead, error) {
	leads := []Lead{}
	if len(ids) == 0 {
		return leads, nil
	}
	cursor, err := r.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	if err = cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *LeadRepositoryImpl) List(ctx context.Context, filter LeadFilter) ([]Lead, error) {
	query := bson.M{}
	if filter.Finalizado != nil {
		query["finalizado"] = *filter.Finalizado
	}
	if filter.CreatedSince != nil {
		query["created_at"] = bson.M{"$gte": *filter.CreatedSince}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	leads := []Lead{}
	if err = cursor.All(ctx, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *LeadRepositoryImpl) ListIDs(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func (r *LeadRepositoryImpl) Update(ctx context.Context, id string, fields bson.M) (*Lead, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var lead Lead
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&lead)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepositoryImpl) Touch(ctx context.Context, id string, at time.Time) error {
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"ultimo_contato": at,
		"updated_at":     at,
	}})
	return err
}

func (r *LeadRepositoryImpl) Delete(ctx context.Context, id string) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrLeadNotFound
	}
	return nil
}

type InteractionRepository interface {
	Create(ctx context.Context, interaction Interaction) error
	ListByLead(ctx context.Context, leadID string) ([]Interaction, error)
	ListRecent(ctx context.Context, limit int64) ([]Interaction, error)
	DeleteByLead(ctx context.Context, leadID string) error
}

type InteractionRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewInteractionRepository(mongodb *database.MongodbDB) InteractionRepository {
	return &InteractionRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionInteractions),
	}
}

func (r *InteractionRepositoryImpl) Create(ctx context.Context, interaction Interaction) error {
	_, err := r.Collection.InsertOne(ctx, interaction)
	return err
}

func (r *InteractionRepositoryImpl) ListByLead(ctx context.Context, leadID string) ([]Interaction, error) {
	return r.find(ctx, bson.M{"lead_id": leadID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *InteractionRepositoryImpl) ListRecent(ctx context.Context, limit int64) ([]Interaction, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit))
}

func (r *InteractionRepositoryImpl) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]Interaction, error) {
	cursor, err := r.Collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	interactions := []Interaction{}
	if err = cursor.All(ctx, &interactions); err != nil {
		return nil, err
	}
	return interactions, nil
}

func (r *InteractionRepositoryImpl) DeleteByLead(ctx context.Context, leadID string) error {
	_, err := r.Collection.DeleteMany(ctx, bson.M{"lead_id": leadID})
	return err
}
