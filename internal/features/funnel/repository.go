package funnel

import (
	"context"
	"errors"

	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrStageNotFound      = errors.New("etapa não encontrada")
	ErrMembershipNotFound = errors.New("lead não está no funil")
)

type StageRepository interface {
	List(ctx context.Context) ([]Stage, error)
	First(ctx context.Context) (*Stage, error)
	FindByID(ctx context.Context, id string) (*Stage, error)
	Create(ctx context.Context, stage *Stage) error
	Update(ctx context.Context, stage *Stage) error
	Delete(ctx context.Context, id string) error
}

type StageRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewStageRepository(mongodb *database.MongodbDB) StageRepository {
	return &StageRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionFunnelStages),
	}
}

func (r *StageRepositoryImpl) List(ctx context.Context) ([]Stage, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "ordem", Value: 1}}))
	if err != nil {
		return nil, err
	}
	stages := []Stage{}
	if err = cursor.All(ctx, &stages); err != nil {
		return nil, err
	}
	return stages, nil
}

func (r *StageRepositoryImpl) First(ctx context.Context) (*Stage, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "ordem", Value: 1}})
	return r.findOne(ctx, bson.M{}, opts)
}

func (r *StageRepositoryImpl) FindByID(ctx context.Context, id string) (*Stage, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *StageRepositoryImpl) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*Stage, error) {
	var stage Stage
	err := r.Collection.FindOne(ctx, filter, opts...).Decode(&stage)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrStageNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stage, nil
}

func (r *StageRepositoryImpl) Create(ctx context.Context, stage *Stage) error {
	_, err := r.Collection.InsertOne(ctx, stage)
	return err
}

func (r *StageRepositoryImpl) Update(ctx context.Context, stage *Stage) error {
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": stage.ID}, bson.M{"$set": bson.M{
		"nome":  stage.Nome,
		"ordem": stage.Ordem,
		"cor":   stage.Cor,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStageNotFound
	}
	return nil
}

func (r *StageRepositoryImpl) Delete(ctx context.Context, id string) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrStageNotFound
	}
	return nil
}

type MembershipRepository interface {
	List(ctx context.Context) ([]Membership, error)
	ListLeadIDs(ctx context.Context) ([]string, error)
	FindByLead(ctx context.Context, leadID string) (*Membership, error)
	DeleteByLead(ctx context.Context, leadID string) error
	Insert(ctx context.Context, membership Membership) error
	InsertMany(ctx context.Context, memberships []Membership) error
	CountByStage(ctx context.Context) (map[string]int, error)
	CountInStage(ctx context.Context, stageID string) (int64, error)
}

type MembershipRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMembershipRepository(mongodb *database.MongodbDB) MembershipRepository {
	return &MembershipRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionLeadFunnel),
	}
}

func (r *MembershipRepositoryImpl) List(ctx context.Context) ([]Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "data_entrada", Value: -1}})
	cursor, err := r.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	memberships := []Membership{}
	if err = cursor.All(ctx, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *MembershipRepositoryImpl) ListLeadIDs(ctx context.Context) ([]string, error) {
	values, err := r.Collection.Distinct(ctx, "lead_id", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *MembershipRepositoryImpl) FindByLead(ctx context.Context, leadID string) (*Membership, error) {
	var m Membership
	err := r.Collection.FindOne(ctx, bson.M{"lead_id": leadID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MembershipRepositoryImpl) DeleteByLead(ctx context.Context, leadID string) error {
	_, err := r.Collection.DeleteMany(ctx, bson.M{"lead_id": leadID})
	return err
}

func (r *MembershipRepositoryImpl) Insert(ctx context.Context, membership Membership) error {
	_, err := r.Collection.InsertOne(ctx, membership)
	return err
}

func (r *MembershipRepositoryImpl) InsertMany(ctx context.Context, memberships []Membership) error {
	docs := make([]interface{}, len(memberships))
	for i, m := range memberships {
		docs[i] = m
	}
	_, err := r.Collection.InsertMany(ctx, docs)
	return err
}

func (r *MembershipRepositoryImpl) CountByStage(ctx context.Context) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$etapa_id"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.Collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		EtapaID string `bson:"_id"`
		Total   int    `bson:"total"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.EtapaID] = row.Total
	}
	return counts, nil
}

func (r *MembershipRepositoryImpl) CountInStage(ctx context.Context, stageID string) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{"etapa_id": stageID})
}
