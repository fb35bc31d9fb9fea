package dashboard

import (
	"context"

	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserDirectory resolves display names for interaction authors
type UserDirectory interface {
	Names(ctx context.Context, ids []string) (map[string]string, error)
}

type DashboardRepository interface {
	CountLeads(ctx context.Context) (int64, error)
	LeadsByOrigin(ctx context.Context) ([]OriginCount, error)
}

type DashboardRepositoryImpl struct {
	Leads *mongo.Collection
}

func NewDashboardRepository(mongodb *database.MongodbDB) DashboardRepository {
	return &DashboardRepositoryImpl{
		Leads: mongodb.DB.Collection(database.CollectionLeads),
	}
}

func (r *DashboardRepositoryImpl) CountLeads(ctx context.Context) (int64, error) {
	return r.Leads.CountDocuments(ctx, bson.M{})
}

func (r *DashboardRepositoryImpl) LeadsByOrigin(ctx context.Context) ([]OriginCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$origem"},
			{Key: "total", Value: bson.M{"$sum": 1}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "total", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := r.Leads.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Origem string `bson:"_id"`
		Total  int    `bson:"total"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]OriginCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, OriginCount{Origem: row.Origem, Total: row.Total})
	}
	return out, nil
}
