package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type indexSpec struct {
	collection string
	model      mongo.IndexModel
}

// lead_funil.lead_id is not unique; the funnel service keeps one row per lead.
var indexSpecs = []indexSpec{
	{CollectionLeads, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}},
	{CollectionLeads, mongo.IndexModel{Keys: bson.D{{Key: "finalizado", Value: 1}}}},
	{CollectionFunnelStages, mongo.IndexModel{Keys: bson.D{{Key: "ordem", Value: 1}}}},
	{CollectionLeadFunnel, mongo.IndexModel{Keys: bson.D{{Key: "lead_id", Value: 1}}}},
	{CollectionLeadFunnel, mongo.IndexModel{Keys: bson.D{{Key: "etapa_id", Value: 1}}}},
	{CollectionInteractions, mongo.IndexModel{Keys: bson.D{{Key: "lead_id", Value: 1}, {Key: "created_at", Value: -1}}}},
	{CollectionActivities, mongo.IndexModel{Keys: bson.D{{Key: "created_at", Value: -1}}}},
	{CollectionVisits, mongo.IndexModel{Keys: bson.D{{Key: "data_hora", Value: 1}}}},
	{CollectionProposals, mongo.IndexModel{Keys: bson.D{{Key: "codigo", Value: 1}}, Options: options.Index().SetUnique(true)}},
	{CollectionUsers, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
	{CollectionUserRoles, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}}},
	{CollectionCalendarTokens, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
	{CollectionCalendarTokens, mongo.IndexModel{Keys: bson.D{{Key: "webhook_channel_id", Value: 1}}}},
	{CollectionCalendarEventMap, mongo.IndexModel{Keys: bson.D{{Key: "visita_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
	{CollectionCalendarEventMap, mongo.IndexModel{Keys: bson.D{{Key: "google_event_id", Value: 1}, {Key: "user_id", Value: 1}}}},
	{CollectionReportingRuns, mongo.IndexModel{Keys: bson.D{{Key: "start_time", Value: -1}}}},
}

// EnsureIndexes creates the indexes the repositories rely on
func (m *MongodbDB) EnsureIndexes(ctx context.Context) error {
	for _, spec := range indexSpecs {
		if _, err := m.DB.Collection(spec.collection).Indexes().CreateOne(ctx, spec.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", spec.collection, err)
		}
	}
	return nil
}
