package database

import (
	"context"
	"log"
	"time"

	"crm-imobiliario/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
)

// Collection names follow the original table names so exports and dashboards
// keep their vocabulary.
const (
	CollectionLeads            = "leads"
	CollectionFunnelStages     = "funil_etapas"
	CollectionLeadFunnel       = "lead_funil"
	CollectionInteractions     = "lead_interacoes"
	CollectionActivities       = "atividades_sistema"
	CollectionVisits           = "visitas"
	CollectionProposals        = "propostas"
	CollectionProperties       = "imoveis"
	CollectionUsers            = "usuarios"
	CollectionUserRoles        = "user_roles"
	CollectionCalendarTokens   = "google_calendar_tokens"
	CollectionCalendarEventMap = "visitas_google_sync"
	CollectionReportingRuns    = "reporting_runs"
	CollectionLogs             = "logs"
)

type MongodbDB struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewDatabase creates a new MongoDB database connection with lifecycle management
func NewDatabase(lc fx.Lifecycle, cfg *config.Config) (*MongodbDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.Println("Connected to MongoDB!")

	db := client.Database(cfg.DBName)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Println("Disconnecting from MongoDB...")
			return client.Disconnect(ctx)
		},
	})

	return &MongodbDB{Client: client, DB: db}, nil
}
