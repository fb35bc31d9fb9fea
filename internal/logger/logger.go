package logger

import (
	"context"

	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type collectionSink struct {
	collection *mongo.Collection
}

func (s collectionSink) InsertOne(ctx context.Context, document interface{}) error {
	_, err := s.collection.InsertOne(ctx, document)
	return err
}

// NewLogger builds the console logger and tees it into the logs collection
func NewLogger(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	dbWriter := NewDBLogWriter(collectionSink{collection: mongodb.DB.Collection(database.CollectionLogs)}, cfg.AppId, 1000)

	logger := zap.New(NewDBCore(baseLogger.Core(), dbWriter), zap.AddCaller())

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			dbWriter.Close()
			return nil
		},
	})

	return logger, nil
}
