package system

import (
	"context"
	"time"

	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Pinger reports whether a backing store answers
type Pinger interface {
	Ping(ctx context.Context) error
}

type mongoPinger struct {
	db *database.MongodbDB
}

func NewMongoPinger(db *database.MongodbDB) Pinger {
	return mongoPinger{db: db}
}

func (p mongoPinger) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.db.Client.Ping(ctx, readpref.Primary())
}
