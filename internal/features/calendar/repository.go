package calendar

import (
	"context"
	"errors"
	"time"

	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotConnected   = errors.New("Google Calendar não conectado")
	ErrSyncNotFound   = errors.New("visita não sincronizada")
	ErrUnknownChannel = errors.New("canal de notificação desconhecido")
)

type TokenRepository interface {
	FindByUser(ctx context.Context, userID string) (*Token, error)
	FindByChannel(ctx context.Context, channelID string) (*Token, error)
	// Upsert replaces the credentials for the token's user, keeping the row id
	// and created_at of an existing connection
	Upsert(ctx context.Context, token *Token) error
	UpdateAccess(ctx context.Context, userID string, tok OAuthToken, at time.Time) error
	UpdateChannel(ctx context.Context, userID string, ch Channel, at time.Time) error
	ListChannelsExpiringBefore(ctx context.Context, before time.Time) ([]Token, error)
	Delete(ctx context.Context, userID string) error
}

type TokenRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewTokenRepository(mongodb *database.MongodbDB) TokenRepository {
	return &TokenRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionCalendarTokens),
	}
}

func (r *TokenRepositoryImpl) findOne(ctx context.Context, query bson.M, notFound error) (*Token, error) {
	var tok Token
	err := r.Collection.FindOne(ctx, query).Decode(&tok)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

func (r *TokenRepositoryImpl) FindByUser(ctx context.Context, userID string) (*Token, error) {
	return r.findOne(ctx, bson.M{"user_id": userID}, ErrNotConnected)
}

func (r *TokenRepositoryImpl) FindByChannel(ctx context.Context, channelID string) (*Token, error) {
	if channelID == "" {
		return nil, ErrUnknownChannel
	}
	return r.findOne(ctx, bson.M{"webhook_channel_id": channelID}, ErrUnknownChannel)
}

func (r *TokenRepositoryImpl) Upsert(ctx context.Context, token *Token) error {
	update := bson.M{
		"$set": bson.M{
			"access_token":  token.AccessToken,
			"refresh_token": token.RefreshToken,
			"token_expiry":  token.TokenExpiry,
			"updated_at":    token.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        token.ID,
			"created_at": token.CreatedAt,
		},
	}
	_, err := r.Collection.UpdateOne(ctx, bson.M{"user_id": token.UserID}, update, options.Update().SetUpsert(true))
	return err
}

func (r *TokenRepositoryImpl) UpdateAccess(ctx context.Context, userID string, tok OAuthToken, at time.Time) error {
	set := bson.M{
		"access_token": tok.AccessToken,
		"token_expiry": tok.Expiry,
		"updated_at":   at,
	}
	if tok.RefreshToken != "" {
		set["refresh_token"] = tok.RefreshToken
	}
	res, err := r.Collection.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotConnected
	}
	return nil
}

func (r *TokenRepositoryImpl) UpdateChannel(ctx context.Context, userID string, ch Channel, at time.Time) error {
	set := bson.M{
		"webhook_channel_id":  ch.ID,
		"webhook_resource_id": ch.ResourceID,
		"updated_at":          at,
	}
	if !ch.Expiration.IsZero() {
		set["webhook_expiry"] = ch.Expiration
	}
	res, err := r.Collection.UpdateOne(ctx, bson.M{"user_id": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotConnected
	}
	return nil
}

func (r *TokenRepositoryImpl) ListChannelsExpiringBefore(ctx context.Context, before time.Time) ([]Token, error) {
	query := bson.M{
		"webhook_channel_id": bson.M{"$exists": true, "$ne": ""},
		"webhook_expiry":     bson.M{"$lt": before},
	}
	cursor, err := r.Collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	tokens := []Token{}
	if err = cursor.All(ctx, &tokens); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *TokenRepositoryImpl) Delete(ctx context.Context, userID string) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"user_id": userID})
	return err
}

type EventSyncRepository interface {
	Find(ctx context.Context, visitaID, userID string) (*EventSync, error)
	FindByEvent(ctx context.Context, eventID, userID string) (*EventSync, error)
	Insert(ctx context.Context, sync *EventSync) error
	Touch(ctx context.Context, visitaID, userID string, at time.Time) error
	Delete(ctx context.Context, visitaID, userID string) error
}

type EventSyncRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewEventSyncRepository(mongodb *database.MongodbDB) EventSyncRepository {
	return &EventSyncRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionCalendarEventMap),
	}
}

func (r *EventSyncRepositoryImpl) findOne(ctx context.Context, query bson.M) (*EventSync, error) {
	var s EventSync
	err := r.Collection.FindOne(ctx, query).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSyncNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *EventSyncRepositoryImpl) Find(ctx context.Context, visitaID, userID string) (*EventSync, error) {
	return r.findOne(ctx, bson.M{"visita_id": visitaID, "user_id": userID})
}

func (r *EventSyncRepositoryImpl) FindByEvent(ctx context.Context, eventID, userID string) (*EventSync, error) {
	return r.findOne(ctx, bson.M{"google_event_id": eventID, "user_id": userID})
}

func (r *EventSyncRepositoryImpl) Insert(ctx context.Context, sync *EventSync) error {
	_, err := r.Collection.InsertOne(ctx, sync)
	return err
}

func (r *EventSyncRepositoryImpl) Touch(ctx context.Context, visitaID, userID string, at time.Time) error {
	_, err := r.Collection.UpdateOne(ctx,
		bson.M{"visita_id": visitaID, "user_id": userID},
		bson.M{"$set": bson.M{"last_synced_at": at}},
	)
	return err
}

func (r *EventSyncRepositoryImpl) Delete(ctx context.Context, visitaID, userID string) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"visita_id": visitaID, "user_id": userID})
	return err
}
