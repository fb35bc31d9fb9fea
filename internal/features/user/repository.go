package user

import (
	"context"
	"errors"

	"crm-imobiliario/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrUserNotFound = errors.New("usuário não encontrado")
	ErrEmailTaken   = errors.New("email já cadastrado")
)

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id string, fields bson.M) (*User, error)
	// Names maps user ids to display names; unknown ids are absent
	Names(ctx context.Context, ids []string) (map[string]string, error)
}

type UserRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewUserRepository(mongodb *database.MongodbDB) UserRepository {
	return &UserRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionUsers),
	}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *User) error {
	_, err := r.Collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

func (r *UserRepositoryImpl) findOne(ctx context.Context, query bson.M) (*User, error) {
	var user User
	err := r.Collection.FindOne(ctx, query).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) List(ctx context.Context) ([]User, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	users := []User{}
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepositoryImpl) Update(ctx context.Context, id string, fields bson.M) (*User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user User
	err := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) Names(ctx context.Context, ids []string) (map[string]string, error) {
	names := map[string]string{}
	if len(ids) == 0 {
		return names, nil
	}
	opts := options.Find().SetProjection(bson.M{"nome": 1})
	cursor, err := r.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID   string `bson:"_id"`
		Nome string `bson:"nome"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Nome
	}
	return names, nil
}

type RoleRepository interface {
	// FindByUser returns "" when the user has no role row
	FindByUser(ctx context.Context, userID string) (string, error)
	All(ctx context.Context) (map[string]string, error)
	Insert(ctx context.Context, role *UserRole) error
	DeleteByUser(ctx context.Context, userID string) error
}

type RoleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRoleRepository(mongodb *database.MongodbDB) RoleRepository {
	return &RoleRepositoryImpl{
		Collection: mongodb.DB.Collection(database.CollectionUserRoles),
	}
}

func (r *RoleRepositoryImpl) FindByUser(ctx context.Context, userID string) (string, error) {
	var row UserRole
	err := r.Collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return row.Role, nil
}

func (r *RoleRepositoryImpl) All(ctx context.Context) (map[string]string, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	var rows []UserRole
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	roles := make(map[string]string, len(rows))
	for _, row := range rows {
		roles[row.UserID] = row.Role
	}
	return roles, nil
}

func (r *RoleRepositoryImpl) Insert(ctx context.Context, role *UserRole) error {
	_, err := r.Collection.InsertOne(ctx, role)
	return err
}

func (r *RoleRepositoryImpl) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.Collection.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
