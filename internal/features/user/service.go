package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/realtime"
	"crm-imobiliario/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

var ErrForbidden = errors.New("sem permissão para alterar este usuário")

type UserService interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id string) (*User, error)
	Me(ctx context.Context) (*User, error)
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error)
	Invite(ctx context.Context, req InviteRequest) (*InviteResult, error)
	UpdateRole(ctx context.Context, id string, role string) error
}

type UserServiceImpl struct {
	Repo      UserRepository
	Roles     RoleRepository
	Publisher realtime.Publisher
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewUserService(repo UserRepository, roles RoleRepository, publisher realtime.Publisher, logger *zap.Logger) UserService {
	return &UserServiceImpl{
		Repo:      repo,
		Roles:     roles,
		Publisher: publisher,
		Logger:    logger,
		Now:       time.Now,
	}
}

// Provision stores a new active user with a hashed password and one role row.
// A failed role insert leaves the user without a role; login then treats it
// as corretor.
func Provision(ctx context.Context, users UserRepository, roles RoleRepository, u *User, password, role string, now time.Time) error {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	u.ID = uuid.NewString()
	u.Email = NormalizeEmail(u.Email)
	u.PasswordHash = hash
	u.Ativo = true
	u.CreatedAt = now.UTC()
	u.UpdatedAt = now.UTC()
	if err := users.Create(ctx, u); err != nil {
		return err
	}
	if err := roles.Insert(ctx, &UserRole{ID: uuid.NewString(), UserID: u.ID, Role: role, CreatedAt: now.UTC()}); err != nil {
		return fmt.Errorf("erro ao atribuir função: %w", err)
	}
	u.Role = role
	return nil
}

func (s *UserServiceImpl) List(ctx context.Context) ([]User, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.Roles.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Role = roles[users[i].ID]
	}
	return users, nil
}

func (s *UserServiceImpl) Get(ctx context.Context, id string) (*User, error) {
	u, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role, err = s.Roles.FindByUser(ctx, id); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserServiceImpl) Me(ctx context.Context) (*User, error) {
	id, err := utils.ActorID(ctx)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error) {
	claims, ok := utils.ClaimsFromContext(ctx)
	if !ok {
		return nil, utils.ErrNoActor
	}
	admin := claims.Role == RoleAdmin
	if claims.UserID != id && !admin {
		return nil, ErrForbidden
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	fields := req.fields(admin)
	fields["updated_at"] = s.Now().UTC()
	updated, err := s.Repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.Publisher.Publish(database.CollectionUsers, realtime.ChangeUpdate, id)
	return updated, nil
}

func (s *UserServiceImpl) Invite(ctx context.Context, req InviteRequest) (*InviteResult, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	password, err := utils.TemporaryPassword()
	if err != nil {
		return nil, err
	}
	u := &User{Nome: req.Nome, Email: req.Email, Telefone: req.Telefone, Cargo: req.Cargo}
	if err := Provision(ctx, s.Repo, s.Roles, u, password, req.Role, s.Now()); err != nil {
		return nil, err
	}
	s.Logger.Info("user invited", zap.String("user_id", u.ID), zap.String("role", req.Role))
	s.Publisher.Publish(database.CollectionUsers, realtime.ChangeInsert, u.ID)
	return &InviteResult{User: u, TemporaryPassword: password}, nil
}

// UpdateRole replaces the user's role row. Between the delete and the insert
// the user has no role.
func (s *UserServiceImpl) UpdateRole(ctx context.Context, id string, role string) error {
	if err := validate.Struct(UpdateRoleRequest{Role: role}); err != nil {
		return err
	}
	if _, err := s.Repo.FindByID(ctx, id); err != nil {
		return err
	}
	if err := s.Roles.DeleteByUser(ctx, id); err != nil {
		return fmt.Errorf("erro ao atualizar função: %w", err)
	}
	if err := s.Roles.Insert(ctx, &UserRole{ID: uuid.NewString(), UserID: id, Role: role, CreatedAt: s.Now().UTC()}); err != nil {
		return fmt.Errorf("erro ao atualizar função: %w", err)
	}
	s.Publisher.Publish(database.CollectionUserRoles, realtime.ChangeUpdate, id)
	return nil
}
