package auth

import (
	"context"
	"errors"
	"time"

	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/features/user"
	"crm-imobiliario/internal/realtime"
	"crm-imobiliario/pkg/utils"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New()

var (
	ErrInvalidCredentials = errors.New("email ou senha inválidos")
	ErrInactiveAccount    = errors.New("conta inativa")
)

type RegisterRequest struct {
	Nome  string `json:"nome" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
	Senha string `json:"senha" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email string `json:"email" validate:"required"`
	Senha string `json:"senha" validate:"required"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*user.User, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
}

type AuthServiceImpl struct {
	UserRepo  user.UserRepository
	RoleRepo  user.RoleRepository
	Publisher realtime.Publisher
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewAuthService(userRepo user.UserRepository, roleRepo user.RoleRepository, publisher realtime.Publisher, logger *zap.Logger) AuthService {
	return &AuthServiceImpl{
		UserRepo:  userRepo,
		RoleRepo:  roleRepo,
		Publisher: publisher,
		Logger:    logger,
		Now:       time.Now,
	}
}

// Register creates a self-service account with the corretor role
func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*user.User, error) {
	req.Email = user.NormalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	u := &user.User{Nome: req.Nome, Email: req.Email}
	if err := user.Provision(ctx, s.UserRepo, s.RoleRepo, u, req.Senha, user.RoleCorretor, s.Now()); err != nil {
		return nil, err
	}
	s.Publisher.Publish(database.CollectionUsers, realtime.ChangeInsert, u.ID)
	return u, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	u, err := s.UserRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(u.PasswordHash, req.Senha) {
		return nil, ErrInvalidCredentials
	}
	if !u.Ativo {
		return nil, ErrInactiveAccount
	}

	role, err := s.RoleRepo.FindByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if role == "" {
		s.Logger.Warn("user without role, defaulting to corretor", zap.String("user_id", u.ID))
		role = user.RoleCorretor
	}
	u.Role = role

	token, err := utils.GenerateToken(u.ID, u.Email, role)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: u}, nil
}
