package user

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	RoleAdmin      = "admin"
	RoleCorretor   = "corretor"
	RoleAssistente = "assistente"
)

type User struct {
	ID           string    `bson:"_id" json:"id"`
	Nome         string    `bson:"nome" json:"nome" validate:"required,min=2,max=100"`
	Email        string    `bson:"email" json:"email" validate:"required,email"`
	Telefone     string    `bson:"telefone,omitempty" json:"telefone,omitempty" validate:"omitempty,max=20"`
	Cargo        string    `bson:"cargo,omitempty" json:"cargo,omitempty" validate:"omitempty,max=50"`
	AvatarURL    string    `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Ativo        bool      `bson:"ativo" json:"ativo"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	Role         string    `bson:"-" json:"role,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type UserRole struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Role      string    `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type UpdateProfileRequest struct {
	Nome      *string `json:"nome" validate:"omitempty,min=2,max=100"`
	Telefone  *string `json:"telefone" validate:"omitempty,max=20"`
	Cargo     *string `json:"cargo" validate:"omitempty,max=50"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
	// Ativo is honoured for admins only
	Ativo *bool `json:"ativo"`
}

func (r UpdateProfileRequest) fields(admin bool) bson.M {
	set := bson.M{}
	if r.Nome != nil {
		set["nome"] = strings.TrimSpace(*r.Nome)
	}
	if r.Telefone != nil {
		set["telefone"] = strings.TrimSpace(*r.Telefone)
	}
	if r.Cargo != nil {
		set["cargo"] = *r.Cargo
	}
	if r.AvatarURL != nil {
		set["avatar_url"] = *r.AvatarURL
	}
	if admin && r.Ativo != nil {
		set["ativo"] = *r.Ativo
	}
	return set
}

type InviteRequest struct {
	Nome     string `json:"nome" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=admin corretor assistente"`
	Telefone string `json:"telefone" validate:"omitempty,max=20"`
	Cargo    string `json:"cargo" validate:"omitempty,max=50"`
}

// InviteResult carries the temporary password; it is never stored in clear
type InviteResult struct {
	User              *User  `json:"user"`
	TemporaryPassword string `json:"temporary_password"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin corretor assistente"`
}
