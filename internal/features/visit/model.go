package visit

import (
	"time"

	"crm-imobiliario/internal/features/lead"
	"crm-imobiliario/internal/features/property"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	StatusAgendada  = "agendada"
	StatusRealizada = "realizada"
	StatusCancelada = "cancelada"

	DefaultDuration = 60
)

type Visit struct {
	ID          string    `bson:"_id" json:"id"`
	LeadID      string    `bson:"lead_id" json:"lead_id" validate:"required"`
	ImovelID    string    `bson:"imovel_id" json:"imovel_id" validate:"required"`
	CorretorID  string    `bson:"corretor_id,omitempty" json:"corretor_id,omitempty"`
	DataHora    time.Time `bson:"data_hora" json:"data_hora" validate:"required"`
	Duracao     int       `bson:"duracao" json:"duracao" validate:"gte=0,lte=1440"`
	Tipo        string    `bson:"tipo,omitempty" json:"tipo,omitempty" validate:"omitempty,oneof=presencial virtual"`
	Status      string    `bson:"status" json:"status" validate:"required,oneof=agendada realizada cancelada"`
	Observacoes string    `bson:"observacoes,omitempty" json:"observacoes,omitempty" validate:"max=1000"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// DurationOrDefault treats a zero duration as one hour
func (v Visit) DurationOrDefault() time.Duration {
	if v.Duracao <= 0 {
		return DefaultDuration * time.Minute
	}
	return time.Duration(v.Duracao) * time.Minute
}

type VisitDetail struct {
	Visit
	Lead   *lead.Lead         `json:"lead"`
	Imovel *property.Property `json:"imovel"`
}

type UpdateVisitRequest struct {
	ImovelID    *string    `json:"imovel_id" validate:"omitempty,min=1"`
	DataHora    *time.Time `json:"data_hora"`
	Duracao     *int       `json:"duracao" validate:"omitempty,gte=0,lte=1440"`
	Tipo        *string    `json:"tipo" validate:"omitempty,oneof=presencial virtual"`
	Status      *string    `json:"status" validate:"omitempty,oneof=agendada realizada cancelada"`
	Observacoes *string    `json:"observacoes" validate:"omitempty,max=1000"`
}

func (r UpdateVisitRequest) fields() bson.M {
	set := bson.M{}
	if r.ImovelID != nil {
		set["imovel_id"] = *r.ImovelID
	}
	if r.DataHora != nil {
		set["data_hora"] = r.DataHora.UTC()
	}
	if r.Duracao != nil {
		set["duracao"] = *r.Duracao
	}
	if r.Tipo != nil {
		set["tipo"] = *r.Tipo
	}
	if r.Status != nil {
		set["status"] = *r.Status
	}
	if r.Observacoes != nil {
		set["observacoes"] = *r.Observacoes
	}
	return set
}

// SyncAction is what the calendar integration should do with a visit
type SyncAction string

const (
	SyncCreate SyncAction = "create"
	SyncUpdate SyncAction = "update"
	SyncDelete SyncAction = "delete"
)
