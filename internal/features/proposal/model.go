package proposal

import (
	"time"

	"crm-imobiliario/internal/features/lead"
	"crm-imobiliario/internal/features/property"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	StatusEnviada   = "enviada"
	StatusEmAnalise = "em_analise"
	StatusAprovada  = "aprovada"
	StatusRecusada  = "recusada"
)

type Proposal struct {
	ID          string     `bson:"_id" json:"id"`
	Codigo      string     `bson:"codigo" json:"codigo"`
	LeadID      string     `bson:"lead_id" json:"lead_id" validate:"required"`
	ImovelID    string     `bson:"imovel_id" json:"imovel_id" validate:"required"`
	Valor       float64    `bson:"valor" json:"valor" validate:"gt=0"`
	Status      string     `bson:"status" json:"status" validate:"required,oneof=enviada em_analise aprovada recusada"`
	Validade    *time.Time `bson:"validade,omitempty" json:"validade,omitempty"`
	Observacoes string     `bson:"observacoes,omitempty" json:"observacoes,omitempty" validate:"max=1000"`
	CorretorID  string     `bson:"corretor_id,omitempty" json:"corretor_id,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at" json:"updated_at"`
}

type ProposalDetail struct {
	Proposal
	Lead   *lead.Lead         `json:"lead"`
	Imovel *property.Property `json:"imovel"`
}

type UpdateProposalRequest struct {
	Valor       *float64   `json:"valor" validate:"omitempty,gt=0"`
	Status      *string    `json:"status" validate:"omitempty,oneof=enviada em_analise aprovada recusada"`
	Validade    *time.Time `json:"validade"`
	Observacoes *string    `json:"observacoes" validate:"omitempty,max=1000"`
}

func (r UpdateProposalRequest) fields() bson.M {
	set := bson.M{}
	if r.Valor != nil {
		set["valor"] = *r.Valor
	}
	if r.Status != nil {
		set["status"] = *r.Status
	}
	if r.Validade != nil {
		set["validade"] = r.Validade.UTC()
	}
	if r.Observacoes != nil {
		set["observacoes"] = *r.Observacoes
	}
	return set
}
