package property

import (
	"strings"
	"time"
)

type Property struct {
	ID              string    `bson:"_id" json:"id"`
	Tipo            string    `bson:"tipo" json:"tipo" validate:"required"`
	Finalidade      string    `bson:"finalidade" json:"finalidade" validate:"required,oneof=venda aluguel"`
	CEP             string    `bson:"cep" json:"cep" validate:"required,min=8"`
	Endereco        string    `bson:"endereco" json:"endereco" validate:"required"`
	Numero          string    `bson:"numero,omitempty" json:"numero,omitempty"`
	Complemento     string    `bson:"complemento,omitempty" json:"complemento,omitempty"`
	Bairro          string    `bson:"bairro" json:"bairro" validate:"required"`
	Cidade          string    `bson:"cidade" json:"cidade" validate:"required"`
	Estado          string    `bson:"estado" json:"estado" validate:"required,min=2"`
	ValorVenda      *float64  `bson:"valor_venda,omitempty" json:"valor_venda,omitempty" validate:"omitempty,gte=0"`
	ValorAluguel    *float64  `bson:"valor_aluguel,omitempty" json:"valor_aluguel,omitempty" validate:"omitempty,gte=0"`
	ValorCondominio *float64  `bson:"valor_condominio,omitempty" json:"valor_condominio,omitempty" validate:"omitempty,gte=0"`
	ValorIPTU       *float64  `bson:"valor_iptu,omitempty" json:"valor_iptu,omitempty" validate:"omitempty,gte=0"`
	Quartos         *int      `bson:"quartos,omitempty" json:"quartos,omitempty" validate:"omitempty,gte=0"`
	Banheiros       *int      `bson:"banheiros,omitempty" json:"banheiros,omitempty" validate:"omitempty,gte=0"`
	Vagas           *int      `bson:"vagas,omitempty" json:"vagas,omitempty" validate:"omitempty,gte=0"`
	AreaTotal       *float64  `bson:"area_total,omitempty" json:"area_total,omitempty" validate:"omitempty,gte=0"`
	AreaUtil        *float64  `bson:"area_util,omitempty" json:"area_util,omitempty" validate:"omitempty,gte=0"`
	Descricao       string    `bson:"descricao,omitempty" json:"descricao,omitempty"`
	Status          string    `bson:"status" json:"status" validate:"required,oneof=disponivel reservado vendido alugado"`
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

func (p *Property) normalize() {
	p.Tipo = strings.TrimSpace(p.Tipo)
	p.CEP = strings.TrimSpace(p.CEP)
	p.Endereco = strings.TrimSpace(p.Endereco)
	p.Bairro = strings.TrimSpace(p.Bairro)
	p.Cidade = strings.TrimSpace(p.Cidade)
	p.Estado = strings.ToUpper(strings.TrimSpace(p.Estado))
	if p.Status == "" {
		p.Status = "disponivel"
	}
}

// Address is the one-line form used in calendar events and listings
func Address(p *Property) string {
	if p == nil || p.Endereco == "" {
		return "Imóvel"
	}
	parts := []string{p.Endereco}
	if p.Numero != "" {
		parts[0] += ", " + p.Numero
	}
	if p.Bairro != "" {
		parts = append(parts, p.Bairro)
	}
	if p.Cidade != "" {
		parts = append(parts, p.Cidade)
	}
	return strings.Join(parts, " - ")
}
