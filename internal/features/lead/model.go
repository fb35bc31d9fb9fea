package lead

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	TemperaturaCold = "cold"
	TemperaturaWarm = "warm"
	TemperaturaHot  = "hot"
)

// Interaction types
const (
	InteracaoObservacao = "observacao"
	InteracaoVisita     = "visita"
	InteracaoProposta   = "proposta"
	InteracaoLigacao    = "ligacao"
	InteracaoEmail      = "email"
	InteracaoWhatsapp   = "whatsapp"
)

type Lead struct {
	ID            string     `bson:"_id" json:"id"`
	Nome          string     `bson:"nome" json:"nome" validate:"required,min=1,max=100"`
	Email         string     `bson:"email,omitempty" json:"email,omitempty" validate:"omitempty,email"`
	Telefone      string     `bson:"telefone" json:"telefone" validate:"required,min=10,max=20"`
	Temperatura   string     `bson:"temperatura" json:"temperatura" validate:"required,oneof=cold warm hot"`
	Origem        string     `bson:"origem" json:"origem" validate:"required,min=1,max=50"`
	Observacoes   string     `bson:"observacoes,omitempty" json:"observacoes,omitempty" validate:"max=500"`
	Interesse     string     `bson:"interesse,omitempty" json:"interesse,omitempty"`
	OrcamentoMin  *float64   `bson:"orcamento_min,omitempty" json:"orcamento_min,omitempty" validate:"omitempty,gte=0"`
	OrcamentoMax  *float64   `bson:"orcamento_max,omitempty" json:"orcamento_max,omitempty" validate:"omitempty,gte=0"`
	CorretorID    string     `bson:"corretor_id,omitempty" json:"corretor_id,omitempty"`
	Finalizado    bool       `bson:"finalizado" json:"finalizado"`
	UltimoContato *time.Time `bson:"ultimo_contato,omitempty" json:"ultimo_contato,omitempty"`
	CreatedAt     time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at" json:"updated_at"`
}

func (l *Lead) normalize() {
	l.Nome = strings.TrimSpace(l.Nome)
	l.Email = strings.TrimSpace(l.Email)
	l.Telefone = strings.TrimSpace(l.Telefone)
	l.Origem = strings.TrimSpace(l.Origem)
	l.Temperatura = strings.ToLower(strings.TrimSpace(l.Temperatura))
}

// DisplayName falls back to "Lead" for unnamed or missing leads
func DisplayName(l *Lead) string {
	if l == nil || l.Nome == "" {
		return "Lead"
	}
	return l.Nome
}

type UpdateLeadRequest struct {
	Nome         *string  `json:"nome" validate:"omitempty,min=1,max=100"`
	Email        *string  `json:"email" validate:"omitempty,email"`
	Telefone     *string  `json:"telefone" validate:"omitempty,min=10,max=20"`
	Temperatura  *string  `json:"temperatura" validate:"omitempty,oneof=cold warm hot"`
	Origem       *string  `json:"origem" validate:"omitempty,min=1,max=50"`
	Observacoes  *string  `json:"observacoes" validate:"omitempty,max=500"`
	Interesse    *string  `json:"interesse"`
	OrcamentoMin *float64 `json:"orcamento_min" validate:"omitempty,gte=0"`
	OrcamentoMax *float64 `json:"orcamento_max" validate:"omitempty,gte=0"`
	CorretorID   *string  `json:"corretor_id"`
}

func (r UpdateLeadRequest) fields() bson.M {
	set := bson.M{}
	put := func(key string, v *string) {
		if v != nil {
			set[key] = strings.TrimSpace(*v)
		}
	}
	put("nome", r.Nome)
	put("email", r.Email)
	put("telefone", r.Telefone)
	put("temperatura", r.Temperatura)
	put("origem", r.Origem)
	put("observacoes", r.Observacoes)
	put("interesse", r.Interesse)
	put("corretor_id", r.CorretorID)
	if r.OrcamentoMin != nil {
		set["orcamento_min"] = *r.OrcamentoMin
	}
	if r.OrcamentoMax != nil {
		set["orcamento_max"] = *r.OrcamentoMax
	}
	return set
}

// Interaction is an append-only entry of a lead's history
type Interaction struct {
	ID        string    `bson:"_id" json:"id"`
	LeadID    string    `bson:"lead_id" json:"lead_id"`
	UsuarioID string    `bson:"usuario_id,omitempty" json:"usuario_id,omitempty"`
	Tipo      string    `bson:"tipo" json:"tipo" validate:"required,oneof=observacao visita proposta ligacao email whatsapp"`
	Descricao string    `bson:"descricao" json:"descricao" validate:"required,max=1000"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}
