package activity

import "time"

const (
	TipoEtapaAlterada = "etapa_alterada"
	TipoLeadCriado    = "lead_criado"
	TipoVisita        = "visita_agendada"
	TipoProposta      = "proposta_criada"
)

// Activity is one entry of the system-wide feed
type Activity struct {
	ID        string                 `bson:"_id" json:"id"`
	Tipo      string                 `bson:"tipo" json:"tipo"`
	Titulo    string                 `bson:"titulo" json:"titulo"`
	Descricao string                 `bson:"descricao,omitempty" json:"descricao,omitempty"`
	LeadID    string                 `bson:"lead_id,omitempty" json:"lead_id,omitempty"`
	UsuarioID string                 `bson:"usuario_id,omitempty" json:"usuario_id,omitempty"`
	Metadata  map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}
