package funnel

import (
	"time"

	"crm-imobiliario/internal/features/lead"
)

type Stage struct {
	ID        string    `bson:"_id" json:"id"`
	Nome      string    `bson:"nome" json:"nome" validate:"required,max=50"`
	Ordem     int       `bson:"ordem" json:"ordem" validate:"gte=0"`
	Cor       string    `bson:"cor" json:"cor" validate:"omitempty,max=20"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Membership places one lead in one stage
type Membership struct {
	ID          string    `bson:"_id" json:"id"`
	LeadID      string    `bson:"lead_id" json:"lead_id"`
	EtapaID     string    `bson:"etapa_id" json:"etapa_id"`
	DataEntrada time.Time `bson:"data_entrada" json:"data_entrada"`
}

// BoardEntry is a membership joined with its lead and stage
type BoardEntry struct {
	Membership
	Lead  *lead.Lead `json:"lead"`
	Etapa *Stage     `json:"etapa"`
}

type MoveResult struct {
	Moved      bool        `json:"moved"`
	Membership *Membership `json:"membership,omitempty"`
}

type SyncResult struct {
	Synced int `json:"synced"`
}
