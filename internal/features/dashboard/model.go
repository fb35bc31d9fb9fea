package dashboard

import "time"

type OriginCount struct {
	Origem string `json:"origem"`
	Total  int    `json:"total"`
}

type Metrics struct {
	TotalLeads       int64         `json:"totalLeads"`
	VisitasHoje      int64         `json:"visitasHoje"`
	PropostasAnalise int64         `json:"propostasAnalise"`
	TaxaConversao    float64       `json:"taxaConversao"`
	LeadsPorOrigem   []OriginCount `json:"leadsPorOrigem"`
}

type FunnelSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

type RecentActivity struct {
	ID          string    `json:"id"`
	Tipo        string    `json:"tipo"`
	Descricao   string    `json:"descricao"`
	LeadID      string    `json:"lead_id"`
	LeadNome    string    `json:"lead_nome"`
	UsuarioID   string    `json:"usuario_id,omitempty"`
	UsuarioNome string    `json:"usuario_nome,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LeadsDay is one point of the lead evolution chart, keyed by dd/mm
type LeadsDay struct {
	Name  string `json:"name"`
	Hot   int    `json:"hot"`
	Warm  int    `json:"warm"`
	Cold  int    `json:"cold"`
	Total int    `json:"total"`
}

type VisitsDay struct {
	Name      string `json:"name"`
	Agendada  int    `json:"agendada"`
	Realizada int    `json:"realizada"`
	Cancelada int    `json:"cancelada"`
}
