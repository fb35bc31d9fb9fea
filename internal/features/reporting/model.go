package reporting

import "time"

// SnapshotRow is one lead with its current pipeline stage, as mirrored into
// crm_pipeline_snapshot
type SnapshotRow struct {
	LeadID      string
	Nome        string
	Email       string
	Telefone    string
	Origem      string
	Temperatura string
	Finalizado  bool
	EtapaID     string
	EtapaNome   string
	DataEntrada *time.Time
	CreatedAt   time.Time
}

const (
	RunInProgress = "in_progress"
	RunSuccess    = "success"
	RunFailed     = "failed"
)

type Run struct {
	ID             string    `json:"id" bson:"_id"`
	Driver         string    `json:"driver" bson:"driver"`
	Trigger        string    `json:"trigger" bson:"trigger"` // "manual" or "schedule"
	StartTime      time.Time `json:"start_time" bson:"start_time"`
	EndTime        time.Time `json:"end_time" bson:"end_time"`
	Status         string    `json:"status" bson:"status"`
	ProcessedCount int       `json:"processed_count" bson:"processed_count"`
	PrunedCount    int64     `json:"pruned_count" bson:"pruned_count"`
	Error          string    `json:"error,omitempty" bson:"error,omitempty"`
}
