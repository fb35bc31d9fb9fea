package reporting

import (
	"context"
	"errors"
	"sync"
	"time"

	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/features/funnel"
	"crm-imobiliario/internal/features/lead"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrExportRunning = errors.New("exportação já em andamento")

const (
	TriggerManual   = "manual"
	TriggerSchedule = "schedule"
)

type ReportingService interface {
	Enabled() bool
	Export(ctx context.Context, trigger string) (*Run, error)
	ListRuns(ctx context.Context, limit int64) ([]Run, error)
}

type ReportingServiceImpl struct {
	Store       Store
	Runs        RunRepository
	Leads       lead.LeadRepository
	Stages      funnel.StageRepository
	Memberships funnel.MembershipRepository
	Logger      *zap.Logger
	Now         func() time.Time

	mu sync.Mutex
}

// NewReportingService opens the replica when a driver is configured. A
// configured but unreachable database fails startup.
func NewReportingService(
	lc fx.Lifecycle,
	cfg *config.Config,
	runs RunRepository,
	leads lead.LeadRepository,
	stages funnel.StageRepository,
	memberships funnel.MembershipRepository,
	logger *zap.Logger,
) (ReportingService, error) {
	svc := &ReportingServiceImpl{
		Runs:        runs,
		Leads:       leads,
		Stages:      stages,
		Memberships: memberships,
		Logger:      logger,
		Now:         time.Now,
	}
	if cfg.ReportingDriver == "" {
		logger.Info("reporting replica disabled")
		return svc, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := OpenStore(ctx, cfg.ReportingDriver, cfg.ReportingDSN)
	if err != nil {
		return nil, err
	}
	svc.Store = store
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})
	logger.Info("reporting replica enabled", zap.String("driver", store.Driver()))
	return svc, nil
}

func (s *ReportingServiceImpl) Enabled() bool {
	return s.Store != nil
}

func (s *ReportingServiceImpl) ListRuns(ctx context.Context, limit int64) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.Runs.List(ctx, limit)
}

// Export mirrors every lead and its current stage into the replica, then
// drops rows for leads that no longer exist. Only one export runs at a time.
func (s *ReportingServiceImpl) Export(ctx context.Context, trigger string) (*Run, error) {
	if s.Store == nil {
		return nil, ErrReportingDisabled
	}
	if !s.mu.TryLock() {
		return nil, ErrExportRunning
	}
	defer s.mu.Unlock()

	run := &Run{
		ID:        uuid.NewString(),
		Driver:    s.Store.Driver(),
		Trigger:   trigger,
		StartTime: s.Now().UTC().Truncate(time.Second), // DATETIME columns keep whole seconds
		Status:    RunInProgress,
	}
	if err := s.Runs.Create(ctx, run); err != nil {
		s.Logger.Warn("failed to record reporting run", zap.Error(err))
	}

	err := s.export(ctx, run)

	run.EndTime = s.Now().UTC()
	run.Status = RunSuccess
	if err != nil {
		run.Status = RunFailed
		run.Error = err.Error()
		s.Logger.Error("reporting export failed", zap.String("run_id", run.ID), zap.Error(err))
	} else {
		s.Logger.Info("reporting export finished",
			zap.String("run_id", run.ID), zap.Int("rows", run.ProcessedCount), zap.Int64("pruned", run.PrunedCount))
	}
	if uerr := s.Runs.Update(ctx, run); uerr != nil {
		s.Logger.Warn("failed to update reporting run", zap.String("run_id", run.ID), zap.Error(uerr))
	}
	return run, err
}

func (s *ReportingServiceImpl) export(ctx context.Context, run *Run) error {
	rows, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	if err := s.Store.EnsureSchema(ctx); err != nil {
		return err
	}
	run.ProcessedCount, err = s.Store.Upsert(ctx, rows, run.StartTime)
	if err != nil {
		return err
	}
	run.PrunedCount, err = s.Store.Prune(ctx, run.StartTime)
	return err
}

func (s *ReportingServiceImpl) snapshot(ctx context.Context) ([]SnapshotRow, error) {
	leads, err := s.Leads.List(ctx, lead.LeadFilter{})
	if err != nil {
		return nil, err
	}
	stages, err := s.Stages.List(ctx)
	if err != nil {
		return nil, err
	}
	memberships, err := s.Memberships.List(ctx)
	if err != nil {
		return nil, err
	}

	stageNames := make(map[string]string, len(stages))
	for _, st := range stages {
		stageNames[st.ID] = st.Nome
	}
	byLead := make(map[string]funnel.Membership, len(memberships))
	for _, m := range memberships {
		byLead[m.LeadID] = m
	}

	rows := make([]SnapshotRow, 0, len(leads))
	for _, l := range leads {
		row := SnapshotRow{
			LeadID:      l.ID,
			Nome:        l.Nome,
			Email:       l.Email,
			Telefone:    l.Telefone,
			Origem:      l.Origem,
			Temperatura: l.Temperatura,
			Finalizado:  l.Finalizado,
			CreatedAt:   l.CreatedAt,
		}
		if m, ok := byLead[l.ID]; ok {
			entrada := m.DataEntrada
			row.EtapaID = m.EtapaID
			row.EtapaNome = stageNames[m.EtapaID]
			row.DataEntrada = &entrada
		}
		rows = append(rows, row)
	}
	return rows, nil
}
