package funnel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/features/activity"
	"crm-imobiliario/internal/features/lead"
	"crm-imobiliario/internal/querycache"
	"crm-imobiliario/internal/realtime"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidMove = errors.New("Lead ID e Etapa ID são obrigatórios")
	ErrNoStages    = errors.New("nenhuma etapa de funil cadastrada")
	ErrStageInUse  = errors.New("etapa possui leads e não pode ser removida")
)

var validate = validator.New()

type FunnelService interface {
	ListStages(ctx context.Context) ([]Stage, error)
	CreateStage(ctx context.Context, stage *Stage) (*Stage, error)
	UpdateStage(ctx context.Context, id string, stage *Stage) (*Stage, error)
	DeleteStage(ctx context.Context, id string) error
	Board(ctx context.Context) ([]BoardEntry, error)
	MoveLead(ctx context.Context, leadID, stageID string) (*MoveResult, error)
	SyncLeadsToFunnel(ctx context.Context) (*SyncResult, error)
	PlaceInFirstStage(ctx context.Context, leadID string) error
	RemoveLead(ctx context.Context, leadID string) error
}

type FunnelServiceImpl struct {
	Stages       StageRepository
	Memberships  MembershipRepository
	Leads        lead.LeadRepository
	Interactions lead.InteractionRepository
	Activities   activity.ActivityService
	Cache        *querycache.Cache
	Publisher    realtime.Publisher
	Logger       *zap.Logger
	Now          func() time.Time
}

func NewFunnelService(
	stages StageRepository,
	memberships MembershipRepository,
	leads lead.LeadRepository,
	interactions lead.InteractionRepository,
	activities activity.ActivityService,
	cache *querycache.Cache,
	publisher realtime.Publisher,
	logger *zap.Logger,
) FunnelService {
	return &FunnelServiceImpl{
		Stages:       stages,
		Memberships:  memberships,
		Leads:        leads,
		Interactions: interactions,
		Activities:   activities,
		Cache:        cache,
		Publisher:    publisher,
		Logger:       logger,
		Now:          time.Now,
	}
}

func (s *FunnelServiceImpl) ListStages(ctx context.Context) ([]Stage, error) {
	return querycache.Get(ctx, s.Cache, querycache.KeyFunnelStages, s.Stages.List)
}

func (s *FunnelServiceImpl) CreateStage(ctx context.Context, stage *Stage) (*Stage, error) {
	stage.Nome = strings.TrimSpace(stage.Nome)
	if err := validate.Struct(stage); err != nil {
		return nil, err
	}
	stage.ID = uuid.NewString()
	stage.CreatedAt = s.Now().UTC()
	if err := s.Stages.Create(ctx, stage); err != nil {
		return nil, err
	}
	s.stagesChanged(realtime.ChangeInsert, stage.ID)
	return stage, nil
}

func (s *FunnelServiceImpl) UpdateStage(ctx context.Context, id string, stage *Stage) (*Stage, error) {
	stage.ID = id
	stage.Nome = strings.TrimSpace(stage.Nome)
	if err := validate.Struct(stage); err != nil {
		return nil, err
	}
	if err := s.Stages.Update(ctx, stage); err != nil {
		return nil, err
	}
	s.stagesChanged(realtime.ChangeUpdate, id)
	return s.Stages.FindByID(ctx, id)
}

func (s *FunnelServiceImpl) DeleteStage(ctx context.Context, id string) error {
	inStage, err := s.Memberships.CountInStage(ctx, id)
	if err != nil {
		return err
	}
	if inStage > 0 {
		return ErrStageInUse
	}
	if err := s.Stages.Delete(ctx, id); err != nil {
		return err
	}
	s.stagesChanged(realtime.ChangeDelete, id)
	return nil
}

func (s *FunnelServiceImpl) stagesChanged(changeType realtime.ChangeType, id string) {
	s.Cache.Invalidate(querycache.KeyFunnelStages, querycache.KeyLeadFunnel, querycache.KeyDashboardFunnel)
	s.Publisher.Publish(database.CollectionFunnelStages, changeType, id)
}

// Board lists the memberships of open leads, newest entries first
func (s *FunnelServiceImpl) Board(ctx context.Context) ([]BoardEntry, error) {
	return querycache.Get(ctx, s.Cache, querycache.KeyLeadFunnel, s.loadBoard)
}

func (s *FunnelServiceImpl) loadBoard(ctx context.Context) ([]BoardEntry, error) {
	memberships, err := s.Memberships.List(ctx)
	if err != nil {
		return nil, err
	}
	stages, err := s.Stages.List(ctx)
	if err != nil {
		return nil, err
	}

	leadIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		leadIDs = append(leadIDs, m.LeadID)
	}
	leads, err := s.Leads.FindByIDs(ctx, leadIDs)
	if err != nil {
		return nil, err
	}

	leadByID := make(map[string]*lead.Lead, len(leads))
	for i := range leads {
		leadByID[leads[i].ID] = &leads[i]
	}
	stageByID := make(map[string]*Stage, len(stages))
	for i := range stages {
		stageByID[stages[i].ID] = &stages[i]
	}

	board := make([]BoardEntry, 0, len(memberships))
	for _, m := range memberships {
		l, ok := leadByID[m.LeadID]
		if !ok || l.Finalizado {
			continue
		}
		board = append(board, BoardEntry{Membership: m, Lead: l, Etapa: stageByID[m.EtapaID]})
	}
	return board, nil
}

// MoveLead replaces the lead's membership with one in stageID. The board
// cache is rewritten up front and restored if the replacement fails.
func (s *FunnelServiceImpl) MoveLead(ctx context.Context, leadID, stageID string) (*MoveResult, error) {
	leadID = strings.TrimSpace(leadID)
	stageID = strings.TrimSpace(stageID)
	if leadID == "" || stageID == "" {
		return nil, ErrInvalidMove
	}

	current, err := s.currentMembership(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if current != nil && current.EtapaID == stageID {
		return &MoveResult{Moved: false, Membership: current}, nil
	}

	stage, err := s.Stages.FindByID(ctx, stageID)
	if err != nil {
		return nil, err
	}
	movedLead, err := s.Leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	now := s.Now().UTC()

	s.Cache.Cancel(querycache.KeyLeadFunnel)
	snapshot, hadSnapshot := s.Cache.Snapshot(querycache.KeyLeadFunnel)
	s.Cache.Update(querycache.KeyLeadFunnel, func(old any) any {
		return s.rewriteBoard(old, leadID, stageID, now)
	})
	rollback := func() {
		if hadSnapshot {
			s.Cache.Set(querycache.KeyLeadFunnel, snapshot)
			return
		}
		s.Cache.Invalidate(querycache.KeyLeadFunnel)
	}

	if err := s.Memberships.DeleteByLead(ctx, leadID); err != nil {
		rollback()
		return nil, fmt.Errorf("erro ao remover lead do funil: %w", err)
	}

	membership := Membership{
		ID:          uuid.NewString(),
		LeadID:      leadID,
		EtapaID:     stageID,
		DataEntrada: now,
	}
	if err := s.Memberships.Insert(ctx, membership); err != nil {
		rollback()
		s.Logger.Error("lead removed from funnel but not re-inserted",
			zap.String("lead_id", leadID), zap.String("etapa_id", stageID), zap.Error(err))
		return nil, fmt.Errorf("erro ao adicionar lead ao funil: %w", err)
	}

	s.recordMove(ctx, leadID, movedLead, stage, now)

	s.Cache.Invalidate(
		querycache.KeyLeadFunnel,
		querycache.KeyLeads,
		querycache.KeyDashboardMetrics,
		querycache.KeySystemActivities,
		querycache.KeyDashboardFunnel,
	)
	if current != nil {
		s.Publisher.Publish(database.CollectionLeadFunnel, realtime.ChangeDelete, current.ID)
	}
	s.Publisher.Publish(database.CollectionLeadFunnel, realtime.ChangeInsert, membership.ID)
	s.Publisher.Publish(database.CollectionLeads, realtime.ChangeUpdate, leadID)

	return &MoveResult{Moved: true, Membership: &membership}, nil
}

// currentMembership prefers the cached board and only reads the store when
// the lead is not on it.
func (s *FunnelServiceImpl) currentMembership(ctx context.Context, leadID string) (*Membership, error) {
	if cached, ok := s.Cache.Snapshot(querycache.KeyLeadFunnel); ok {
		if board, ok := cached.([]BoardEntry); ok {
			for _, entry := range board {
				if entry.LeadID == leadID {
					m := entry.Membership
					return &m, nil
				}
			}
		}
	}

	m, err := s.Memberships.FindByLead(ctx, leadID)
	if errors.Is(err, ErrMembershipNotFound) {
		return nil, nil
	}
	return m, err
}

func (s *FunnelServiceImpl) rewriteBoard(old any, leadID, stageID string, now time.Time) any {
	board, ok := old.([]BoardEntry)
	if !ok {
		return old
	}

	var target *Stage
	if cached, ok := s.Cache.Snapshot(querycache.KeyFunnelStages); ok {
		if stages, ok := cached.([]Stage); ok {
			for i := range stages {
				if stages[i].ID == stageID {
					target = &stages[i]
					break
				}
			}
		}
	}

	next := make([]BoardEntry, len(board))
	copy(next, board)
	for i := range next {
		if next[i].LeadID != leadID {
			continue
		}
		next[i].EtapaID = stageID
		next[i].DataEntrada = now
		if target != nil {
			next[i].Etapa = target
		}
	}
	return next
}

// recordMove runs the follow-up writes of a move. None of them fail it.
func (s *FunnelServiceImpl) recordMove(ctx context.Context, leadID string, movedLead *lead.Lead, stage *Stage, now time.Time) {
	interaction := lead.NewInteraction(ctx, leadID, lead.InteracaoObservacao, "Lead movido no funil", now)
	if err := s.Interactions.Create(ctx, interaction); err != nil {
		s.Logger.Warn("failed to record move interaction", zap.String("lead_id", leadID), zap.Error(err))
	} else {
		s.Publisher.Publish(database.CollectionInteractions, realtime.ChangeInsert, interaction.ID)
	}

	err := s.Activities.Record(ctx, activity.Activity{
		Tipo:      activity.TipoEtapaAlterada,
		Titulo:    fmt.Sprintf("%s movido para %s", lead.DisplayName(movedLead), stage.Nome),
		Descricao: "Lead avançou no funil de vendas",
		LeadID:    leadID,
		Metadata:  map[string]interface{}{"etapa_nova": stage.Nome},
	})
	if err != nil {
		s.Logger.Warn("failed to record move activity", zap.String("lead_id", leadID), zap.Error(err))
	}

	if err := s.Leads.Touch(ctx, leadID, now); err != nil {
		s.Logger.Warn("failed to update lead last contact", zap.String("lead_id", leadID), zap.Error(err))
	}
}

// SyncLeadsToFunnel puts every lead without a membership into the first stage
func (s *FunnelServiceImpl) SyncLeadsToFunnel(ctx context.Context) (*SyncResult, error) {
	leadIDs, err := s.Leads.ListIDs(ctx)
	if err != nil {
		return nil, err
	}
	inFunnel, err := s.Memberships.ListLeadIDs(ctx)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(inFunnel))
	for _, id := range inFunnel {
		present[id] = struct{}{}
	}
	var missing []string
	for _, id := range leadIDs {
		if _, ok := present[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return &SyncResult{Synced: 0}, nil
	}

	first, err := s.firstStage(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	memberships := make([]Membership, len(missing))
	for i, id := range missing {
		memberships[i] = Membership{ID: uuid.NewString(), LeadID: id, EtapaID: first.ID, DataEntrada: now}
	}
	if err := s.Memberships.InsertMany(ctx, memberships); err != nil {
		return nil, err
	}

	s.Cache.Invalidate(querycache.KeyLeadFunnel, querycache.KeyDashboardFunnel)
	for _, m := range memberships {
		s.Publisher.Publish(database.CollectionLeadFunnel, realtime.ChangeInsert, m.ID)
	}
	return &SyncResult{Synced: len(memberships)}, nil
}

func (s *FunnelServiceImpl) PlaceInFirstStage(ctx context.Context, leadID string) error {
	first, err := s.firstStage(ctx)
	if err != nil {
		return err
	}
	membership := Membership{ID: uuid.NewString(), LeadID: leadID, EtapaID: first.ID, DataEntrada: s.Now().UTC()}
	if err := s.Memberships.Insert(ctx, membership); err != nil {
		return err
	}
	s.Cache.Invalidate(querycache.KeyLeadFunnel, querycache.KeyDashboardFunnel)
	s.Publisher.Publish(database.CollectionLeadFunnel, realtime.ChangeInsert, membership.ID)
	return nil
}

func (s *FunnelServiceImpl) RemoveLead(ctx context.Context, leadID string) error {
	if err := s.Memberships.DeleteByLead(ctx, leadID); err != nil {
		return err
	}
	s.Cache.Invalidate(querycache.KeyLeadFunnel, querycache.KeyDashboardFunnel)
	s.Publisher.Publish(database.CollectionLeadFunnel, realtime.ChangeDelete, leadID)
	return nil
}

func (s *FunnelServiceImpl) firstStage(ctx context.Context) (*Stage, error) {
	first, err := s.Stages.First(ctx)
	if errors.Is(err, ErrStageNotFound) {
		return nil, ErrNoStages
	}
	return first, err
}
