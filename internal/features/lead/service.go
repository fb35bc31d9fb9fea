package lead

import (
	"context"
	"fmt"
	"time"

	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/querycache"
	"crm-imobiliario/internal/realtime"
	"crm-imobiliario/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

var validate = validator.New()

// FunnelPlacer keeps lead/stage memberships in step with the lead lifecycle
type FunnelPlacer interface {
	PlaceInFirstStage(ctx context.Context, leadID string) error
	RemoveLead(ctx context.Context, leadID string) error
}

type LeadService interface {
	List(ctx context.Context) ([]Lead, error)
	ListCustomers(ctx context.Context) ([]Lead, error)
	Get(ctx context.Context, id string) (*Lead, error)
	Create(ctx context.Context, lead *Lead) (*Lead, error)
	Update(ctx context.Context, id string, req UpdateLeadRequest) (*Lead, error)
	Finalize(ctx context.Context, id string) (*Lead, error)
	Delete(ctx context.Context, id string) error
	ListInteractions(ctx context.Context, leadID string) ([]Interaction, error)
	RecordInteraction(ctx context.Context, leadID, tipo, descricao string) error
	Import(ctx context.Context, filename string, data []byte) (*ImportResult, error)
	Export(ctx context.Context) ([]byte, error)
}

type LeadServiceImpl struct {
	Repo         LeadRepository
	Interactions InteractionRepository
	Funnel       FunnelPlacer
	Cache        *querycache.Cache
	Publisher    realtime.Publisher
	Logger       *zap.Logger
	Now          func() time.Time
}

func NewLeadService(
	repo LeadRepository,
	interactions InteractionRepository,
	funnel FunnelPlacer,
	cache *querycache.Cache,
	publisher realtime.Publisher,
	logger *zap.Logger,
) LeadService {
	return &LeadServiceImpl{
		Repo:         repo,
		Interactions: interactions,
		Funnel:       funnel,
		Cache:        cache,
		Publisher:    publisher,
		Logger:       logger,
		Now:          time.Now,
	}
}

// NewInteraction builds an interaction attributed to the caller in ctx
func NewInteraction(ctx context.Context, leadID, tipo, descricao string, at time.Time) Interaction {
	interaction := Interaction{
		ID:        uuid.NewString(),
		LeadID:    leadID,
		Tipo:      tipo,
		Descricao: descricao,
		CreatedAt: at.UTC(),
	}
	if claims, ok := utils.ClaimsFromContext(ctx); ok {
		interaction.UsuarioID = claims.UserID
	}
	return interaction
}

func (s *LeadServiceImpl) List(ctx context.Context) ([]Lead, error) {
	return querycache.Get(ctx, s.Cache, querycache.KeyLeads, func(ctx context.Context) ([]Lead, error) {
		return s.Repo.List(ctx, LeadFilter{})
	})
}

func (s *LeadServiceImpl) ListCustomers(ctx context.Context) ([]Lead, error) {
	finalizado := true
	return querycache.Get(ctx, s.Cache, querycache.KeyCustomers, func(ctx context.Context) ([]Lead, error) {
		return s.Repo.List(ctx, LeadFilter{Finalizado: &finalizado})
	})
}

func (s *LeadServiceImpl) Get(ctx context.Context, id string) (*Lead, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *LeadServiceImpl) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	lead.normalize()
	if err := validate.Struct(lead); err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	lead.ID = uuid.NewString()
	lead.Finalizado = false
	lead.CreatedAt = now
	lead.UpdatedAt = now
	if lead.CorretorID == "" {
		if claims, ok := utils.ClaimsFromContext(ctx); ok {
			lead.CorretorID = claims.UserID
		}
	}

	if err := s.Repo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("erro ao criar lead: %w", err)
	}
	s.changed(realtime.ChangeInsert, lead.ID)

	if err := s.Interactions.Create(ctx, NewInteraction(ctx, lead.ID, InteracaoObservacao, "Lead criado no sistema", now)); err != nil {
		s.Logger.Warn("failed to record lead creation interaction", zap.String("lead_id", lead.ID), zap.Error(err))
	}
	if err := s.Funnel.PlaceInFirstStage(ctx, lead.ID); err != nil {
		s.Logger.Warn("failed to place lead in first funnel stage", zap.String("lead_id", lead.ID), zap.Error(err))
	}

	return lead, nil
}

func (s *LeadServiceImpl) Update(ctx context.Context, id string, req UpdateLeadRequest) (*Lead, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	fields := req.fields()
	fields["updated_at"] = s.Now().UTC()

	updated, err := s.Repo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.changed(realtime.ChangeUpdate, id)
	return updated, nil
}

func (s *LeadServiceImpl) Finalize(ctx context.Context, id string) (*Lead, error) {
	updated, err := s.Repo.Update(ctx, id, bson.M{
		"finalizado": true,
		"updated_at": s.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	s.changed(realtime.ChangeUpdate, id)
	return updated, nil
}

func (s *LeadServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(realtime.ChangeDelete, id)

	if err := s.Funnel.RemoveLead(ctx, id); err != nil {
		s.Logger.Warn("failed to remove deleted lead from funnel", zap.String("lead_id", id), zap.Error(err))
	}
	if err := s.Interactions.DeleteByLead(ctx, id); err != nil {
		s.Logger.Warn("failed to remove deleted lead interactions", zap.String("lead_id", id), zap.Error(err))
	}
	return nil
}

func (s *LeadServiceImpl) ListInteractions(ctx context.Context, leadID string) ([]Interaction, error) {
	return s.Interactions.ListByLead(ctx, leadID)
}

func (s *LeadServiceImpl) RecordInteraction(ctx context.Context, leadID, tipo, descricao string) error {
	interaction := NewInteraction(ctx, leadID, tipo, descricao, s.Now())
	if err := validate.Struct(interaction); err != nil {
		return err
	}
	if err := s.Interactions.Create(ctx, interaction); err != nil {
		return err
	}
	s.Publisher.Publish(database.CollectionInteractions, realtime.ChangeInsert, interaction.ID)
	return nil
}

func (s *LeadServiceImpl) changed(changeType realtime.ChangeType, id string) {
	s.Cache.Invalidate(
		querycache.KeyLeads,
		querycache.KeyCustomers,
		querycache.KeyDashboardMetrics,
		querycache.KeyLeadFunnel,
		querycache.KeyDashboardFunnel,
	)
	s.Publisher.Publish(database.CollectionLeads, changeType, id)
}
