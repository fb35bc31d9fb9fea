package proposal

import (
	"context"
	"fmt"
	"time"

	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/features/lead"
	"crm-imobiliario/internal/features/property"
	"crm-imobiliario/internal/querycache"
	"crm-imobiliario/internal/realtime"
	"crm-imobiliario/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

type ProposalService interface {
	List(ctx context.Context) ([]ProposalDetail, error)
	Get(ctx context.Context, id string) (*Proposal, error)
	Create(ctx context.Context, p *Proposal) (*Proposal, error)
	Update(ctx context.Context, id string, req UpdateProposalRequest) (*Proposal, error)
}

type ProposalServiceImpl struct {
	Repo         ProposalRepository
	Leads        lead.LeadRepository
	Properties   property.PropertyRepository
	Interactions lead.InteractionRepository
	Cache        *querycache.Cache
	Publisher    realtime.Publisher
	Logger       *zap.Logger
	Now          func() time.Time
}

func NewProposalService(
	repo ProposalRepository,
	leads lead.LeadRepository,
	properties property.PropertyRepository,
	interactions lead.InteractionRepository,
	cache *querycache.Cache,
	publisher realtime.Publisher,
	logger *zap.Logger,
) ProposalService {
	return &ProposalServiceImpl{
		Repo:         repo,
		Leads:        leads,
		Properties:   properties,
		Interactions: interactions,
		Cache:        cache,
		Publisher:    publisher,
		Logger:       logger,
		Now:          time.Now,
	}
}

// FormatBRL renders 1234.5 as "R$ 1.234,50"
func FormatBRL(v float64) string {
	return "R$ " + humanize.FormatFloat("#.###,##", v)
}

func (s *ProposalServiceImpl) List(ctx context.Context) ([]ProposalDetail, error) {
	return querycache.Get(ctx, s.Cache, querycache.KeyProposals, func(ctx context.Context) ([]ProposalDetail, error) {
		proposals, err := s.Repo.List(ctx)
		if err != nil {
			return nil, err
		}
		return s.join(ctx, proposals)
	})
}

func (s *ProposalServiceImpl) join(ctx context.Context, proposals []Proposal) ([]ProposalDetail, error) {
	leadIDs := make([]string, 0, len(proposals))
	propertyIDs := make([]string, 0, len(proposals))
	for _, p := range proposals {
		leadIDs = append(leadIDs, p.LeadID)
		propertyIDs = append(propertyIDs, p.ImovelID)
	}

	leads, err := s.Leads.FindByIDs(ctx, leadIDs)
	if err != nil {
		return nil, err
	}
	properties, err := s.Properties.FindByIDs(ctx, propertyIDs)
	if err != nil {
		return nil, err
	}

	leadByID := make(map[string]*lead.Lead, len(leads))
	for i := range leads {
		leadByID[leads[i].ID] = &leads[i]
	}
	propertyByID := make(map[string]*property.Property, len(properties))
	for i := range properties {
		propertyByID[properties[i].ID] = &properties[i]
	}

	details := make([]ProposalDetail, len(proposals))
	for i, p := range proposals {
		details[i] = ProposalDetail{Proposal: p, Lead: leadByID[p.LeadID], Imovel: propertyByID[p.ImovelID]}
	}
	return details, nil
}

func (s *ProposalServiceImpl) Get(ctx context.Context, id string) (*Proposal, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *ProposalServiceImpl) Create(ctx context.Context, p *Proposal) (*Proposal, error) {
	if p.Status == "" {
		p.Status = StatusEnviada
	}
	if err := validate.Struct(p); err != nil {
		return nil, err
	}

	now := s.Now()
	p.ID = uuid.NewString()
	p.Codigo = fmt.Sprintf("PROP-%d", now.UnixMilli())
	p.CreatedAt = now.UTC()
	p.UpdatedAt = now.UTC()
	if p.CorretorID == "" {
		if claims, ok := utils.ClaimsFromContext(ctx); ok {
			p.CorretorID = claims.UserID
		}
	}

	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("erro ao criar proposta: %w", err)
	}
	s.changed(realtime.ChangeInsert, p.ID)

	descricao := fmt.Sprintf("Proposta %s criada no valor de %s", p.Codigo, FormatBRL(p.Valor))
	interaction := lead.NewInteraction(ctx, p.LeadID, lead.InteracaoProposta, descricao, now)
	if err := s.Interactions.Create(ctx, interaction); err != nil {
		s.Logger.Warn("failed to record proposal interaction", zap.String("lead_id", p.LeadID), zap.Error(err))
	} else {
		s.Publisher.Publish(database.CollectionInteractions, realtime.ChangeInsert, interaction.ID)
	}
	return p, nil
}

func (s *ProposalServiceImpl) Update(ctx context.Context, id string, req UpdateProposalRequest) (*Proposal, error) {
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

func (s *ProposalServiceImpl) changed(changeType realtime.ChangeType, id string) {
	s.Cache.Invalidate(querycache.KeyProposals, querycache.KeyDashboardMetrics)
	s.Publisher.Publish(database.CollectionProposals, changeType, id)
}
