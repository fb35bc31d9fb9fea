package visit

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata"

	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/features/lead"
	"crm-imobiliario/internal/features/property"
	"crm-imobiliario/internal/querycache"
	"crm-imobiliario/internal/realtime"
	"crm-imobiliario/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var validate = validator.New()

const pushTimeout = 30 * time.Second

// CalendarPusher mirrors visit writes into the caller's external calendar
type CalendarPusher interface {
	PushVisit(ctx context.Context, action SyncAction, v Visit) error
}

type VisitService interface {
	List(ctx context.Context) ([]VisitDetail, error)
	Get(ctx context.Context, id string) (*VisitDetail, error)
	Create(ctx context.Context, v *Visit) (*Visit, error)
	Update(ctx context.Context, id string, req UpdateVisitRequest) (*Visit, error)
	Delete(ctx context.Context, id string) error
}

type VisitServiceImpl struct {
	Repo         VisitRepository
	Leads        lead.LeadRepository
	Properties   property.PropertyRepository
	Interactions lead.InteractionRepository
	Calendar     CalendarPusher
	Cache        *querycache.Cache
	Publisher    realtime.Publisher
	Logger       *zap.Logger
	Location     *time.Location
	Now          func() time.Time
	// RunAsync runs calendar pushes off the request path
	RunAsync func(func())
}

func NewVisitService(
	repo VisitRepository,
	leads lead.LeadRepository,
	properties property.PropertyRepository,
	interactions lead.InteractionRepository,
	calendar CalendarPusher,
	cache *querycache.Cache,
	publisher realtime.Publisher,
	logger *zap.Logger,
	cfg *config.Config,
) VisitService {
	loc, err := time.LoadLocation(cfg.Google.TimeZone)
	if err != nil {
		logger.Warn("unknown calendar time zone, using UTC", zap.String("tz", cfg.Google.TimeZone), zap.Error(err))
		loc = time.UTC
	}
	return &VisitServiceImpl{
		Repo:         repo,
		Leads:        leads,
		Properties:   properties,
		Interactions: interactions,
		Calendar:     calendar,
		Cache:        cache,
		Publisher:    publisher,
		Logger:       logger,
		Location:     loc,
		Now:          time.Now,
		RunAsync:     func(fn func()) { go fn() },
	}
}

func (s *VisitServiceImpl) List(ctx context.Context) ([]VisitDetail, error) {
	return querycache.Get(ctx, s.Cache, querycache.KeyVisits, func(ctx context.Context) ([]VisitDetail, error) {
		visits, err := s.Repo.List(ctx, VisitFilter{})
		if err != nil {
			return nil, err
		}
		return s.join(ctx, visits)
	})
}

func (s *VisitServiceImpl) Get(ctx context.Context, id string) (*VisitDetail, error) {
	v, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	details, err := s.join(ctx, []Visit{*v})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *VisitServiceImpl) join(ctx context.Context, visits []Visit) ([]VisitDetail, error) {
	leadIDs := make([]string, 0, len(visits))
	propertyIDs := make([]string, 0, len(visits))
	for _, v := range visits {
		leadIDs = append(leadIDs, v.LeadID)
		propertyIDs = append(propertyIDs, v.ImovelID)
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

	details := make([]VisitDetail, len(visits))
	for i, v := range visits {
		details[i] = VisitDetail{Visit: v, Lead: leadByID[v.LeadID], Imovel: propertyByID[v.ImovelID]}
	}
	return details, nil
}

func (s *VisitServiceImpl) Create(ctx context.Context, v *Visit) (*Visit, error) {
	if v.Status == "" {
		v.Status = StatusAgendada
	}
	if v.Duracao == 0 {
		v.Duracao = DefaultDuration
	}
	if err := validate.Struct(v); err != nil {
		return nil, err
	}

	now := s.Now().UTC()
	v.ID = uuid.NewString()
	v.DataHora = v.DataHora.UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	if v.CorretorID == "" {
		if claims, ok := utils.ClaimsFromContext(ctx); ok {
			v.CorretorID = claims.UserID
		}
	}

	if err := s.Repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("erro ao agendar visita: %w", err)
	}
	s.changed(realtime.ChangeInsert, v.ID)

	descricao := "Visita agendada para " + v.DataHora.In(s.Location).Format("02/01/2006, 15:04:05")
	interaction := lead.NewInteraction(ctx, v.LeadID, lead.InteracaoVisita, descricao, now)
	if err := s.Interactions.Create(ctx, interaction); err != nil {
		s.Logger.Warn("failed to record visit interaction", zap.String("visita_id", v.ID), zap.Error(err))
	} else {
		s.Publisher.Publish(database.CollectionInteractions, realtime.ChangeInsert, interaction.ID)
	}

	s.push(ctx, SyncCreate, *v)
	return v, nil
}

func (s *VisitServiceImpl) Update(ctx context.Context, id string, req UpdateVisitRequest) (*Visit, error) {
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
	s.push(ctx, SyncUpdate, *updated)
	return updated, nil
}

func (s *VisitServiceImpl) Delete(ctx context.Context, id string) error {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(realtime.ChangeDelete, id)
	s.push(ctx, SyncDelete, *existing)
	return nil
}

func (s *VisitServiceImpl) changed(changeType realtime.ChangeType, id string) {
	s.Cache.Invalidate(querycache.KeyVisits, querycache.KeyDashboardMetrics)
	s.Publisher.Publish(database.CollectionVisits, changeType, id)
}

// push hands the visit to the calendar integration without waiting for it.
// Failures are logged only; the local write already succeeded.
func (s *VisitServiceImpl) push(ctx context.Context, action SyncAction, v Visit) {
	if s.Calendar == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.RunAsync(func() {
		pushCtx, cancel := context.WithTimeout(detached, pushTimeout)
		defer cancel()
		if err := s.Calendar.PushVisit(pushCtx, action, v); err != nil {
			s.Logger.Warn("calendar sync failed",
				zap.String("visita_id", v.ID), zap.String("action", string(action)), zap.Error(err))
		}
	})
}
