package dashboard

import (
	"context"
	"math"
	"sort"
	"time"

	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/features/funnel"
	"crm-imobiliario/internal/features/lead"
	"crm-imobiliario/internal/features/proposal"
	"crm-imobiliario/internal/features/visit"
	"crm-imobiliario/internal/querycache"

	"go.uber.org/zap"
)

const (
	recentLimit    = 10
	evolutionDays  = 30
	visitChartDays = 7
)

type DashboardService interface {
	Metrics(ctx context.Context) (*Metrics, error)
	FunnelData(ctx context.Context) ([]FunnelSlice, error)
	RecentActivities(ctx context.Context) ([]RecentActivity, error)
	LeadsEvolution(ctx context.Context) ([]LeadsDay, error)
	VisitsChart(ctx context.Context) ([]VisitsDay, error)
}

type DashboardServiceImpl struct {
	Repo         DashboardRepository
	Leads        lead.LeadRepository
	Interactions lead.InteractionRepository
	Visits       visit.VisitRepository
	Proposals    proposal.ProposalRepository
	Stages       funnel.StageRepository
	Memberships  funnel.MembershipRepository
	Users        UserDirectory
	Cache        *querycache.Cache
	Logger       *zap.Logger
	Location     *time.Location
	Now          func() time.Time
}

func NewDashboardService(
	repo DashboardRepository,
	leads lead.LeadRepository,
	interactions lead.InteractionRepository,
	visits visit.VisitRepository,
	proposals proposal.ProposalRepository,
	stages funnel.StageRepository,
	memberships funnel.MembershipRepository,
	users UserDirectory,
	cache *querycache.Cache,
	logger *zap.Logger,
	cfg *config.Config,
) DashboardService {
	loc, err := time.LoadLocation(cfg.Google.TimeZone)
	if err != nil {
		loc = time.UTC
	}
	return &DashboardServiceImpl{
		Repo:         repo,
		Leads:        leads,
		Interactions: interactions,
		Visits:       visits,
		Proposals:    proposals,
		Stages:       stages,
		Memberships:  memberships,
		Users:        users,
		Cache:        cache,
		Logger:       logger,
		Location:     loc,
		Now:          time.Now,
	}
}

// ConversionRate is approved proposals over total leads as a percentage
// with one decimal; zero leads yields 0.
func ConversionRate(approved, totalLeads int64) float64 {
	if totalLeads <= 0 {
		return 0
	}
	return math.Round(float64(approved)/float64(totalLeads)*1000) / 10
}

func (s *DashboardServiceImpl) Metrics(ctx context.Context) (*Metrics, error) {
	return querycache.Get(ctx, s.Cache, querycache.KeyDashboardMetrics, s.loadMetrics)
}

func (s *DashboardServiceImpl) loadMetrics(ctx context.Context) (*Metrics, error) {
	totalLeads, err := s.Repo.CountLeads(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now().In(s.Location)
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.Location)
	endOfDay := startOfDay.AddDate(0, 0, 1)
	visitasHoje, err := s.Visits.Count(ctx, visit.VisitFilter{From: &startOfDay, To: &endOfDay, Status: visit.StatusAgendada})
	if err != nil {
		return nil, err
	}

	emAnalise, err := s.Proposals.Count(ctx, proposal.StatusEmAnalise)
	if err != nil {
		return nil, err
	}
	aprovadas, err := s.Proposals.Count(ctx, proposal.StatusAprovada)
	if err != nil {
		return nil, err
	}

	origins, err := s.Repo.LeadsByOrigin(ctx)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		TotalLeads:       totalLeads,
		VisitasHoje:      visitasHoje,
		PropostasAnalise: emAnalise,
		TaxaConversao:    ConversionRate(aprovadas, totalLeads),
		LeadsPorOrigem:   origins,
	}, nil
}

func (s *DashboardServiceImpl) FunnelData(ctx context.Context) ([]FunnelSlice, error) {
	return querycache.Get(ctx, s.Cache, querycache.KeyDashboardFunnel, func(ctx context.Context) ([]FunnelSlice, error) {
		stages, err := s.Stages.List(ctx)
		if err != nil {
			return nil, err
		}
		counts, err := s.Memberships.CountByStage(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]FunnelSlice, 0, len(stages))
		for _, st := range stages {
			out = append(out, FunnelSlice{Name: st.Nome, Value: counts[st.ID], Color: st.Cor})
		}
		return out, nil
	})
}

func (s *DashboardServiceImpl) RecentActivities(ctx context.Context) ([]RecentActivity, error) {
	return querycache.Get(ctx, s.Cache, querycache.KeyRecentInteraction, func(ctx context.Context) ([]RecentActivity, error) {
		interactions, err := s.Interactions.ListRecent(ctx, recentLimit)
		if err != nil {
			return nil, err
		}

		leadIDs := make([]string, 0, len(interactions))
		userIDs := make([]string, 0, len(interactions))
		for _, i := range interactions {
			leadIDs = append(leadIDs, i.LeadID)
			if i.UsuarioID != "" {
				userIDs = append(userIDs, i.UsuarioID)
			}
		}

		leads, err := s.Leads.FindByIDs(ctx, leadIDs)
		if err != nil {
			return nil, err
		}
		leadByID := make(map[string]*lead.Lead, len(leads))
		for i := range leads {
			leadByID[leads[i].ID] = &leads[i]
		}

		names := map[string]string{}
		if len(userIDs) > 0 {
			if names, err = s.Users.Names(ctx, userIDs); err != nil {
				s.Logger.Warn("failed to resolve user names", zap.Error(err))
				names = map[string]string{}
			}
		}

		out := make([]RecentActivity, 0, len(interactions))
		for _, i := range interactions {
			out = append(out, RecentActivity{
				ID:          i.ID,
				Tipo:        i.Tipo,
				Descricao:   i.Descricao,
				LeadID:      i.LeadID,
				LeadNome:    lead.DisplayName(leadByID[i.LeadID]),
				UsuarioID:   i.UsuarioID,
				UsuarioNome: names[i.UsuarioID],
				CreatedAt:   i.CreatedAt,
			})
		}
		return out, nil
	})
}

func (s *DashboardServiceImpl) LeadsEvolution(ctx context.Context) ([]LeadsDay, error) {
	since := s.Now().AddDate(0, 0, -evolutionDays)
	leads, err := s.Leads.List(ctx, lead.LeadFilter{CreatedSince: &since})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(leads, func(i, j int) bool { return leads[i].CreatedAt.Before(leads[j].CreatedAt) })

	var out []LeadsDay
	index := map[string]int{}
	for _, l := range leads {
		day := l.CreatedAt.In(s.Location).Format("02/01")
		pos, ok := index[day]
		if !ok {
			pos = len(out)
			index[day] = pos
			out = append(out, LeadsDay{Name: day})
		}
		switch l.Temperatura {
		case lead.TemperaturaHot:
			out[pos].Hot++
		case lead.TemperaturaWarm:
			out[pos].Warm++
		case lead.TemperaturaCold:
			out[pos].Cold++
		}
		out[pos].Total++
	}
	if out == nil {
		out = []LeadsDay{}
	}
	return out, nil
}

func (s *DashboardServiceImpl) VisitsChart(ctx context.Context) ([]VisitsDay, error) {
	since := s.Now().AddDate(0, 0, -visitChartDays)
	visits, err := s.Visits.List(ctx, visit.VisitFilter{From: &since})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(visits, func(i, j int) bool { return visits[i].DataHora.Before(visits[j].DataHora) })

	out := []VisitsDay{}
	index := map[string]int{}
	for _, v := range visits {
		day := v.DataHora.In(s.Location).Format("02/01")
		pos, ok := index[day]
		if !ok {
			pos = len(out)
			index[day] = pos
			out = append(out, VisitsDay{Name: day})
		}
		switch v.Status {
		case visit.StatusAgendada:
			out[pos].Agendada++
		case visit.StatusRealizada:
			out[pos].Realizada++
		case visit.StatusCancelada:
			out[pos].Cancelada++
		}
	}
	return out, nil
}
