package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-imobiliario/internal/config"
	"crm-imobiliario/internal/features/funnel"
	"crm-imobiliario/internal/features/lead"
	"crm-imobiliario/internal/features/proposal"
	"crm-imobiliario/internal/features/visit"
	"crm-imobiliario/internal/querycache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

type MockDashboardRepo struct {
	leads   int64
	origins []OriginCount
	calls   int
}

func (m *MockDashboardRepo) CountLeads(ctx context.Context) (int64, error) {
	m.calls++
	return m.leads, nil
}

func (m *MockDashboardRepo) LeadsByOrigin(ctx context.Context) ([]OriginCount, error) {
	return m.origins, nil
}

type stubLeads struct {
	lead.LeadRepository
	leads  []lead.Lead
	filter lead.LeadFilter
}

func (s *stubLeads) FindByIDs(ctx context.Context, ids []string) ([]lead.Lead, error) {
	return s.leads, nil
}

func (s *stubLeads) List(ctx context.Context, filter lead.LeadFilter) ([]lead.Lead, error) {
	s.filter = filter
	return s.leads, nil
}

type stubInteractions struct {
	lead.InteractionRepository
	recent []lead.Interaction
}

func (s stubInteractions) ListRecent(ctx context.Context, limit int64) ([]lead.Interaction, error) {
	if int64(len(s.recent)) > limit {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

type stubVisits struct {
	visit.VisitRepository
	visits      []visit.Visit
	countFilter visit.VisitFilter
	today       int64
}

func (s *stubVisits) Count(ctx context.Context, filter visit.VisitFilter) (int64, error) {
	s.countFilter = filter
	return s.today, nil
}

func (s *stubVisits) List(ctx context.Context, filter visit.VisitFilter) ([]visit.Visit, error) {
	return s.visits, nil
}

type stubProposals struct {
	proposal.ProposalRepository
	byStatus map[string]int64
}

func (s stubProposals) Count(ctx context.Context, status string) (int64, error) {
	return s.byStatus[status], nil
}

type stubStages struct {
	funnel.StageRepository
	stages []funnel.Stage
}

func (s stubStages) List(ctx context.Context) ([]funnel.Stage, error) {
	return s.stages, nil
}

type stubMemberships struct {
	funnel.MembershipRepository
	counts map[string]int
}

func (s stubMemberships) CountByStage(ctx context.Context) (map[string]int, error) {
	return s.counts, nil
}

type stubUsers struct {
	names map[string]string
	err   error
}

func (s stubUsers) Names(ctx context.Context, ids []string) (map[string]string, error) {
	return s.names, s.err
}

type fixture struct {
	svc          *DashboardServiceImpl
	repo         *MockDashboardRepo
	leads        *stubLeads
	visits       *stubVisits
	proposals    stubProposals
	interactions stubInteractions
}

// 2024-03-10 02:30 UTC is still 09/03 in São Paulo
var fixedNow = time.Date(2024, 3, 10, 2, 30, 0, 0, time.UTC)

func newFixture(t *testing.T, users UserDirectory) *fixture {
	t.Helper()
	f := &fixture{
		repo:      &MockDashboardRepo{},
		leads:     &stubLeads{},
		visits:    &stubVisits{},
		proposals: stubProposals{byStatus: map[string]int64{}},
	}
	f.svc = NewDashboardService(
		f.repo,
		f.leads,
		&f.interactions,
		f.visits,
		&f.proposals,
		stubStages{stages: []funnel.Stage{
			{ID: "s1", Nome: "Novo", Cor: "#3b82f6"},
			{ID: "s2", Nome: "Fechamento", Cor: "#22c55e"},
		}},
		stubMemberships{counts: map[string]int{"s1": 4}},
		users,
		querycache.New(time.Minute),
		zap.NewNop(),
		&config.Config{Google: config.GoogleCalendarConfig{TimeZone: "America/Sao_Paulo"}},
	).(*DashboardServiceImpl)
	f.svc.Now = func() time.Time { return fixedNow }
	return f
}

func TestConversionRate(t *testing.T) {
	assert.Equal(t, 0.0, ConversionRate(3, 0))
	assert.Equal(t, 33.3, ConversionRate(1, 3))
	assert.Equal(t, 66.7, ConversionRate(2, 3))
	assert.Equal(t, 100.0, ConversionRate(5, 5))
}

func TestMetrics(t *testing.T) {
	f := newFixture(t, stubUsers{})
	f.repo.leads = 8
	f.repo.origins = []OriginCount{{Origem: "site", Total: 5}, {Origem: "indicacao", Total: 3}}
	f.visits.today = 2
	f.proposals.byStatus[proposal.StatusEmAnalise] = 4
	f.proposals.byStatus[proposal.StatusAprovada] = 1

	m, err := f.svc.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(8), m.TotalLeads)
	assert.Equal(t, int64(2), m.VisitasHoje)
	assert.Equal(t, int64(4), m.PropostasAnalise)
	assert.Equal(t, 12.5, m.TaxaConversao)
	assert.Len(t, m.LeadsPorOrigem, 2)

	loc, _ := time.LoadLocation("America/Sao_Paulo")
	require.NotNil(t, f.visits.countFilter.From)
	assert.True(t, time.Date(2024, 3, 9, 0, 0, 0, 0, loc).Equal(*f.visits.countFilter.From))
	assert.True(t, time.Date(2024, 3, 10, 0, 0, 0, 0, loc).Equal(*f.visits.countFilter.To))
	assert.Equal(t, visit.StatusAgendada, f.visits.countFilter.Status)

	_, err = f.svc.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.calls)
}

func TestMetricsWithoutLeads(t *testing.T) {
	f := newFixture(t, stubUsers{})
	f.proposals.byStatus[proposal.StatusAprovada] = 2

	m, err := f.svc.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.TaxaConversao)
}

func TestFunnelDataFollowsStageOrder(t *testing.T) {
	f := newFixture(t, stubUsers{})

	data, err := f.svc.FunnelData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []FunnelSlice{
		{Name: "Novo", Value: 4, Color: "#3b82f6"},
		{Name: "Fechamento", Value: 0, Color: "#22c55e"},
	}, data)
}

func TestRecentActivitiesResolveNames(t *testing.T) {
	f := newFixture(t, stubUsers{names: map[string]string{"u1": "Carla Corretora"}})
	f.leads.leads = []lead.Lead{{ID: "l1", Nome: "Ana"}}
	f.interactions.recent = []lead.Interaction{
		{ID: "i1", LeadID: "l1", UsuarioID: "u1", Tipo: lead.InteracaoVisita, Descricao: "Visita agendada"},
		{ID: "i2", LeadID: "gone", Tipo: lead.InteracaoObservacao},
	}

	out, err := f.svc.RecentActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Ana", out[0].LeadNome)
	assert.Equal(t, "Carla Corretora", out[0].UsuarioNome)
	assert.Equal(t, "Lead", out[1].LeadNome)
	assert.Empty(t, out[1].UsuarioNome)
}

func TestRecentActivitiesSurviveUserLookupFailure(t *testing.T) {
	f := newFixture(t, stubUsers{err: errors.New("users down")})
	f.interactions.recent = []lead.Interaction{{ID: "i1", LeadID: "l1", UsuarioID: "u1"}}

	out, err := f.svc.RecentActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].UsuarioNome)
}

func TestLeadsEvolutionGroupsByLocalDay(t *testing.T) {
	f := newFixture(t, stubUsers{})
	f.leads.leads = []lead.Lead{
		{ID: "3", Temperatura: lead.TemperaturaCold, CreatedAt: time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)},
		{ID: "2", Temperatura: lead.TemperaturaWarm, CreatedAt: time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)},
		// 01:00 UTC on the 9th is the evening of the 8th locally
		{ID: "1", Temperatura: lead.TemperaturaHot, CreatedAt: time.Date(2024, 3, 9, 1, 0, 0, 0, time.UTC)},
	}

	out, err := f.svc.LeadsEvolution(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []LeadsDay{
		{Name: "08/03", Hot: 1, Warm: 1, Total: 2},
		{Name: "09/03", Cold: 1, Total: 1},
	}, out)

	require.NotNil(t, f.leads.filter.CreatedSince)
	assert.Equal(t, fixedNow.AddDate(0, 0, -30), *f.leads.filter.CreatedSince)
}

func TestVisitsChart(t *testing.T) {
	f := newFixture(t, stubUsers{})
	f.visits.visits = []visit.Visit{
		{Status: visit.StatusRealizada, DataHora: time.Date(2024, 3, 5, 13, 0, 0, 0, time.UTC)},
		{Status: visit.StatusAgendada, DataHora: time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)},
		{Status: visit.StatusCancelada, DataHora: time.Date(2024, 3, 7, 13, 0, 0, 0, time.UTC)},
	}

	out, err := f.svc.VisitsChart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []VisitsDay{
		{Name: "05/03", Agendada: 1, Realizada: 1},
		{Name: "07/03", Cancelada: 1},
	}, out)
}

func TestRepositoryLeadsByOrigin(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("groups", func(mt *mtest.T) {
		repo := &DashboardRepositoryImpl{Leads: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.leads", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "site"}, {Key: "total", Value: int32(5)}},
			bson.D{{Key: "_id", Value: "indicacao"}, {Key: "total", Value: int32(2)}},
		))

		out, err := repo.LeadsByOrigin(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, []OriginCount{{Origem: "site", Total: 5}, {Origem: "indicacao", Total: 2}}, out)
	})
}
