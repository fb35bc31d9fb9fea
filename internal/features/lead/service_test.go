package lead

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"crm-imobiliario/internal/querycache"
	"crm-imobiliario/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type MockLeadRepo struct {
	Leads     map[string]*Lead
	CreateErr error
	Deleted   []string
}

func newMockLeadRepo() *MockLeadRepo {
	return &MockLeadRepo{Leads: map[string]*Lead{}}
}

func (m *MockLeadRepo) Create(ctx context.Context, lead *Lead) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	copied := *lead
	m.Leads[lead.ID] = &copied
	return nil
}

func (m *MockLeadRepo) FindByID(ctx context.Context, id string) (*Lead, error) {
	if l, ok := m.Leads[id]; ok {
		return l, nil
	}
	return nil, ErrLeadNotFound
}

func (m *MockLeadRepo) FindByIDs(ctx context.Context, ids []string) ([]Lead, error) {
	var out []Lead
	for _, id := range ids {
		if l, ok := m.Leads[id]; ok {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *MockLeadRepo) List(ctx context.Context, filter LeadFilter) ([]Lead, error) {
	var out []Lead
	for _, l := range m.Leads {
		if filter.Finalizado != nil && l.Finalizado != *filter.Finalizado {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (m *MockLeadRepo) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for id := range m.Leads {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockLeadRepo) Update(ctx context.Context, id string, fields bson.M) (*Lead, error) {
	l, ok := m.Leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	if v, ok := fields["finalizado"].(bool); ok {
		l.Finalizado = v
	}
	if v, ok := fields["nome"].(string); ok {
		l.Nome = v
	}
	if v, ok := fields["updated_at"].(time.Time); ok {
		l.UpdatedAt = v
	}
	return l, nil
}

func (m *MockLeadRepo) Touch(ctx context.Context, id string, at time.Time) error {
	return nil
}

func (m *MockLeadRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.Leads[id]; !ok {
		return ErrLeadNotFound
	}
	delete(m.Leads, id)
	m.Deleted = append(m.Deleted, id)
	return nil
}

type MockInteractionRepo struct {
	Created   []Interaction
	CreateErr error
}

func (m *MockInteractionRepo) Create(ctx context.Context, interaction Interaction) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.Created = append(m.Created, interaction)
	return nil
}

func (m *MockInteractionRepo) ListByLead(ctx context.Context, leadID string) ([]Interaction, error) {
	var out []Interaction
	for _, i := range m.Created {
		if i.LeadID == leadID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (m *MockInteractionRepo) ListRecent(ctx context.Context, limit int64) ([]Interaction, error) {
	return m.Created, nil
}

func (m *MockInteractionRepo) DeleteByLead(ctx context.Context, leadID string) error {
	return nil
}

type MockFunnel struct {
	Placed   []string
	Removed  []string
	PlaceErr error
}

func (m *MockFunnel) PlaceInFirstStage(ctx context.Context, leadID string) error {
	if m.PlaceErr != nil {
		return m.PlaceErr
	}
	m.Placed = append(m.Placed, leadID)
	return nil
}

func (m *MockFunnel) RemoveLead(ctx context.Context, leadID string) error {
	m.Removed = append(m.Removed, leadID)
	return nil
}

type fixture struct {
	svc          *LeadServiceImpl
	repo         *MockLeadRepo
	interactions *MockInteractionRepo
	funnel       *MockFunnel
	hub          *realtime.Hub
}

func newFixture() *fixture {
	f := &fixture{
		repo:         newMockLeadRepo(),
		interactions: &MockInteractionRepo{},
		funnel:       &MockFunnel{},
		hub:          realtime.NewHub(zap.NewNop()),
	}
	f.svc = NewLeadService(f.repo, f.interactions, f.funnel, querycache.New(time.Minute), f.hub, zap.NewNop()).(*LeadServiceImpl)
	f.svc.Now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return f
}

func validLead() *Lead {
	return &Lead{
		Nome:        "  Ana Souza ",
		Telefone:    "11987654321",
		Temperatura: "HOT",
		Origem:      "Instagram",
	}
}

func TestCreateLeadRunsSideEffects(t *testing.T) {
	f := newFixture()
	sub := f.hub.Subscribe("leads")
	defer sub.Close()

	created, err := f.svc.Create(context.Background(), validLead())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ana Souza", created.Nome)
	assert.Equal(t, TemperaturaHot, created.Temperatura)
	assert.False(t, created.Finalizado)

	require.Len(t, f.interactions.Created, 1)
	assert.Equal(t, InteracaoObservacao, f.interactions.Created[0].Tipo)
	assert.Equal(t, "Lead criado no sistema", f.interactions.Created[0].Descricao)
	assert.Equal(t, []string{created.ID}, f.funnel.Placed)

	change := <-sub.C
	assert.Equal(t, realtime.ChangeInsert, change.Type)
}

func TestCreateLeadValidation(t *testing.T) {
	f := newFixture()

	lead := validLead()
	lead.Telefone = "123"
	lead.Temperatura = "frozen"

	_, err := f.svc.Create(context.Background(), lead)
	require.Error(t, err)
	assert.Empty(t, f.repo.Leads)
	assert.Empty(t, f.interactions.Created)
}

func TestCreateLeadSwallowsSecondaryFailures(t *testing.T) {
	f := newFixture()
	f.interactions.CreateErr = errors.New("insert failed")
	f.funnel.PlaceErr = errors.New("no stages")

	created, err := f.svc.Create(context.Background(), validLead())
	require.NoError(t, err)
	assert.Contains(t, f.repo.Leads, created.ID)
}

func TestCreateLeadPrimaryFailure(t *testing.T) {
	f := newFixture()
	f.repo.CreateErr = errors.New("duplicate key")

	_, err := f.svc.Create(context.Background(), validLead())
	assert.Error(t, err)
	assert.Empty(t, f.funnel.Placed)
}

func TestFinalizeMovesLeadToCustomers(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), validLead())
	require.NoError(t, err)

	customers, err := f.svc.ListCustomers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, customers)

	_, err = f.svc.Finalize(context.Background(), created.ID)
	require.NoError(t, err)

	customers, err = f.svc.ListCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, created.ID, customers[0].ID)
}

func TestFinalizeDropsFunnelViews(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), validLead())
	require.NoError(t, err)

	f.svc.Cache.Set(querycache.KeyLeadFunnel, []string{created.ID})
	f.svc.Cache.Set(querycache.KeyDashboardFunnel, []string{"stale"})

	_, err = f.svc.Finalize(context.Background(), created.ID)
	require.NoError(t, err)

	_, cached := f.svc.Cache.Snapshot(querycache.KeyLeadFunnel)
	assert.False(t, cached)
	_, cached = f.svc.Cache.Snapshot(querycache.KeyDashboardFunnel)
	assert.False(t, cached)
}

func TestDeleteLeadRemovesMembership(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), validLead())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID))
	assert.Equal(t, []string{created.ID}, f.funnel.Removed)

	assert.ErrorIs(t, f.svc.Delete(context.Background(), created.ID), ErrLeadNotFound)
}

func TestImportCSV(t *testing.T) {
	f := newFixture()
	csvData := "Nome,Telefone,Temperatura,Origem,orcamento_max\n" +
		"Carlos Lima,11999990000,warm,Site,\"450000,50\"\n" +
		"Sem Telefone,,cold,Site,\n" +
		",,,,\n"

	result, err := f.svc.Import(context.Background(), "leads.csv", []byte(csvData))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "linha 3")
	assert.Contains(t, result.Errors[0], "telefone")

	var imported *Lead
	for _, l := range f.repo.Leads {
		imported = l
	}
	require.NotNil(t, imported)
	require.NotNil(t, imported.OrcamentoMax)
	assert.InDelta(t, 450000.5, *imported.OrcamentoMax, 0.001)
}

func TestImportRejectsUnknownFormat(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Import(context.Background(), "leads.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestExportWritesSpreadsheet(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Create(context.Background(), validLead())
	require.NoError(t, err)

	data, err := f.svc.Export(context.Background())
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "nome", rows[0][0])
	assert.Equal(t, "Ana Souza", rows[1][0])
}
