package proposal

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-imobiliario/internal/features/lead"
	"crm-imobiliario/internal/features/property"
	"crm-imobiliario/internal/querycache"
	"crm-imobiliario/internal/realtime"
	"crm-imobiliario/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

type MockProposalRepo struct {
	items   map[string]*Proposal
	listed  int
	created error
}

func (m *MockProposalRepo) List(ctx context.Context) ([]Proposal, error) {
	m.listed++
	var out []Proposal
	for _, p := range m.items {
		out = append(out, *p)
	}
	return out, nil
}

func (m *MockProposalRepo) Count(ctx context.Context, status string) (int64, error) {
	var n int64
	for _, p := range m.items {
		if status == "" || p.Status == status {
			n++
		}
	}
	return n, nil
}

func (m *MockProposalRepo) FindByID(ctx context.Context, id string) (*Proposal, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, ErrProposalNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *MockProposalRepo) Create(ctx context.Context, p *Proposal) error {
	if m.created != nil {
		return m.created
	}
	copied := *p
	m.items[p.ID] = &copied
	return nil
}

func (m *MockProposalRepo) Update(ctx context.Context, id string, fields bson.M) (*Proposal, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, ErrProposalNotFound
	}
	if s, ok := fields["status"].(string); ok {
		p.Status = s
	}
	if v, ok := fields["valor"].(float64); ok {
		p.Valor = v
	}
	copied := *p
	return &copied, nil
}

type stubLeads struct {
	lead.LeadRepository
	leads []lead.Lead
}

func (s stubLeads) FindByIDs(ctx context.Context, ids []string) ([]lead.Lead, error) {
	return s.leads, nil
}

type stubProperties struct {
	property.PropertyRepository
	items []property.Property
}

func (s stubProperties) FindByIDs(ctx context.Context, ids []string) ([]property.Property, error) {
	return s.items, nil
}

type recordingInteractions struct {
	lead.InteractionRepository
	created []lead.Interaction
	err     error
}

func (r *recordingInteractions) Create(ctx context.Context, i lead.Interaction) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, i)
	return nil
}

var fixedNow = time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC)

func newService() (*ProposalServiceImpl, *MockProposalRepo, *recordingInteractions) {
	repo := &MockProposalRepo{items: map[string]*Proposal{}}
	interactions := &recordingInteractions{}
	svc := NewProposalService(
		repo,
		stubLeads{leads: []lead.Lead{{ID: "lead-1", Nome: "Ana"}}},
		stubProperties{items: []property.Property{{ID: "imovel-1", Endereco: "Rua A"}}},
		interactions,
		querycache.New(time.Minute),
		realtime.NewHub(zap.NewNop()),
		zap.NewNop(),
	).(*ProposalServiceImpl)
	svc.Now = func() time.Time { return fixedNow }
	return svc, repo, interactions
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", FormatBRL(1234.56))
	assert.Equal(t, "R$ 350.000,00", FormatBRL(350000))
}

func TestCreateGeneratesCodeAndRecordsInteraction(t *testing.T) {
	svc, repo, interactions := newService()
	ctx := utils.WithClaims(context.Background(), &utils.UserClaims{UserID: "corretor-1"})

	created, err := svc.Create(ctx, &Proposal{LeadID: "lead-1", ImovelID: "imovel-1", Valor: 450000})
	require.NoError(t, err)

	assert.Equal(t, "PROP-1710079200000", created.Codigo)
	assert.Equal(t, StatusEnviada, created.Status)
	assert.Equal(t, "corretor-1", created.CorretorID)
	assert.Contains(t, repo.items, created.ID)

	require.Len(t, interactions.created, 1)
	i := interactions.created[0]
	assert.Equal(t, lead.InteracaoProposta, i.Tipo)
	assert.Equal(t, "lead-1", i.LeadID)
	assert.Equal(t, "corretor-1", i.UsuarioID)
	assert.Equal(t, "Proposta PROP-1710079200000 criada no valor de R$ 450.000,00", i.Descricao)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, repo, _ := newService()

	_, err := svc.Create(context.Background(), &Proposal{LeadID: "lead-1", ImovelID: "imovel-1", Valor: 0})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), &Proposal{LeadID: "lead-1", ImovelID: "imovel-1", Valor: 10, Status: "perdida"})
	require.Error(t, err)
	assert.Empty(t, repo.items)
}

func TestCreateSwallowsInteractionFailure(t *testing.T) {
	svc, repo, interactions := newService()
	interactions.err = errors.New("write failed")

	created, err := svc.Create(context.Background(), &Proposal{LeadID: "lead-1", ImovelID: "imovel-1", Valor: 10})
	require.NoError(t, err)
	assert.Contains(t, repo.items, created.ID)
}

func TestCreateReturnsPrimaryFailure(t *testing.T) {
	svc, repo, interactions := newService()
	repo.created = errors.New("insert failed")

	_, err := svc.Create(context.Background(), &Proposal{LeadID: "lead-1", ImovelID: "imovel-1", Valor: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "erro ao criar proposta")
	assert.Empty(t, interactions.created)
}

func TestListJoinsAndCaches(t *testing.T) {
	svc, repo, _ := newService()
	repo.items["p-1"] = &Proposal{ID: "p-1", LeadID: "lead-1", ImovelID: "imovel-1", Valor: 10, Status: StatusEnviada}

	details, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Ana", details[0].Lead.Nome)
	assert.Equal(t, "Rua A", details[0].Imovel.Endereco)

	_, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listed)

	status := StatusAprovada
	_, err = svc.Update(context.Background(), "p-1", UpdateProposalRequest{Status: &status})
	require.NoError(t, err)

	details, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listed)
	assert.Equal(t, StatusAprovada, details[0].Status)
}

func TestUpdateUnknownProposal(t *testing.T) {
	svc, _, _ := newService()
	status := StatusRecusada
	_, err := svc.Update(context.Background(), "missing", UpdateProposalRequest{Status: &status})
	assert.ErrorIs(t, err, ErrProposalNotFound)
}

func TestRepositoryCountByStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("count em_analise", func(mt *mtest.T) {
		repo := &ProposalRepositoryImpl{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "db.propostas", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}))

		n, err := repo.Count(context.Background(), StatusEmAnalise)
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})

	mt.Run("find missing", func(mt *mtest.T) {
		repo := &ProposalRepositoryImpl{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.propostas", mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), "nope")
		assert.ErrorIs(mt, err, ErrProposalNotFound)
	})
}
