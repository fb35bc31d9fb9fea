package property

import (
	"context"
	"testing"
	"time"

	"crm-imobiliario/internal/common/apierror"
	"crm-imobiliario/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

type MockPropertyRepo struct {
	items map[string]Property
}

func (m *MockPropertyRepo) List(ctx context.Context, status string) ([]Property, error) {
	var out []Property
	for _, p := range m.items {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPropertyRepo) FindByID(ctx context.Context, id string) (*Property, error) {
	p, ok := m.items[id]
	if !ok {
		return nil, ErrPropertyNotFound
	}
	return &p, nil
}

func (m *MockPropertyRepo) FindByIDs(ctx context.Context, ids []string) ([]Property, error) {
	return nil, nil
}

func (m *MockPropertyRepo) Create(ctx context.Context, p *Property) error {
	m.items[p.ID] = *p
	return nil
}

func (m *MockPropertyRepo) Replace(ctx context.Context, p *Property) error {
	if _, ok := m.items[p.ID]; !ok {
		return ErrPropertyNotFound
	}
	m.items[p.ID] = *p
	return nil
}

func (m *MockPropertyRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func sampleProperty() *Property {
	return &Property{
		Tipo:       "apartamento",
		Finalidade: "venda",
		CEP:        "01310-100",
		Endereco:   "Av. Paulista",
		Numero:     "1000",
		Bairro:     "Bela Vista",
		Cidade:     "São Paulo",
		Estado:     "sp",
	}
}

func newService() (*PropertyServiceImpl, *MockPropertyRepo) {
	repo := &MockPropertyRepo{items: map[string]Property{}}
	svc := NewPropertyService(repo, realtime.NewHub(zap.NewNop())).(*PropertyServiceImpl)
	return svc, repo
}

func TestCreatePropertyDefaultsAndNormalizes(t *testing.T) {
	svc, repo := newService()

	created, err := svc.Create(context.Background(), sampleProperty())
	require.NoError(t, err)
	assert.Equal(t, "disponivel", created.Status)
	assert.Equal(t, "SP", created.Estado)
	assert.Contains(t, repo.items, created.ID)
}

func TestCreatePropertyValidation(t *testing.T) {
	svc, repo := newService()

	p := sampleProperty()
	p.Finalidade = "permuta"
	p.CEP = "123"
	_, err := svc.Create(context.Background(), p)
	require.Error(t, err)

	structured := apierror.FromValidationError(err)
	require.NotNil(t, structured)
	assert.Contains(t, structured.Errors, "finalidade")
	assert.Contains(t, structured.Errors, "cep")
	assert.Empty(t, repo.items)
}

func TestUpdatePropertyKeepsCreatedAt(t *testing.T) {
	svc, _ := newService()
	svc.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	created, err := svc.Create(context.Background(), sampleProperty())
	require.NoError(t, err)

	svc.Now = func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }
	next := sampleProperty()
	next.Status = "vendido"
	updated, err := svc.Update(context.Background(), created.ID, next)
	require.NoError(t, err)
	assert.Equal(t, "vendido", updated.Status)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = svc.Update(context.Background(), "missing", sampleProperty())
	assert.ErrorIs(t, err, ErrPropertyNotFound)
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "Imóvel", Address(nil))
	assert.Equal(t, "Av. Paulista, 1000 - Bela Vista - São Paulo", Address(sampleProperty()))
}

func TestPropertyRepositoryFindByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		repo := &PropertyRepositoryImpl{Collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "p-1"},
			{Key: "tipo", Value: "casa"},
			{Key: "status", Value: "disponivel"},
		}))

		p, err := repo.FindByID(context.Background(), "p-1")
		require.NoError(mt, err)
		assert.Equal(mt, "casa", p.Tipo)
	})

	mt.Run("missing", func(mt *mtest.T) {
		repo := &PropertyRepositoryImpl{Collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindByID(context.Background(), "nope")
		assert.ErrorIs(mt, err, ErrPropertyNotFound)
	})
}
