package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm-imobiliario/internal/querycache"
	"crm-imobiliario/internal/realtime"
	"crm-imobiliario/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

type MockActivityRepo struct {
	Created   []Activity
	Feed      []Activity
	ListCalls int
	Err       error
}

func (m *MockActivityRepo) Create(ctx context.Context, activity Activity) error {
	if m.Err != nil {
		return m.Err
	}
	m.Created = append(m.Created, activity)
	return nil
}

func (m *MockActivityRepo) ListRecent(ctx context.Context, limit int64) ([]Activity, error) {
	m.ListCalls++
	return m.Feed, m.Err
}

func newService(repo *MockActivityRepo) (*ActivityServiceImpl, *realtime.Hub) {
	hub := realtime.NewHub(zap.NewNop())
	svc := NewActivityService(repo, querycache.New(time.Minute), hub).(*ActivityServiceImpl)
	svc.Now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return svc, hub
}

func TestRecordStampsAndPublishes(t *testing.T) {
	repo := &MockActivityRepo{}
	svc, hub := newService(repo)
	sub := hub.Subscribe("atividades_sistema")
	defer sub.Close()

	ctx := utils.WithClaims(context.Background(), &utils.UserClaims{UserID: "u-1"})
	err := svc.Record(ctx, Activity{Tipo: TipoEtapaAlterada, Titulo: "Ana movido para Proposta", LeadID: "l-1"})
	require.NoError(t, err)

	require.Len(t, repo.Created, 1)
	got := repo.Created[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "u-1", got.UsuarioID)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), got.CreatedAt)

	change := <-sub.C
	assert.Equal(t, got.ID, change.ID)
	assert.Equal(t, realtime.ChangeInsert, change.Type)
}

func TestRecordFailureDoesNotPublish(t *testing.T) {
	repo := &MockActivityRepo{Err: errors.New("insert failed")}
	svc, hub := newService(repo)
	sub := hub.Subscribe()
	defer sub.Close()

	assert.Error(t, svc.Record(context.Background(), Activity{Tipo: TipoLeadCriado}))
	assert.Empty(t, sub.C)
}

func TestListIsCachedAndTrimmed(t *testing.T) {
	repo := &MockActivityRepo{Feed: []Activity{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	svc, _ := newService(repo)

	got, err := svc.List(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, 1, repo.ListCalls)
}

func TestActivityRepositoryListRecent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes feed", func(mt *mtest.T) {
		repo := &ActivityRepositoryImpl{Collection: mt.Coll}
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "a-1"},
				{Key: "tipo", Value: TipoEtapaAlterada},
				{Key: "titulo", Value: "Ana movido para Visita"},
				{Key: "metadata", Value: bson.D{{Key: "etapa_nova", Value: "Visita"}}},
			}),
			mtest.CreateCursorResponse(0, ns, mtest.NextBatch),
		)

		feed, err := repo.ListRecent(context.Background(), 10)
		require.NoError(mt, err)
		require.Len(mt, feed, 1)
		assert.Equal(mt, "Ana movido para Visita", feed[0].Titulo)
		assert.Equal(mt, "Visita", feed[0].Metadata["etapa_nova"])
	})

	mt.Run("insert", func(mt *mtest.T) {
		repo := &ActivityRepositoryImpl{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(mt, repo.Create(context.Background(), Activity{ID: "a-2", Tipo: TipoLeadCriado}))
	})
}
