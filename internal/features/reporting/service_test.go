package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"crm-imobiliario/internal/features/funnel"
	"crm-imobiliario/internal/features/lead"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

type MockStore struct {
	rows      []SnapshotRow
	syncedAt  time.Time
	prunedAt  time.Time
	schema    int
	upsertErr error
}

func (m *MockStore) Driver() string { return "postgres" }

func (m *MockStore) EnsureSchema(ctx context.Context) error {
	m.schema++
	return nil
}

func (m *MockStore) Upsert(ctx context.Context, rows []SnapshotRow, at time.Time) (int, error) {
	if m.upsertErr != nil {
		return 0, m.upsertErr
	}
	m.rows = rows
	m.syncedAt = at
	return len(rows), nil
}

func (m *MockStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	m.prunedAt = before
	return 2, nil
}

func (m *MockStore) Close() error { return nil }

type MockRunRepo struct {
	runs map[string]Run
}

func (m *MockRunRepo) Create(ctx context.Context, run *Run) error {
	m.runs[run.ID] = *run
	return nil
}

func (m *MockRunRepo) Update(ctx context.Context, run *Run) error {
	m.runs[run.ID] = *run
	return nil
}

func (m *MockRunRepo) List(ctx context.Context, limit int64) ([]Run, error) {
	var out []Run
	for _, r := range m.runs {
		out = append(out, r)
	}
	return out, nil
}

type stubLeads struct {
	lead.LeadRepository
	leads []lead.Lead
}

func (s stubLeads) List(ctx context.Context, filter lead.LeadFilter) ([]lead.Lead, error) {
	return s.leads, nil
}

type stubStages struct {
	funnel.StageRepository
}

func (stubStages) List(ctx context.Context) ([]funnel.Stage, error) {
	return []funnel.Stage{{ID: "s-1", Nome: "Novo"}, {ID: "s-2", Nome: "Visita"}}, nil
}

type stubMemberships struct {
	funnel.MembershipRepository
	entrada time.Time
}

func (s stubMemberships) List(ctx context.Context) ([]funnel.Membership, error) {
	return []funnel.Membership{{ID: "m-1", LeadID: "l-1", EtapaID: "s-2", DataEntrada: s.entrada}}, nil
}

func newService(store Store) (*ReportingServiceImpl, *MockRunRepo) {
	runs := &MockRunRepo{runs: map[string]Run{}}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := &ReportingServiceImpl{
		Store: store,
		Runs:  runs,
		Leads: stubLeads{leads: []lead.Lead{
			{ID: "l-1", Nome: "Ana", Origem: "site", Temperatura: "hot"},
			{ID: "l-2", Nome: "Bruno", Origem: "indicacao", Temperatura: "cold"},
		}},
		Stages:      stubStages{},
		Memberships: stubMemberships{entrada: now.Add(-time.Hour)},
		Logger:      zap.NewNop(),
		Now:         func() time.Time { return now },
	}
	return svc, runs
}

func TestExportMirrorsLeadsWithStage(t *testing.T) {
	store := &MockStore{}
	svc, runs := newService(store)

	run, err := svc.Export(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, RunSuccess, run.Status)
	assert.Equal(t, 2, run.ProcessedCount)
	assert.Equal(t, int64(2), run.PrunedCount)
	assert.Equal(t, RunSuccess, runs.runs[run.ID].Status)

	require.Len(t, store.rows, 2)
	assert.Equal(t, "s-2", store.rows[0].EtapaID)
	assert.Equal(t, "Visita", store.rows[0].EtapaNome)
	require.NotNil(t, store.rows[0].DataEntrada)
	assert.Empty(t, store.rows[1].EtapaID)
	assert.Nil(t, store.rows[1].DataEntrada)

	assert.Equal(t, 1, store.schema)
	assert.True(t, store.syncedAt.Equal(run.StartTime))
	assert.True(t, store.prunedAt.Equal(run.StartTime))
}

func TestExportSyncAndPruneShareWholeSecond(t *testing.T) {
	store := &MockStore{}
	svc, _ := newService(store)
	svc.Now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 300_000_000, time.UTC) }

	run, err := svc.Export(context.Background(), TriggerManual)
	require.NoError(t, err)

	want := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, want, store.syncedAt)
	assert.Equal(t, want, store.prunedAt)
	assert.False(t, store.prunedAt.After(store.syncedAt))
	assert.Equal(t, want, run.StartTime)
}

func TestExportRecordsFailure(t *testing.T) {
	store := &MockStore{upsertErr: errors.New("connection reset")}
	svc, runs := newService(store)

	run, err := svc.Export(context.Background(), TriggerSchedule)
	require.Error(t, err)
	assert.Equal(t, RunFailed, run.Status)
	assert.Contains(t, runs.runs[run.ID].Error, "connection reset")
	assert.True(t, store.prunedAt.IsZero())
}

func TestExportDisabled(t *testing.T) {
	svc, _ := newService(nil)

	assert.False(t, svc.Enabled())
	_, err := svc.Export(context.Background(), TriggerManual)
	assert.ErrorIs(t, err, ErrReportingDisabled)
}

func TestExportRejectsOverlap(t *testing.T) {
	svc, _ := newService(&MockStore{})
	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err := svc.Export(context.Background(), TriggerManual)
	assert.ErrorIs(t, err, ErrExportRunning)
}

func TestDialectSQL(t *testing.T) {
	pg, err := DialectFor("postgresql")
	require.NoError(t, err)
	upsert := pg.UpsertSQL()
	assert.True(t, strings.HasPrefix(upsert, "INSERT INTO crm_pipeline_snapshot (lead_id, nome"))
	assert.Contains(t, upsert, "$12)")
	assert.Contains(t, upsert, "ON CONFLICT (lead_id) DO UPDATE SET nome = EXCLUDED.nome")
	assert.NotContains(t, upsert, "lead_id = EXCLUDED.lead_id")
	assert.Equal(t, "DELETE FROM crm_pipeline_snapshot WHERE synced_at < $1", pg.PruneSQL())

	my, err := DialectFor("mysql")
	require.NoError(t, err)
	assert.Contains(t, my.UpsertSQL(), "ON DUPLICATE KEY UPDATE nome = VALUES(nome)")
	assert.NotContains(t, my.UpsertSQL(), "$1")
	assert.Equal(t, "DELETE FROM crm_pipeline_snapshot WHERE synced_at < ?", my.PruneSQL())

	_, err = DialectFor("sqlserver")
	assert.Error(t, err)
}

func TestSnapshotRowArgs(t *testing.T) {
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	args := SnapshotRow{LeadID: "l-1", Nome: "Ana"}.args(at)
	require.Len(t, args, len(snapshotColumns))
	assert.Nil(t, args[9])
	assert.False(t, nullable("").Valid)
	assert.True(t, nullable("x").Valid)
}

func TestRunRepositoryList(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("latest first", func(mt *mtest.T) {
		repo := &RunRepositoryImpl{Collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.reporting_runs", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "r-2"}, {Key: "status", Value: RunSuccess}, {Key: "processed_count", Value: int32(10)}},
			bson.D{{Key: "_id", Value: "r-1"}, {Key: "status", Value: RunFailed}},
		))

		runs, err := repo.List(context.Background(), 20)
		require.NoError(mt, err)
		require.Len(mt, runs, 2)
		assert.Equal(mt, "r-2", runs[0].ID)
		assert.Equal(mt, 10, runs[0].ProcessedCount)
		assert.Equal(mt, RunFailed, runs[1].Status)
	})
}
