package realtime

import (
	"testing"
	"time"

	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/querycache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubFiltersByTable(t *testing.T) {
	hub := NewHub(zap.NewNop())
	visits := hub.Subscribe("visitas")
	all := hub.Subscribe()
	defer visits.Close()
	defer all.Close()

	hub.Publish("leads", ChangeInsert, "l-1")
	hub.Publish("visitas", ChangeUpdate, "v-1")

	got := <-visits.C
	assert.Equal(t, "visitas", got.Table)
	assert.Equal(t, ChangeUpdate, got.Type)
	assert.Equal(t, "v-1", got.ID)
	assert.Empty(t, visits.C)

	assert.Equal(t, "leads", (<-all.C).Table)
	assert.Equal(t, "visitas", (<-all.C).Table)
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	sub := hub.Subscribe()

	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish("leads", ChangeUpdate, "l-1")
	}
	assert.Len(t, sub.C, subscriberBuffer)

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers())
}

func TestCacheInvalidatorDropsDependentKeys(t *testing.T) {
	hub := NewHub(zap.NewNop())
	cache := querycache.New(time.Minute)
	cache.Set(querycache.KeyVisits, "cached visits")
	cache.Set(querycache.KeyDashboardMetrics, "cached metrics")
	cache.Set(querycache.KeyLeads, "cached leads")

	inv := &CacheInvalidator{hub: hub, cache: cache, logger: zap.NewNop()}
	inv.Start()
	defer inv.Stop()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, time.Millisecond)
	hub.Publish(database.CollectionVisits, ChangeUpdate, "v-1")

	require.Eventually(t, func() bool {
		_, ok := cache.Snapshot(querycache.KeyVisits)
		return !ok
	}, time.Second, time.Millisecond)

	_, ok := cache.Snapshot(querycache.KeyDashboardMetrics)
	assert.False(t, ok)
	_, ok = cache.Snapshot(querycache.KeyLeads)
	assert.True(t, ok)
}

func TestCacheInvalidatorStop(t *testing.T) {
	hub := NewHub(zap.NewNop())
	inv := &CacheInvalidator{hub: hub, cache: querycache.New(time.Minute), logger: zap.NewNop()}
	inv.Start()
	inv.Stop()

	assert.Equal(t, 0, hub.Subscribers())
}
