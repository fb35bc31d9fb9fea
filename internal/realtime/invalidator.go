package realtime

import (
	"context"

	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/querycache"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var tableKeys = map[string][]querycache.Key{
	database.CollectionLeads: {
		querycache.KeyLeads, querycache.KeyLeadFunnel, querycache.KeyCustomers,
		querycache.KeyDashboardMetrics, querycache.KeyDashboardFunnel,
	},
	database.CollectionLeadFunnel:   {querycache.KeyLeadFunnel, querycache.KeyDashboardFunnel},
	database.CollectionFunnelStages: {querycache.KeyFunnelStages, querycache.KeyLeadFunnel, querycache.KeyDashboardFunnel},
	database.CollectionInteractions: {querycache.KeyRecentInteraction},
	database.CollectionActivities:   {querycache.KeySystemActivities},
	database.CollectionVisits:       {querycache.KeyVisits, querycache.KeyDashboardMetrics},
	database.CollectionProposals:    {querycache.KeyProposals, querycache.KeyDashboardMetrics},
	database.CollectionProperties:   {querycache.KeyVisits, querycache.KeyProposals},
	database.CollectionUsers:        {querycache.KeyRecentInteraction},
}

// CacheInvalidator drops query cache entries whenever a table they read from
// changes.
type CacheInvalidator struct {
	hub    *Hub
	cache  *querycache.Cache
	logger *zap.Logger
	cancel context.CancelFunc
	done   chan struct{}
}

func NewCacheInvalidator(lc fx.Lifecycle, hub *Hub, cache *querycache.Cache, logger *zap.Logger) *CacheInvalidator {
	inv := &CacheInvalidator{hub: hub, cache: cache, logger: logger}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			inv.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			inv.Stop()
			return nil
		},
	})
	return inv
}

func (i *CacheInvalidator) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	i.cancel = cancel
	i.done = make(chan struct{})

	sub := i.hub.Subscribe()
	go func() {
		defer close(i.done)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-sub.C:
				if !ok {
					return
				}
				i.apply(change)
			}
		}
	}()
}

func (i *CacheInvalidator) apply(change Change) {
	keys, ok := tableKeys[change.Table]
	if !ok {
		return
	}
	i.cache.Invalidate(keys...)
	i.logger.Debug("query cache invalidated",
		zap.String("table", change.Table), zap.String("type", string(change.Type)))
}

func (i *CacheInvalidator) Stop() {
	if i.cancel == nil {
		return
	}
	i.cancel()
	<-i.done
}
