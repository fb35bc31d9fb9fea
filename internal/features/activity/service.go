package activity

import (
	"context"
	"time"

	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/querycache"
	"crm-imobiliario/internal/realtime"
	"crm-imobiliario/pkg/utils"

	"github.com/google/uuid"
)

// feedSize is how many entries the cached feed holds
const feedSize = 100

type ActivityService interface {
	Record(ctx context.Context, activity Activity) error
	List(ctx context.Context, limit int) ([]Activity, error)
}

type ActivityServiceImpl struct {
	Repo      ActivityRepository
	Cache     *querycache.Cache
	Publisher realtime.Publisher
	Now       func() time.Time
}

func NewActivityService(repo ActivityRepository, cache *querycache.Cache, publisher realtime.Publisher) ActivityService {
	return &ActivityServiceImpl{
		Repo:      repo,
		Cache:     cache,
		Publisher: publisher,
		Now:       time.Now,
	}
}

func (s *ActivityServiceImpl) Record(ctx context.Context, activity Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.UsuarioID == "" {
		if claims, ok := utils.ClaimsFromContext(ctx); ok {
			activity.UsuarioID = claims.UserID
		}
	}
	activity.CreatedAt = s.Now().UTC()

	if err := s.Repo.Create(ctx, activity); err != nil {
		return err
	}
	s.Publisher.Publish(database.CollectionActivities, realtime.ChangeInsert, activity.ID)
	return nil
}

func (s *ActivityServiceImpl) List(ctx context.Context, limit int) ([]Activity, error) {
	if limit < 1 || limit > feedSize {
		limit = 20
	}
	feed, err := querycache.Get(ctx, s.Cache, querycache.KeySystemActivities, func(ctx context.Context) ([]Activity, error) {
		return s.Repo.ListRecent(ctx, feedSize)
	})
	if err != nil {
		return nil, err
	}
	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}
