package property

import (
	"context"
	"time"

	"crm-imobiliario/internal/database"
	"crm-imobiliario/internal/realtime"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type PropertyService interface {
	List(ctx context.Context, status string) ([]Property, error)
	Get(ctx context.Context, id string) (*Property, error)
	Create(ctx context.Context, p *Property) (*Property, error)
	Update(ctx context.Context, id string, p *Property) (*Property, error)
	Delete(ctx context.Context, id string) error
}

type PropertyServiceImpl struct {
	Repo      PropertyRepository
	Publisher realtime.Publisher
	Now       func() time.Time
}

func NewPropertyService(repo PropertyRepository, publisher realtime.Publisher) PropertyService {
	return &PropertyServiceImpl{
		Repo:      repo,
		Publisher: publisher,
		Now:       time.Now,
	}
}

func (s *PropertyServiceImpl) List(ctx context.Context, status string) ([]Property, error) {
	return s.Repo.List(ctx, status)
}

func (s *PropertyServiceImpl) Get(ctx context.Context, id string) (*Property, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *PropertyServiceImpl) Create(ctx context.Context, p *Property) (*Property, error) {
	p.normalize()
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.Repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.Publisher.Publish(database.CollectionProperties, realtime.ChangeInsert, p.ID)
	return p, nil
}

func (s *PropertyServiceImpl) Update(ctx context.Context, id string, p *Property) (*Property, error) {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.normalize()
	if err := validate.Struct(p); err != nil {
		return nil, err
	}
	p.ID = id
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.Now().UTC()
	if err := s.Repo.Replace(ctx, p); err != nil {
		return nil, err
	}
	s.Publisher.Publish(database.CollectionProperties, realtime.ChangeUpdate, id)
	return p, nil
}

func (s *PropertyServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.Publisher.Publish(database.CollectionProperties, realtime.ChangeDelete, id)
	return nil
}
