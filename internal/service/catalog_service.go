package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/experience-booking/internal/model"
	"github.com/iliyamo/experience-booking/internal/repository"
)

// ExperienceStore is the catalog persistence used by CatalogService.
type ExperienceStore interface {
	List(ctx context.Context, search string) ([]*model.Experience, error)
	GetByID(ctx context.Context, id string) (*model.Experience, error)
	Create(ctx context.Context, e *model.Experience) error
}

// sharedReadTimeout bounds a store read shared by several callers.
const sharedReadTimeout = 10 * time.Second

// CatalogService answers catalog reads.  Concurrent identical reads are
// collapsed into one store query.
type CatalogService struct {
	store ExperienceStore
	group singleflight.Group
	log   logrus.FieldLogger
}

// NewCatalogService returns a CatalogService backed by store.
func NewCatalogService(store ExperienceStore, log logrus.FieldLogger) *CatalogService {
	if store == nil {
		panic("nil experience store passed to NewCatalogService")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CatalogService{store: store, log: log}
}

// List returns the experiences whose name, description or location
// contains search, ignoring case.  An empty search returns everything.
func (s *CatalogService) List(ctx context.Context, search string) ([]*model.Experience, error) {
	search = strings.TrimSpace(search)
	v, err := s.shared(ctx, "list:"+strings.ToLower(search), func(ctx context.Context) (interface{}, error) {
		return s.store.List(ctx, search)
	})
	if err != nil {
		s.log.WithError(err).WithField("search", search).Error("list experiences failed")
		return nil, storageError("Failed to fetch experiences", err)
	}
	return v.([]*model.Experience), nil
}

// Get returns one experience with its dates and slots.
func (s *CatalogService) Get(ctx context.Context, id string) (*model.Experience, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, notFoundError("Experience not found")
	}
	v, err := s.shared(ctx, "get:"+id, func(ctx context.Context) (interface{}, error) {
		return s.store.GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrExperienceNotFound) {
			return nil, notFoundError("Experience not found")
		}
		s.log.WithError(err).WithField("experience", id).Error("get experience failed")
		return nil, storageError("Failed to fetch experience", err)
	}
	return v.(*model.Experience), nil
}

// shared runs fn once for all concurrent callers of key.  The read is
// detached from the caller that started it, so one client hanging up
// does not fail the others; each caller still stops waiting when its own
// ctx ends.
func (s *CatalogService) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.group.DoChan(key, func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		return fn(readCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Create validates and stores a new experience.
func (s *CatalogService) Create(ctx context.Context, e *model.Experience) error {
	if err := validateExperience(e); err != nil {
		return err
	}
	if err := s.store.Create(ctx, e); err != nil {
		s.log.WithError(err).WithField("name", e.Name).Error("create experience failed")
		return storageError("Failed to create experience", err)
	}
	return nil
}

func validateExperience(e *model.Experience) error {
	if e == nil || strings.TrimSpace(e.Name) == "" {
		return validationError("Experience name is required")
	}
	if e.Price <= 0 {
		return validationError("Experience price must be positive")
	}
	seen := make(map[string]struct{}, len(e.Slots))
	for _, slot := range e.Slots {
		if strings.TrimSpace(slot.Time) == "" {
			return validationError("Slot time is required")
		}
		if slot.Available < 0 {
			return validationError("Slot availability cannot be negative")
		}
		if _, dup := seen[slot.Time]; dup {
			return validationError("Duplicate slot time " + slot.Time)
		}
		seen[slot.Time] = struct{}{}
	}
	return nil
}
