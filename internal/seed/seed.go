// Package seed loads the default catalog and promo codes.
package seed

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/experience-booking/internal/model"
)

// Catalog lists and creates experiences.
type Catalog interface {
	List(ctx context.Context, search string) ([]*model.Experience, error)
	Create(ctx context.Context, e *model.Experience) error
}

// Resetter wipes the catalog.
type Resetter interface {
	DeleteAll(ctx context.Context) (int64, error)
}

// PromoWriter inserts promos that do not exist yet.
type PromoWriter interface {
	EnsureExists(ctx context.Context, p *model.Promo) (bool, error)
}

// Options controls a seed run.
type Options struct {
	// Reset deletes every experience before inserting the defaults.
	Reset bool
}

// Result summarises a seed run.
type Result struct {
	Deleted            int64
	ExperiencesCreated int
	PromosCreated      int
}

// Seeder writes the default data set.
type Seeder struct {
	Catalog  Catalog
	Resetter Resetter
	Promos   PromoWriter
	Log      logrus.FieldLogger
}

// Run seeds the catalog and promos.  Without Reset the catalog is only
// filled when it is empty, so restarts do not duplicate experiences.
// Promos are inserted by code and never overwritten.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	if opts.Reset {
		if s.Resetter == nil {
			return res, fmt.Errorf("seed: reset requested without a resetter")
		}
		n, err := s.Resetter.DeleteAll(ctx)
		if err != nil {
			return res, fmt.Errorf("seed: delete experiences: %w", err)
		}
		res.Deleted = n
		log.WithField("deleted", n).Info("seed: deleted all experiences")
	}

	existing, err := s.Catalog.List(ctx, "")
	if err != nil {
		return res, fmt.Errorf("seed: list experiences: %w", err)
	}
	if len(existing) == 0 {
		for _, e := range Experiences() {
			if err := s.Catalog.Create(ctx, e); err != nil {
				return res, fmt.Errorf("seed: create %q: %w", e.Name, err)
			}
			res.ExperiencesCreated++
		}
	}

	if s.Promos != nil {
		for _, p := range Promos() {
			created, err := s.Promos.EnsureExists(ctx, p)
			if err != nil {
				return res, fmt.Errorf("seed: promo %s: %w", p.Code, err)
			}
			if created {
				res.PromosCreated++
			}
		}
	}

	log.WithFields(logrus.Fields{
		"experiences": res.ExperiencesCreated,
		"promos":      res.PromosCreated,
	}).Info("seed: done")
	return res, nil
}
