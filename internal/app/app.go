// Package app assembles stores and the engine from configuration. The
// server and the wlctl command share it.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"worklane/internal/config"
	"worklane/internal/db"
	"worklane/pkg/activity"
	"worklane/pkg/checklist"
	"worklane/pkg/engine"
	"worklane/pkg/grouping"
	"worklane/pkg/member"
	"worklane/pkg/participation"
	"worklane/pkg/task"
)

// Stores is one backend's set of stores.
type Stores struct {
	Spaces    participation.Store
	Members   member.Store
	Tasks     task.Store
	Checklist checklist.Store
	Activity  activity.Store

	pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (s *Stores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// OpenStores opens the backend named by cfg.Store and makes sure its
// schema exists.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return &Stores{
			Spaces:    participation.NewMemStore(),
			Members:   member.NewMemStore(),
			Tasks:     task.NewMemStore(),
			Checklist: checklist.NewMemStore(),
			Activity:  activity.NewMemStore(),
		}, nil
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		s := &Stores{
			Spaces:    participation.NewPgStore(pool),
			Members:   member.NewPgStore(pool),
			Tasks:     task.NewPgStore(pool),
			Checklist: checklist.NewPgStore(pool),
			Activity:  activity.NewPgStore(pool),
			pool:      pool,
		}
		err = db.EnsureSchema(ctx,
			db.Named{Name: "participation", Table: s.Spaces},
			db.Named{Name: "members", Table: s.Members},
			db.Named{Name: "tasks", Table: s.Tasks},
			db.Named{Name: "checklist", Table: s.Checklist},
			db.Named{Name: "activity", Table: s.Activity},
		)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

// Runtime is everything a request path needs.
type Runtime struct {
	Engine  *engine.Engine
	Gate    *participation.Gate
	Members *member.BreakerDirectory
}

// Build wires the engine over s.
func Build(cfg *config.Config, s *Stores, log logrus.FieldLogger) (*Runtime, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	dir := member.NewBreakerDirectory(s.Members, member.BreakerSettings{
		MaxRequests:         cfg.Members.Breaker.MaxRequests,
		Timeout:             cfg.Members.Breaker.Timeout,
		ConsecutiveFailures: cfg.Members.Breaker.ConsecutiveFailures,
	}, log)
	groups := grouping.NewService(s.Tasks, dir, grouping.Settings{
		GroupLimit:      cfg.Grouping.GroupLimit,
		DefaultPageSize: cfg.Grouping.DefaultPageSize,
		MaxPageSize:     cfg.Grouping.MaxPageSize,
		Parallelism:     cfg.Grouping.Parallelism,
	}, log)
	eng := engine.New(engine.Deps{
		Spaces:    s.Spaces,
		Tasks:     s.Tasks,
		Checklist: s.Checklist,
		Groups:    groups,
		Activity:  activity.NewRecorder(s.Activity, log),
		Log:       log,
		Location:  loc,
	})
	return &Runtime{Engine: eng, Gate: participation.NewGate(s.Spaces), Members: dir}, nil
}
