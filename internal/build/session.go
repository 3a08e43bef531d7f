// Package build drives a documentation build: incremental source reading,
// entity registration, reference resolution and HTML output. It plays the
// role of the host framework's build lifecycle: registration finishes
// before resolution starts, and the registry is read-only afterwards.
package build

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/cas"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/config"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/domain"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/state"
)

// Stats summarizes one build pass.
type Stats struct {
	Documents    int
	Read         int
	Purged       int
	Entities     int
	PagesWritten int
}

type Session struct {
	cfg    *config.Config
	store  *state.Store
	bodies *cas.Store
	log    *slog.Logger
}

func NewSession(cfg *config.Config, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	store, err := state.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	return &Session{
		cfg:    cfg,
		store:  store,
		bodies: cas.New(cfg.CASDir()),
		log:    log,
	}, nil
}

func (s *Session) Close() error {
	return s.store.Close()
}

// Registry loads the persisted environment. Used by the commands that
// query the environment without building.
func (s *Session) Registry() (*domain.Registry, error) {
	return s.store.Load()
}

// Body returns a stored description body by its content hash.
func (s *Session) Body(hash string) (string, error) {
	return s.bodies.Read(hash)
}

// Clean removes all persisted build state.
func (s *Session) Clean() error {
	if err := s.store.Close(); err != nil {
		return err
	}
	return os.RemoveAll(s.cfg.StateDir())
}

// Build runs one build pass. Changed documents are read in parallel, each
// into a scratch registry, and merged in deterministic document order; the
// merged environment is persisted and every page is written out.
func (s *Session) Build(ctx context.Context, force bool) (*Stats, error) {
	sources, err := DiscoverSources(s.cfg.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("discovering sources: %w", err)
	}

	stored, err := s.store.Documents()
	if err != nil {
		return nil, err
	}
	plan := MakePlan(sources, stored, force)

	stats := &Stats{Documents: len(plan.Sources)}

	for _, doc := range plan.Removed {
		if err := s.store.PurgeDocument(doc); err != nil {
			return nil, err
		}
		stats.Purged++
	}

	results, err := s.readAll(ctx, plan.Changed)
	if err != nil {
		return nil, err
	}
	stats.Read = len(results)

	reg, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	for _, src := range plan.Sources {
		reg.SetDocumentRank(src.Document, src.Order)
		if _, ok := stored[src.Document]; ok {
			if err := s.store.SetDocumentOrder(src.Document, src.Order); err != nil {
				return nil, err
			}
		}
	}

	// Merge order does not matter for the outcome; sorting keeps the pass
	// reproducible anyway.
	sort.Slice(results, func(i, j int) bool { return results[i].Source.Order < results[j].Source.Order })
	for _, res := range results {
		reg.Purge(res.Source.Document)
		reg.Merge(res.Registry)

		pageJSON, err := json.Marshal(res.Page)
		if err != nil {
			return nil, fmt.Errorf("encoding page of %s: %w", res.Source.Document, err)
		}
		if err := s.store.ReplaceDocument(
			res.Source.Document, res.Source.Hash, res.Source.Order,
			res.Registry.ByDocument(res.Source.Document), string(pageJSON),
		); err != nil {
			return nil, err
		}
	}

	stats.Entities = len(reg.All(domain.AnyType))

	// Read phase is over; the registry is read-only from here on.
	written, err := s.writeOutput(reg, plan.Sources)
	if err != nil {
		return nil, err
	}
	stats.PagesWritten = written

	return stats, nil
}

// readAll reads the changed documents in parallel. Every document gets its
// own scratch registry, so workers never share mutable state; the caller
// merges afterwards.
func (s *Session) readAll(ctx context.Context, changed []Source) ([]*readResult, error) {
	results := make([]*readResult, len(changed))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, src := range changed {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := readDocument(src, s.bodies, s.cfg.Display(), s.log)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
