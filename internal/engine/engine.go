package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skillhub-dev/skillhub/internal/discovery"
	"github.com/skillhub-dev/skillhub/internal/graph"
	"github.com/skillhub-dev/skillhub/internal/metadata"
	"github.com/skillhub-dev/skillhub/internal/skill"
	"github.com/skillhub-dev/skillhub/internal/vectordb"
)

// Options carries the tunable retrieval constants. The boost magnitudes
// are configuration, not built-ins.
type Options struct {
	VectorWeight      float64
	GraphWeight       float64
	ExpansionFactor   int
	TagBoost          float64
	CategoryBoost     float64
	NeighborhoodBoost float64
}

// DefaultOptions mirror the configuration defaults.
func DefaultOptions() Options {
	return Options{
		VectorWeight:      0.7,
		GraphWeight:       0.3,
		ExpansionFactor:   5,
		TagBoost:          0.5,
		CategoryBoost:     0.3,
		NeighborhoodBoost: 0.1,
	}
}

// Engine orchestrates the vector store, graph store, metadata store, and
// skill discovery into reindex passes and hybrid queries.
type Engine struct {
	vec          vectordb.VectorStore
	graph        *graph.Graph
	store        *metadata.Store
	disc         *discovery.Discoverer
	snapshotPath string
	opts         Options

	mu          sync.Mutex
	lastIndexed time.Time
}

// New wires an engine over its four collaborators. snapshotPath is where
// the graph snapshot is persisted at the end of each reindex pass.
func New(vec vectordb.VectorStore, g *graph.Graph, store *metadata.Store, disc *discovery.Discoverer, snapshotPath string, opts Options) *Engine {
	if opts.ExpansionFactor < 3 {
		opts.ExpansionFactor = 3
	}
	return &Engine{
		vec:          vec,
		graph:        g,
		store:        store,
		disc:         disc,
		snapshotPath: snapshotPath,
		opts:         opts,
	}
}

// Graph exposes the engine's graph store for read-only queries.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// LoadSnapshot restores the graph from the configured snapshot, if one
// exists. Missing snapshots are not an error: a fresh index has none.
func (e *Engine) LoadSnapshot() error {
	if _, err := os.Stat(e.snapshotPath); os.IsNotExist(err) {
		return nil
	}
	return e.graph.Load(e.snapshotPath)
}

// IndexSkill upserts one skill into both indices. The vector write goes
// first; on a graph failure the vector record stays put and the error is
// reported, leaving the two stores to reconverge on the next pass.
func (e *Engine) IndexSkill(ctx context.Context, s *skill.Skill) error {
	if err := e.vec.Index(ctx, s); err != nil {
		return fmt.Errorf("vector index: %w", err)
	}
	if err := e.graph.AddSkill(s); err != nil {
		return fmt.Errorf("graph index: %w", err)
	}
	return nil
}

// RemoveSkill drops one skill from both indices.
func (e *Engine) RemoveSkill(ctx context.Context, id string) error {
	if err := e.vec.Remove(ctx, id); err != nil {
		return err
	}
	e.graph.RemoveSkill(id)
	return nil
}

// ReindexAll rebuilds the indices from the corpus. With force, both
// stores are cleared first. Per-skill failures are counted and reported
// but never abort the pass; the graph snapshot is saved once at the end.
func (e *Engine) ReindexAll(ctx context.Context, force bool) (IndexStats, []error) {
	var stats IndexStats
	var errs []error

	if force {
		if err := e.vec.Clear(ctx); err != nil {
			return stats, []error{fmt.Errorf("clearing vector store: %w", err)}
		}
		e.graph.Clear()
	}

	repos, err := e.store.ListRepos(ctx)
	if err != nil {
		return stats, []error{err}
	}

	found, err := e.disc.DiscoverAll(repos)
	if err != nil {
		return stats, []error{err}
	}
	stats.TotalSkills = len(found)

	for _, f := range found {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		s, err := e.disc.Parse(f)
		if err != nil {
			stats.Failed++
			errs = append(errs, err)
			continue
		}
		stats.Warnings += len(s.Warnings)

		if err := e.IndexSkill(ctx, s); err != nil {
			stats.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", s.ID, err))
			continue
		}
		stats.Indexed++
	}

	if err := e.graph.Save(e.snapshotPath); err != nil {
		errs = append(errs, err)
	}

	now := time.Now().UTC()
	e.mu.Lock()
	e.lastIndexed = now
	e.mu.Unlock()

	stats.GraphNodes = e.graph.NodeCount()
	stats.GraphEdges = e.graph.EdgeCount()
	stats.LastIndexed = now
	return stats, errs
}

// LastIndexed returns the completion time of the most recent pass, or the
// zero time if none ran in this process.
func (e *Engine) LastIndexed() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastIndexed
}

// Stats reports the combined state of both indices.
type Stats struct {
	Skills       int       `json:"skills"`
	GraphNodes   int       `json:"graph_nodes"`
	GraphEdges   int       `json:"graph_edges"`
	Repositories int       `json:"repositories"`
	DiskBytes    int64     `json:"disk_bytes"`
	LastIndexed  time.Time `json:"last_indexed,omitempty"`
}

// Stats reports index sizes and sync state.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	vs, err := e.vec.Stats()
	if err != nil {
		return Stats{}, err
	}
	repos, err := e.store.ListRepos(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Skills:       vs.Records,
		GraphNodes:   e.graph.NodeCount(),
		GraphEdges:   e.graph.EdgeCount(),
		Repositories: len(repos),
		DiskBytes:    vs.DiskBytes,
		LastIndexed:  e.LastIndexed(),
	}, nil
}

// ListSkills enumerates the corpus, applying the given filters. The
// listing is produced by re-parsing discovered files so it reflects the
// filesystem, ordered by skill id.
func (e *Engine) ListSkills(ctx context.Context, filters *Filters) ([]SkillSummary, error) {
	repos, err := e.store.ListRepos(ctx)
	if err != nil {
		return nil, err
	}
	found, err := e.disc.DiscoverAll(repos)
	if err != nil {
		return nil, err
	}

	var out []SkillSummary
	for _, f := range found {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s, err := e.disc.Parse(f)
		if err != nil {
			continue
		}
		if !matchesFilters(s, filters) {
			continue
		}
		out = append(out, summaryFromSkill(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetSkill resolves a skill id back to its full parsed record.
func (e *Engine) GetSkill(ctx context.Context, id string) (*skill.Skill, error) {
	repos, err := e.store.ListRepos(ctx)
	if err != nil {
		return nil, err
	}

	for _, repo := range repos {
		prefix := repo.ID + "/"
		if !strings.HasPrefix(id, prefix) {
			continue
		}

		// The id's path component is the skill's directory; try the
		// direct location first, then fall back to a full walk for
		// root-level skills addressed by name.
		rel := strings.TrimPrefix(id, prefix)
		direct := filepath.Join(repo.LocalPath, filepath.FromSlash(rel), e.disc.SkillFilename)
		if _, statErr := os.Stat(direct); statErr == nil {
			s, parseErr := e.disc.Parser.Parse(direct, repo.LocalPath, repo.ID)
			if parseErr == nil && s.ID == id {
				return s, nil
			}
		}

		found, err := e.disc.DiscoverRepo(repo)
		if err != nil {
			continue
		}
		for _, f := range found {
			s, parseErr := e.disc.Parse(f)
			if parseErr == nil && s.ID == id {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSkill, id)
}

func matchesFilters(s *skill.Skill, filters *Filters) bool {
	if filters == nil {
		return true
	}
	if filters.Category != "" && string(s.Category) != filters.Category {
		return false
	}
	if len(filters.RepoIDs) > 0 {
		found := false
		for _, id := range filters.RepoIDs {
			if s.RepoID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, tag := range filters.Tags {
		if !hasTag(s.Tags, tag) {
			return false
		}
	}
	return true
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
