package engine

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/skillhub-dev/skillhub/internal/vectordb"
)

// SearchOptions parameterize one query. Zero weights fall back to the
// engine's configured defaults.
type SearchOptions struct {
	TopK         int
	Mode         SearchMode
	Filters      *Filters
	VectorWeight float64
	GraphWeight  float64
}

// Search executes a retrieval query. An empty corpus yields an empty
// list, never an error.
func (e *Engine) Search(ctx context.Context, query string, opts SearchOptions) ([]ScoredSkill, error) {
	if opts.TopK <= 0 {
		return nil, nil
	}
	if opts.Mode == "" {
		opts.Mode = ModeHybrid
	}
	if opts.VectorWeight == 0 && opts.GraphWeight == 0 {
		opts.VectorWeight = e.opts.VectorWeight
		opts.GraphWeight = e.opts.GraphWeight
	}

	switch opts.Mode {
	case ModeVectorOnly:
		return e.vectorSearch(ctx, query, opts.TopK, opts.Filters)
	case ModeGraphOnly:
		return e.graphSearch(query, opts.TopK, opts.Filters), nil
	case ModeHybrid:
		return e.hybridSearch(ctx, query, opts)
	default:
		return nil, fmt.Errorf("unknown search mode %q", opts.Mode)
	}
}

// vectorSearch serves a query from the dense index alone.
func (e *Engine) vectorSearch(ctx context.Context, query string, topK int, filters *Filters) ([]ScoredSkill, error) {
	results, err := e.vec.Search(ctx, query, topK, vectorFilter(filters))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	out := make([]ScoredSkill, 0, len(results))
	for _, r := range results {
		out = append(out, scoredFromRecord(r, r.Score, 0, r.Score, "vector"))
	}
	return out, nil
}

// hybridSearch over-fetches vector candidates, boosts them with graph
// signals, and fuses the two score spaces into one ranking.
func (e *Engine) hybridSearch(ctx context.Context, query string, opts SearchOptions) ([]ScoredSkill, error) {
	if e.graph.NodeCount() == 0 {
		// Without graph state the boosts are all zero; serve the dense
		// ranking rather than failing the query.
		fmt.Fprintf(os.Stderr, "Warning: graph store is empty, degrading to vector-only search\n")
		return e.vectorSearch(ctx, query, opts.TopK, opts.Filters)
	}

	fetch := opts.TopK * e.opts.ExpansionFactor
	candidates, err := e.vec.Search(ctx, query, fetch, vectorFilter(opts.Filters))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Seed the neighborhood from the best vector candidate.
	neighborhood := make(map[string]bool)
	for _, n := range e.graph.Neighbors(candidates[0].Record.ID, 1) {
		neighborhood[n.SkillID] = true
	}

	var queryTags []string
	if opts.Filters != nil {
		queryTags = opts.Filters.Tags
	}

	out := make([]ScoredSkill, 0, len(candidates))
	for _, c := range candidates {
		graphScore := e.graphBoost(c.Record, queryTags, opts.Filters, neighborhood)
		final := opts.VectorWeight*c.Score + opts.GraphWeight*graphScore
		out = append(out, scoredFromRecord(c, c.Score, graphScore, final, "hybrid"))
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].VectorScore != out[j].VectorScore {
			return out[i].VectorScore > out[j].VectorScore
		}
		return out[i].ID < out[j].ID
	})

	if len(out) > opts.TopK {
		out = out[:opts.TopK]
	}
	return out, nil
}

// graphBoost computes the graph-derived score for one candidate,
// clamped to [0,1].
func (e *Engine) graphBoost(rec vectordb.Record, queryTags []string, filters *Filters, neighborhood map[string]bool) float64 {
	var score float64

	if len(queryTags) > 0 {
		matched := 0
		for _, tag := range queryTags {
			if rec.Metadata.HasTag(tag) {
				matched++
			}
		}
		score += e.opts.TagBoost * float64(matched) / float64(len(queryTags))
	}

	if filters != nil && filters.Category != "" && filters.Category == rec.Metadata.Category {
		score += e.opts.CategoryBoost
	}

	if neighborhood[rec.ID] {
		score += e.opts.NeighborhoodBoost
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// graphSearch serves a query from graph structure alone: the query is
// read as a bag of tag/category tokens and candidates are the union of
// their preimages, scored purely by graph signals.
func (e *Engine) graphSearch(query string, topK int, filters *Filters) []ScoredSkill {
	tokens := strings.Fields(strings.ToLower(query))
	if filters != nil {
		tokens = append(tokens, filters.Tags...)
	}

	hits := make(map[string]float64)
	for _, token := range tokens {
		for _, id := range e.graph.SkillsWithTag(token) {
			hits[id] += e.opts.TagBoost
		}
		for _, id := range e.graph.SkillsInCategory(token) {
			hits[id] += e.opts.CategoryBoost
		}
	}

	out := make([]ScoredSkill, 0, len(hits))
	for id, score := range hits {
		node, ok := e.graph.SkillNode(id)
		if !ok {
			continue
		}
		if filters != nil && len(filters.RepoIDs) > 0 && !containsString(filters.RepoIDs, node.RepoID) {
			continue
		}
		if score > 1 {
			score = 1
		}
		out = append(out, ScoredSkill{
			ID:         id,
			Name:       node.Name,
			RepoID:     node.RepoID,
			Score:      score,
			GraphScore: score,
			Provenance: "graph",
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})

	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

// vectorFilter lowers engine filters onto the vector store. Tags are
// deliberately left out: they are ranking hints consumed by the graph
// boost, not hard predicates.
func vectorFilter(filters *Filters) *vectordb.SearchFilter {
	if filters == nil {
		return nil
	}
	return &vectordb.SearchFilter{
		Category: filters.Category,
		RepoIDs:  filters.RepoIDs,
	}
}

func scoredFromRecord(r vectordb.SearchResult, vecScore, graphScore, final float64, provenance string) ScoredSkill {
	return ScoredSkill{
		ID:          r.Record.ID,
		Name:        r.Record.Metadata.Name,
		Description: firstLine(r.Record.Content, 1),
		Category:    r.Record.Metadata.Category,
		Tags:        vectordb.SplitTags(r.Record.Metadata.Tags),
		RepoID:      r.Record.Metadata.RepoID,
		Score:       final,
		VectorScore: vecScore,
		GraphScore:  graphScore,
		Provenance:  provenance,
	}
}

// firstLine returns the nth newline-separated line of s (zero-based).
// The embeddable text puts the description on line 1.
func firstLine(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+2)
	if len(lines) > n {
		return lines[n]
	}
	return ""
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
