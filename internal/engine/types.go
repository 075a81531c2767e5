package engine

import (
	"errors"
	"time"

	"github.com/skillhub-dev/skillhub/internal/skill"
)

// SearchMode selects which retrieval path serves a query.
type SearchMode string

const (
	ModeVectorOnly SearchMode = "vector_only"
	ModeGraphOnly  SearchMode = "graph_only"
	ModeHybrid     SearchMode = "hybrid"
)

// Filters narrow a search. Category and RepoIDs restrict the candidate
// set; Tags are ranking hints that feed the tag boost in hybrid mode
// rather than hard predicates. ListSkills applies all three as hard
// predicates: a listed skill must carry every tag in Tags.
type Filters struct {
	Category string
	RepoIDs  []string
	Tags     []string
}

// ScoredSkill is one ranked retrieval result. Score is the fused value in
// [0,1]; the per-component scores are kept for provenance.
type ScoredSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	RepoID      string   `json:"repo_id"`
	Score       float64  `json:"score"`
	VectorScore float64  `json:"vector_score"`
	GraphScore  float64  `json:"graph_score"`
	Provenance  string   `json:"provenance"`
}

// IndexStats summarizes one reindex pass.
type IndexStats struct {
	TotalSkills int       `json:"total_skills"`
	Indexed     int       `json:"indexed"`
	Failed      int       `json:"failed"`
	Warnings    int       `json:"warnings"`
	GraphNodes  int       `json:"graph_nodes"`
	GraphEdges  int       `json:"graph_edges"`
	LastIndexed time.Time `json:"last_indexed"`
}

// Errors surfaced by retrieval.
var (
	// ErrRetrievalFailed wraps vector store read failures; no partial
	// results accompany it.
	ErrRetrievalFailed = errors.New("retrieval failed")
	// ErrUnknownSkill is returned by lookups for ids not in the corpus.
	ErrUnknownSkill = errors.New("unknown skill id")
)

// SkillSummary is the compact listing form of an indexed skill.
type SkillSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	RepoID   string   `json:"repo_id"`
}

// summaryFromSkill trims a parsed skill down to its listing form.
func summaryFromSkill(s *skill.Skill) SkillSummary {
	return SkillSummary{
		ID:       s.ID,
		Name:     s.Name,
		Category: string(s.Category),
		Tags:     s.Tags,
		RepoID:   s.RepoID,
	}
}
