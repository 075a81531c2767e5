package vectordb

import (
	"context"

	"github.com/skillhub-dev/skillhub/internal/skill"
)

// Stats summarizes the store's persisted state.
type Stats struct {
	Records   int
	DiskBytes int64
}

// VectorStore persists a dense-embedding index over skill text and serves
// filtered nearest-neighbor queries. Index overwrites by skill id; Search
// returns results ordered by descending similarity mapped into [0,1].
type VectorStore interface {
	Index(ctx context.Context, s *skill.Skill) error
	Remove(ctx context.Context, skillID string) error
	Clear(ctx context.Context) error
	Search(ctx context.Context, query string, topK int, filter *SearchFilter) ([]SearchResult, error)
	Count() int
	Stats() (Stats, error)
}
