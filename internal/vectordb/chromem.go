package vectordb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/skillhub-dev/skillhub/internal/embeddings"
	"github.com/skillhub-dev/skillhub/internal/skill"
)

const collectionName = "skills"

// dimsFile records the vector dimension the store was created with.
const dimsFile = "dimensions"

// ErrDimensionMismatch means the on-disk store was built with a different
// embedding dimension than the configured embedder. NewChromemStore
// refuses to open such a store, and Clear keeps the recorded dimension,
// so a forced reindex does not reset it.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ChromemStore implements VectorStore on a persistent chromem-go database.
// Every upsert is durable on its own; there is no separate save step.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
	embedFunc  chromem.EmbeddingFunc
	dir        string
}

// NewChromemStore opens (or creates) the persistent store under dir.
// The embedder's dimension is pinned on first use; reopening with a
// different dimension fails with ErrDimensionMismatch.
func NewChromemStore(dir string, embedder embeddings.Embedder) (*ChromemStore, error) {
	if err := checkDimensions(dir, embedder.Dimensions()); err != nil {
		return nil, err
	}

	db, err := chromem.NewPersistentDB(dir, true)
	if err != nil {
		return nil, fmt.Errorf("opening vector store at %s: %w", dir, err)
	}

	ef := embeddings.ToChromemFunc(embedder)
	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("opening collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedder:   embedder,
		embedFunc:  ef,
		dir:        dir,
	}, nil
}

// checkDimensions pins the store's dimension on first open and verifies it
// afterwards.
func checkDimensions(dir string, dims int) error {
	path := filepath.Join(dir, dimsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating vector store dir: %w", err)
		}
		return os.WriteFile(path, []byte(strconv.Itoa(dims)), 0o644)
	}

	stored, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("corrupt dimension marker %s: %w", path, err)
	}
	if stored != dims {
		return fmt.Errorf("%w: store has %d, embedder produces %d", ErrDimensionMismatch, stored, dims)
	}
	return nil
}

// Index upserts the skill's record; an existing record with the same id is
// overwritten.
func (s *ChromemStore) Index(ctx context.Context, sk *skill.Skill) error {
	rec := NewRecord(sk)
	doc := chromem.Document{
		ID:       rec.ID,
		Content:  rec.Content,
		Metadata: metadataToMap(rec.Metadata),
	}
	if err := s.collection.AddDocuments(ctx, []chromem.Document{doc}, 1); err != nil {
		return fmt.Errorf("indexing %s: %w", rec.ID, err)
	}
	return nil
}

// Remove deletes the record for the given skill id, if present.
func (s *ChromemStore) Remove(ctx context.Context, skillID string) error {
	if err := s.collection.Delete(ctx, nil, nil, skillID); err != nil {
		return fmt.Errorf("removing %s: %w", skillID, err)
	}
	return nil
}

// Clear drops and recreates the collection. Safe to call repeatedly.
func (s *ChromemStore) Clear(ctx context.Context) error {
	if err := s.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("clearing collection: %w", err)
	}
	col, err := s.db.GetOrCreateCollection(collectionName, nil, s.embedFunc)
	if err != nil {
		return fmt.Errorf("recreating collection: %w", err)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, query string, topK int, filter *SearchFilter) ([]SearchResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}

	// Over-fetch when predicates the backend cannot express are pending,
	// so post-filtering still fills topK.
	fetch := topK
	if filter != nil && (len(filter.RepoIDs) > 0 || len(filter.Tags) > 0) {
		fetch = count
	}
	if fetch > count {
		fetch = count
	}

	results, err := s.collection.Query(ctx, query, fetch, whereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		md := mapToMetadata(r.Metadata)
		if !matchesPostFilter(md, filter) {
			continue
		}
		out = append(out, SearchResult{
			Record: Record{ID: r.ID, Content: r.Content, Metadata: md},
			// chromem reports raw cosine similarity; map it into [0,1].
			Score: (1 + float64(r.Similarity)) / 2,
		})
		if len(out) == topK {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Record.ID < out[j].Record.ID
	})

	return out, nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// Stats reports the record count and approximate on-disk footprint.
func (s *ChromemStore) Stats() (Stats, error) {
	var size int64
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			size += info.Size()
		}
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("sizing vector store: %w", err)
	}
	return Stats{Records: s.Count(), DiskBytes: size}, nil
}

// whereClause lowers the backend-expressible predicates into a chromem
// where map. Repo membership and tag containment are post-filtered.
func whereClause(filter *SearchFilter) map[string]string {
	if filter == nil {
		return nil
	}
	where := make(map[string]string)
	if filter.Category != "" {
		where["category"] = filter.Category
	}
	if len(filter.RepoIDs) == 1 {
		where["repo_id"] = filter.RepoIDs[0]
	}
	if len(where) == 0 {
		return nil
	}
	return where
}

func matchesPostFilter(md Metadata, filter *SearchFilter) bool {
	if filter == nil {
		return true
	}
	if len(filter.RepoIDs) > 1 {
		found := false
		for _, id := range filter.RepoIDs {
			if md.RepoID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, tag := range filter.Tags {
		if !md.HasTag(tag) {
			return false
		}
	}
	return true
}

func metadataToMap(m Metadata) map[string]string {
	return map[string]string{
		"skill_id":   m.SkillID,
		"name":       m.Name,
		"category":   m.Category,
		"tags":       m.Tags,
		"repo_id":    m.RepoID,
		"updated_at": m.UpdatedAt,
	}
}

func mapToMetadata(m map[string]string) Metadata {
	return Metadata{
		SkillID:   m["skill_id"],
		Name:      m["name"],
		Category:  m["category"],
		Tags:      m["tags"],
		RepoID:    m["repo_id"],
		UpdatedAt: m["updated_at"],
	}
}
