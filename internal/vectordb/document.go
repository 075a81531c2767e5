package vectordb

import (
	"strings"
	"time"

	"github.com/skillhub-dev/skillhub/internal/skill"
)

// Record is one persisted entry in the vector store: the embeddable text,
// its vector (owned by the backend), and the filterable metadata map.
type Record struct {
	ID       string
	Content  string
	Metadata Metadata
}

// Metadata holds the filterable fields stored alongside each vector.
// Tags are kept as a comma-delimited string because the backing store
// only allows scalar metadata values in filter predicates.
type Metadata struct {
	SkillID   string
	Name      string
	Category  string
	Tags      string
	RepoID    string
	UpdatedAt string // RFC 3339 UTC, or empty when unknown
}

// SearchResult pairs a record with its similarity score in [0,1].
type SearchResult struct {
	Record Record
	Score  float64
}

// SearchFilter narrows a search with conjunctive predicates.
type SearchFilter struct {
	Category string   // exact match when non-empty
	RepoIDs  []string // membership when non-empty
	Tags     []string // every listed tag must be present
}

// EmbedTextClip bounds how much of the instruction body feeds the embedder.
const EmbedTextClip = 1000

// EmbeddableText composes the text fed to the embedder: descriptive fields
// first, then a clipped slice of the body. Order and separators are fixed so
// the same skill always embeds identically.
func EmbeddableText(s *skill.Skill) string {
	instructions := s.Instructions
	if len(instructions) > EmbedTextClip {
		instructions = instructions[:EmbedTextClip]
	}
	parts := []string{
		s.Name,
		s.Description,
		string(s.Category),
		strings.Join(s.Tags, " "),
		instructions,
	}
	return strings.Join(parts, "\n")
}

// NewRecord builds the stored representation of a skill.
func NewRecord(s *skill.Skill) Record {
	var updated string
	if s.UpdatedAt != nil {
		updated = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return Record{
		ID:      s.ID,
		Content: EmbeddableText(s),
		Metadata: Metadata{
			SkillID:   s.ID,
			Name:      s.Name,
			Category:  string(s.Category),
			Tags:      JoinTags(s.Tags),
			RepoID:    s.RepoID,
			UpdatedAt: updated,
		},
	}
}

// JoinTags encodes a tag set as a comma-delimited string.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}

// SplitTags decodes a comma-delimited tag string back into a set.
func SplitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// HasTag reports whether the delimited tag string contains the given tag,
// anchored on delimiters so "go" does not match "golang".
func (m Metadata) HasTag(tag string) bool {
	return strings.Contains(","+m.Tags+",", ","+tag+",")
}
