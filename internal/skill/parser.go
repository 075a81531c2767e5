package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

const (
	minDescriptionLen = 10
	minInstructionLen = 50
	maxNameLen        = 64

	// Skills past these sizes still parse, but get flagged so authors
	// keep the always-loaded portion small.
	maxFrontmatterSize = 400
	maxBodySize        = 20000
)

// frontmatterRe splits a skill file into its fenced YAML header and body.
var frontmatterRe = regexp.MustCompile(`(?s)\A---\s*\n(.*?)\n---\s*\n?(.*)\z`)

// identifierRe is the allowed shape of a name once normalized.
var identifierRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// Parser converts skill files into validated Skill records.
type Parser struct {
	// CompatibilityMode downgrades name-shape violations to warnings,
	// accepting skills written for external skill specifications.
	CompatibilityMode bool
}

// Parse reads the file at path and returns a validated Skill. repoRoot is the
// repository the file belongs to and repoID its stable identifier; together
// with the file's directory they determine the skill id.
func (p *Parser) Parse(path, repoRoot, repoID string) (*Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Kind: MalformedFile, Path: path, Msg: fmt.Sprintf("reading file: %v", err)}
	}

	content := strings.TrimPrefix(string(data), "\ufeff")

	m := frontmatterRe.FindStringSubmatch(content)
	if m == nil {
		return nil, &ParseError{Kind: MalformedFile, Path: path, Msg: "missing front-matter fences"}
	}
	front, body := m[1], m[2]

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(front), &raw); err != nil {
		return nil, &ParseError{Kind: MalformedFile, Path: path, Msg: fmt.Sprintf("invalid front-matter: %v", err)}
	}
	if raw == nil {
		raw = map[string]any{}
	}

	// Compatibility shape: required fields may live under a nested
	// "metadata" object.
	if meta, ok := raw["metadata"].(map[string]any); ok {
		for _, key := range []string{"name", "description", "category", "version", "author"} {
			if _, present := raw[key]; !present {
				if v, found := meta[key]; found {
					raw[key] = v
				}
			}
		}
	}

	s := &Skill{
		Name:         stringField(raw, "name"),
		Description:  stringField(raw, "description"),
		Instructions: strings.TrimSpace(body),
		Category:     NormalizeCategory(stringField(raw, "category")),
		Tags:         stringSet(raw["tags"]),
		Dependencies: stringSet(raw["dependencies"]),
		Version:      stringField(raw, "version"),
		Author:       stringField(raw, "author"),
		FilePath:     path,
		RepoID:       repoID,
		Extra:        extraKeys(raw),
	}

	if info, err := os.Stat(path); err == nil {
		mtime := info.ModTime().UTC()
		s.UpdatedAt = &mtime
	}

	if err := p.validate(s, path, front); err != nil {
		return nil, err
	}

	s.ID = deriveID(path, repoRoot, repoID, s.Name)
	s.Examples = extractExamples(body)
	s.Warnings = append(s.Warnings, scanForSecrets(content)...)
	s.Warnings = append(s.Warnings, scanExamples(s.Examples)...)

	return s, nil
}

// validate enforces the hard schema rules and records size warnings.
func (p *Parser) validate(s *Skill, path, front string) error {
	if s.Name == "" {
		return &ParseError{Kind: SchemaViolation, Path: path, Msg: "missing required field: name"}
	}
	if s.Description == "" {
		return &ParseError{Kind: SchemaViolation, Path: path, Msg: "missing required field: description"}
	}
	if len(s.Description) < minDescriptionLen {
		return &ParseError{Kind: SchemaViolation, Path: path,
			Msg: fmt.Sprintf("description too short: %d chars (minimum %d)", len(s.Description), minDescriptionLen)}
	}
	if len(s.Instructions) < minInstructionLen {
		return &ParseError{Kind: SchemaViolation, Path: path,
			Msg: fmt.Sprintf("instructions too short: %d chars (minimum %d)", len(s.Instructions), minInstructionLen)}
	}

	if len(s.Name) > maxNameLen {
		return &ParseError{Kind: SchemaViolation, Path: path,
			Msg: fmt.Sprintf("name too long: %d chars (maximum %d)", len(s.Name), maxNameLen)}
	}
	if norm := NormalizeName(s.Name); !identifierRe.MatchString(norm) {
		msg := fmt.Sprintf("name %q is not a valid identifier after normalization (%q)", s.Name, norm)
		if !p.CompatibilityMode {
			return &ParseError{Kind: SchemaViolation, Path: path, Msg: msg}
		}
		s.Warnings = append(s.Warnings, msg)
	}

	if len(front) > maxFrontmatterSize {
		s.Warnings = append(s.Warnings,
			fmt.Sprintf("frontmatter is %d chars (recommended maximum %d)", len(front), maxFrontmatterSize))
	}
	if len(s.Instructions) > maxBodySize {
		s.Warnings = append(s.Warnings,
			fmt.Sprintf("body is %d chars (recommended maximum %d)", len(s.Instructions), maxBodySize))
	}

	return nil
}

// NormalizeName lowercases a display name and collapses spaces and
// underscores into hyphens, producing the identifier form.
func NormalizeName(name string) string {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.NewReplacer(" ", "-", "_", "-").Replace(norm)
	for strings.Contains(norm, "--") {
		norm = strings.ReplaceAll(norm, "--", "-")
	}
	return norm
}

// deriveID computes the corpus-wide skill identifier:
// {repo_id}/{relative_path_without_filename}. A skill at the repository
// root falls back to its normalized name as the path component.
func deriveID(path, repoRoot, repoID, name string) string {
	dir := filepath.Dir(path)
	rel, err := filepath.Rel(repoRoot, dir)
	if err != nil || rel == "." {
		return repoID + "/" + NormalizeName(name)
	}
	return repoID + "/" + filepath.ToSlash(rel)
}

// extractExamples walks the markdown body looking for an "Examples" heading
// and returns the bullet items that follow it, stopping at the next heading.
func extractExamples(body string) []string {
	source := []byte(body)
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))

	var examples []string
	inExamples := false

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(string(headingText(n, source)))
			inExamples = strings.EqualFold(title, "examples")
		case *ast.List:
			if !inExamples {
				continue
			}
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				if txt := strings.TrimSpace(string(nodeText(item, source))); txt != "" {
					examples = append(examples, txt)
				}
			}
		}
	}

	return examples
}

func headingText(h *ast.Heading, source []byte) []byte {
	var sb strings.Builder
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		sb.Write(nodeText(c, source))
	}
	return []byte(sb.String())
}

// nodeText flattens the text content of a node and its descendants.
func nodeText(n ast.Node, source []byte) []byte {
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Value(source)
	}
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		sb.Write(nodeText(c, source))
	}
	return []byte(sb.String())
}

// stringField reads a scalar front-matter value as a trimmed string.
func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case int:
		return fmt.Sprintf("%d", v)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	default:
		return ""
	}
}

// stringSet reads a front-matter list into a deduplicated, order-preserving
// slice of lowercase tokens. A bare string is read as a comma-separated list.
func stringSet(v any) []string {
	var items []string
	switch vv := v.(type) {
	case []any:
		for _, item := range vv {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	case string:
		for _, part := range strings.Split(vv, ",") {
			items = append(items, part)
		}
	}

	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		token := strings.ToLower(strings.TrimSpace(item))
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}

// coreKeys are the front-matter keys the parser interprets directly.
var coreKeys = map[string]bool{
	"name": true, "description": true, "category": true, "tags": true,
	"dependencies": true, "version": true, "author": true,
}

// extraKeys returns the front-matter keys the core ignores but preserves.
func extraKeys(raw map[string]any) map[string]any {
	var extra map[string]any
	for k, v := range raw {
		if coreKeys[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}
