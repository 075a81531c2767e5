package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/skillhub-dev/skillhub/internal/metadata"
	"github.com/skillhub-dev/skillhub/internal/skill"
)

// Found is one discovered skill file, not yet parsed.
type Found struct {
	Path    string // absolute path on disk
	RelPath string // path relative to the repository root
	RepoID  string
	Root    string // repository root the file was found under
}

// Discoverer walks repository clones looking for skill files.
type Discoverer struct {
	SkillFilename string
	Include       []string
	Exclude       []string
	Parser        *skill.Parser
}

// New creates a discoverer for the given skill filename.
func New(skillFilename string, parser *skill.Parser) *Discoverer {
	return &Discoverer{SkillFilename: skillFilename, Parser: parser}
}

// DiscoverAll walks every repository and returns all skill files in a
// stable order: repositories by id, files by relative path. Unreadable
// subtrees are skipped, not fatal.
func (d *Discoverer) DiscoverAll(repos []metadata.Repository) ([]Found, error) {
	sorted := make([]metadata.Repository, len(repos))
	copy(sorted, repos)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var all []Found
	for _, repo := range sorted {
		found, err := d.DiscoverRepo(repo)
		if err != nil {
			return nil, fmt.Errorf("discovering skills in %s: %w", repo.ID, err)
		}
		all = append(all, found...)
	}
	return all, nil
}

// DiscoverRepo walks a single repository root.
func (d *Discoverer) DiscoverRepo(repo metadata.Repository) ([]Found, error) {
	root, err := filepath.Abs(repo.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("resolving root: %w", err)
	}

	var found []Found
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Skip entries we cannot read instead of aborting.
			return nil
		}
		if entry.IsDir() {
			if shouldExcludeDir(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() || entry.Name() != d.SkillFilename {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if !MatchesInclude(relPath, d.Include) || MatchesExclude(relPath, d.Exclude) {
			return nil
		}

		found = append(found, Found{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			RepoID:  repo.ID,
			Root:    root,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("traversal: %w", err)
	}

	sort.Slice(found, func(i, j int) bool { return found[i].RelPath < found[j].RelPath })
	return found, nil
}

// Parse runs the skill parser over a discovered file.
func (d *Discoverer) Parse(f Found) (*skill.Skill, error) {
	return d.Parser.Parse(f.Path, f.Root, f.RepoID)
}
