package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/skillhub-dev/skillhub/internal/metadata"
)

// Error kinds surfaced by repository operations.
var (
	ErrAlreadyExists = errors.New("repository already exists")
	ErrCloneFailed   = errors.New("clone failed")
	ErrFetchFailed   = errors.New("fetch failed")
	ErrCorruptClone  = errors.New("corrupt clone")
)

// DefaultPriority is assigned when the caller does not specify one.
const DefaultPriority = 50

// Manager owns the lifecycle of cloned skill repositories under baseDir.
// Clones are treated as read-only mirrors of upstream: updates fetch and
// hard-reset, never merge. At most one git operation runs per repository
// at a time.
type Manager struct {
	baseDir       string
	store         *metadata.Store
	skillFilename string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a manager that clones under baseDir and records
// state in store. skillFilename is the basename counted after syncs.
func NewManager(baseDir string, store *metadata.Store, skillFilename string) *Manager {
	return &Manager{
		baseDir:       baseDir,
		store:         store,
		skillFilename: skillFilename,
		locks:         make(map[string]*sync.Mutex),
	}
}

// repoLock returns the per-repository mutex, creating it on first use.
func (m *Manager) repoLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

// Add clones the repository at url and registers it.
func (m *Manager) Add(ctx context.Context, url string, priority int, license string) (*metadata.Repository, error) {
	return m.AddWithProgress(ctx, url, priority, license, nil)
}

// AddWithProgress is Add with transfer progress reported through cb.
func (m *Manager) AddWithProgress(ctx context.Context, url string, priority int, license string, cb ProgressFunc) (*metadata.Repository, error) {
	id, err := DeriveID(url)
	if err != nil {
		return nil, err
	}
	if priority < 0 || priority > 100 {
		priority = DefaultPriority
	}

	lock := m.repoLock(id)
	lock.Lock()
	defer lock.Unlock()

	if _, err := m.store.GetRepo(ctx, id); err == nil {
		return nil, fmt.Errorf("repository %s: %w", id, ErrAlreadyExists)
	} else if !errors.Is(err, metadata.ErrRepoNotFound) {
		return nil, err
	}

	localPath := filepath.Join(m.baseDir, id)
	if err := m.clone(ctx, url, localPath, cb); err != nil {
		os.RemoveAll(localPath)
		return nil, err
	}

	now := time.Now().UTC()
	repo := &metadata.Repository{
		ID:          id,
		URL:         url,
		LocalPath:   localPath,
		Priority:    priority,
		License:     license,
		SkillCount:  CountSkillFiles(localPath, m.skillFilename),
		LastUpdated: &now,
	}
	if err := m.store.AddRepo(ctx, repo); err != nil {
		os.RemoveAll(localPath)
		return nil, err
	}
	return repo, nil
}

// clone performs a shallow depth-1 clone.
func (m *Manager) clone(ctx context.Context, url, localPath string, cb ProgressFunc) error {
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("creating repos directory: %w", err)
	}

	var progress io.Writer
	if cb != nil {
		progress = newProgressWriter(cb)
	}

	_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
		URL:      url,
		Depth:    1,
		Progress: progress,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: cloning %s: %v", ErrCloneFailed, url, err)
	}
	return nil
}

// Update fetches origin and hard-resets the working tree to the remote
// head of the active branch, then refreshes the stored record.
func (m *Manager) Update(ctx context.Context, id string) (*metadata.Repository, error) {
	return m.UpdateWithProgress(ctx, id, nil)
}

// UpdateWithProgress is Update with transfer progress reported through cb.
func (m *Manager) UpdateWithProgress(ctx context.Context, id string, cb ProgressFunc) (*metadata.Repository, error) {
	lock := m.repoLock(id)
	lock.Lock()
	defer lock.Unlock()

	repo, err := m.store.GetRepo(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := m.fetchAndReset(ctx, repo.LocalPath, cb); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	repo.SkillCount = CountSkillFiles(repo.LocalPath, m.skillFilename)
	repo.LastUpdated = &now
	if err := m.store.UpdateRepo(ctx, repo); err != nil {
		return nil, err
	}
	return repo, nil
}

// fetchAndReset brings the working copy in line with upstream regardless
// of any local perturbation. Updates are idempotent.
func (m *Manager) fetchAndReset(ctx context.Context, localPath string, cb ProgressFunc) error {
	r, err := git.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrCorruptClone, localPath, err)
	}

	var progress io.Writer
	if cb != nil {
		progress = newProgressWriter(cb)
	}

	err = r.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Progress:   progress,
		Force:      true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: fetching %s: %v", ErrFetchFailed, localPath, err)
	}

	head, err := r.Head()
	if err != nil {
		return fmt.Errorf("%w: resolving HEAD in %s: %v", ErrCorruptClone, localPath, err)
	}
	branch := head.Name().Short()

	target := head.Hash()
	remoteRef, err := r.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err == nil {
		target = remoteRef.Hash()
	}

	wt, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("%w: opening worktree in %s: %v", ErrCorruptClone, localPath, err)
	}
	if err := wt.Reset(&git.ResetOptions{Mode: git.HardReset, Commit: target}); err != nil {
		return fmt.Errorf("%w: resetting %s to origin/%s: %v", ErrFetchFailed, localPath, branch, err)
	}
	return nil
}

// List returns all registered repositories.
func (m *Manager) List(ctx context.Context) ([]metadata.Repository, error) {
	return m.store.ListRepos(ctx)
}

// Remove deletes the repository record and its on-disk clone.
func (m *Manager) Remove(ctx context.Context, id string) error {
	lock := m.repoLock(id)
	lock.Lock()
	defer lock.Unlock()

	repo, err := m.store.GetRepo(ctx, id)
	if err != nil {
		return err
	}
	if err := m.store.RemoveRepo(ctx, id); err != nil {
		return err
	}

	// Refuse to remove paths outside the managed base directory.
	if rel, err := filepath.Rel(m.baseDir, repo.LocalPath); err == nil && !filepath.IsLocal(rel) {
		return fmt.Errorf("clone path %s is outside the managed directory", repo.LocalPath)
	}
	if err := os.RemoveAll(repo.LocalPath); err != nil {
		return fmt.Errorf("removing clone %s: %w", repo.LocalPath, err)
	}
	return nil
}

// ShouldUpdate reports whether the repository's last sync is older than
// maxAge. Repositories that never synced always qualify. Scheduling is
// the caller's concern; this is a pure predicate.
func ShouldUpdate(repo *metadata.Repository, maxAge time.Duration) bool {
	if repo.LastUpdated == nil {
		return true
	}
	return time.Now().UTC().Sub(*repo.LastUpdated) > maxAge
}

// CountSkillFiles recursively counts files under root whose basename
// matches filename, skipping the .git directory.
func CountSkillFiles(root, filename string) int {
	count := 0
	filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == filename {
			count++
		}
		return nil
	})
	return count
}
