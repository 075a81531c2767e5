package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/skillhub-dev/skillhub/internal/config"
	"github.com/skillhub-dev/skillhub/internal/discovery"
	"github.com/skillhub-dev/skillhub/internal/embeddings"
	"github.com/skillhub-dev/skillhub/internal/engine"
	"github.com/skillhub-dev/skillhub/internal/gitrepo"
	"github.com/skillhub-dev/skillhub/internal/graph"
	"github.com/skillhub-dev/skillhub/internal/metadata"
	"github.com/skillhub-dev/skillhub/internal/skill"
	"github.com/skillhub-dev/skillhub/internal/vectordb"
)

// loadConfig loads and validates the config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedder creates an embeddings.Embedder from config.
func createEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		model := e.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		return embeddings.NewOpenAIEmbedder(apiKey, model, e.Dim), nil
	case config.ProviderOllama:
		model := e.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return embeddings.NewOllamaEmbedder(model, e.Dim, e.BaseURL), nil
	default:
		return embeddings.NewHashEmbedder(e.Dim)
	}
}

// ensureDeclaredRepos clones any repository declared in the config file
// that is not yet registered, so declared sources only need `skillhub
// index` to become part of the corpus.
func ensureDeclaredRepos(ctx context.Context, c *core) {
	for _, declared := range c.cfg.Repositories {
		id, err := gitrepo.DeriveID(declared.URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: declared repository %q: %v\n", declared.URL, err)
			continue
		}
		if _, err := c.store.GetRepo(ctx, id); err == nil {
			continue
		}

		fmt.Fprintf(os.Stderr, "Cloning declared repository %s...\n", declared.URL)
		repo, err := c.manager.Add(ctx, declared.URL, declared.Priority, declared.License)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cloning %s: %v\n", declared.URL, err)
			continue
		}
		if declared.AutoUpdate {
			repo.AutoUpdate = true
			if err := c.store.UpdateRepo(ctx, repo); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: marking %s for auto-update: %v\n", repo.ID, err)
			}
		}
	}
}

// core bundles the wired components a command needs.
type core struct {
	cfg     *config.Config
	db      *metadata.DB
	store   *metadata.Store
	manager *gitrepo.Manager
	engine  *engine.Engine
}

func (c *core) Close() {
	c.db.Close()
}

// openCore wires the full stack: metadata store (with legacy migration),
// repository manager, vector store, graph (snapshot loaded when present),
// discovery, and engine.
func openCore() (*core, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := metadata.Open(cfg.MetadataDB())
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}

	store := metadata.NewStore(db)
	if n, err := store.MigrateLegacy(context.Background(), cfg.LegacyRepoFile()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating legacy repository file: %w", err)
	} else if n > 0 {
		fmt.Fprintf(os.Stderr, "Migrated %d repositor(ies) from %s\n", n, cfg.LegacyRepoFile())
	}

	embedder, err := createEmbedder(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	vec, err := vectordb.NewChromemStore(cfg.VectorDir(), embedder)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	parser := &skill.Parser{CompatibilityMode: cfg.CompatibilityMode}
	disc := discovery.New(cfg.SkillFilename, parser)
	disc.Include = cfg.Include
	disc.Exclude = cfg.Exclude

	g := graph.New()
	eng := engine.New(vec, g, store, disc, cfg.GraphSnapshot(), engine.Options{
		VectorWeight:      cfg.Search.VectorWeight,
		GraphWeight:       cfg.Search.GraphWeight,
		ExpansionFactor:   cfg.Search.ExpansionFactor,
		TagBoost:          cfg.Search.TagBoost,
		CategoryBoost:     cfg.Search.CategoryBoost,
		NeighborhoodBoost: cfg.Search.NeighborhoodBoost,
	})
	if err := eng.LoadSnapshot(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load graph snapshot: %v\n", err)
	}

	return &core{
		cfg:     cfg,
		db:      db,
		store:   store,
		manager: gitrepo.NewManager(cfg.ReposDir(), store, cfg.SkillFilename),
		engine:  eng,
	}, nil
}
