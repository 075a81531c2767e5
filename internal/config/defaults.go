package config

import (
	"os"
	"path/filepath"
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		DataRoot:              filepath.Join(home, ".skillhub"),
		SkillFilename:         "SKILL.md",
		CompatibilityMode:     true,
		AutoUpdateMaxAgeHours: 24,
		Embedding: EmbeddingConfig{
			Provider: ProviderHash,
			Dim:      384,
		},
		Search: SearchConfig{
			VectorWeight:      0.7,
			GraphWeight:       0.3,
			ExpansionFactor:   5,
			TagBoost:          0.5,
			CategoryBoost:     0.3,
			NeighborhoodBoost: 0.1,
		},
	}
}

// Paths derived from the data root. Each component owns its own subtree.

func (c *Config) ReposDir() string     { return filepath.Join(c.DataRoot, "repos") }
func (c *Config) VectorDir() string    { return filepath.Join(c.DataRoot, "vector") }
func (c *Config) GraphSnapshot() string { return filepath.Join(c.DataRoot, "graph.snapshot") }
func (c *Config) MetadataDB() string   { return filepath.Join(c.DataRoot, "metadata.db") }

// LegacyRepoFile is the flat-file snapshot older releases wrote; it is
// migrated into the metadata store on first open.
func (c *Config) LegacyRepoFile() string { return filepath.Join(c.DataRoot, "repositories.json") }
