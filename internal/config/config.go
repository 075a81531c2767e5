package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SKILLHUB_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// SKILLHUB_DATA_ROOT -> data_root, SKILLHUB_EMBEDDING_DIM -> embedding.dim, etc.
	if err := k.Load(env.Provider("SKILLHUB_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "SKILLHUB_"))
		for _, section := range []string{"embedding_", "search_"} {
			if strings.HasPrefix(key, section) {
				return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
			}
		}
		return key
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized embedding provider values.
var validProviders = map[EmbeddingProvider]bool{
	ProviderHash:   true,
	ProviderOllama: true,
	ProviderOpenAI: true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataRoot == "" {
		return fmt.Errorf("data_root is required")
	}
	if c.SkillFilename == "" {
		return fmt.Errorf("skill_filename is required")
	}
	if strings.ContainsRune(c.SkillFilename, os.PathSeparator) {
		return fmt.Errorf("skill_filename must be a bare filename, got %q", c.SkillFilename)
	}

	if !validProviders[c.Embedding.Provider] {
		return fmt.Errorf("invalid embedding provider %q: must be one of hash, ollama, openai", c.Embedding.Provider)
	}
	if c.Embedding.Dim <= 0 {
		return fmt.Errorf("embedding dim must be positive")
	}

	s := c.Search
	if s.VectorWeight < 0 || s.GraphWeight < 0 {
		return fmt.Errorf("search weights must be non-negative")
	}
	if s.VectorWeight == 0 && s.GraphWeight == 0 {
		return fmt.Errorf("at least one search weight must be positive")
	}
	if s.ExpansionFactor < 3 {
		return fmt.Errorf("expansion_factor must be at least 3")
	}
	for name, v := range map[string]float64{
		"tag_boost":          s.TagBoost,
		"category_boost":     s.CategoryBoost,
		"neighborhood_boost": s.NeighborhoodBoost,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within [0,1]", name)
		}
	}

	if c.AutoUpdateMaxAgeHours < 0 {
		return fmt.Errorf("auto_update_max_age_hours must be non-negative")
	}

	for i, repo := range c.Repositories {
		if repo.URL == "" {
			return fmt.Errorf("repositories[%d]: url is required", i)
		}
		if repo.Priority < 0 || repo.Priority > 100 {
			return fmt.Errorf("repositories[%d]: priority must be within [0,100]", i)
		}
	}

	return nil
}
