package config

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

const (
	ProviderHash   EmbeddingProvider = "hash"
	ProviderOllama EmbeddingProvider = "ollama"
	ProviderOpenAI EmbeddingProvider = "openai"
)

// RepositoryConfig declares one skill source in the config file.
type RepositoryConfig struct {
	URL        string `yaml:"url" koanf:"url"`
	Priority   int    `yaml:"priority" koanf:"priority"`
	License    string `yaml:"license" koanf:"license"`
	AutoUpdate bool   `yaml:"auto_update" koanf:"auto_update"`
}

// EmbeddingConfig selects and sizes the embedder. Dim is fixed for the
// lifetime of a vector store; opening an existing store with a different
// Dim fails with vectordb.ErrDimensionMismatch.
type EmbeddingConfig struct {
	Provider EmbeddingProvider `yaml:"provider" koanf:"provider"`
	Model    string            `yaml:"model" koanf:"model"`
	Dim      int               `yaml:"dim" koanf:"dim"`
	BaseURL  string            `yaml:"base_url" koanf:"base_url"`
}

// SearchConfig holds the hybrid fusion constants.
type SearchConfig struct {
	VectorWeight      float64 `yaml:"vector_weight" koanf:"vector_weight"`
	GraphWeight       float64 `yaml:"graph_weight" koanf:"graph_weight"`
	ExpansionFactor   int     `yaml:"expansion_factor" koanf:"expansion_factor"`
	TagBoost          float64 `yaml:"tag_boost" koanf:"tag_boost"`
	CategoryBoost     float64 `yaml:"category_boost" koanf:"category_boost"`
	NeighborhoodBoost float64 `yaml:"neighborhood_boost" koanf:"neighborhood_boost"`
}

// Config is the top-level skillhub configuration, corresponding to
// .skillhub.yml.
type Config struct {
	DataRoot               string             `yaml:"data_root" koanf:"data_root"`
	SkillFilename          string             `yaml:"skill_filename" koanf:"skill_filename"`
	CompatibilityMode      bool               `yaml:"compatibility_mode" koanf:"compatibility_mode"`
	AutoUpdateMaxAgeHours  int                `yaml:"auto_update_max_age_hours" koanf:"auto_update_max_age_hours"`
	Include                []string           `yaml:"include" koanf:"include"`
	Exclude                []string           `yaml:"exclude" koanf:"exclude"`
	Embedding              EmbeddingConfig    `yaml:"embedding" koanf:"embedding"`
	Search                 SearchConfig       `yaml:"search" koanf:"search"`
	Repositories           []RepositoryConfig `yaml:"repositories" koanf:"repositories"`
}
