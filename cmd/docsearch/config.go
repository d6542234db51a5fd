package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/retrieve"
)

// fileConfig mirrors the optional YAML configuration file. Every field has
// a default, so an absent file or a partial file both work.
type fileConfig struct {
	DB string `yaml:"db"`

	AI struct {
		EmbeddingHost  string `yaml:"embedding_host"`
		ScorerHost     string `yaml:"scorer_host"`
		EmbeddingModel string `yaml:"embedding_model"`
		ScorerModel    string `yaml:"scorer_model"`
	} `yaml:"ai"`

	Chunking struct {
		Tokens  int `yaml:"tokens"`
		Overlap int `yaml:"overlap"`
	} `yaml:"chunking"`

	Retrieval struct {
		TopKLexical  int `yaml:"top_k_lexical"`
		TopKDense    int `yaml:"top_k_dense"`
		RRFK         int `yaml:"rrf_k"`
		Neighborhood int `yaml:"neighborhood"`
		FinalK       int `yaml:"final_k"`

		Rerank struct {
			Enabled  bool    `yaml:"enabled"`
			TopK     int     `yaml:"top_k"`
			MinScore float64 `yaml:"min_score"`
		} `yaml:"rerank"`
	} `yaml:"retrieval"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func defaultFileConfig() *fileConfig {
	cfg := &fileConfig{DB: "./docsearch_db"}

	retrieval := retrieve.DefaultConfig()
	cfg.Retrieval.TopKLexical = retrieval.TopKLexical
	cfg.Retrieval.TopKDense = retrieval.TopKDense
	cfg.Retrieval.RRFK = retrieval.RRFK
	cfg.Retrieval.Neighborhood = retrieval.Neighborhood
	cfg.Retrieval.FinalK = retrieval.FinalK
	cfg.Retrieval.Rerank.Enabled = retrieval.Rerank.Enabled
	cfg.Retrieval.Rerank.TopK = retrieval.Rerank.TopK
	cfg.Retrieval.Rerank.MinScore = retrieval.Rerank.MinScore

	cfg.Server.Port = 8080
	return cfg
}

// loadFileConfig reads the YAML file at path over the defaults. An empty
// path returns the defaults unchanged.
func loadFileConfig(path string) (*fileConfig, error) {
	cfg := defaultFileConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// aiConfig builds the AI service configuration: environment variables
// first, then YAML overrides on top.
func (c *fileConfig) aiConfig() (*ai.Config, error) {
	config, err := ai.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	if c.AI.EmbeddingHost != "" {
		config.EmbeddingHost = c.AI.EmbeddingHost
	}
	if c.AI.ScorerHost != "" {
		config.ScorerHost = c.AI.ScorerHost
	}
	if c.AI.EmbeddingModel != "" {
		config.EmbeddingModel = c.AI.EmbeddingModel
	}
	if c.AI.ScorerModel != "" {
		config.ScorerModel = c.AI.ScorerModel
	}
	config.Normalize()
	return config, nil
}

func (c *fileConfig) retrievalConfig() retrieve.Config {
	return retrieve.Config{
		TopKLexical:  c.Retrieval.TopKLexical,
		TopKDense:    c.Retrieval.TopKDense,
		RRFK:         c.Retrieval.RRFK,
		Neighborhood: c.Retrieval.Neighborhood,
		FinalK:       c.Retrieval.FinalK,
		Rerank: retrieve.RerankConfig{
			Enabled:  c.Retrieval.Rerank.Enabled,
			TopK:     c.Retrieval.Rerank.TopK,
			MinScore: c.Retrieval.Rerank.MinScore,
		},
	}
}
