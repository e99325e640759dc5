package model

import (
	"fmt"
	"time"
)

// Config holds every tunable of clauseguard.
// Calibration values for scoring (weights, thresholds, bonus, floor) live in
// the rule catalog instead, so they can change without a rebuild.
type Config struct {
	Engine EngineConfig `yaml:"engine" mapstructure:"engine"`
	Rules  RulesConfig  `yaml:"rules" mapstructure:"rules"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	LLM    LLMConfig    `yaml:"llm" mapstructure:"llm"`
	Audit  AuditConfig  `yaml:"audit" mapstructure:"audit"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
}

// EngineConfig controls the analysis pipeline
type EngineConfig struct {
	Workers              int           `yaml:"workers" mapstructure:"workers"`                               // Per-clause worker pool size
	MinStructuralMarkers int           `yaml:"min_structural_markers" mapstructure:"min_structural_markers"` // Below this, fall back to paragraphs
	TaggerURL            string        `yaml:"tagger_url" mapstructure:"tagger_url"`                         // Remote NER service; empty = built-in heuristics
	TaggerTimeout        time.Duration `yaml:"tagger_timeout" mapstructure:"tagger_timeout"`
	MaxFindings          int           `yaml:"max_findings" mapstructure:"max_findings"`         // 0 = keep all
	DefaultLanguage      Language      `yaml:"default_language" mapstructure:"default_language"` // Language for loaded sources; empty = detect
}

// RulesConfig points at an external rule catalog
type RulesConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty = embedded default catalog
}

// CacheConfig controls the report cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// LLMConfig controls optional plain-language explanations
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, "" = disabled
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"-" mapstructure:"api_key"` // Never written to disk
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	StrictReferences  bool    `yaml:"strict_references" mapstructure:"strict_references"`
	HTTPProxy         string  `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy        string  `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy           string  `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// AuditConfig controls the append-only audit trail
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Driver  string `yaml:"driver" mapstructure:"driver"` // jsonl or sqlite
	Path    string `yaml:"path" mapstructure:"path"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// FetchConfig controls loading contracts from http(s) URLs
type FetchConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBytes   int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	HTTPProxy  string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy" mapstructure:"no_proxy"`
	// Skip URLs the site's robots.txt disallows for our user agent
	RespectRobots bool `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers:              4,
			MinStructuralMarkers: 2,
			TaggerTimeout:        2 * time.Second,
			MaxFindings:          0,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       defaultCacheDir(),
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		LLM: LLMConfig{
			Timeout:           30,
			MaxTokens:         800,
			RequestsPerSecond: 1,
			Burst:             2,
			StrictReferences:  true,
		},
		Audit: AuditConfig{
			Enabled: false,
			Driver:  "jsonl",
			Path:    "clauseguard-audit.jsonl",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Server: ServerConfig{
			Addr:         ":8088",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
			MaxBodyBytes: 5_000_000,
		},
		Fetch: FetchConfig{
			Timeout:       15 * time.Second,
			UserAgent:     "clauseguard/0.1",
			MaxBytes:      5_000_000,
			RespectRobots: true,
		},
	}
}

// Validate checks values the engine cannot run with
func (c *Config) Validate() error {
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must be >= 0")
	}
	if c.Engine.MinStructuralMarkers < 1 {
		return fmt.Errorf("engine.min_structural_markers must be >= 1")
	}
	if c.Engine.DefaultLanguage != "" && !c.Engine.DefaultLanguage.Valid() {
		return fmt.Errorf("engine.default_language %q: %w", c.Engine.DefaultLanguage, ErrUnsupportedLanguage)
	}
	if c.Audit.Enabled {
		switch c.Audit.Driver {
		case "jsonl", "sqlite":
		default:
			return fmt.Errorf("audit.driver must be jsonl or sqlite, got %q", c.Audit.Driver)
		}
		if c.Audit.Path == "" {
			return fmt.Errorf("audit.path is required when audit.enabled=true")
		}
	}
	return nil
}

func defaultCacheDir() string {
	return "~/.clauseguard/cache"
}
