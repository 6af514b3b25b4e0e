package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain"
)

// Config holds the portfolio assistant configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Auth       AuthConfig       `yaml:"auth"`
	CORS       CORSConfig       `yaml:"cors"`
	Data       DataConfig       `yaml:"data"`
	Index      IndexConfig      `yaml:"index"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Rerank     RerankConfig     `yaml:"rerank"`
	Assemble   AssembleConfig   `yaml:"assemble"`
	Budget     BudgetConfig     `yaml:"budget"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. No keys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds cross-origin settings for the browser front-end.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxAgeSec      int      `yaml:"max_age_sec"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DataConfig locates the corpus and its derived artifacts.
type DataConfig struct {
	CorpusPath string `yaml:"corpus_path"`
	RulesPath  string `yaml:"rules_path"` // nonsense filter JSONL; empty uses built-in rules
	Owner      string `yaml:"owner"`      // name used in canned replies
}

// IndexConfig selects the Vector Index backend.
type IndexConfig struct {
	Backend string       `yaml:"backend"` // file, qdrant (default: file)
	Dir     string       `yaml:"dir"`
	Qdrant  QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds qdrant connection settings.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// DatabaseConfig holds KV store settings. No addrs runs without a KV store:
// no embedding cache and in-memory budget counters.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a KV store is configured.
func (d DatabaseConfig) Enabled() bool { return len(d.Addrs) > 0 }

// EmbeddingConfig holds the embedding provider settings. Any OpenAI-compatible
// endpoint works via base_url.
type EmbeddingConfig struct {
	Provider      string `yaml:"provider"` // openai (default)
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	Model         string `yaml:"model"`
	Dimensions    int    `yaml:"dimensions"`
	TimeoutSec    int    `yaml:"timeout_sec"`
	Retries       *int   `yaml:"retries"`         // 0 disables retries
	CacheTTLHours int    `yaml:"cache_ttl_hours"` // 0 = no expiry
}

// Timeout returns the per-attempt embedding timeout.
func (e EmbeddingConfig) Timeout() time.Duration { return time.Duration(e.TimeoutSec) * time.Second }

// RetryCount returns how many times a failed query embedding is retried.
func (e EmbeddingConfig) RetryCount() int { return derefInt(e.Retries, domain.DefaultEmbeddingRetries) }

// CacheTTL returns the embedding cache TTL.
func (e EmbeddingConfig) CacheTTL() time.Duration { return time.Duration(e.CacheTTLHours) * time.Hour }

// GenerationConfig holds the answer generation provider settings.
type GenerationConfig struct {
	Provider    string   `yaml:"provider"` // openai, anthropic, google
	APIKey      string   `yaml:"api_key"`
	BaseURL     string   `yaml:"base_url"`
	Model       string   `yaml:"model"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
	TimeoutSec  int      `yaml:"timeout_sec"`
	Retries     *int     `yaml:"retries"` // 0 disables retries
}

// Timeout returns the per-attempt generation timeout.
func (g GenerationConfig) Timeout() time.Duration { return time.Duration(g.TimeoutSec) * time.Second }

// RetryCount returns how many times a failed generation call is retried.
func (g GenerationConfig) RetryCount() int {
	return derefInt(g.Retries, domain.DefaultGenerationRetries)
}

// Temp returns the sampling temperature.
func (g GenerationConfig) Temp() float64 {
	if g.Temperature == nil {
		return domain.DefaultGenerationTemp
	}
	return *g.Temperature
}

// RetrievalConfig holds routing and retrieval thresholds. Scores are cosine similarity.
type RetrievalConfig struct {
	K              int     `yaml:"k"`
	SynthesisK     int     `yaml:"synthesis_k"`
	MinSimilarity  float64 `yaml:"min_similarity"`
	ConfidenceLow  float64 `yaml:"confidence_low"`
	ConfidenceHigh float64 `yaml:"confidence_high"`
	MinOverlap     float64 `yaml:"min_overlap"`
}

// RerankConfig holds composite score weights and result breadth.
type RerankConfig struct {
	TopK              int      `yaml:"top_k"`
	SynthesisTopK     int      `yaml:"synthesis_top_k"`
	TagWeight         *float64 `yaml:"tag_weight"`
	SubCategoryWeight *float64 `yaml:"sub_category_weight"`
	EntityWeight      *float64 `yaml:"entity_weight"`
	PerClientCap      *int     `yaml:"per_client_cap"` // 0 = unlimited
}

// ClientCap returns the per-client result cap; 0 means unlimited.
func (r RerankConfig) ClientCap() int { return derefInt(r.PerClientCap, domain.DefaultPerClientCap) }

// AssembleConfig holds context assembly settings.
type AssembleConfig struct {
	ContextBudget int `yaml:"context_budget"` // characters
}

// BudgetConfig holds token budget settings shared by embedding and generation.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool { return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0 }

// Load reads configuration from a YAML file by environment name (local, docker, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates one YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML after ${VAR} substitution, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.CORS.MaxAgeSec <= 0 {
		c.CORS.MaxAgeSec = 300
	}

	if c.Data.CorpusPath == "" {
		c.Data.CorpusPath = "data/stories.jsonl"
	}
	if c.Data.Owner == "" {
		c.Data.Owner = "Matt"
	}
	if c.Index.Backend == "" {
		c.Index.Backend = "file"
	}
	if c.Index.Dir == "" {
		c.Index.Dir = "data/index"
	}
	if c.Index.Qdrant.Port <= 0 {
		c.Index.Qdrant.Port = 6334
	}
	if c.Index.Qdrant.Collection == "" {
		c.Index.Qdrant.Collection = "portfolio_stories"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}

	c.applyProviderDefaults()
	c.applyTuningDefaults()

	if c.Budget.Action == "" {
		c.Budget.Action = "warn"
	}
}

func (c *Config) applyProviderDefaults() {
	e := &c.Embedding
	if e.Provider == "" {
		e.Provider = "openai"
	}
	if e.Model == "" {
		e.Model = domain.DefaultEmbeddingModel
	}
	if e.Dimensions <= 0 {
		e.Dimensions = domain.DefaultEmbeddingDimensions
	}
	if e.TimeoutSec <= 0 {
		e.TimeoutSec = 10
	}
	e.Retries = intOr(e.Retries, domain.DefaultEmbeddingRetries)

	g := &c.Generation
	if g.Provider == "" {
		g.Provider = "openai"
	}
	if g.Model == "" {
		g.Model = defaultGenerationModels[g.Provider]
	}
	if g.MaxTokens <= 0 {
		g.MaxTokens = domain.DefaultGenerationMaxTokens
	}
	if g.TimeoutSec <= 0 {
		g.TimeoutSec = 30
	}
	g.Retries = intOr(g.Retries, domain.DefaultGenerationRetries)
}

var defaultGenerationModels = map[string]string{
	"openai":    domain.DefaultGenerationModel,
	"anthropic": "claude-sonnet-4-5",
	"google":    "gemini-2.0-flash",
}

func (c *Config) applyTuningDefaults() {
	r := &c.Retrieval
	if r.K <= 0 {
		r.K = domain.DefaultRetrieveK
	}
	if r.SynthesisK <= 0 {
		r.SynthesisK = domain.DefaultSynthesisRetrieveK
	}
	if r.MinSimilarity <= 0 {
		r.MinSimilarity = domain.DefaultMinSimilarity
	}
	if r.ConfidenceLow <= 0 {
		r.ConfidenceLow = domain.DefaultConfidenceLow
	}
	if r.ConfidenceHigh <= 0 {
		r.ConfidenceHigh = domain.DefaultConfidenceHigh
	}
	if r.MinOverlap <= 0 {
		r.MinOverlap = domain.DefaultMinOverlap
	}

	rr := &c.Rerank
	if rr.TopK <= 0 {
		rr.TopK = domain.DefaultRerankTopK
	}
	if rr.SynthesisTopK <= 0 {
		rr.SynthesisTopK = domain.DefaultSynthesisRerankTopK
	}
	rr.TagWeight = orDefault(rr.TagWeight, domain.DefaultTagWeight)
	rr.SubCategoryWeight = orDefault(rr.SubCategoryWeight, domain.DefaultSubCategoryWeight)
	rr.EntityWeight = orDefault(rr.EntityWeight, domain.DefaultEntityWeight)
	rr.PerClientCap = intOr(rr.PerClientCap, domain.DefaultPerClientCap)

	if c.Assemble.ContextBudget <= 0 {
		c.Assemble.ContextBudget = domain.DefaultContextBudget
	}
}

func orDefault(v *float64, def float64) *float64 {
	if v != nil {
		return v
	}
	return &def
}

func intOr(v *int, def int) *int {
	if v != nil {
		return v
	}
	return &def
}

func derefInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// Validate checks the configuration for correctness. Call after ApplyDefaults.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Index.Backend {
	case "file":
	case "qdrant":
		if c.Index.Qdrant.Host == "" {
			return errors.New("index.qdrant.host is required for the qdrant backend")
		}
	default:
		return fmt.Errorf("index.backend must be \"file\" or \"qdrant\", got %q", c.Index.Backend)
	}

	if c.Embedding.Provider != "openai" {
		return fmt.Errorf("embedding.provider must be \"openai\", got %q", c.Embedding.Provider)
	}
	if _, ok := defaultGenerationModels[c.Generation.Provider]; !ok {
		return fmt.Errorf(
			"generation.provider must be \"openai\", \"anthropic\" or \"google\", got %q",
			c.Generation.Provider,
		)
	}
	if t := c.Generation.Temp(); t < 0 || t > 2 {
		return fmt.Errorf("generation.temperature must be between 0 and 2, got %v", t)
	}

	if err := c.validateTuning(); err != nil {
		return err
	}

	switch c.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("budget.action must be \"warn\" or \"reject\", got %q", c.Budget.Action)
	}
	if c.Budget.DailyTokenLimit < 0 || c.Budget.MonthlyTokenLimit < 0 {
		return errors.New("budget limits must be >= 0")
	}
	return nil
}

func (c *Config) validateTuning() error {
	r := c.Retrieval
	if r.ConfidenceHigh <= r.ConfidenceLow {
		return fmt.Errorf("retrieval.confidence_high (%v) must exceed confidence_low (%v)",
			r.ConfidenceHigh, r.ConfidenceLow)
	}
	if r.ConfidenceHigh > 1 {
		return fmt.Errorf("retrieval.confidence_high must be <= 1, got %v", r.ConfidenceHigh)
	}
	if r.MinSimilarity > r.ConfidenceLow {
		return fmt.Errorf("retrieval.min_similarity (%v) must not exceed confidence_low (%v)",
			r.MinSimilarity, r.ConfidenceLow)
	}
	if r.MinOverlap > 1 {
		return fmt.Errorf("retrieval.min_overlap must be <= 1, got %v", r.MinOverlap)
	}
	if r.K > domain.MaxRetrieveK || r.SynthesisK > domain.MaxRetrieveK {
		return fmt.Errorf("retrieval.k and synthesis_k must be <= %d", domain.MaxRetrieveK)
	}

	rr := c.Rerank
	for name, w := range map[string]*float64{
		"tag_weight": rr.TagWeight, "sub_category_weight": rr.SubCategoryWeight, "entity_weight": rr.EntityWeight,
	} {
		if w != nil && *w < 0 {
			return fmt.Errorf("rerank.%s must be >= 0, got %v", name, *w)
		}
	}
	if rr.ClientCap() < 0 {
		return fmt.Errorf("rerank.per_client_cap must be >= 0, got %d", rr.ClientCap())
	}
	if c.Embedding.RetryCount() < 0 || c.Generation.RetryCount() < 0 {
		return errors.New("embedding.retries and generation.retries must be >= 0")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
