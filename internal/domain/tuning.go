package domain

// KeyPrefix namespaces every key this service writes to the KV store.
const KeyPrefix = "portfolio:"

// Retrieval and ranking defaults. Config applies these once; call sites never
// hardcode their own copies.
const (
	// Cosine similarity thresholds for the confidence gate. High must exceed Low.
	DefaultConfidenceHigh = 0.25
	DefaultConfidenceLow  = 0.20
	// DefaultMinSimilarity drops individual hits below this cosine score.
	DefaultMinSimilarity = 0.15

	DefaultRetrieveK          = 7
	DefaultSynthesisRetrieveK = 12
	MaxRetrieveK              = 50

	DefaultRerankTopK          = 3
	DefaultSynthesisRerankTopK = 5
	DefaultTagWeight           = 0.3
	DefaultSubCategoryWeight   = 0.5
	DefaultEntityWeight        = 1.0
	DefaultPerClientCap        = 1
	// DefaultSynthesisThemeCap limits synthesis results to this many per theme.
	DefaultSynthesisThemeCap = 3

	// DefaultMinOverlap is the vocabulary overlap ratio under which a blocklisted query is rejected.
	DefaultMinOverlap = 0.15

	// DefaultContextBudget caps the assembled context in characters.
	DefaultContextBudget = 6000
)

// Embedding and generation defaults.
const (
	DefaultEmbeddingModel      = "text-embedding-3-small"
	DefaultEmbeddingDimensions = 1536
	DefaultGenerationModel     = "gpt-4o"
	DefaultGenerationMaxTokens = 500
	DefaultGenerationTemp      = 0.7
	// DefaultEmbeddingRetries retries the query embedding once before surfacing the failure.
	DefaultEmbeddingRetries  = 1
	DefaultGenerationRetries = 2
)
