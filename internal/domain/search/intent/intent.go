package intent

// Intent is the retrieval shape a routed query asks for.
type Intent string

const (
	// Single asks about one anecdote: best matches, narrow top-k.
	Single Intent = "single"
	// Synthesis asks for cross-story themes: wider top-k with client diversity.
	Synthesis Intent = "synthesis"
)

// IsValid checks if the intent is one of the supported values.
func (i Intent) IsValid() bool {
	return i == Single || i == Synthesis
}
