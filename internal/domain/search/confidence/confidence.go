// Package confidence classifies the best retrieval score against the
// confidence gate thresholds.
package confidence

// Level is the outcome of the confidence gate.
type Level string

const (
	// None means the best match is below the low threshold: no relevant stories.
	None Level = "none"
	// Low means the best match sits between the thresholds.
	Low Level = "low"
	// High means the best match is at or above the high threshold.
	High Level = "high"
)

// Classify gates a cosine similarity score: score < low is None,
// low <= score < high is Low, score >= high is High.
func Classify(score, low, high float64) Level {
	switch {
	case score < low:
		return None
	case score < high:
		return Low
	default:
		return High
	}
}
