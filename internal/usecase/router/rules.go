package router

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// CategoryOther labels rules loaded without a category.
const CategoryOther = "other"

// Rule is one off-domain blocklist pattern. Patterns match case-insensitively.
type Rule struct {
	Pattern  *regexp.Regexp
	Category string
}

func mustRule(pattern, category string) Rule {
	return Rule{Pattern: regexp.MustCompile(`(?i)` + pattern), Category: category}
}

// DefaultRules is the built-in blocklist, checked in order. Terms stay
// phrase-level so business usage ("revenue forecast", "buy the roadmap") passes.
// Shopping precedes sports so "baseball caps at Walmart" reads as retail.
func DefaultRules() []Rule {
	return []Rule{
		mustRule(`\b(weather|will it (rain|snow)|is it (raining|snowing)|humidity|temperature (today|tomorrow|outside))\b`, "weather"),
		mustRule(`\b(walmart|costco|ebay|best buy|target store|coupons?|discount code|cheapest|on sale|buy (a|an) (new )?\w+ (at|from|online)|shopping|sneakers)\b`, "shopping"),
		mustRule(`\b(baseball|football|soccer|basketball|nba|nfl|mlb|super bowl|world cup|score of the game)\b`, "sports"),
		mustRule(`\b(recipe|bake|cooking|ingredients?|how to cook)\b`, "food"),
		mustRule(`\b(bitcoin|ethereum|crypto(currency)?|stock tips?|lottery)\b`, "finance"),
		mustRule(`\b(capital of|who won the (game|match|election|oscars?|super bowl|world cup)|trivia|how tall is|how old is|population of)\b`, "trivia"),
		mustRule(`\b(tell me a joke|joke|poem|song lyrics|horoscope|movie times?)\b`, "entertainment"),
	}
}

type ruleLine struct {
	Pattern  string `json:"pattern"`
	Category string `json:"category"`
}

// LoadRules reads {"pattern","category"} JSONL. Lines with bad JSON, an empty
// pattern or an invalid regex are skipped with a warning.
func LoadRules(path string, logger *zap.Logger) ([]Rule, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open rules %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var rules []Rule
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rl ruleLine
		if err := json.Unmarshal([]byte(text), &rl); err != nil {
			logger.Warn("Skipping rule line", zap.String("path", path), zap.Int("line", line), zap.Error(err))
			continue
		}
		if rl.Pattern == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)` + rl.Pattern)
		if err != nil {
			logger.Warn("Skipping invalid rule pattern",
				zap.String("path", path), zap.Int("line", line), zap.String("pattern", rl.Pattern), zap.Error(err))
			continue
		}
		category := strings.TrimSpace(rl.Category)
		if category == "" {
			category = CategoryOther
		}
		rules = append(rules, Rule{Pattern: re, Category: category})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	return rules, nil
}
