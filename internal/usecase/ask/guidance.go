package ask

import (
	"strings"

	"github.com/mcpugmire1/llm-portfolio-assistant/internal/domain/story"
)

type guidance struct {
	emphasize, voice, position, proof, pattern string
}

var themeGuides = map[string]guidance{
	story.ThemeExecution: {
		emphasize: "scale, velocity, production quality, technical complexity",
		voice:     "{owner} delivered [system] at scale for [client]...",
		position:  "Executive who ships production software",
		proof:     "deployment metrics, system performance, reliability outcomes",
		pattern:   "Technical execution + operational excellence",
	},
	story.ThemeStrategic: {
		emphasize: "thought partnership, strategic framing, business alignment",
		voice:     "{owner} shaped [strategy] by bridging [business need] with [technical approach]...",
		position:  "Trusted advisor and strategic thought partner",
		proof:     "business outcomes, alignment achieved, decisions influenced",
		pattern:   "Strategic thinking + business translation",
	},
	story.ThemeOrgTransform: {
		emphasize: "culture change, process improvement, sustainable practices",
		voice:     "{owner} transformed how [team/org] worked by introducing [approach]...",
		position:  "Change agent and organizational architect",
		proof:     "adoption rates, velocity improvements, cultural shifts",
		pattern:   "Change leadership + sustainable transformation",
	},
	story.ThemeTalent: {
		emphasize: "capability building, mentorship impact, sustainable skills",
		voice:     "{owner} built [capability] by coaching [team] on [skill]...",
		position:  "Teacher, mentor, capability builder",
		proof:     "team growth, skill development, career progression",
		pattern:   "Human development + capability multiplication",
	},
	story.ThemeRisk: {
		emphasize: "governance frameworks, compliance, ethical considerations",
		voice:     "{owner} established [governance approach] to ensure [outcome]...",
		position:  "Responsible tech advocate and risk manager",
		proof:     "compliance achieved, risks mitigated, trust established",
		pattern:   "Risk management + responsible innovation",
	},
	story.ThemeEmergingTech: {
		emphasize: "innovation, experimentation, cutting-edge exploration",
		voice:     "{owner} pioneered [technology] by exploring [approach]...",
		position:  "Innovation leader and technology scout",
		proof:     "experiments run, insights gained, future capabilities unlocked",
		pattern:   "Innovation leadership + pragmatic exploration",
	},
}

// themeGuidance renders the framing block for a theme. Unknown themes get
// the Execution & Delivery block.
func themeGuidance(theme, owner string) string {
	g, ok := themeGuides[theme]
	if !ok {
		theme, g = story.ThemeExecution, themeGuides[story.ThemeExecution]
	}
	var b strings.Builder
	b.WriteString(strings.ToUpper(theme) + " stories:\n")
	b.WriteString("- Emphasize: " + g.emphasize + "\n")
	b.WriteString("- Voice: \"" + strings.ReplaceAll(g.voice, "{owner}", owner) + "\"\n")
	b.WriteString("- Position: " + g.position + "\n")
	b.WriteString("- Proof points: " + g.proof + "\n")
	b.WriteString("- Pattern: " + g.pattern)
	return b.String()
}
